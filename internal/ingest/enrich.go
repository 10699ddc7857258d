package ingest

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// BlockTimestamper resolves a block number to its ISO 8601 timestamp.
type BlockTimestamper interface {
	BlockTimestamp(ctx context.Context, number int64) (string, error)
}

// ResolveTimestamps looks up each distinct block once, in ascending order.
// Lookup failures are logged and skipped; the affected records keep an empty
// timestamp and pick one up on a later run.
func ResolveTimestamps(ctx context.Context, src BlockTimestamper, blocks []int64, logger *zap.Logger) map[int64]string {
	if logger == nil {
		logger = zap.NewNop()
	}

	seen := make(map[int64]bool, len(blocks))
	unique := make([]int64, 0, len(blocks))
	for _, b := range blocks {
		if b <= 0 || seen[b] {
			continue
		}
		seen[b] = true
		unique = append(unique, b)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	stamps := make(map[int64]string, len(unique))
	for _, b := range unique {
		ts, err := src.BlockTimestamp(ctx, b)
		if err != nil {
			logger.Warn("block timestamp lookup failed", zap.Int64("block", b), zap.Error(err))
			continue
		}
		if ts != "" {
			stamps[b] = ts
		}
	}
	return stamps
}

// MissingStamps returns the block numbers of records whose timestamp is still
// empty. The accessor points at a record's timestamp field and block number.
func MissingStamps[T any](recs []T, at func(*T) (*string, int64)) []int64 {
	var blocks []int64
	for i := range recs {
		if ts, block := at(&recs[i]); *ts == "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// FillStamps writes resolved timestamps into records that lack one.
func FillStamps[T any](recs []T, stamps map[int64]string, at func(*T) (*string, int64)) {
	for i := range recs {
		ts, block := at(&recs[i])
		if *ts != "" {
			continue
		}
		if v, ok := stamps[block]; ok {
			*ts = v
		}
	}
}
