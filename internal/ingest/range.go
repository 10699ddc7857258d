package ingest

import "fmt"

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From int64
	To   int64
}

// SplitRange splits a block range into chunks of at most chunkSize blocks.
func SplitRange(from, to, chunkSize int64) ([]BlockRange, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	ranges := make([]BlockRange, 0)
	start := from
	for start <= to {
		remaining := to - start + 1
		var end int64
		if remaining <= chunkSize {
			end = to
		} else {
			end = start + chunkSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}
