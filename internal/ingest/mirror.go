package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"bridgeScope/internal/storage/postgres"
)

// mirrorRecords copies a dataset into the optional Postgres mirror. A nil
// store disables mirroring. The JSON files stay the source of truth, so
// callers treat a returned error as a warning, not a run failure.
func mirrorRecords[T any](ctx context.Context, pg *postgres.Store, source, dataset string, records []T, key func(T) string) error {
	if pg == nil || len(records) == 0 {
		return nil
	}

	rows := make([]postgres.Record, 0, len(records))
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal %s record: %w", dataset, err)
		}
		rows = append(rows, postgres.Record{Key: key(rec), Payload: payload})
	}
	return pg.UpsertRecords(ctx, source, dataset, rows)
}
