package ingest

// Merge folds incoming records into existing ones by natural key. A record
// that replaces an existing key keeps that key's position; unseen keys append
// in incoming order. Replaying the same batch is a no-op, so dataset files
// stay byte-stable across overlapping runs.
func Merge[T any](existing, incoming []T, key func(T) string) []T {
	merged := make([]T, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))

	upsert := func(rec T) {
		k := key(rec)
		if at, ok := index[k]; ok {
			merged[at] = rec
			return
		}
		index[k] = len(merged)
		merged = append(merged, rec)
	}

	for _, rec := range existing {
		upsert(rec)
	}
	for _, rec := range incoming {
		upsert(rec)
	}
	return merged
}
