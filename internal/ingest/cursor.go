package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cursor tracks the highest block a fully successful run has observed.
type Cursor struct {
	LastBlock int64  `json:"last_block"`
	UpdatedAt string `json:"updated_at"`
}

// CursorStore loads and saves a collector's sync position. Save runs once per
// run, after every dataset write has succeeded.
type CursorStore interface {
	Load() (Cursor, bool, error)
	Save(lastBlock int64) error
}

// FileCursorStore persists the cursor as a small JSON file next to the
// datasets it guards.
type FileCursorStore struct {
	path string
}

func NewFileCursorStore(path string) *FileCursorStore {
	return &FileCursorStore{path: path}
}

// Load returns the stored cursor. A missing or malformed file reports absent,
// which routes the next run through a full backfill instead of failing it.
func (c *FileCursorStore) Load() (Cursor, bool, error) {
	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Cursor{}, false, nil
		}
		return Cursor{}, false, fmt.Errorf("stat cursor: %w", err)
	}
	if stat.IsDir() {
		return Cursor{}, false, fmt.Errorf("cursor path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return Cursor{}, false, fmt.Errorf("read cursor: %w", err)
	}

	var cur Cursor
	if err := json.Unmarshal(data, &cur); err != nil {
		return Cursor{}, false, nil
	}

	return cur, true, nil
}

// Save writes the cursor atomically via a temp file rename.
func (c *FileCursorStore) Save(lastBlock int64) error {
	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cursor dir: %w", err)
		}
	}

	cur := Cursor{
		LastBlock: lastBlock,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write cursor tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename cursor: %w", err)
	}

	return nil
}

// StartBlock decides where a run begins scanning. Incremental runs back up by
// the reorg buffer so recently reorged blocks get re-absorbed; full runs and
// first runs start from the source's minimum block.
func StartBlock(cur Cursor, found, full bool, minBlock, reorgBuffer int64) int64 {
	if full || !found || cur.LastBlock <= 0 {
		return minBlock
	}
	start := cur.LastBlock - reorgBuffer
	if start < minBlock {
		return minBlock
	}
	return start
}
