package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type sampleRecord struct {
	TxHash string  `json:"tx_hash"`
	Value  float64 `json:"value_rbtc"`
}

func TestWriteAndReadList(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "data"))
	records := []sampleRecord{
		{TxHash: "0x01", Value: 2.5},
		{TxHash: "0x02", Value: 0.75},
	}

	if err := s.WriteJSON("sample.json", records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := ReadList[sampleRecord](s, "sample.json")
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("%+v != %+v", got, records)
	}
}

func TestWriteJSONIsIndentedAndAtomic(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.WriteJSON("sample.json", []sampleRecord{{TxHash: "0x01", Value: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(s.Path("sample.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(data), "[\n  {\n    \"tx_hash\"") {
		t.Fatalf("expected two-space indentation, got %q", string(data[:24]))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestWriteJSONEmptySliceProducesArray(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.WriteJSON("empty.json", []sampleRecord{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(s.Path("empty.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected empty array, got %q", string(data))
	}
}

func TestReadListMissingOrCorrupt(t *testing.T) {
	s := NewStore(t.TempDir())
	if got := ReadList[sampleRecord](s, "absent.json"); got != nil {
		t.Fatalf("missing file should read as empty, got %+v", got)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(s.Path("bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ReadList[sampleRecord](s, "bad.json"); got != nil {
		t.Fatalf("corrupt file should read as empty, got %+v", got)
	}
}

func TestReadObject(t *testing.T) {
	s := NewStore(t.TempDir())

	if _, ok := ReadObject[sampleRecord](s, "absent.json"); ok {
		t.Fatal("missing file should report absent")
	}

	want := sampleRecord{TxHash: "0x0a", Value: 3}
	if err := s.WriteJSON("obj.json", want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := ReadObject[sampleRecord](s, "obj.json")
	if !ok || got != want {
		t.Fatalf("unexpected read: %+v ok=%v", got, ok)
	}
}
