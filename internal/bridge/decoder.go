package bridge

import (
	"sort"
	"strings"
)

// EventTable maps topic0 signature hashes to event kinds. Tables are injected
// at construction so tests can register synthetic signatures.
type EventTable map[string]string

// Decoder recognizes event logs by their topic0 signature hash. Logs whose
// hash is not in the table are skipped by callers without error.
type Decoder struct {
	kinds EventTable
}

func NewDecoder(table EventTable) *Decoder {
	kinds := make(EventTable, len(table))
	for topic, kind := range table {
		kinds[strings.ToLower(topic)] = kind
	}
	return &Decoder{kinds: kinds}
}

// Kind returns the event kind registered for a topic0 hash.
func (d *Decoder) Kind(topic0 string) (string, bool) {
	kind, ok := d.kinds[strings.ToLower(topic0)]
	return kind, ok
}

// Topics returns the signature hashes registered for the given kinds, sorted
// for deterministic node-side filters.
func (d *Decoder) Topics(kinds ...string) []string {
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var topics []string
	for topic, kind := range d.kinds {
		if want[kind] {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}
