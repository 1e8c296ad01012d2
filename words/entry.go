package words

import (
	"encoding/json"
	"fmt"
)

// Entry is one stored vocabulary item.
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	Word        string   `json:"word" yaml:"word"`
	Definitions []string `json:"definitions" yaml:"definitions"`
}

func (e Entry) clone() Entry {
	defs := make([]string, len(e.Definitions))
	copy(defs, e.Definitions)
	e.Definitions = defs
	return e
}

// storedEntry is the on-disk shape of an entry. Early browser builds wrote a
// single "definition" string; it is read as a one-element Definitions. The
// pair id, not the embedded one, is the entry's identity.
type storedEntry struct {
	ID          string   `json:"id"`
	Word        string   `json:"word"`
	Definitions []string `json:"definitions"`
	Definition  *string  `json:"definition,omitempty"`
}

// pair is one [id, entry] element of the persisted blob.
type pair struct {
	id    string
	entry Entry
}

func (p pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.id, p.entry})
}

func (p *pair) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("expected [id, entry] pair, got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.id); err != nil {
		return fmt.Errorf("pair id: %w", err)
	}
	var se storedEntry
	if err := json.Unmarshal(raw[1], &se); err != nil {
		return fmt.Errorf("pair %q entry: %w", p.id, err)
	}
	defs := se.Definitions
	if defs == nil && se.Definition != nil {
		defs = []string{*se.Definition}
	}
	if defs == nil {
		defs = []string{}
	}
	p.entry = Entry{ID: p.id, Word: se.Word, Definitions: defs}
	return nil
}

// EncodeBlob serializes entries, in order, as a JSON array of [id, entry]
// pairs.
func EncodeBlob(entries []Entry) ([]byte, error) {
	pairs := make([]pair, len(entries))
	for i, e := range entries {
		e = e.clone()
		pairs[i] = pair{id: e.ID, entry: e}
	}
	return json.Marshal(pairs)
}

// DecodeBlob parses a persisted blob. When an id appears more than once the
// last entry wins but keeps the position of the first occurrence.
func DecodeBlob(data []byte) ([]Entry, error) {
	var pairs []pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode words blob: %w", err)
	}
	index := make(map[string]int, len(pairs))
	entries := make([]Entry, 0, len(pairs))
	for _, p := range pairs {
		if i, ok := index[p.id]; ok {
			entries[i] = p.entry
			continue
		}
		index[p.id] = len(entries)
		entries = append(entries, p.entry)
	}
	return entries, nil
}
