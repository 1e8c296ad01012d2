// Package transcript turns captured text into candidate vocabulary words.
//
// Speech capture produces one transcript per recording session. Sessions are
// accumulated in a Buffer, and ExtractWords reduces the buffer to a set of
// distinct lowercase words that a user can review before lookup.
package transcript

import (
	"strings"
	"sync"
	"unicode"
)

// MinWordLength is the shortest word kept by ExtractWords and accepted by
// WordSet.Rename.
const MinWordLength = 2

// Buffer accumulates transcripts across recording sessions.
// Safe for concurrent use.
type Buffer struct {
	mu   sync.Mutex
	text string
}

// Append adds one session's transcript, separated from earlier ones by a
// single space.
func (b *Buffer) Append(transcript string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.text == "" {
		b.text = transcript
		return
	}
	b.text += " " + transcript
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = ""
}

// ExtractWords lowercases text, splits it on any Unicode space, strips
// everything except ASCII letters from each word and returns the distinct
// words longer than one letter in first-seen order.
func ExtractWords(text string) []string {
	set := NewWordSet()
	for _, field := range strings.FieldsFunc(strings.ToLower(text), unicode.IsSpace) {
		w := strings.Map(keepASCIILetter, field)
		if len(w) >= MinWordLength {
			set.Add(w)
		}
	}
	return set.Words()
}

func keepASCIILetter(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r
	}
	return -1
}

// WordSet is an insertion-ordered set of words under review.
type WordSet struct {
	order []string
	index map[string]struct{}
}

func NewWordSet(words ...string) *WordSet {
	s := &WordSet{index: make(map[string]struct{})}
	for _, w := range words {
		s.Add(w)
	}
	return s
}

// Add inserts w. It reports false if w was already present.
func (s *WordSet) Add(w string) bool {
	if _, ok := s.index[w]; ok {
		return false
	}
	s.index[w] = struct{}{}
	s.order = append(s.order, w)
	return true
}

// Remove drops w. It reports false if w was not present.
func (s *WordSet) Remove(w string) bool {
	if _, ok := s.index[w]; !ok {
		return false
	}
	delete(s.index, w)
	for i, v := range s.order {
		if v == w {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Rename replaces old with replacement, which goes to the end. Replacements
// shorter than MinWordLength are refused and leave the set unchanged.
func (s *WordSet) Rename(old, replacement string) bool {
	if len(replacement) < MinWordLength {
		return false
	}
	s.Remove(old)
	s.Add(replacement)
	return true
}

func (s *WordSet) Len() int { return len(s.order) }

// Words returns a copy of the set in order.
func (s *WordSet) Words() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
