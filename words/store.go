// Package words implements the vocabulary word store.
//
// A Store is an insertion-ordered collection of entries keyed by Hash(word).
// It is loaded once from a persistence surface and written back behind a
// debounce: every add, append or delete re-arms a single pending flush, and
// the whole collection is written with one Set call when the quiet period
// ends.
package words

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stevemurr/words-log/debounce"
	"github.com/stevemurr/words-log/metrics"
)

const (
	// StorageKey is the key the collection is persisted under.
	StorageKey = "words-log-data"

	// DefaultFlushInterval is the quiet period before a scheduled write.
	DefaultFlushInterval = 500 * time.Millisecond
)

// Surface is the key-value storage the store reads at construction and
// writes after mutations.
type Surface interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Config holds configuration for the Store.
type Config struct {
	// Key is the surface key. Default: StorageKey.
	Key string

	// FlushInterval is the debounce window. Default: DefaultFlushInterval.
	FlushInterval time.Duration

	// Clock schedules flushes. Default: debounce.RealClock.
	Clock debounce.Clock

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// DefaultConfig returns the configuration used by the browser build.
func DefaultConfig() Config {
	return Config{
		Key:           StorageKey,
		FlushInterval: DefaultFlushInterval,
		Clock:         debounce.RealClock,
	}
}

func (c *Config) validate() {
	if c.Key == "" {
		c.Key = StorageKey
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.Clock == nil {
		c.Clock = debounce.RealClock
	}
}

// Store holds word entries in memory. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	order   []string
	closed  bool
	lastErr error

	// writeMu serializes writes so a later snapshot never lands before an
	// earlier one.
	writeMu sync.Mutex

	surface Surface
	key     string
	flusher *debounce.Debouncer
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a Store and loads any entries persisted under cfg.Key.
// A missing, unreadable or malformed blob yields an empty store; New never
// fails.
func New(ctx context.Context, surface Surface, cfg Config, logger *zap.Logger) *Store {
	cfg.validate()
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		entries: make(map[string]Entry),
		surface: surface,
		key:     cfg.Key,
		metrics: cfg.Metrics,
		logger:  logger,
	}
	s.flusher = debounce.New(cfg.FlushInterval, s.scheduledFlush, cfg.Clock)
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	raw, ok, err := s.surface.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("Failed to read persisted words, starting empty",
			zap.String("key", s.key), zap.Error(err))
		return
	}
	if !ok || raw == "" {
		s.logger.Info("No persisted words found", zap.String("key", s.key))
		return
	}

	entries, err := DecodeBlob([]byte(raw))
	if err != nil {
		s.logger.Warn("Persisted words are malformed, starting empty",
			zap.String("key", s.key), zap.Error(err))
		return
	}
	for _, e := range entries {
		s.insertLocked(e)
	}
	s.metrics.SetWords(len(s.order))
	s.logger.Info("Loaded persisted words",
		zap.String("key", s.key), zap.Int("count", len(s.order)))
}

// Add inserts a new entry for word. It reports false, without changing
// anything, when an entry with the same id already exists. Callers are
// expected to have trimmed word and dropped empty definitions.
func (s *Store) Add(word string, definitions []string) bool {
	id := Hash(word)

	s.mu.Lock()
	if _, exists := s.entries[id]; exists {
		s.mu.Unlock()
		s.metrics.ObserveMutation("add", false)
		return false
	}
	s.insertLocked(Entry{ID: id, Word: word, Definitions: definitions}.clone())
	s.scheduleLocked()
	n := len(s.order)
	s.mu.Unlock()

	s.metrics.ObserveMutation("add", true)
	s.metrics.SetWords(n)
	return true
}

// AppendDefinition adds definition to the end of word's definitions.
// Duplicates are kept. It reports false when word is not stored.
func (s *Store) AppendDefinition(word, definition string) bool {
	id := Hash(word)

	s.mu.Lock()
	e, exists := s.entries[id]
	if !exists {
		s.mu.Unlock()
		s.metrics.ObserveMutation("append", false)
		return false
	}
	e.Definitions = append(e.Definitions, definition)
	s.entries[id] = e
	s.scheduleLocked()
	s.mu.Unlock()

	s.metrics.ObserveMutation("append", true)
	return true
}

// Edit replaces the entry with updated.ID wholesale and moves it to the end
// of the iteration order. Unknown ids are ignored. The id is never
// recomputed, so renaming a word keeps its identity. Definitions are not
// validated and may be empty.
//
// Edit does not schedule a flush; the change is written by the next
// scheduled flush or by Flush.
func (s *Store) Edit(updated Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[updated.ID]; !exists {
		s.metrics.ObserveMutation("edit", false)
		return
	}
	s.removeLocked(updated.ID)
	s.insertLocked(updated.clone())
	s.metrics.ObserveMutation("edit", true)
}

// Delete removes the entry with id. It reports false when id is not stored.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	if _, exists := s.entries[id]; !exists {
		s.mu.Unlock()
		s.metrics.ObserveMutation("delete", false)
		return false
	}
	s.removeLocked(id)
	s.scheduleLocked()
	n := len(s.order)
	s.mu.Unlock()

	s.metrics.ObserveMutation("delete", true)
	s.metrics.SetWords(n)
	return true
}

// Words returns a copy of all entries in iteration order.
func (s *Store) Words() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns a copy of the entry with id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Pending reports whether a scheduled flush is armed.
func (s *Store) Pending() bool {
	return s.flusher.Pending()
}

// Flush cancels any scheduled flush and writes the collection now.
func (s *Store) Flush(ctx context.Context) error {
	s.flusher.Cancel()
	return s.write(ctx)
}

// Close writes the collection and stops scheduling further flushes.
// The store stays usable in memory afterwards.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.flusher.Stop()
	return s.write(ctx)
}

// Err returns the error of the most recent failed scheduled flush, or nil if
// the most recent one succeeded.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) insertLocked(e Entry) {
	if _, exists := s.entries[e.ID]; !exists {
		s.order = append(s.order, e.ID)
	}
	s.entries[e.ID] = e
}

func (s *Store) removeLocked(id string) {
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *Store) snapshotLocked() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].clone())
	}
	return out
}

func (s *Store) scheduleLocked() {
	if s.closed {
		return
	}
	s.flusher.Trigger()
}

func (s *Store) scheduledFlush() {
	err := s.write(context.Background())

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Store) write(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	entries := s.snapshotLocked()
	s.mu.Unlock()

	start := time.Now()
	blob, err := EncodeBlob(entries)
	if err == nil {
		err = s.surface.Set(ctx, s.key, string(blob))
	}
	s.metrics.ObserveFlush(len(blob), time.Since(start), err)
	if err != nil {
		s.logger.Error("Failed to persist words",
			zap.String("key", s.key), zap.Int("count", len(entries)), zap.Error(err))
		return err
	}

	s.logger.Debug("Persisted words",
		zap.String("key", s.key),
		zap.Int("count", len(entries)),
		zap.Int("bytes", len(blob)),
		zap.Duration("duration", time.Since(start)))
	return nil
}
