package words_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stevemurr/words-log/debounce"
	"github.com/stevemurr/words-log/words"
)

// recordingSurface is an in-memory Surface that keeps every Set.
type recordingSurface struct {
	mu     sync.Mutex
	data   map[string]string
	writes []string
	getErr error
	setErr error
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{data: make(map[string]string)}
}

func (r *recordingSurface) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return "", false, r.getErr
	}
	v, ok := r.data[key]
	return v, ok, nil
}

func (r *recordingSurface) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	r.data[key] = value
	r.writes = append(r.writes, value)
	return nil
}

func (r *recordingSurface) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

func (r *recordingSurface) lastWrite() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.writes) == 0 {
		return ""
	}
	return r.writes[len(r.writes)-1]
}

func newTestStore(t *testing.T, surface words.Surface) (*words.Store, *debounce.ManualClock) {
	t.Helper()
	clock := debounce.NewManualClock()
	cfg := words.DefaultConfig()
	cfg.Clock = clock
	return words.New(context.Background(), surface, cfg, zap.NewNop()), clock
}

func TestStoreScenario(t *testing.T) {
	s, _ := newTestStore(t, newRecordingSurface())
	require.Empty(t, s.Words())

	assert.True(t, s.Add("run", []string{"to move fast", "to operate"}))

	got := s.Words()
	require.Len(t, got, 1)
	assert.Equal(t, "run", got[0].Word)
	assert.Equal(t, []string{"to move fast", "to operate"}, got[0].Definitions)
	assert.Equal(t, words.Hash("run"), got[0].ID)

	assert.False(t, s.Add("run", []string{"ignored"}))
	assert.Equal(t, got, s.Words())

	id := got[0].ID
	assert.True(t, s.Delete(id))
	assert.Empty(t, s.Words())
	assert.False(t, s.Delete(id))
}

func TestStoreAddRejectsDuplicate(t *testing.T) {
	s, _ := newTestStore(t, newRecordingSurface())

	require.True(t, s.Add("cat", []string{"a feline"}))
	assert.False(t, s.Add("cat", []string{"something else", "entirely"}))

	e, ok := s.Get(words.Hash("cat"))
	require.True(t, ok)
	assert.Equal(t, []string{"a feline"}, e.Definitions)
	assert.Equal(t, 1, s.Len())
}

func TestStoreIdentityIsCaseSensitive(t *testing.T) {
	s, _ := newTestStore(t, newRecordingSurface())

	assert.True(t, s.Add("cat", []string{"a feline"}))
	assert.True(t, s.Add("Cat", []string{"a tracked vehicle"}))
	assert.Equal(t, 2, s.Len())
}

func TestStoreAppendDefinitionKeepsDuplicates(t *testing.T) {
	s, _ := newTestStore(t, newRecordingSurface())
	require.True(t, s.Add("bank", []string{"edge of a river"}))

	assert.True(t, s.AppendDefinition("bank", "a financial institution"))
	assert.True(t, s.AppendDefinition("bank", "a financial institution"))

	e, ok := s.Get(words.Hash("bank"))
	require.True(t, ok)
	assert.Equal(t, []string{
		"edge of a river",
		"a financial institution",
		"a financial institution",
	}, e.Definitions)
}

func TestStoreAppendDefinitionMissingWord(t *testing.T) {
	surface := newRecordingSurface()
	s, clock := newTestStore(t, surface)

	assert.False(t, s.AppendDefinition("ghost", "not there"))
	assert.False(t, s.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, 0, surface.writeCount())
}

func TestStoreEditUnknownIDIsNoop(t *testing.T) {
	s, _ := newTestStore(t, newRecordingSurface())
	require.True(t, s.Add("cat", []string{"a feline"}))
	before := s.Words()

	s.Edit(words.Entry{ID: "deadbeef", Word: "dog", Definitions: []string{"a canine"}})

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, before, s.Words())
}

func TestStoreEditReplacesAndKeepsIdentity(t *testing.T) {
	s, _ := newTestStore(t, newRecordingSurface())
	require.True(t, s.Add("colour", []string{"hue"}))
	require.True(t, s.Add("flavour", []string{"taste"}))
	id := words.Hash("colour")

	s.Edit(words.Entry{ID: id, Word: "color", Definitions: []string{"hue", "tint"}})

	e, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "color", e.Word)
	assert.Equal(t, []string{"hue", "tint"}, e.Definitions)

	// Renaming does not re-key: the new spelling is not known by its own hash.
	_, ok = s.Get(words.Hash("color"))
	assert.False(t, ok)
	assert.True(t, s.Add("color", []string{"separate entry"}))

	// Edited entries move to the end of the iteration order.
	got := s.Words()
	require.Len(t, got, 3)
	assert.Equal(t, "flavour", got[0].Word)
	assert.Equal(t, "color", got[1].Word)
	assert.Equal(t, id, got[1].ID)
}

func TestStoreEditAllowsEmptyDefinitions(t *testing.T) {
	s, _ := newTestStore(t, newRecordingSurface())
	require.True(t, s.Add("cat", []string{"a feline"}))
	id := words.Hash("cat")

	s.Edit(words.Entry{ID: id, Word: "cat"})

	e, ok := s.Get(id)
	require.True(t, ok)
	assert.Empty(t, e.Definitions)
}

func TestStoreEditDoesNotScheduleFlush(t *testing.T) {
	surface := newRecordingSurface()
	s, clock := newTestStore(t, surface)
	require.True(t, s.Add("cat", []string{"a feline"}))
	clock.Advance(words.DefaultFlushInterval)
	require.Equal(t, 1, surface.writeCount())

	s.Edit(words.Entry{ID: words.Hash("cat"), Word: "cat", Definitions: []string{"a pet"}})
	assert.False(t, s.Pending())
	clock.Advance(time.Second)
	assert.Equal(t, 1, surface.writeCount())

	// The next scheduled flush writes the whole collection, edit included.
	require.True(t, s.Add("dog", []string{"a canine"}))
	clock.Advance(words.DefaultFlushInterval)
	require.Equal(t, 2, surface.writeCount())

	entries, err := words.DecodeBlob([]byte(surface.lastWrite()))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"a pet"}, entries[0].Definitions)
}

func TestStoreWordsIsCopy(t *testing.T) {
	s, _ := newTestStore(t, newRecordingSurface())
	require.True(t, s.Add("cat", []string{"a feline"}))

	got := s.Words()
	got[0].Word = "mutated"
	got[0].Definitions[0] = "mutated"
	_ = append(got, words.Entry{ID: "x"})

	e, _ := s.Get(words.Hash("cat"))
	assert.Equal(t, "cat", e.Word)
	assert.Equal(t, []string{"a feline"}, e.Definitions)
	assert.Equal(t, 1, s.Len())
}

func TestStoreAddCopiesDefinitions(t *testing.T) {
	s, _ := newTestStore(t, newRecordingSurface())
	defs := []string{"a feline"}
	require.True(t, s.Add("cat", defs))
	defs[0] = "mutated"

	e, _ := s.Get(words.Hash("cat"))
	assert.Equal(t, []string{"a feline"}, e.Definitions)
}

func TestStoreDebounceCoalescesWrites(t *testing.T) {
	surface := newRecordingSurface()
	s, clock := newTestStore(t, surface)

	require.True(t, s.Add("alpha", []string{"first"}))
	clock.Advance(100 * time.Millisecond)
	require.True(t, s.Add("beta", []string{"second"}))
	clock.Advance(100 * time.Millisecond)
	require.True(t, s.AppendDefinition("alpha", "again"))
	clock.Advance(100 * time.Millisecond)
	require.True(t, s.Delete(words.Hash("beta")))
	require.True(t, s.Add("gamma", []string{"third"}))

	clock.Advance(499 * time.Millisecond)
	assert.Equal(t, 0, surface.writeCount(), "write waits for the quiet period after the last mutation")

	clock.Advance(1 * time.Millisecond)
	require.Equal(t, 1, surface.writeCount())

	entries, err := words.DecodeBlob([]byte(surface.lastWrite()))
	require.NoError(t, err)
	assert.Equal(t, s.Words(), entries)
}

func TestStoreWritesUnderFixedKey(t *testing.T) {
	surface := newRecordingSurface()
	s, clock := newTestStore(t, surface)
	require.True(t, s.Add("cat", []string{"a feline"}))
	clock.Advance(words.DefaultFlushInterval)

	raw, ok, err := surface.Get(context.Background(), "words-log-data")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[["6745c07",{"id":"6745c07","word":"cat","definitions":["a feline"]}]]`, raw)
}

func TestStoreRoundTrip(t *testing.T) {
	surface := newRecordingSurface()
	s, clock := newTestStore(t, surface)

	require.True(t, s.Add("cat", []string{"a feline"}))
	require.True(t, s.Add("run", []string{"to move fast", "to operate"}))
	require.True(t, s.AppendDefinition("cat", "a jazz musician"))
	clock.Advance(words.DefaultFlushInterval)

	reloaded, _ := newTestStore(t, surface)
	assert.ElementsMatch(t, s.Words(), reloaded.Words())
}

func TestStoreLostWithoutFlush(t *testing.T) {
	surface := newRecordingSurface()
	s, _ := newTestStore(t, surface)
	require.True(t, s.Add("cat", []string{"a feline"}))

	reloaded, _ := newTestStore(t, surface)
	assert.Empty(t, reloaded.Words())
}

func TestStoreLoadsBrowserBlob(t *testing.T) {
	surface := newRecordingSurface()
	surface.data[words.StorageKey] = `[
		["2acd4eca",{"id":"2acd4eca","word":"run","definitions":["to move fast","to operate"]}],
		["6745c07",{"id":"6745c07","word":"cat","definitions":["a feline"]}]
	]`

	s, _ := newTestStore(t, surface)

	got := s.Words()
	require.Len(t, got, 2)
	assert.Equal(t, "run", got[0].Word)
	assert.Equal(t, "cat", got[1].Word)
	assert.False(t, s.Add("cat", []string{"dup"}), "loaded ids take part in dedup")
}

func TestStoreLoadsLegacySingleDefinition(t *testing.T) {
	surface := newRecordingSurface()
	surface.data[words.StorageKey] = `[["6745c07",{"id":"6745c07","word":"cat","definition":"a feline","sentences":[]}]]`

	s, _ := newTestStore(t, surface)

	e, ok := s.Get("6745c07")
	require.True(t, ok)
	assert.Equal(t, []string{"a feline"}, e.Definitions)
}

func TestStoreConstructionNeverFails(t *testing.T) {
	tests := []struct {
		name    string
		surface *recordingSurface
	}{
		{"absent", newRecordingSurface()},
		{"empty string", func() *recordingSurface {
			r := newRecordingSurface()
			r.data[words.StorageKey] = ""
			return r
		}()},
		{"not json", func() *recordingSurface {
			r := newRecordingSurface()
			r.data[words.StorageKey] = "{not json"
			return r
		}()},
		{"wrong shape", func() *recordingSurface {
			r := newRecordingSurface()
			r.data[words.StorageKey] = `{"cat":"a feline"}`
			return r
		}()},
		{"short pair", func() *recordingSurface {
			r := newRecordingSurface()
			r.data[words.StorageKey] = `[["6745c07"]]`
			return r
		}()},
		{"read error", func() *recordingSurface {
			r := newRecordingSurface()
			r.getErr = errors.New("storage disabled")
			return r
		}()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestStore(t, tc.surface)
			assert.Empty(t, s.Words())
			assert.True(t, s.Add("cat", []string{"a feline"}))
		})
	}
}

func TestStoreFlushWritesImmediately(t *testing.T) {
	surface := newRecordingSurface()
	s, clock := newTestStore(t, surface)
	require.True(t, s.Add("cat", []string{"a feline"}))
	require.True(t, s.Pending())

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, surface.writeCount())
	assert.False(t, s.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, 1, surface.writeCount(), "flush cancels the scheduled write")
}

func TestStoreClose(t *testing.T) {
	surface := newRecordingSurface()
	s, clock := newTestStore(t, surface)
	require.True(t, s.Add("cat", []string{"a feline"}))

	require.NoError(t, s.Close(context.Background()))
	require.Equal(t, 1, surface.writeCount())

	require.True(t, s.Add("dog", []string{"a canine"}))
	assert.False(t, s.Pending())
	clock.Advance(time.Second)
	assert.Equal(t, 1, surface.writeCount())
	assert.Equal(t, 2, s.Len())
}

func TestStoreScheduledWriteFailure(t *testing.T) {
	surface := newRecordingSurface()
	s, clock := newTestStore(t, surface)
	surface.setErr = errors.New("quota exceeded")

	require.True(t, s.Add("cat", []string{"a feline"}))
	clock.Advance(words.DefaultFlushInterval)
	require.EqualError(t, s.Err(), "quota exceeded")
	assert.Equal(t, 1, s.Len(), "memory state survives a failed write")

	surface.setErr = nil
	require.True(t, s.Add("dog", []string{"a canine"}))
	clock.Advance(words.DefaultFlushInterval)
	assert.NoError(t, s.Err())
	assert.Equal(t, 1, surface.writeCount())
}

func TestStoreFlushReturnsSurfaceError(t *testing.T) {
	surface := newRecordingSurface()
	s, _ := newTestStore(t, surface)
	surface.setErr = errors.New("quota exceeded")

	require.True(t, s.Add("cat", []string{"a feline"}))
	assert.EqualError(t, s.Flush(context.Background()), "quota exceeded")
}

func TestStoreCustomKeyAndInterval(t *testing.T) {
	surface := newRecordingSurface()
	clock := debounce.NewManualClock()
	s := words.New(context.Background(), surface, words.Config{
		Key:           "custom",
		FlushInterval: 50 * time.Millisecond,
		Clock:         clock,
	}, nil)

	require.True(t, s.Add("cat", []string{"a feline"}))
	clock.Advance(50 * time.Millisecond)

	_, ok, _ := surface.Get(context.Background(), "custom")
	assert.True(t, ok)
	_, ok, _ = surface.Get(context.Background(), words.StorageKey)
	assert.False(t, ok)
}

func TestStoreConcurrentAdds(t *testing.T) {
	surface := newRecordingSurface()
	s := words.New(context.Background(), surface, words.Config{FlushInterval: 5 * time.Millisecond}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Add(string(rune('a'+i%26))+string(rune('a'+i/26)), []string{"x"})
		}(i)
	}
	wg.Wait()
	require.NoError(t, s.Close(context.Background()))

	entries, err := words.DecodeBlob([]byte(surface.lastWrite()))
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}
