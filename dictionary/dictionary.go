// Package dictionary looks up English definitions on dictionaryapi.dev.
package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/stevemurr/words-log/metrics"
)

// DefaultBaseURL is the free dictionary API endpoint for English entries.
const DefaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

// maxBodySize bounds a single lookup response.
const maxBodySize = 2 * 1024 * 1024

var (
	// ErrNotFound is returned when the service has no usable definitions.
	ErrNotFound = errors.New("dictionary: word not found")

	// ErrUnavailable is returned for non-OK responses other than 404.
	ErrUnavailable = errors.New("dictionary: service unavailable")
)

// Config holds configuration for the Client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// RequestsPerSecond and Burst throttle outgoing requests.
	RequestsPerSecond float64
	Burst             int

	// Concurrency bounds parallel requests in LookupAll.
	Concurrency int

	// MaxMeanings and MaxDefinitions bound what is taken from a response:
	// at most MaxDefinitions from each of the first MaxMeanings groups.
	MaxMeanings    int
	MaxDefinitions int
}

// DefaultConfig returns the limits the browser build used: first meaning
// group, first two definitions.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 5,
		Burst:             5,
		Concurrency:       4,
		MaxMeanings:       1,
		MaxDefinitions:    2,
	}
}

func (c *Config) validate() {
	d := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = d.Burst
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.MaxMeanings <= 0 {
		c.MaxMeanings = d.MaxMeanings
	}
	if c.MaxDefinitions <= 0 {
		c.MaxDefinitions = d.MaxDefinitions
	}
}

// apiEntry is one element of the API response array.
type apiEntry struct {
	Word     string       `json:"word"`
	Meanings []apiMeaning `json:"meanings"`
}

// apiMeaning is a group of definitions sharing a part of speech.
type apiMeaning struct {
	PartOfSpeech string          `json:"partOfSpeech"`
	Definitions  []apiDefinition `json:"definitions"`
}

type apiDefinition struct {
	Definition string `json:"definition"`
	Example    string `json:"example"`
}

// Result is the outcome of one successful lookup.
type Result struct {
	Word        string   `json:"word"`
	Definitions []string `json:"definitions"`
}

// Client queries the dictionary service. Safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a Client. m may be nil.
func New(cfg Config, logger *zap.Logger, m *metrics.Metrics) *Client {
	cfg.validate()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		metrics: m,
		logger:  logger,
	}
}

// Lookup returns the definitions offered for word.
func (c *Client) Lookup(ctx context.Context, word string) ([]string, error) {
	start := time.Now()
	defs, err := c.lookup(ctx, word)

	outcome := "found"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	c.metrics.ObserveLookup(outcome, time.Since(start))
	return defs, err
}

func (c *Client) lookup(ctx context.Context, word string) ([]string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, ErrNotFound
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.cfg.BaseURL + "/" + url.PathEscape(word)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %q: %w", word, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: status %d for %q", ErrUnavailable, resp.StatusCode, word)
	}

	var entries []apiEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response for %q: %w", word, err)
	}

	defs := c.pick(entries)
	if len(defs) == 0 {
		return nil, ErrNotFound
	}
	return defs, nil
}

// pick takes definitions from the first entry only.
func (c *Client) pick(entries []apiEntry) []string {
	if len(entries) == 0 {
		return nil
	}
	var defs []string
	meanings := entries[0].Meanings
	for i := 0; i < len(meanings) && i < c.cfg.MaxMeanings; i++ {
		ds := meanings[i].Definitions
		for j := 0; j < len(ds) && j < c.cfg.MaxDefinitions; j++ {
			if d := strings.TrimSpace(ds[j].Definition); d != "" {
				defs = append(defs, d)
			}
		}
	}
	return defs
}

// LookupAll looks up every word concurrently and returns the found ones in
// input order. Words that are not found or fail are skipped and logged; only
// cancellation of ctx is returned as an error.
func (c *Client) LookupAll(ctx context.Context, words []string) ([]Result, error) {
	found := make([][]string, len(words))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, w := range words {
		g.Go(func() error {
			defs, err := c.Lookup(gctx, w)
			switch {
			case err == nil:
				found[i] = defs
			case errors.Is(err, ErrNotFound):
				c.logger.Debug("No definitions found", zap.String("word", w))
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				c.logger.Warn("Dictionary lookup failed, skipping word",
					zap.String("word", w), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(words))
	for i, w := range words {
		if found[i] != nil {
			results = append(results, Result{Word: w, Definitions: found[i]})
		}
	}
	return results, nil
}
