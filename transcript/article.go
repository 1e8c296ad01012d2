package transcript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"
)

// maxPageSize bounds a fetched page.
const maxPageSize = 10 * 1024 * 1024

// ErrPageTooLarge is returned when a page exceeds the size limit.
var ErrPageTooLarge = errors.New("transcript: page exceeds size limit")

// Article is the readable content of a web page.
type Article struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ExtractArticle pulls the main readable text out of an HTML document.
func ExtractArticle(r io.Reader, pageURL *url.URL) (Article, error) {
	a, err := readability.FromReader(r, pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("failed to extract article: %w", err)
	}
	return Article{Title: a.Title, Text: a.TextContent}, nil
}

// Fetcher downloads pages and extracts their article text.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with the given request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads rawURL and extracts its article.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Article, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") || pageURL.Host == "" {
		return Article{}, fmt.Errorf("invalid page url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return Article{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", "words-log")

	resp, err := f.client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("failed to fetch page: status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxPageSize {
		return Article{}, ErrPageTooLarge
	}

	// Read one byte past the limit to tell a full page from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize+1))
	if err != nil {
		return Article{}, fmt.Errorf("failed to read page: %w", err)
	}
	if len(body) > maxPageSize {
		return Article{}, ErrPageTooLarge
	}

	return ExtractArticle(bytes.NewReader(body), pageURL)
}
