// Package handler provides the HTTP handlers for the words log.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/stevemurr/words-log/dictionary"
	"github.com/stevemurr/words-log/schema"
	"github.com/stevemurr/words-log/transcript"
	"github.com/stevemurr/words-log/words"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// Dictionary looks up definitions for words.
type Dictionary interface {
	Lookup(ctx context.Context, word string) ([]string, error)
	LookupAll(ctx context.Context, words []string) ([]dictionary.Result, error)
}

// ArticleFetcher downloads a page and extracts its readable text.
type ArticleFetcher interface {
	Fetch(ctx context.Context, rawURL string) (transcript.Article, error)
}

// Handler holds the server dependencies and registers routes.
type Handler struct {
	store    *words.Store
	dict     Dictionary
	articles ArticleFetcher
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New creates a Handler and wires up all routes. articles may be nil, in
// which case article capture is unavailable.
func New(s *words.Store, dict Dictionary, articles ArticleFetcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{store: s, dict: dict, articles: articles, logger: logger, mux: http.NewServeMux()}
	h.routes()
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	// Health / status
	h.mux.HandleFunc("GET /", h.root)
	h.mux.HandleFunc("GET /health", h.health)

	// --- Word log ---
	h.mux.HandleFunc("GET /words", h.listWords)
	h.mux.HandleFunc("GET /words/{id}", h.getWord)
	h.mux.HandleFunc("POST /words", h.addWord)
	h.mux.HandleFunc("PUT /words/{id}", h.editWord)
	h.mux.HandleFunc("DELETE /words/{id}", h.deleteWord)
	h.mux.HandleFunc("POST /words/definitions", h.appendDefinition)
	h.mux.HandleFunc("GET /export", h.export)

	// --- Capture ---
	h.mux.HandleFunc("GET /lookup/{word}", h.lookup)
	h.mux.HandleFunc("POST /capture", h.capture)
	h.mux.HandleFunc("POST /capture/article", h.captureArticle)
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize)).Decode(v)
}

// readValidated decodes the body generically, validates it against s and
// then decodes it into v.
func readValidated(r *http.Request, s map[string]any, normalize func(map[string]any), v any) error {
	var doc map[string]any
	if err := readJSON(r, &doc); err != nil {
		return errors.New("invalid JSON")
	}
	if doc == nil {
		return errors.New("expected a JSON object")
	}
	if normalize != nil {
		normalize(doc)
	}
	if err := schema.Validate(s, doc); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// normalizeWord trims the word and every definition and drops the empty
// definitions, leaving anything that is not a string for the schema to reject.
func normalizeWord(doc map[string]any) {
	if s, ok := doc["word"].(string); ok {
		doc["word"] = strings.TrimSpace(s)
	}
	if s, ok := doc["definition"].(string); ok {
		doc["definition"] = strings.TrimSpace(s)
	}
	defs, ok := doc["definitions"].([]any)
	if !ok {
		return
	}
	kept := make([]any, 0, len(defs))
	for _, d := range defs {
		if s, ok := d.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			kept = append(kept, s)
			continue
		}
		kept = append(kept, d)
	}
	doc["definitions"] = kept
}

// ---------- status endpoints ----------

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	// Only match exact root path
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "Words Log",
		"words":   h.store.Len(),
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Err(); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "degraded", "detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ---------- word log ----------

type wordRequest struct {
	Word        string   `json:"word"`
	Definitions []string `json:"definitions"`
}

type definitionRequest struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
}

func (h *Handler) listWords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Words())
}

func (h *Handler) getWord(w http.ResponseWriter, r *http.Request) {
	e, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Word not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) addWord(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if err := readValidated(r, schema.NewWord, normalizeWord, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !h.store.Add(req.Word, req.Definitions) {
		writeError(w, http.StatusConflict, "Word already logged")
		return
	}
	e, _ := h.store.Get(words.Hash(req.Word))
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) editWord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req wordRequest
	if err := readValidated(r, schema.EditWord, func(doc map[string]any) {
		normalizeWord(doc)
		delete(doc, "id")
	}, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if _, ok := h.store.Get(id); !ok {
		writeError(w, http.StatusNotFound, "Word not found")
		return
	}

	h.store.Edit(words.Entry{ID: id, Word: req.Word, Definitions: req.Definitions})
	if err := h.store.Flush(r.Context()); err != nil {
		h.logger.Error("Failed to persist edit", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist edit")
		return
	}
	// A concurrent delete turns the edit into a no-op.
	e, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Word not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) deleteWord(w http.ResponseWriter, r *http.Request) {
	if !h.store.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "Word not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) appendDefinition(w http.ResponseWriter, r *http.Request) {
	var req definitionRequest
	if err := readValidated(r, schema.AppendDefinition, normalizeWord, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !h.store.AppendDefinition(req.Word, req.Definition) {
		writeError(w, http.StatusNotFound, "Word not found")
		return
	}
	e, _ := h.store.Get(words.Hash(req.Word))
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	entries := h.store.Words()
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		blob, err := words.EncodeBlob(entries)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="words-log.json"`)
		w.WriteHeader(http.StatusOK)
		w.Write(blob)
	case "yaml":
		out, err := yaml.Marshal(entries)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Disposition", `attachment; filename="words-log.yaml"`)
		w.WriteHeader(http.StatusOK)
		w.Write(out)
	default:
		writeError(w, http.StatusBadRequest, "unsupported format: "+format)
	}
}

// ---------- capture ----------

type captureRequest struct {
	Transcript string   `json:"transcript"`
	Words      []string `json:"words"`
}

type articleRequest struct {
	URL string `json:"url"`
}

// CaptureResult reports what a capture did with each candidate word.
type CaptureResult struct {
	Added      []words.Entry `json:"added"`
	Skipped    []string      `json:"skipped"`
	Duplicates []string      `json:"duplicates"`
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	word := r.PathValue("word")
	defs, err := h.dict.Lookup(r.Context(), word)
	switch {
	case errors.Is(err, dictionary.ErrNotFound):
		writeError(w, http.StatusNotFound, "No definitions found")
	case err != nil:
		h.logger.Warn("Dictionary lookup failed", zap.String("word", word), zap.Error(err))
		writeError(w, http.StatusBadGateway, "dictionary unavailable")
	default:
		writeJSON(w, http.StatusOK, dictionary.Result{Word: word, Definitions: defs})
	}
}

func (h *Handler) capture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := readValidated(r, schema.Capture, nil, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if len(req.Words) == 0 {
		h.captureWords(w, r, transcript.ExtractWords(req.Transcript), nil)
		return
	}

	// Reviewed words are looked up as typed; only the length rule applies.
	reviewed := transcript.NewWordSet()
	var tooShort []string
	for _, word := range req.Words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		if utf8.RuneCountInString(word) < transcript.MinWordLength {
			tooShort = append(tooShort, word)
			continue
		}
		reviewed.Add(word)
	}
	h.captureWords(w, r, reviewed.Words(), tooShort)
}

func (h *Handler) captureArticle(w http.ResponseWriter, r *http.Request) {
	if h.articles == nil {
		writeError(w, http.StatusNotImplemented, "article capture is disabled")
		return
	}
	var req articleRequest
	if err := readValidated(r, schema.CaptureArticle, nil, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	article, err := h.articles.Fetch(r.Context(), req.URL)
	if err != nil {
		h.logger.Warn("Article fetch failed", zap.String("url", req.URL), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to fetch article")
		return
	}
	h.captureWords(w, r, transcript.ExtractWords(article.Text), nil)
}

// captureWords looks up candidates and adds every word that has
// definitions. Words already logged are not looked up. rejected words are
// reported as skipped without a lookup.
func (h *Handler) captureWords(w http.ResponseWriter, r *http.Request, candidates, rejected []string) {
	result := CaptureResult{Added: []words.Entry{}, Skipped: append([]string{}, rejected...), Duplicates: []string{}}

	fresh := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := h.store.Get(words.Hash(c)); ok {
			result.Duplicates = append(result.Duplicates, c)
			continue
		}
		fresh = append(fresh, c)
	}

	found, err := h.dict.LookupAll(r.Context(), fresh)
	if err != nil {
		writeError(w, http.StatusGatewayTimeout, err.Error())
		return
	}

	defined := make(map[string]bool, len(found))
	for _, f := range found {
		defined[f.Word] = true
		if !h.store.Add(f.Word, f.Definitions) {
			result.Duplicates = append(result.Duplicates, f.Word)
			continue
		}
		e, _ := h.store.Get(words.Hash(f.Word))
		result.Added = append(result.Added, e)
	}
	for _, c := range fresh {
		if !defined[c] {
			result.Skipped = append(result.Skipped, c)
		}
	}

	h.logger.Info("Captured words",
		zap.Int("added", len(result.Added)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("duplicates", len(result.Duplicates)))
	writeJSON(w, http.StatusOK, result)
}
