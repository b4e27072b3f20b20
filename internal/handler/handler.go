// Package handler exposes segment search over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/query"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/search"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/logger"
)

const (
	ModeFuzzy  = "fuzzy"
	ModeTerm   = "term"
	ModePrefix = "prefix"
)

type SearchExecutor interface {
	TopDocs(ctx context.Context, q query.Query, limit int) ([]search.Hit, uint64, error)
}

// Options bounds what a request may ask for.
type Options struct {
	DefaultLimit         int
	MaxResults           int
	MaxEditDistance      uint8
	TranspositionCostOne bool
	// Cache, when set, memoises results per query and limit.
	Cache *cache.QueryCache
}

type Handler struct {
	executor SearchExecutor
	schema   *schema.Schema
	opts     Options
	logger   *slog.Logger
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Query     string       `json:"query"`
	Term      string       `json:"term"`
	Field     string       `json:"field"`
	Mode      string       `json:"mode"`
	Distance  uint8        `json:"distance"`
	Prefix    bool         `json:"prefix"`
	TotalHits uint64       `json:"total_hits"`
	Hits      []search.Hit `json:"hits"`
	CacheHit  bool         `json:"cache_hit"`
	TookMs    int64        `json:"took_ms"`
}

// request is a parsed search request.
type request struct {
	query    query.Query
	limit    int
	response SearchResponse
}

func New(exec SearchExecutor, s *schema.Schema, opts Options) *Handler {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxResults < opts.DefaultLimit {
		opts.MaxResults = opts.DefaultLimit
	}
	return &Handler{
		executor: exec,
		schema:   s,
		opts:     opts,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Search serves GET /api/v1/search.
//
// Parameters: q (required), field (required), mode (fuzzy, term or prefix;
// default fuzzy), distance (fuzzy only, default 1), prefix (fuzzy only),
// transposition (fuzzy only) and limit.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	req, err := h.parse(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	hits, total, cacheHit, err := h.execute(ctx, req)
	if err != nil {
		log.Error("search execution failed", "query", req.query.String(), "error", err)
		h.writeError(w, err)
		return
	}

	resp := req.response
	resp.TotalHits = total
	resp.Hits = hits
	resp.CacheHit = cacheHit
	if resp.Hits == nil {
		resp.Hits = []search.Hit{}
	}
	resp.TookMs = time.Since(start).Milliseconds()

	log.Info("search completed",
		"query", req.query.String(),
		"total_hits", total,
		"returned", len(hits),
		"cache_hit", cacheHit,
		"latency_ms", resp.TookMs,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) execute(ctx context.Context, req *request) ([]search.Hit, uint64, bool, error) {
	if h.opts.Cache == nil {
		hits, total, err := h.executor.TopDocs(ctx, req.query, req.limit)
		return hits, total, false, err
	}
	result, cacheHit, err := h.opts.Cache.GetOrCompute(ctx, req.query, req.limit, func() (*cache.Result, error) {
		hits, total, err := h.executor.TopDocs(ctx, req.query, req.limit)
		if err != nil {
			return nil, err
		}
		return &cache.Result{Hits: hits, TotalHits: total}, nil
	})
	if err != nil {
		return nil, 0, false, err
	}
	return result.Hits, result.TotalHits, cacheHit, nil
}

func (h *Handler) parse(r *http.Request) (*request, error) {
	params := r.URL.Query()

	text := params.Get("q")
	if text == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required")
	}
	fieldName := params.Get("field")
	if fieldName == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'field' is required")
	}
	if h.schema == nil {
		return nil, apperrors.Newf(apperrors.ErrFieldNotFound, http.StatusNotFound, "field %q: no segments loaded", fieldName)
	}
	field, ok := h.schema.Field(fieldName)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrFieldNotFound, http.StatusNotFound, "field %q does not exist", fieldName)
	}
	entry, _ := h.schema.Entry(field)

	limit := h.opts.DefaultLimit
	if v := params.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(parsed, h.opts.MaxResults)
	}

	mode := params.Get("mode")
	if mode == "" {
		mode = ModeFuzzy
	}
	req := &request{
		limit: limit,
		response: SearchResponse{
			Query: text,
			Field: fieldName,
			Mode:  mode,
		},
	}

	var distance uint8
	transposition := h.opts.TranspositionCostOne
	prefix := mode == ModePrefix
	switch mode {
	case ModeTerm, ModePrefix:
	case ModeFuzzy:
		distance = 1
		if v := params.Get("distance"); v != "" {
			parsed, err := strconv.ParseUint(v, 10, 8)
			if err != nil || uint8(parsed) > h.opts.MaxEditDistance {
				return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
					"distance must be an integer between 0 and %d", h.opts.MaxEditDistance)
			}
			distance = uint8(parsed)
		}
		if v := params.Get("transposition"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "transposition must be a boolean")
			}
			transposition = parsed
		}
		if v := params.Get("prefix"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "prefix must be a boolean")
			}
			prefix = parsed
		}
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"mode must be one of %s, %s or %s", ModeFuzzy, ModeTerm, ModePrefix)
	}

	analyzed, err := analyzeQuery(entry.Options.Analyzer, text, prefix)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"q %q on field %q: %v", text, fieldName, err)
	}
	term := schema.NewTerm(field, analyzed)
	req.response.Term = analyzed
	req.response.Prefix = prefix

	switch {
	case mode == ModeTerm:
		req.query = query.NewTermQuery(term)
	case mode == ModePrefix:
		req.query = query.NewPrefixQuery(term)
	case prefix:
		req.query = query.NewFuzzyPrefixQuery(term, distance, transposition)
		req.response.Distance = distance
	default:
		req.query = query.NewFuzzyTermQuery(term, distance, transposition)
		req.response.Distance = distance
	}
	return req, nil
}

// analyzeQuery turns request text into the single term the field's analyzer
// would have indexed. Prefix text is split and normalised but not stemmed.
func analyzeQuery(analyzer, text string, prefix bool) (string, error) {
	if prefix {
		return tokenizer.QueryPrefix(analyzer, text)
	}
	return tokenizer.QueryTerm(analyzer, text)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError hides the details of server-side failures from the caller.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	switch {
	case status == http.StatusServiceUnavailable:
		message = "search unavailable"
	case status >= http.StatusInternalServerError:
		message = "search failed"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
