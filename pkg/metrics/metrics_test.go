package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/errors"
)

func TestObserveScorerLabelsStage(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveScorer("fuzzy", 3, 10, time.Millisecond, nil)
	m.ObserveScorer("fuzzy", 0, 0, time.Millisecond,
		fmt.Errorf("%w: field 0: %w", apperrors.ErrPostingsRead, errors.New("eof")))
	m.ObserveScorer("fuzzy", 0, 0, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScorerBuildsTotal.WithLabelValues("fuzzy", "ok", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScorerBuildsTotal.WithLabelValues("fuzzy", "error", "postings")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScorerBuildsTotal.WithLabelValues("fuzzy", "error", "other")))
}

func TestObserveSearchResultTypes(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSearch("term", 0, time.Millisecond, nil)
	m.ObserveSearch("term", 4, time.Millisecond, nil)
	m.ObserveSearch("term", 0, time.Millisecond, apperrors.ErrTimeout)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("term", "zero_result")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("term", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("term", "error")))
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SegmentsLoaded.Set(2)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "segments_loaded 2")
}
