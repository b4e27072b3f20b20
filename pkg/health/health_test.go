package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("segments", SegmentsCheck(func() int { return 3 }))
	c.Register("disk", func(context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusDegraded, Message: "slow"}
	})

	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "3 segments loaded", report.Components["segments"].Message)
	assert.NotEmpty(t, report.Components["disk"].Latency)
}

func TestReadyHandlerUnavailableWithoutSegments(t *testing.T) {
	c := NewChecker()
	c.Register("segments", SegmentsCheck(func() int { return 0 }))

	rec := httptest.NewRecorder()
	c.ReadyHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDown, report.Status)
}

func TestDependencyCheckDegradesReadiness(t *testing.T) {
	c := NewChecker()
	c.Register("segments", SegmentsCheck(func() int { return 1 }))
	c.Register("cache", DependencyCheck(func(context.Context) error {
		return errors.New("redis ping failed")
	}))

	rec := httptest.NewRecorder()
	c.ReadyHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "redis ping failed", report.Components["cache"].Message)

	ok := DependencyCheck(func(context.Context) error { return nil })(context.Background())
	assert.Equal(t, StatusUp, ok.Status)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}
