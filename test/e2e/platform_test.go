// Package e2e contains end-to-end tests against a running search service
// started with `fuzzysearch serve` over an indexed data directory.
//
// Prerequisites:
//   - documents indexed with `fuzzysearch index --field country`
//   - `fuzzysearch serve` listening on E2E_SEARCH_URL
//
// Run with:
//
//	go test -v -timeout=60s ./test/e2e/...
//
// Every test skips when the service is unreachable.
package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

type e2eConfig struct {
	SearchURL  string
	MetricsURL string
	Field      string
	Query      string
	Distance   int
}

func loadE2EConfig() e2eConfig {
	searchURL := envOrDefault("E2E_SEARCH_URL", "http://localhost:8080")
	return e2eConfig{
		SearchURL:  searchURL,
		MetricsURL: envOrDefault("E2E_METRICS_URL", searchURL),
		Field:      envOrDefault("E2E_FIELD", "country"),
		Query:      envOrDefault("E2E_QUERY", "japon"),
		Distance:   envOrDefaultInt("E2E_DISTANCE", 1),
	}
}

type searchResult struct {
	Term      string `json:"term"`
	Mode      string `json:"mode"`
	TotalHits uint64 `json:"total_hits"`
	Hits      []struct {
		Segment string  `json:"segment"`
		Doc     uint32  `json:"doc"`
		Score   float32 `json:"score"`
	} `json:"hits"`
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

// TestServiceHealth verifies liveness and readiness probes respond.
func TestServiceHealth(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 5 * time.Second}

	for _, path := range []string{"/health/live", "/health/ready"} {
		t.Run(path, func(t *testing.T) {
			resp, err := client.Get(cfg.SearchURL + path)
			if err != nil {
				t.Skipf("service unavailable: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("expected 200, got %d: %s", resp.StatusCode, body)
			}
		})
	}
}

// TestFuzzySearch issues a fuzzy query and checks the response contract:
// constant scores, no duplicate documents and hits ordered by segment then
// document.
func TestFuzzySearch(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 10 * time.Second}

	params := url.Values{
		"q":        {cfg.Query},
		"field":    {cfg.Field},
		"distance": {strconv.Itoa(cfg.Distance)},
		"limit":    {"100"},
	}
	resp, err := client.Get(cfg.SearchURL + "/api/v1/search?" + params.Encode())
	if err != nil {
		t.Skipf("service unavailable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var result searchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	t.Logf("term=%q total_hits=%d returned=%d", result.Term, result.TotalHits, len(result.Hits))

	if uint64(len(result.Hits)) > result.TotalHits {
		t.Errorf("returned %d hits but total_hits is %d", len(result.Hits), result.TotalHits)
	}
	seen := make(map[string]bool)
	for i, hit := range result.Hits {
		if hit.Score != 1 {
			t.Errorf("hit %d: expected score 1, got %v", i, hit.Score)
		}
		key := hit.Segment + "/" + strconv.Itoa(int(hit.Doc))
		if seen[key] {
			t.Errorf("duplicate hit %s", key)
		}
		seen[key] = true
		if i > 0 {
			prev := result.Hits[i-1]
			if prev.Segment > hit.Segment || (prev.Segment == hit.Segment && prev.Doc >= hit.Doc) {
				t.Errorf("hits out of order at %d: %s/%d after %s/%d", i, hit.Segment, hit.Doc, prev.Segment, prev.Doc)
			}
		}
	}
}

// TestFuzzyNeverLosesExactMatches verifies a fuzzy query matches at least
// everything the exact term query matches.
func TestFuzzyNeverLosesExactMatches(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 10 * time.Second}

	total := func(mode string) uint64 {
		params := url.Values{"q": {cfg.Query}, "field": {cfg.Field}, "mode": {mode}}
		resp, err := client.Get(cfg.SearchURL + "/api/v1/search?" + params.Encode())
		if err != nil {
			t.Skipf("service unavailable: %v", err)
		}
		defer resp.Body.Close()
		var result searchResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("decoding %s response: %v", mode, err)
		}
		return result.TotalHits
	}

	exact := total("term")
	fuzzy := total("fuzzy")
	if fuzzy < exact {
		t.Errorf("fuzzy matched %d documents, fewer than the %d exact matches", fuzzy, exact)
	}
}

// TestMetricsExposed verifies search counters appear in the scrape output.
func TestMetricsExposed(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(cfg.MetricsURL + "/metrics")
	if err != nil {
		t.Skipf("metrics endpoint unavailable: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"search_queries_total", "scorer_builds_total", "segments_loaded"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metric %s missing from scrape output", name)
		}
	}
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
