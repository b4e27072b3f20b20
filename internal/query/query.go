// Package query turns query descriptions into per-segment scorers.
//
// A Query is immutable and may be shared across goroutines. Query.Weight is
// called once per search; Weight.Scorer once per segment, possibly
// concurrently for different segments.
package query

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/docset"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/index"
)

// Query describes what to match.
type Query interface {
	// Weight prepares the query for one search. Queries without graded
	// relevance ignore scoringEnabled.
	Weight(searcher Searcher, scoringEnabled bool) (Weight, error)
	String() string
}

// Weight builds a Scorer for each segment of a search.
type Weight interface {
	Scorer(reader index.SegmentReader) (docset.Scorer, error)
}

// Searcher is the search-wide context a Query may consult when building its
// Weight. A nil Searcher is allowed.
type Searcher interface {
	Segments() []index.SegmentReader
	Observer() Observer
}

// Observer receives one call per scorer build. kind names the query type.
type Observer interface {
	ObserveScorer(kind string, terms int, docs uint64, elapsed time.Duration, err error)
}

func observerOf(s Searcher) Observer {
	if s == nil {
		return nil
	}
	return s.Observer()
}
