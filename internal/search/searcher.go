// Package search runs a query over a set of segments. Segment scorers are
// built in parallel; collection then proceeds sequentially in segment order.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/docset"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/tracing"
)

// Options tunes a Searcher. The zero value scores one segment at a time with
// no deadline and fails the search on the first segment error.
type Options struct {
	Parallelism int
	Timeout     time.Duration
	// SkipFailedSegments drops segments whose scorer fails instead of
	// failing the search. The search still fails if every segment fails.
	SkipFailedSegments bool
	// QuarantineThreshold, when positive together with SkipFailedSegments,
	// stops scoring a segment after that many consecutive failures until
	// QuarantineDuration has passed.
	QuarantineThreshold int
	QuarantineDuration  time.Duration
	// Trace logs the span tree of every search at debug level.
	Trace   bool
	Metrics *metrics.Metrics
}

// Searcher evaluates queries over an immutable list of segments. It is safe
// for concurrent use.
type Searcher struct {
	segments []index.SegmentReader
	breakers []*resilience.Breaker
	opts     Options
	logger   *slog.Logger
}

var _ query.Searcher = (*Searcher)(nil)

func New(segments []index.SegmentReader, opts Options) *Searcher {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	s := &Searcher{
		segments: segments,
		opts:     opts,
		logger:   logger.WithComponent("searcher"),
	}
	if opts.SkipFailedSegments && opts.QuarantineThreshold > 0 {
		s.breakers = make([]*resilience.Breaker, len(segments))
		for i, seg := range segments {
			s.breakers[i] = resilience.NewBreaker("segment "+seg.Name(), resilience.BreakerConfig{
				FailureThreshold: opts.QuarantineThreshold,
				ResetTimeout:     opts.QuarantineDuration,
			})
		}
	}
	return s
}

func (s *Searcher) Segments() []index.SegmentReader {
	return s.segments
}

func (s *Searcher) Observer() query.Observer {
	if s.opts.Metrics == nil {
		return nil
	}
	return s.opts.Metrics
}

// MaxDoc sums the document bounds of all segments.
func (s *Searcher) MaxDoc() uint64 {
	var n uint64
	for _, seg := range s.segments {
		n += uint64(seg.MaxDoc())
	}
	return n
}

// Search builds q's weight once, scores every segment and feeds the scorers
// to c in segment order.
func (s *Searcher) Search(ctx context.Context, q query.Query, c Collector) error {
	start := time.Now()
	isRoot := tracing.SpanFromContext(ctx) == nil
	ctx, span := tracing.StartChildSpan(ctx, "search")
	span.SetAttr("query", q.String())
	span.SetAttr("segments", len(s.segments))
	log := logger.FromContext(ctx).With("component", "searcher")

	err := s.search(ctx, q, c)
	elapsed := time.Since(start)

	span.SetAttr("total_hits", c.TotalHits())
	span.RecordError(err)
	span.End()
	if isRoot && s.opts.Trace {
		span.Log(log)
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveSearch(queryType(q), int(c.TotalHits()), elapsed, err)
	}
	if err != nil {
		log.Error("search failed", "query", q.String(), "error", err, "duration", elapsed)
		return err
	}
	log.Info("search executed",
		"query", q.String(),
		"segments", len(s.segments),
		"total_hits", c.TotalHits(),
		"duration", elapsed,
	)
	return nil
}

func (s *Searcher) search(ctx context.Context, q query.Query, c Collector) error {
	weight, err := q.Weight(s, true)
	if err != nil {
		return err
	}
	scorers, err := s.scoreSegments(ctx, weight)
	if err != nil {
		return err
	}
	for ord, scorer := range scorers {
		if scorer == nil {
			continue
		}
		if err := c.CollectSegment(ord, s.segments[ord], scorer); err != nil {
			return fmt.Errorf("collecting segment %s: %w", s.segments[ord].Name(), err)
		}
	}
	return nil
}

// scoreSegments builds one scorer per segment. Skipped segments leave a nil
// entry.
func (s *Searcher) scoreSegments(ctx context.Context, weight query.Weight) ([]docset.Scorer, error) {
	scorers := make([]docset.Scorer, len(s.segments))
	failed := make([]error, len(s.segments))

	err := resilience.WithTimeout(ctx, s.opts.Timeout, "search", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.Parallelism)
		for i, seg := range s.segments {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				scorer, err := s.scoreSegment(gctx, i, weight)
				if err == nil {
					scorers[i] = scorer
					return nil
				}
				err = fmt.Errorf("segment %s: %w", seg.Name(), err)
				if !s.opts.SkipFailedSegments {
					return err
				}
				s.logger.Warn("skipping failed segment", "segment", seg.Name(), "error", err)
				failed[i] = err
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	var failures []error
	for _, err := range failed {
		if err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 && len(failures) == len(s.segments) {
		return nil, fmt.Errorf("%w: all %d segments failed: %w", apperrors.ErrSegmentsDegraded, len(s.segments), errors.Join(failures...))
	}
	return scorers, nil
}

// scoreSegment builds the scorer of segment i, honouring its quarantine
// breaker when one is configured. ctx is the fan-out group's context; the
// segment span notes when a sibling failure cancelled it mid-build.
func (s *Searcher) scoreSegment(ctx context.Context, i int, weight query.Weight) (docset.Scorer, error) {
	seg := s.segments[i]
	var breaker *resilience.Breaker
	if s.breakers != nil {
		breaker = s.breakers[i]
		if err := breaker.Allow(); err != nil {
			return nil, err
		}
	}

	_, span := tracing.StartChildSpan(ctx, "segment")
	span.SetAttr("segment", seg.Name())
	scorer, err := weight.Scorer(seg)
	span.RecordError(err)
	if ctx.Err() != nil {
		span.SetAttr("cancelled", true)
	}
	span.End()

	if breaker != nil {
		breaker.Record(err)
	}
	return scorer, err
}

// TopDocs runs q and returns up to limit hits with the total match count.
func (s *Searcher) TopDocs(ctx context.Context, q query.Query, limit int) ([]Hit, uint64, error) {
	c := NewTopDocs(limit)
	if err := s.Search(ctx, q, c); err != nil {
		return nil, 0, err
	}
	return c.Results(), c.TotalHits(), nil
}

// Count runs q and returns the number of matching documents.
func (s *Searcher) Count(ctx context.Context, q query.Query) (uint64, error) {
	c := NewCount()
	if err := s.Search(ctx, q, c); err != nil {
		return 0, err
	}
	return c.TotalHits(), nil
}

func queryType(q query.Query) string {
	switch q := q.(type) {
	case *query.FuzzyTermQuery:
		if q.IsPrefix() {
			return "fuzzy_prefix"
		}
		return "fuzzy"
	case *query.TermQuery:
		return "term"
	case *query.PrefixQuery:
		return "prefix"
	default:
		return "other"
	}
}
