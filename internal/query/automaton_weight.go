package query

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/automaton"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/docset"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/logger"
)

// ConstScore is the score of every document an AutomatonWeight matches.
const ConstScore float32 = 1.0

// AutomatonBuilder constructs a new, independent automaton on every call.
// Repeated calls yield automata accepting the same language.
type AutomatonBuilder interface {
	BuildAutomaton() (automaton.Automaton, error)
}

// AutomatonBuilderFunc adapts a function to AutomatonBuilder.
type AutomatonBuilderFunc func() (automaton.Automaton, error)

func (f AutomatonBuilderFunc) BuildAutomaton() (automaton.Automaton, error) {
	return f()
}

// AutomatonWeight matches every document of a segment containing a term of
// field that the builder's automaton accepts. Matches are collected into a
// bitset, so each document appears once and in ascending order, all with
// ConstScore.
type AutomatonWeight struct {
	field    schema.Field
	builder  AutomatonBuilder
	kind     string
	observer Observer
	logger   *slog.Logger
}

// NewAutomatonWeight creates a weight over field. kind labels logs and
// observations; observer may be nil.
func NewAutomatonWeight(field schema.Field, builder AutomatonBuilder, kind string, observer Observer) *AutomatonWeight {
	return &AutomatonWeight{
		field:    field,
		builder:  builder,
		kind:     kind,
		observer: observer,
		logger:   logger.WithComponent("query"),
	}
}

func (w *AutomatonWeight) Field() schema.Field {
	return w.field
}

// Scorer scans the segment's dictionary with a fresh automaton and returns a
// constant-score scorer over every matching document. Any dictionary or
// postings failure aborts the scan; no partial result is returned.
func (w *AutomatonWeight) Scorer(reader index.SegmentReader) (docset.Scorer, error) {
	start := time.Now()
	bits, terms, err := w.matchingDocs(reader)
	elapsed := time.Since(start)

	var docs uint64
	if bits != nil {
		docs = bits.Len()
	}
	if w.observer != nil {
		w.observer.ObserveScorer(w.kind, terms, docs, elapsed, err)
	}
	if err != nil {
		return nil, err
	}
	w.logger.Debug("scorer built",
		"query_type", w.kind,
		"segment", reader.Name(),
		"field", w.field,
		"terms_matched", terms,
		"docs_matched", docs,
		"duration", elapsed,
	)
	return docset.NewConstScorer(docset.NewBitSetDocSet(bits), ConstScore), nil
}

func (w *AutomatonWeight) matchingDocs(reader index.SegmentReader) (*docset.DocBitSet, int, error) {
	bits := docset.NewDocBitSet(reader.MaxDoc())

	a, err := w.builder.BuildAutomaton()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", apperrors.ErrAutomatonBuild, err)
	}

	inv, err := reader.InvertedIndex(w.field)
	if errors.Is(err, index.ErrFieldNotIndexed) {
		return bits, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: segment %s: %w", apperrors.ErrDictionaryRead, reader.Name(), err)
	}

	stream, err := inv.Terms().Search(a)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: segment %s, field %d: %w", apperrors.ErrDictionaryRead, reader.Name(), w.field, err)
	}
	terms := 0
	for stream.Advance() {
		terms++
		if err := insertPostings(bits, inv, stream.Value()); err != nil {
			return nil, terms, fmt.Errorf("%w: segment %s, term %q: %w", apperrors.ErrPostingsRead, reader.Name(), stream.Key(), err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, terms, fmt.Errorf("%w: segment %s, field %d: %w", apperrors.ErrDictionaryRead, reader.Name(), w.field, err)
	}
	return bits, terms, nil
}

// insertPostings reads only document ids; frequencies and positions play no
// part in set membership.
func insertPostings(bits *docset.DocBitSet, inv index.InvertedIndex, info index.TermInfo) error {
	postings, err := inv.ReadBlockPostings(info, schema.RecordBasic)
	if err != nil {
		return err
	}
	for postings.Advance() {
		if err := bits.InsertMany(postings.Docs()); err != nil {
			return err
		}
	}
	return postings.Err()
}
