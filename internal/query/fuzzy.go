package query

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/automaton"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/errors"
)

// FuzzyTermQuery matches documents containing a term within an edit
// distance of its target, or in prefix mode a term that starts with such a
// string. Every match scores ConstScore.
type FuzzyTermQuery struct {
	term                 schema.Term
	distance             uint8
	transpositionCostOne bool
	prefix               bool
}

var _ AutomatonBuilder = (*FuzzyTermQuery)(nil)

func NewFuzzyTermQuery(term schema.Term, distance uint8, transpositionCostOne bool) *FuzzyTermQuery {
	return &FuzzyTermQuery{
		term:                 term,
		distance:             distance,
		transpositionCostOne: transpositionCostOne,
	}
}

// NewFuzzyPrefixQuery matches terms having some prefix within distance of
// the target.
func NewFuzzyPrefixQuery(term schema.Term, distance uint8, transpositionCostOne bool) *FuzzyTermQuery {
	return &FuzzyTermQuery{
		term:                 term,
		distance:             distance,
		transpositionCostOne: transpositionCostOne,
		prefix:               true,
	}
}

func (q *FuzzyTermQuery) Term() schema.Term {
	return q.term
}

func (q *FuzzyTermQuery) Distance() uint8 {
	return q.distance
}

func (q *FuzzyTermQuery) TranspositionCostOne() bool {
	return q.transpositionCostOne
}

func (q *FuzzyTermQuery) IsPrefix() bool {
	return q.prefix
}

// Weight validates the automaton parameters and returns an AutomatonWeight
// over the term's field. scoringEnabled has no effect.
func (q *FuzzyTermQuery) Weight(searcher Searcher, scoringEnabled bool) (Weight, error) {
	if _, err := levenshteinBuilder(q.distance, q.transpositionCostOne); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrAutomatonBuild, q, err)
	}
	if !utf8.ValidString(q.term.Text()) {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrAutomatonBuild, q, automaton.ErrInvalidTarget)
	}
	return q.SpecializedWeight(observerOf(searcher)), nil
}

// SpecializedWeight returns the concrete weight without validating.
func (q *FuzzyTermQuery) SpecializedWeight(observer Observer) *AutomatonWeight {
	return NewAutomatonWeight(q.term.Field(), q, q.kind(), observer)
}

// BuildAutomaton returns a new Levenshtein DFA for the query's target.
func (q *FuzzyTermQuery) BuildAutomaton() (automaton.Automaton, error) {
	b, err := levenshteinBuilder(q.distance, q.transpositionCostOne)
	if err != nil {
		return nil, err
	}
	if q.prefix {
		return b.BuildPrefix(q.term.Text())
	}
	return b.Build(q.term.Text())
}

func (q *FuzzyTermQuery) kind() string {
	if q.prefix {
		return "fuzzy_prefix"
	}
	return "fuzzy"
}

func (q *FuzzyTermQuery) String() string {
	return fmt.Sprintf("FuzzyTermQuery(term=%s, distance=%d, transposition_cost_one=%t, prefix=%t)",
		q.term, q.distance, q.transpositionCostOne, q.prefix)
}

// Parametric builders are immutable and expensive to precompute, so one per
// (distance, transposition) pair is shared by every query.
var levenshteinBuilders [automaton.MaxEditDistance + 1][2]struct {
	once    sync.Once
	builder *automaton.LevenshteinBuilder
	err     error
}

func levenshteinBuilder(distance uint8, transpositionCostOne bool) (*automaton.LevenshteinBuilder, error) {
	if distance > automaton.MaxEditDistance {
		return automaton.NewLevenshteinBuilder(distance, transpositionCostOne)
	}
	t := 0
	if transpositionCostOne {
		t = 1
	}
	slot := &levenshteinBuilders[distance][t]
	slot.once.Do(func() {
		slot.builder, slot.err = automaton.NewLevenshteinBuilder(distance, transpositionCostOne)
	})
	return slot.builder, slot.err
}
