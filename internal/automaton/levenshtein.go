package automaton

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/blevesearch/vellum/levenshtein"
)

// MaxEditDistance bounds the distance a LevenshteinBuilder accepts. DFA size
// grows combinatorially with the distance.
const MaxEditDistance = 2

var (
	ErrDistanceTooLarge = fmt.Errorf("edit distance exceeds maximum of %d", MaxEditDistance)
	ErrInvalidTarget    = errors.New("target is not valid utf-8")
)

// LevenshteinBuilder builds DFAs accepting the strings within a fixed edit
// distance of a target. Distances are counted in code points. With
// transpositionCostOne an adjacent swap counts as one edit instead of two.
//
// A builder is immutable and safe for concurrent use; every Build call
// returns an independent automaton.
type LevenshteinBuilder struct {
	distance             uint8
	transpositionCostOne bool
	params               *levenshtein.LevenshteinAutomatonBuilder
}

// NewLevenshteinBuilder precomputes the parametric automaton for distance.
// Distance zero needs no parametric automaton and builds exact or prefix
// automata directly.
func NewLevenshteinBuilder(distance uint8, transpositionCostOne bool) (*LevenshteinBuilder, error) {
	if distance > MaxEditDistance {
		return nil, fmt.Errorf("%w: got %d", ErrDistanceTooLarge, distance)
	}
	b := &LevenshteinBuilder{
		distance:             distance,
		transpositionCostOne: transpositionCostOne,
	}
	if distance == 0 {
		return b, nil
	}
	params, err := levenshtein.NewLevenshteinAutomatonBuilder(distance, transpositionCostOne)
	if err != nil {
		return nil, fmt.Errorf("building parametric levenshtein automaton (distance=%d): %w", distance, err)
	}
	b.params = params
	return b, nil
}

func (b *LevenshteinBuilder) Distance() uint8 {
	return b.distance
}

func (b *LevenshteinBuilder) TranspositionCostOne() bool {
	return b.transpositionCostOne
}

// Build returns an automaton accepting exactly the strings within the
// builder's distance of target.
func (b *LevenshteinBuilder) Build(target string) (Automaton, error) {
	if !utf8.ValidString(target) {
		return nil, ErrInvalidTarget
	}
	switch {
	case b.distance == 0:
		return NewExact([]byte(target)), nil
	case target == "":
		return NewLengthAtMost(int(b.distance)), nil
	}
	dfa, err := b.params.BuildDfa(target, b.distance)
	if err != nil {
		return nil, fmt.Errorf("building levenshtein dfa for %q: %w", target, err)
	}
	return dfa, nil
}

// BuildPrefix returns an automaton accepting every string that has a prefix
// within the builder's distance of target.
func (b *LevenshteinBuilder) BuildPrefix(target string) (Automaton, error) {
	if !utf8.ValidString(target) {
		return nil, ErrInvalidTarget
	}
	switch {
	case target == "":
		return MatchAll(), nil
	case b.distance == 0:
		return NewPrefix([]byte(target)), nil
	}
	exact, err := b.Build(target)
	if err != nil {
		return nil, err
	}
	return PrefixClosure(exact), nil
}
