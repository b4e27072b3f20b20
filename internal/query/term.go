package query

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/automaton"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
)

// TermQuery matches documents containing exactly its term.
type TermQuery struct {
	term schema.Term
}

func NewTermQuery(term schema.Term) *TermQuery {
	return &TermQuery{term: term}
}

func (q *TermQuery) Term() schema.Term {
	return q.term
}

func (q *TermQuery) Weight(searcher Searcher, scoringEnabled bool) (Weight, error) {
	return NewAutomatonWeight(q.term.Field(), q, "term", observerOf(searcher)), nil
}

func (q *TermQuery) BuildAutomaton() (automaton.Automaton, error) {
	return automaton.NewExact(q.term.Bytes()), nil
}

func (q *TermQuery) String() string {
	return fmt.Sprintf("TermQuery(term=%s)", q.term)
}

// PrefixQuery matches documents containing a term that starts with its
// term's bytes.
type PrefixQuery struct {
	prefix schema.Term
}

func NewPrefixQuery(prefix schema.Term) *PrefixQuery {
	return &PrefixQuery{prefix: prefix}
}

func (q *PrefixQuery) Weight(searcher Searcher, scoringEnabled bool) (Weight, error) {
	return NewAutomatonWeight(q.prefix.Field(), q, "prefix", observerOf(searcher)), nil
}

func (q *PrefixQuery) BuildAutomaton() (automaton.Automaton, error) {
	return automaton.NewPrefix(q.prefix.Bytes()), nil
}

func (q *PrefixQuery) String() string {
	return fmt.Sprintf("PrefixQuery(prefix=%s)", q.prefix)
}
