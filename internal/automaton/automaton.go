// Package automaton provides deterministic byte automata used to restrict a
// term dictionary traversal. Every automaton here satisfies vellum.Automaton,
// so it can drive an FST search directly.
package automaton

import (
	"github.com/blevesearch/vellum"
)

// Automaton is a deterministic state machine over bytes.
//
// Implementations are immutable after construction: Accept computes a new
// state from its arguments and never mutates the receiver.
type Automaton interface {
	// Start returns the initial state.
	Start() int

	// IsMatch reports whether the input consumed so far is accepted.
	IsMatch(state int) bool

	// CanMatch reports whether some continuation from state can be accepted.
	// Dictionary traversal prunes every subtree for which it returns false.
	CanMatch(state int) bool

	// WillAlwaysMatch reports whether every continuation from state is
	// accepted.
	WillAlwaysMatch(state int) bool

	// Accept returns the state reached by consuming b.
	Accept(state int, b byte) int
}

var _ vellum.Automaton = Automaton(nil)

// Run feeds input through a and reports whether it is accepted.
func Run(a Automaton, input []byte) bool {
	state := a.Start()
	for _, b := range input {
		if !a.CanMatch(state) {
			return false
		}
		state = a.Accept(state, b)
	}
	return a.IsMatch(state)
}
