package automaton

// dead is the sink state shared by Exact, Prefix and LengthAtMost. Live
// states are positive.
const dead = 0

// Exact accepts a single byte string.
//
// State s > 0 means the first s-1 bytes of the target have been consumed.
type Exact struct {
	target []byte
}

func NewExact(target []byte) *Exact {
	t := make([]byte, len(target))
	copy(t, target)
	return &Exact{target: t}
}

func (a *Exact) Start() int { return 1 }

func (a *Exact) Accept(state int, b byte) int {
	if state == dead {
		return dead
	}
	pos := state - 1
	if pos < len(a.target) && a.target[pos] == b {
		return state + 1
	}
	return dead
}

func (a *Exact) IsMatch(state int) bool {
	return state-1 == len(a.target)
}

func (a *Exact) CanMatch(state int) bool {
	return state != dead
}

func (a *Exact) WillAlwaysMatch(int) bool {
	return false
}

// Prefix accepts every byte string starting with prefix. Once the prefix is
// consumed the automaton stays in its accepting state.
type Prefix struct {
	prefix []byte
}

func NewPrefix(prefix []byte) *Prefix {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return &Prefix{prefix: p}
}

func (a *Prefix) Start() int { return 1 }

func (a *Prefix) Accept(state int, b byte) int {
	if state == dead {
		return dead
	}
	pos := state - 1
	if pos >= len(a.prefix) {
		return state
	}
	if a.prefix[pos] == b {
		return state + 1
	}
	return dead
}

func (a *Prefix) IsMatch(state int) bool {
	return state != dead && state-1 >= len(a.prefix)
}

func (a *Prefix) CanMatch(state int) bool {
	return state != dead
}

func (a *Prefix) WillAlwaysMatch(state int) bool {
	return a.IsMatch(state)
}

// LengthAtMost accepts every UTF-8 string of at most n code points. It is
// the Levenshtein automaton of the empty string.
type LengthAtMost struct {
	n int
}

func NewLengthAtMost(n int) *LengthAtMost {
	return &LengthAtMost{n: n}
}

// State s > 0 means s-1 code points have started so far.
func (a *LengthAtMost) Start() int { return 1 }

func (a *LengthAtMost) Accept(state int, b byte) int {
	if state == dead {
		return dead
	}
	if b&0xC0 == 0x80 {
		return state
	}
	if state-1 >= a.n {
		return dead
	}
	return state + 1
}

func (a *LengthAtMost) IsMatch(state int) bool {
	return state != dead
}

func (a *LengthAtMost) CanMatch(state int) bool {
	return state != dead
}

func (a *LengthAtMost) WillAlwaysMatch(int) bool {
	return false
}

// matchAll accepts every input.
type matchAll struct{}

func (matchAll) Start() int { return 1 }

func (matchAll) Accept(state int, _ byte) int { return state }

func (matchAll) IsMatch(int) bool { return true }

func (matchAll) CanMatch(int) bool { return true }

func (matchAll) WillAlwaysMatch(int) bool { return true }

// MatchAll returns an automaton accepting every byte string.
func MatchAll() Automaton {
	return matchAll{}
}

// prefixClosure accepts s when some prefix of s is accepted by inner.
// State 0 is the absorbing accept state; inner state s is stored as s+1.
type prefixClosure struct {
	inner Automaton
}

const absorbed = 0

// PrefixClosure wraps inner so that reaching any accepting state accepts
// every continuation as well.
func PrefixClosure(inner Automaton) Automaton {
	return &prefixClosure{inner: inner}
}

func (p *prefixClosure) lift(s int) int {
	if p.inner.IsMatch(s) {
		return absorbed
	}
	return s + 1
}

func (p *prefixClosure) Start() int {
	return p.lift(p.inner.Start())
}

func (p *prefixClosure) Accept(state int, b byte) int {
	if state == absorbed {
		return absorbed
	}
	inner := state - 1
	if !p.inner.CanMatch(inner) {
		return state
	}
	return p.lift(p.inner.Accept(inner, b))
}

func (p *prefixClosure) IsMatch(state int) bool {
	return state == absorbed
}

func (p *prefixClosure) CanMatch(state int) bool {
	return state == absorbed || p.inner.CanMatch(state-1)
}

func (p *prefixClosure) WillAlwaysMatch(state int) bool {
	return state == absorbed
}
