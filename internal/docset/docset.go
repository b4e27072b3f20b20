package docset

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Terminated is the value of Doc once a DocSet is exhausted.
const Terminated uint32 = math.MaxUint32

// DocSet is a forward-only cursor over document ids in ascending order. A new
// DocSet is positioned before its first id; Doc is valid after Advance or
// SkipTo has returned true.
type DocSet interface {
	Advance() bool
	// SkipTo moves to the first id >= target and reports whether one exists.
	// It never moves backwards.
	SkipTo(target uint32) bool
	Doc() uint32
	// SizeHint is an upper bound on the number of ids left.
	SizeHint() uint32
}

// Scorer is a DocSet whose current document carries a score.
type Scorer interface {
	DocSet
	Score() float32
}

// BitSetDocSet iterates the ids of a DocBitSet.
type BitSetDocSet struct {
	it   roaring.IntPeekable
	doc  uint32
	size uint32
}

func NewBitSetDocSet(bits *DocBitSet) *BitSetDocSet {
	return &BitSetDocSet{
		it:   bits.bits.Iterator(),
		doc:  Terminated,
		size: uint32(bits.Len()),
	}
}

func (d *BitSetDocSet) Advance() bool {
	if !d.it.HasNext() {
		d.doc = Terminated
		return false
	}
	d.doc = d.it.Next()
	if d.size > 0 {
		d.size--
	}
	return true
}

func (d *BitSetDocSet) SkipTo(target uint32) bool {
	if d.doc != Terminated && d.doc >= target {
		return true
	}
	d.it.AdvanceIfNeeded(target)
	return d.Advance()
}

func (d *BitSetDocSet) Doc() uint32 {
	return d.doc
}

func (d *BitSetDocSet) SizeHint() uint32 {
	return d.size
}

// Empty returns a DocSet with no ids.
func Empty() DocSet {
	return emptyDocSet{}
}

type emptyDocSet struct{}

func (emptyDocSet) Advance() bool { return false }

func (emptyDocSet) SkipTo(uint32) bool { return false }

func (emptyDocSet) Doc() uint32 { return Terminated }

func (emptyDocSet) SizeHint() uint32 { return 0 }

// Collect drains d into a slice.
func Collect(d DocSet) []uint32 {
	out := make([]uint32, 0, d.SizeHint())
	for d.Advance() {
		out = append(out, d.Doc())
	}
	return out
}
