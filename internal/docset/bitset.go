// Package docset holds per-segment sets of document ids and the iterators
// and scorers built on them.
package docset

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

var ErrDocOutOfRange = errors.New("doc id out of range")

// DocBitSet is a set of document ids bounded by a segment's maxDoc.
// Insertion is idempotent. It is not safe for concurrent writers.
type DocBitSet struct {
	maxDoc uint32
	bits   *roaring.Bitmap
}

func NewDocBitSet(maxDoc uint32) *DocBitSet {
	return &DocBitSet{
		maxDoc: maxDoc,
		bits:   roaring.New(),
	}
}

// Insert adds doc to the set. It fails for doc >= MaxDoc.
func (s *DocBitSet) Insert(doc uint32) error {
	if doc >= s.maxDoc {
		return fmt.Errorf("%w: doc %d, max_doc %d", ErrDocOutOfRange, doc, s.maxDoc)
	}
	s.bits.Add(doc)
	return nil
}

// InsertMany adds a block of ids. Either every id is added or none is.
func (s *DocBitSet) InsertMany(docs []uint32) error {
	for _, doc := range docs {
		if doc >= s.maxDoc {
			return fmt.Errorf("%w: doc %d, max_doc %d", ErrDocOutOfRange, doc, s.maxDoc)
		}
	}
	s.bits.AddMany(docs)
	return nil
}

func (s *DocBitSet) Contains(doc uint32) bool {
	return s.bits.Contains(doc)
}

func (s *DocBitSet) Len() uint64 {
	return s.bits.GetCardinality()
}

func (s *DocBitSet) MaxDoc() uint32 {
	return s.maxDoc
}

// ToSlice returns the ids in ascending order.
func (s *DocBitSet) ToSlice() []uint32 {
	return s.bits.ToArray()
}
