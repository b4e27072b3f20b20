// Package index declares the read-only view of a segment that query
// evaluation consumes: per-field term dictionaries, block posting lists and
// the segment's document bound. internal/segment provides the on-disk
// implementation.
package index

import (
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/automaton"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
)

// TermInfo locates a term's posting list inside its field's postings region.
type TermInfo struct {
	// DocFreq is the number of documents containing the term.
	DocFreq        uint32
	PostingsOffset uint64
}

// TermStreamer is a forward cursor over dictionary entries in ascending byte
// order. Key and Value are valid only after Advance has returned true, and the
// slice returned by Key is only valid until the next call to Advance.
type TermStreamer interface {
	Advance() bool
	Key() []byte
	Value() TermInfo
	// Err reports the error that stopped the stream early, if any.
	Err() error
}

// TermDictionary is a sorted map from term bytes to TermInfo.
type TermDictionary interface {
	// Search streams exactly the entries whose keys a accepts.
	Search(a automaton.Automaton) (TermStreamer, error)
	// Get looks up a single term.
	Get(term []byte) (TermInfo, bool, error)
	// Range streams entries with lo <= key < hi. Nil bounds are open.
	Range(lo, hi []byte) (TermStreamer, error)
	Len() int
}

// BlockPostings yields the document ids of one posting list in ascending
// blocks. Docs is valid after Advance returns true and until the next call.
type BlockPostings interface {
	Advance() bool
	Docs() []uint32
	DocFreq() uint32
	Err() error
}

// InvertedIndex is one field's view of a segment.
type InvertedIndex interface {
	Terms() TermDictionary
	ReadBlockPostings(info TermInfo, option schema.IndexRecordOption) (BlockPostings, error)
}

// SegmentReader is the per-segment input to query evaluation. Implementations
// are immutable and safe for concurrent use.
type SegmentReader interface {
	Name() string
	Schema() *schema.Schema
	// MaxDoc is one more than the largest document id in the segment.
	MaxDoc() uint32
	// InvertedIndex returns ErrFieldNotIndexed when the segment holds no
	// terms for field.
	InvertedIndex(field schema.Field) (InvertedIndex, error)
}
