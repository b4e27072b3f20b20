// Package segment builds, writes and reads immutable index segments.
//
// A segment file holds, per indexed field, a vellum FST mapping each term to
// the offset of its roaring posting list. Readers mmap the file and serve
// index.SegmentReader without copying postings off the mapping until a list
// is decoded.
package segment

import (
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/tokenizer"
)

// TermEntry is one term of a field and the documents containing it.
type TermEntry struct {
	Term string
	Docs *roaring.Bitmap
}

// FieldTerms is a field's terms in ascending byte order.
type FieldTerms struct {
	Field schema.Field
	Terms []TermEntry
}

// Builder accumulates documents in memory. Document ids are assigned densely
// in insertion order starting at 0.
type Builder struct {
	mu        sync.RWMutex
	schema    *schema.Schema
	analyzers map[schema.Field]tokenizer.Analyzer
	fields    map[schema.Field]map[string]*roaring.Bitmap
	maxDoc    uint32
	size      int64
}

func NewBuilder(s *schema.Schema) (*Builder, error) {
	analyzers := make(map[schema.Field]tokenizer.Analyzer)
	for _, entry := range s.Entries() {
		if !entry.Options.Indexed {
			continue
		}
		a, err := tokenizer.Lookup(entry.Options.Analyzer)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", entry.Name, err)
		}
		analyzers[entry.ID] = a
	}
	return &Builder{
		schema:    s,
		analyzers: analyzers,
		fields:    make(map[schema.Field]map[string]*roaring.Bitmap),
	}, nil
}

// AddDocument indexes doc and returns its id. Values of unknown or
// non-indexed fields are ignored.
func (b *Builder) AddDocument(doc *schema.Document) (uint32, error) {
	termData := make(map[schema.Field]map[string]struct{})
	for _, v := range doc.Values() {
		analyze, ok := b.analyzers[v.Field]
		if !ok {
			continue
		}
		terms, exists := termData[v.Field]
		if !exists {
			terms = make(map[string]struct{})
			termData[v.Field] = terms
		}
		for _, tok := range analyze(v.Text) {
			terms[tok.Term] = struct{}{}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxDoc == ^uint32(0) {
		return 0, fmt.Errorf("segment full: %d documents", b.maxDoc)
	}
	docID := b.maxDoc
	for field, terms := range termData {
		postings, exists := b.fields[field]
		if !exists {
			postings = make(map[string]*roaring.Bitmap)
			b.fields[field] = postings
		}
		for term := range terms {
			bm, exists := postings[term]
			if !exists {
				bm = roaring.New()
				postings[term] = bm
				b.size += int64(len(term) + 64)
			}
			bm.Add(docID)
			b.size += 4
		}
	}
	b.maxDoc++
	return docID, nil
}

// Snapshot returns the indexed terms of every field, fields in id order and
// terms in byte order. The bitmaps are copies.
func (b *Builder) Snapshot() []FieldTerms {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]FieldTerms, 0, len(b.fields))
	for field, postings := range b.fields {
		terms := make([]TermEntry, 0, len(postings))
		for term, bm := range postings {
			terms = append(terms, TermEntry{
				Term: term,
				Docs: bm.Clone(),
			})
		}
		sort.Slice(terms, func(i, j int) bool {
			return terms[i].Term < terms[j].Term
		})
		out = append(out, FieldTerms{Field: field, Terms: terms})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Field < out[j].Field
	})
	return out
}

func (b *Builder) Schema() *schema.Schema {
	return b.schema
}

func (b *Builder) MaxDoc() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.maxDoc
}

// Size is an estimate of the builder's memory footprint in bytes.
func (b *Builder) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fields = make(map[schema.Field]map[string]*roaring.Bitmap)
	b.maxDoc = 0
	b.size = 0
}
