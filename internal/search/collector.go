package search

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/docset"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/index"
)

// Hit is one matching document.
type Hit struct {
	Segment    string  `json:"segment"`
	SegmentOrd int     `json:"-"`
	Doc        uint32  `json:"doc"`
	Score      float32 `json:"score"`
}

// Collector consumes the scorer of each segment. Searcher calls
// CollectSegment sequentially, in segment order.
type Collector interface {
	CollectSegment(ord int, reader index.SegmentReader, scorer docset.Scorer) error
	TotalHits() uint64
}

// Count counts matching documents.
type Count struct {
	total uint64
}

func NewCount() *Count {
	return &Count{}
}

func (c *Count) CollectSegment(_ int, _ index.SegmentReader, scorer docset.Scorer) error {
	for scorer.Advance() {
		c.total++
	}
	return nil
}

func (c *Count) TotalHits() uint64 {
	return c.total
}

// TopDocs keeps the limit best hits: highest score first, ties broken by
// segment order then doc id.
type TopDocs struct {
	limit int
	h     hitHeap
	total uint64
}

func NewTopDocs(limit int) *TopDocs {
	if limit <= 0 {
		limit = 10
	}
	return &TopDocs{limit: limit}
}

func (c *TopDocs) CollectSegment(ord int, reader index.SegmentReader, scorer docset.Scorer) error {
	name := reader.Name()
	for scorer.Advance() {
		c.total++
		hit := Hit{Segment: name, SegmentOrd: ord, Doc: scorer.Doc(), Score: scorer.Score()}
		if c.h.Len() < c.limit {
			heap.Push(&c.h, hit)
			continue
		}
		if worse(c.h[0], hit) {
			c.h[0] = hit
			heap.Fix(&c.h, 0)
		}
	}
	return nil
}

func (c *TopDocs) TotalHits() uint64 {
	return c.total
}

// Results returns the retained hits, best first. It drains the collector.
func (c *TopDocs) Results() []Hit {
	result := make([]Hit, c.h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&c.h).(Hit)
	}
	return result
}

// worse reports whether a ranks below b.
func worse(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.SegmentOrd != b.SegmentOrd {
		return a.SegmentOrd > b.SegmentOrd
	}
	return a.Doc > b.Doc
}

// hitHeap is a min-heap with the worst retained hit on top.
type hitHeap []Hit

func (h hitHeap) Len() int { return len(h) }

func (h hitHeap) Less(i, j int) bool { return worse(h[i], h[j]) }

func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x interface{}) {
	*h = append(*h, x.(Hit))
}

func (h *hitHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
