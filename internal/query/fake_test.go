package query

import (
	"errors"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/automaton"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
)

var errDisk = errors.New("disk read failed")

// fakeReader serves a single field from an in-memory term list so failures
// can be injected at each stage.
type fakeReader struct {
	maxDoc      uint32
	terms       []string
	docs        map[string][]uint32
	searchErr   error
	streamErr   error
	postingsErr error
	blockErr    error
}

func (r *fakeReader) Name() string { return "fake" }
func (r *fakeReader) Schema() *schema.Schema { return schema.NewBuilder().Build() }
func (r *fakeReader) MaxDoc() uint32 { return r.maxDoc }
func (r *fakeReader) Terms() index.TermDictionary { return r }

func (r *fakeReader) InvertedIndex(field schema.Field) (index.InvertedIndex, error) {
	if field != 0 {
		return nil, index.ErrFieldNotIndexed
	}
	return r, nil
}

func (r *fakeReader) Search(a automaton.Automaton) (index.TermStreamer, error) {
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	var matched []int
	for i, term := range r.terms {
		if automaton.Run(a, []byte(term)) {
			matched = append(matched, i)
		}
	}
	return &fakeStreamer{reader: r, matched: matched, pos: -1}, nil
}

func (r *fakeReader) Get(term []byte) (index.TermInfo, bool, error) {
	for i, t := range r.terms {
		if t == string(term) {
			return r.termInfo(i), true, nil
		}
	}
	return index.TermInfo{}, false, nil
}

func (r *fakeReader) termInfo(i int) index.TermInfo {
	return index.TermInfo{DocFreq: uint32(len(r.docs[r.terms[i]])), PostingsOffset: uint64(i)}
}

func (r *fakeReader) Range(lo, hi []byte) (index.TermStreamer, error) {
	return nil, errors.New("not supported")
}

func (r *fakeReader) Len() int { return len(r.terms) }

func (r *fakeReader) ReadBlockPostings(info index.TermInfo, _ schema.IndexRecordOption) (index.BlockPostings, error) {
	if r.postingsErr != nil {
		return nil, r.postingsErr
	}
	return &fakePostings{docs: r.docs[r.terms[info.PostingsOffset]], err: r.blockErr}, nil
}

type fakeStreamer struct {
	reader  *fakeReader
	matched []int
	pos     int
	err     error
}

func (s *fakeStreamer) Advance() bool {
	if s.pos+1 >= len(s.matched) {
		s.err = s.reader.streamErr
		return false
	}
	s.pos++
	return true
}

func (s *fakeStreamer) Key() []byte { return []byte(s.reader.terms[s.matched[s.pos]]) }

func (s *fakeStreamer) Value() index.TermInfo {
	return s.reader.termInfo(s.matched[s.pos])
}

func (s *fakeStreamer) Err() error { return s.err }

// fakePostings yields one doc per block.
type fakePostings struct {
	docs []uint32
	cur  []uint32
	err  error
}

func (p *fakePostings) Advance() bool {
	if len(p.docs) == 0 {
		return false
	}
	p.cur, p.docs = p.docs[:1], p.docs[1:]
	return true
}

func (p *fakePostings) Docs() []uint32 { return p.cur }
func (p *fakePostings) DocFreq() uint32 { return uint32(len(p.docs)) }
func (p *fakePostings) Err() error { return p.err }

type observation struct {
	kind  string
	terms int
	docs  uint64
	err   error
}

type recordingObserver struct {
	calls []observation
}

func (o *recordingObserver) ObserveScorer(kind string, terms int, docs uint64, _ time.Duration, err error) {
	o.calls = append(o.calls, observation{kind: kind, terms: terms, docs: docs, err: err})
}

type fakeSearcher struct {
	segments []index.SegmentReader
	observer Observer
}

func (s *fakeSearcher) Segments() []index.SegmentReader { return s.segments }
func (s *fakeSearcher) Observer() Observer { return s.observer }
