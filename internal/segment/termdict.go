package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/blevesearch/vellum"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/automaton"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/index"
)

// termDictionary is a field's FST. Automaton searches walk the FST and skip
// every subtree whose state the automaton reports it cannot match from.
// FST values are postings offsets; the doc frequency is read from the
// header of the posting list they point at.
type termDictionary struct {
	fst      *vellum.FST
	postings []byte
}

func (d *termDictionary) Search(a automaton.Automaton) (index.TermStreamer, error) {
	it, err := d.fst.Search(a, nil, nil)
	return d.newStreamer(it, err)
}

func (d *termDictionary) Range(lo, hi []byte) (index.TermStreamer, error) {
	it, err := d.fst.Iterator(lo, hi)
	return d.newStreamer(it, err)
}

func (d *termDictionary) Get(term []byte) (index.TermInfo, bool, error) {
	offset, ok, err := d.fst.Get(term)
	if err != nil {
		return index.TermInfo{}, false, fmt.Errorf("looking up term %q: %w", term, err)
	}
	if !ok {
		return index.TermInfo{}, false, nil
	}
	return d.termInfo(offset), true, nil
}

// termInfo resolves an FST value. A corrupt header yields DocFreq 0; the
// posting list read that follows reports the corruption.
func (d *termDictionary) termInfo(offset uint64) index.TermInfo {
	info := index.TermInfo{PostingsOffset: offset}
	if offset < uint64(len(d.postings)) {
		if docFreq, n := binary.Uvarint(d.postings[offset:]); n > 0 && docFreq <= math.MaxUint32 {
			info.DocFreq = uint32(docFreq)
		}
	}
	return info
}

func (d *termDictionary) Len() int {
	return d.fst.Len()
}

// termStreamer adapts a vellum iterator, which is positioned on its first
// entry when created, to the Advance-first cursor contract.
type termStreamer struct {
	dict    *termDictionary
	it      *vellum.FSTIterator
	started bool
	done    bool
	key     []byte
	value   uint64
	err     error
}

func (d *termDictionary) newStreamer(it *vellum.FSTIterator, err error) (index.TermStreamer, error) {
	if errors.Is(err, vellum.ErrIteratorDone) {
		return &termStreamer{done: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &termStreamer{dict: d, it: it}, nil
}

func (s *termStreamer) Advance() bool {
	if s.done {
		return false
	}
	if s.started {
		if err := s.it.Next(); err != nil {
			s.done = true
			if !errors.Is(err, vellum.ErrIteratorDone) {
				s.err = err
			}
			return false
		}
	}
	s.started = true
	key, value := s.it.Current()
	s.key = append(s.key[:0], key...)
	s.value = value
	return true
}

func (s *termStreamer) Key() []byte {
	return s.key
}

func (s *termStreamer) Value() index.TermInfo {
	return s.dict.termInfo(s.value)
}

func (s *termStreamer) Err() error {
	return s.err
}
