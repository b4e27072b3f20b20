package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/errors"
)

// BlockSize is the number of document ids per block of BlockPostings.
const BlockSize = 128

// fieldIndex is a field's dictionary and postings region.
type fieldIndex struct {
	dict     *termDictionary
	postings []byte
}

func (fi *fieldIndex) Terms() index.TermDictionary {
	return fi.dict
}

func (fi *fieldIndex) ReadBlockPostings(info index.TermInfo, option schema.IndexRecordOption) (index.BlockPostings, error) {
	if option != schema.RecordBasic {
		return nil, fmt.Errorf("record option %s not stored in segment", option)
	}
	bm, docFreq, err := decodePostings(fi.postings, info.PostingsOffset)
	if err != nil {
		return nil, err
	}
	return &blockPostings{
		it:      bm.ManyIterator(),
		docFreq: docFreq,
	}, nil
}

func decodePostings(region []byte, offset uint64) (*roaring.Bitmap, uint32, error) {
	if offset >= uint64(len(region)) {
		return nil, 0, fmt.Errorf("%w: postings offset %d outside region of %d bytes",
			apperrors.ErrCorruptSegment, offset, len(region))
	}
	data := region[offset:]
	docFreq, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, 0, fmt.Errorf("%w: bad doc frequency at postings offset %d", apperrors.ErrCorruptSegment, offset)
	}
	data = data[n:]
	size, n := binary.Uvarint(data)
	if n <= 0 || size > uint64(len(data)-n) {
		return nil, 0, fmt.Errorf("%w: bad postings length at offset %d", apperrors.ErrCorruptSegment, offset)
	}
	data = data[n : n+int(size)]

	bm := roaring.New()
	if err := bm.UnmarshalBinary(data); err != nil {
		return nil, 0, fmt.Errorf("%w: decoding postings at offset %d: %v", apperrors.ErrCorruptSegment, offset, err)
	}
	if bm.GetCardinality() != docFreq {
		return nil, 0, fmt.Errorf("%w: postings at offset %d hold %d docs, header says %d",
			apperrors.ErrCorruptSegment, offset, bm.GetCardinality(), docFreq)
	}
	return bm, uint32(docFreq), nil
}

type blockPostings struct {
	it      roaring.ManyIntIterable
	buf     [BlockSize]uint32
	n       int
	docFreq uint32
}

func (p *blockPostings) Advance() bool {
	p.n = p.it.NextMany(p.buf[:])
	return p.n > 0
}

func (p *blockPostings) Docs() []uint32 {
	return p.buf[:p.n]
}

func (p *blockPostings) DocFreq() uint32 {
	return p.docFreq
}

func (p *blockPostings) Err() error {
	return nil
}
