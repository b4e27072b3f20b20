package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/errors"
)

// Segment file layout, little endian:
//
//	header      HeaderSize bytes
//	per field   postings region, then FST
//	directory   JSON, checksummed in the header
//
// A posting entry is uvarint(docFreq) uvarint(len) followed by a serialized
// roaring bitmap. FST values are entry offsets relative to the field's
// postings region.
const (
	MagicBytes    uint32 = 0x465A5347
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FileExt              = ".fzs"
)

// Header is the fixed-size block at the start of every segment file.
type Header struct {
	Magic      uint32
	Version    uint32
	MaxDoc     uint32
	FieldCount uint32
	CreatedAt  int64
	DirOffset  int64
	DirSize    int64
	DirCRC     uint32
}

func (h Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.MaxDoc)
	binary.LittleEndian.PutUint32(buf[12:16], h.FieldCount)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.DirOffset))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(h.DirSize))
	binary.LittleEndian.PutUint32(buf[40:44], h.DirCRC)
	return buf
}

func decodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: file shorter than header (%d bytes)", apperrors.ErrCorruptSegment, len(data))
	}
	h := Header{
		Magic:      binary.LittleEndian.Uint32(data[0:4]),
		Version:    binary.LittleEndian.Uint32(data[4:8]),
		MaxDoc:     binary.LittleEndian.Uint32(data[8:12]),
		FieldCount: binary.LittleEndian.Uint32(data[12:16]),
		CreatedAt:  int64(binary.LittleEndian.Uint64(data[16:24])),
		DirOffset:  int64(binary.LittleEndian.Uint64(data[24:32])),
		DirSize:    int64(binary.LittleEndian.Uint64(data[32:40])),
		DirCRC:     binary.LittleEndian.Uint32(data[40:44]),
	}
	if h.Magic != MagicBytes {
		return Header{}, fmt.Errorf("%w: bad magic bytes %x", apperrors.ErrCorruptSegment, h.Magic)
	}
	if h.Version != FormatVersion {
		return Header{}, fmt.Errorf("%w: unsupported version %d", apperrors.ErrCorruptSegment, h.Version)
	}
	return h, nil
}

// FieldDir locates one field's postings region and FST in the file.
type FieldDir struct {
	Field      schema.Field `json:"f"`
	Name       string       `json:"n"`
	TermCount  int          `json:"t"`
	PostOffset int64        `json:"po"`
	PostSize   int64        `json:"ps"`
	FSTOffset  int64        `json:"fo"`
	FSTSize    int64        `json:"fs"`
}

// Directory is the JSON trailer of a segment file.
type Directory struct {
	Schema []schema.FieldEntry `json:"schema"`
	Fields []FieldDir          `json:"fields"`
}

func checkRange(data []byte, offset, size int64, what string) ([]byte, error) {
	if offset < 0 || size < 0 || offset > int64(len(data)) || size > int64(len(data))-offset {
		return nil, fmt.Errorf("%w: %s [%d,+%d) outside file of %d bytes",
			apperrors.ErrCorruptSegment, what, offset, size, len(data))
	}
	return data[offset : offset+size], nil
}
