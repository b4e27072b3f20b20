package segment

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blevesearch/vellum"
	mmap "github.com/edsrzf/mmap-go"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/errors"
)

// Reader serves an immutable segment. It is safe for concurrent use until
// Close is called.
type Reader struct {
	name   string
	file   *os.File
	mapped mmap.MMap
	header Header
	schema *schema.Schema
	fields map[schema.Field]*fieldIndex
}

var _ index.SegmentReader = (*Reader)(nil)

// OpenReader maps the segment file at path read-only.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	if info.Size() < int64(HeaderSize) {
		f.Close()
		return nil, fmt.Errorf("opening segment file %s: %w: %d bytes", path, apperrors.ErrCorruptSegment, info.Size())
	}
	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapping segment file: %w", err)
	}
	r, err := open(filepath.Base(path), mapped)
	if err != nil {
		mapped.Unmap()
		f.Close()
		return nil, fmt.Errorf("opening segment file %s: %w", path, err)
	}
	r.file = f
	r.mapped = mapped
	return r, nil
}

// OpenBytes serves a segment from memory. data must not be modified while
// the Reader is in use.
func OpenBytes(name string, data []byte) (*Reader, error) {
	return open(name, data)
}

func open(name string, data []byte) (*Reader, error) {
	header, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	dirData, err := checkRange(data, header.DirOffset, header.DirSize, "directory")
	if err != nil {
		return nil, err
	}
	if crc := crc32.ChecksumIEEE(dirData); crc != header.DirCRC {
		return nil, fmt.Errorf("%w: directory checksum %08x, want %08x", apperrors.ErrCorruptSegment, crc, header.DirCRC)
	}
	var dir Directory
	if err := json.Unmarshal(dirData, &dir); err != nil {
		return nil, fmt.Errorf("%w: parsing directory: %v", apperrors.ErrCorruptSegment, err)
	}

	fields := make(map[schema.Field]*fieldIndex, len(dir.Fields))
	for _, fd := range dir.Fields {
		postings, err := checkRange(data, fd.PostOffset, fd.PostSize, "postings of "+fd.Name)
		if err != nil {
			return nil, err
		}
		fstData, err := checkRange(data, fd.FSTOffset, fd.FSTSize, "fst of "+fd.Name)
		if err != nil {
			return nil, err
		}
		fst, err := vellum.Load(fstData)
		if err != nil {
			return nil, fmt.Errorf("%w: loading fst of %s: %v", apperrors.ErrCorruptSegment, fd.Name, err)
		}
		fields[fd.Field] = &fieldIndex{
			dict:     &termDictionary{fst: fst, postings: postings},
			postings: postings,
		}
	}
	return &Reader{
		name:   name,
		header: header,
		schema: schema.FromEntries(dir.Schema),
		fields: fields,
	}, nil
}

func (r *Reader) Name() string {
	return r.name
}

func (r *Reader) Schema() *schema.Schema {
	return r.schema
}

func (r *Reader) MaxDoc() uint32 {
	return r.header.MaxDoc
}

func (r *Reader) Header() Header {
	return r.header
}

func (r *Reader) InvertedIndex(field schema.Field) (index.InvertedIndex, error) {
	fi, ok := r.fields[field]
	if !ok {
		return nil, fmt.Errorf("segment %s, field %d: %w", r.name, field, index.ErrFieldNotIndexed)
	}
	return fi, nil
}

// Terms is the total number of distinct (field, term) pairs.
func (r *Reader) Terms() int {
	n := 0
	for _, fi := range r.fields {
		n += fi.dict.Len()
	}
	return n
}

func (r *Reader) Close() error {
	for _, fi := range r.fields {
		fi.dict.fst.Close()
	}
	if r.mapped != nil {
		if err := r.mapped.Unmap(); err != nil {
			r.file.Close()
			return fmt.Errorf("unmapping segment %s: %w", r.name, err)
		}
		r.mapped = nil
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// OpenDir opens every segment file in dir, ordered by name. Leftover .tmp
// files from interrupted writes are ignored.
func OpenDir(dir string) ([]*Reader, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing segments in %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	readers := make([]*Reader, 0, len(names))
	for _, name := range names {
		r, err := OpenReader(filepath.Join(dir, name))
		if err != nil {
			for _, opened := range readers {
				opened.Close()
			}
			return nil, err
		}
		readers = append(readers, r)
	}
	return readers, nil
}

// CommonSchema returns the schema shared by all readers. Queries address
// fields by id, so segments with diverging schemas cannot be searched
// together.
func CommonSchema(readers []*Reader) (*schema.Schema, error) {
	if len(readers) == 0 {
		return nil, nil
	}
	first := readers[0].Schema().Entries()
	for _, r := range readers[1:] {
		entries := r.Schema().Entries()
		if !sameEntries(first, entries) {
			return nil, fmt.Errorf("segment %s: schema differs from segment %s", r.Name(), readers[0].Name())
		}
	}
	return readers[0].Schema(), nil
}

func sameEntries(a, b []schema.FieldEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
