package segment

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/blevesearch/vellum"
)

// Writer serialises builders into new segment files.
type Writer struct {
	dataDir string
}

// NewWriter creates a Writer that writes segments into the given directory.
func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// Write atomically creates a new segment file holding the builder's
// documents. It writes to a .tmp file first and renames on success.
func (w *Writer) Write(b *Builder) (string, error) {
	if b.MaxDoc() == 0 {
		return "", fmt.Errorf("cannot write empty segment")
	}
	data, err := Encode(b)
	if err != nil {
		return "", err
	}
	segmentName := fmt.Sprintf("seg_%d%s", time.Now().UnixNano(), FileExt)
	finalPath := filepath.Join(w.dataDir, segmentName)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating segment directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp segment file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing segment: %w", err)
	}
	if err := f.Sync(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("syncing segment file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("renaming segment file: %w", err)
	}
	return segmentName, nil
}

// Encode serialises the builder's current contents into segment bytes.
func Encode(b *Builder) ([]byte, error) {
	s := b.Schema()
	snapshot := b.Snapshot()

	var buf bytes.Buffer
	buf.Write(make([]byte, HeaderSize))

	dir := Directory{
		Schema: s.Entries(),
		Fields: make([]FieldDir, 0, len(snapshot)),
	}
	for _, ft := range snapshot {
		entry, _ := s.Entry(ft.Field)
		fd, err := writeField(&buf, ft)
		if err != nil {
			return nil, fmt.Errorf("writing field %q: %w", entry.Name, err)
		}
		fd.Name = entry.Name
		dir.Fields = append(dir.Fields, fd)
	}

	dirStart := int64(buf.Len())
	dirData, err := json.Marshal(dir)
	if err != nil {
		return nil, fmt.Errorf("marshaling directory: %w", err)
	}
	buf.Write(dirData)

	header := Header{
		Magic:      MagicBytes,
		Version:    FormatVersion,
		MaxDoc:     b.MaxDoc(),
		FieldCount: uint32(len(dir.Fields)),
		CreatedAt:  time.Now().Unix(),
		DirOffset:  dirStart,
		DirSize:    int64(len(dirData)),
		DirCRC:     crc32.ChecksumIEEE(dirData),
	}
	out := buf.Bytes()
	copy(out[:HeaderSize], header.encode())
	return out, nil
}

// writeField appends the postings region and FST of one field.
func writeField(buf *bytes.Buffer, ft FieldTerms) (FieldDir, error) {
	fd := FieldDir{
		Field:      ft.Field,
		TermCount:  len(ft.Terms),
		PostOffset: int64(buf.Len()),
	}

	offsets := make([]uint64, len(ft.Terms))
	var varint [binary.MaxVarintLen64]byte
	for i, entry := range ft.Terms {
		offsets[i] = uint64(int64(buf.Len()) - fd.PostOffset)
		postingsData, err := entry.Docs.ToBytes()
		if err != nil {
			return FieldDir{}, fmt.Errorf("serialising postings for term %q: %w", entry.Term, err)
		}
		n := binary.PutUvarint(varint[:], entry.Docs.GetCardinality())
		buf.Write(varint[:n])
		n = binary.PutUvarint(varint[:], uint64(len(postingsData)))
		buf.Write(varint[:n])
		buf.Write(postingsData)
	}
	fd.PostSize = int64(buf.Len()) - fd.PostOffset

	var fstBuf bytes.Buffer
	builder, err := vellum.New(&fstBuf, nil)
	if err != nil {
		return FieldDir{}, fmt.Errorf("creating fst builder: %w", err)
	}
	for i, entry := range ft.Terms {
		if err := builder.Insert([]byte(entry.Term), offsets[i]); err != nil {
			return FieldDir{}, fmt.Errorf("inserting term %q: %w", entry.Term, err)
		}
	}
	if err := builder.Close(); err != nil {
		return FieldDir{}, fmt.Errorf("finishing fst: %w", err)
	}
	fd.FSTOffset = int64(buf.Len())
	fd.FSTSize = int64(fstBuf.Len())
	buf.Write(fstBuf.Bytes())
	return fd, nil
}
