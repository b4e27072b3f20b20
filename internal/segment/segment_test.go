package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/automaton"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/errors"
)

type fixture struct {
	schema  *schema.Schema
	country schema.Field
	body    schema.Field
	note    schema.Field
	builder *Builder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sb := schema.NewBuilder()
	f := &fixture{
		country: sb.AddStringField("country"),
		body:    sb.AddTextField("body"),
		note:    sb.AddField("note", schema.STORED),
	}
	f.schema = sb.Build()
	b, err := NewBuilder(f.schema)
	require.NoError(t, err)
	f.builder = b

	docs := []*schema.Document{
		schema.NewDocument().AddText(f.country, "japan").AddText(f.body, "Tokyo is big").AddText(f.note, "skip me"),
		schema.NewDocument().AddText(f.country, "korea").AddText(f.body, "Seoul is big"),
		schema.NewDocument().AddText(f.country, "japan").AddText(f.body, "Osaka"),
	}
	for i, doc := range docs {
		id, err := b.AddDocument(doc)
		require.NoError(t, err)
		require.Equal(t, uint32(i), id)
	}
	return f
}

func collectTerms(t *testing.T, s index.TermStreamer) []string {
	t.Helper()
	var out []string
	for s.Advance() {
		out = append(out, string(s.Key()))
	}
	require.NoError(t, s.Err())
	return out
}

func readDocs(t *testing.T, inv index.InvertedIndex, info index.TermInfo) []uint32 {
	t.Helper()
	p, err := inv.ReadBlockPostings(info, schema.RecordBasic)
	require.NoError(t, err)
	var docs []uint32
	for p.Advance() {
		docs = append(docs, p.Docs()...)
	}
	require.NoError(t, p.Err())
	return docs
}

func TestBuilderSnapshotIsSorted(t *testing.T) {
	f := newFixture(t)
	snap := f.builder.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, f.country, snap[0].Field)

	var terms []string
	for _, e := range snap[1].Terms {
		terms = append(terms, e.Term)
	}
	assert.Equal(t, []string{"big", "is", "osaka", "seoul", "tokyo"}, terms)
	assert.Equal(t, []uint32{0, 1}, snap[1].Terms[0].Docs.ToArray())
	assert.Equal(t, uint32(3), f.builder.MaxDoc())
	assert.Positive(t, f.builder.Size())
}

func TestBuilderReset(t *testing.T) {
	f := newFixture(t)
	f.builder.Reset()
	assert.Zero(t, f.builder.MaxDoc())
	assert.Empty(t, f.builder.Snapshot())
}

func TestEncodeAndOpenBytes(t *testing.T) {
	f := newFixture(t)
	data, err := Encode(f.builder)
	require.NoError(t, err)

	r, err := OpenBytes("mem", data)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "mem", r.Name())
	assert.Equal(t, uint32(3), r.MaxDoc())
	assert.Equal(t, 7, r.Terms())
	field, ok := r.Schema().Field("body")
	require.True(t, ok)
	assert.Equal(t, f.body, field)

	inv, err := r.InvertedIndex(f.country)
	require.NoError(t, err)
	info, ok, err := inv.Terms().Get([]byte("japan"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(2), info.DocFreq)
	assert.Equal(t, []uint32{0, 2}, readDocs(t, inv, info))

	_, ok, err = inv.Terms().Get([]byte("china"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTermDictionarySearch(t *testing.T) {
	f := newFixture(t)
	data, err := Encode(f.builder)
	require.NoError(t, err)
	r, err := OpenBytes("mem", data)
	require.NoError(t, err)

	inv, err := r.InvertedIndex(f.body)
	require.NoError(t, err)

	s, err := inv.Terms().Search(automaton.NewPrefix([]byte("s")))
	require.NoError(t, err)
	assert.Equal(t, []string{"seoul"}, collectTerms(t, s))

	s, err = inv.Terms().Search(automaton.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, []string{"big", "is", "osaka", "seoul", "tokyo"}, collectTerms(t, s))

	s, err = inv.Terms().Search(automaton.MatchAll())
	require.NoError(t, err)
	docFreqs := map[string]uint32{}
	for s.Advance() {
		docFreqs[string(s.Key())] = s.Value().DocFreq
	}
	assert.Equal(t, map[string]uint32{"big": 2, "is": 2, "osaka": 1, "seoul": 1, "tokyo": 1}, docFreqs)

	s, err = inv.Terms().Search(automaton.NewExact([]byte("nowhere")))
	require.NoError(t, err)
	assert.Empty(t, collectTerms(t, s))
	assert.False(t, s.Advance())
}

func TestTermDictionaryRange(t *testing.T) {
	f := newFixture(t)
	data, err := Encode(f.builder)
	require.NoError(t, err)
	r, err := OpenBytes("mem", data)
	require.NoError(t, err)

	inv, err := r.InvertedIndex(f.body)
	require.NoError(t, err)
	s, err := inv.Terms().Range([]byte("i"), []byte("p"))
	require.NoError(t, err)
	assert.Equal(t, []string{"is", "osaka"}, collectTerms(t, s))
}

func TestMissingFieldIsNotIndexed(t *testing.T) {
	f := newFixture(t)
	data, err := Encode(f.builder)
	require.NoError(t, err)
	r, err := OpenBytes("mem", data)
	require.NoError(t, err)

	_, err = r.InvertedIndex(f.note)
	assert.ErrorIs(t, err, index.ErrFieldNotIndexed)
}

func TestBlockPostingsSpanBlocks(t *testing.T) {
	sb := schema.NewBuilder()
	field := sb.AddStringField("tag")
	b, err := NewBuilder(sb.Build())
	require.NoError(t, err)
	const n = BlockSize*2 + 5
	for i := 0; i < n; i++ {
		_, err := b.AddDocument(schema.NewDocument().AddText(field, "common"))
		require.NoError(t, err)
	}
	data, err := Encode(b)
	require.NoError(t, err)
	r, err := OpenBytes("mem", data)
	require.NoError(t, err)

	inv, err := r.InvertedIndex(field)
	require.NoError(t, err)
	info, ok, err := inv.Terms().Get([]byte("common"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(n), info.DocFreq)

	p, err := inv.ReadBlockPostings(info, schema.RecordBasic)
	require.NoError(t, err)
	assert.Equal(t, uint32(n), p.DocFreq())
	var blocks, total int
	for p.Advance() {
		blocks++
		total += len(p.Docs())
	}
	assert.Equal(t, 3, blocks)
	assert.Equal(t, n, total)
}

func TestWriterAndOpenDir(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	w := NewWriter(dir)

	name, err := w.Write(f.builder)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, name))
	assert.NoFileExists(t, filepath.Join(dir, name+".tmp"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "seg_0"+FileExt+".tmp"), []byte("partial"), 0644))

	readers, err := OpenDir(dir)
	require.NoError(t, err)
	require.Len(t, readers, 1)
	defer readers[0].Close()
	assert.Equal(t, name, readers[0].Name())
	assert.Equal(t, uint32(3), readers[0].MaxDoc())
}

func TestWriterRejectsEmptyBuilder(t *testing.T) {
	b, err := NewBuilder(schema.NewBuilder().Build())
	require.NoError(t, err)
	_, err = NewWriter(t.TempDir()).Write(b)
	assert.Error(t, err)
}

func TestOpenDetectsCorruption(t *testing.T) {
	f := newFixture(t)
	data, err := Encode(f.builder)
	require.NoError(t, err)

	badMagic := append([]byte(nil), data...)
	badMagic[0] ^= 0xFF
	_, err = OpenBytes("bad", badMagic)
	assert.ErrorIs(t, err, apperrors.ErrCorruptSegment)

	badDir := append([]byte(nil), data...)
	badDir[len(badDir)-2] ^= 0xFF
	_, err = OpenBytes("bad", badDir)
	assert.ErrorIs(t, err, apperrors.ErrCorruptSegment)

	_, err = OpenBytes("short", data[:10])
	assert.ErrorIs(t, err, apperrors.ErrCorruptSegment)
}

func TestOpenReaderRejectsShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny"+FileExt)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	_, err := OpenReader(path)
	assert.ErrorIs(t, err, apperrors.ErrCorruptSegment)
}

func TestCommonSchema(t *testing.T) {
	f := newFixture(t)
	data, err := Encode(f.builder)
	require.NoError(t, err)
	a, err := OpenBytes("a", data)
	require.NoError(t, err)
	b, err := OpenBytes("b", data)
	require.NoError(t, err)

	s, err := CommonSchema([]*Reader{a, b})
	require.NoError(t, err)
	assert.Equal(t, f.schema.Entries(), s.Entries())

	other := schema.NewBuilder()
	other.AddTextField("country")
	ob, err := NewBuilder(other.Build())
	require.NoError(t, err)
	_, err = ob.AddDocument(schema.NewDocument().AddText(0, "japan"))
	require.NoError(t, err)
	odata, err := Encode(ob)
	require.NoError(t, err)
	c, err := OpenBytes("c", odata)
	require.NoError(t, err)

	_, err = CommonSchema([]*Reader{a, c})
	assert.ErrorContains(t, err, "segment c")

	s, err = CommonSchema(nil)
	assert.NoError(t, err)
	assert.Nil(t, s)
}
