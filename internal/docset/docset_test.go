package docset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocBitSetInsertIsIdempotent(t *testing.T) {
	bits := NewDocBitSet(10)
	require.NoError(t, bits.Insert(3))
	require.NoError(t, bits.Insert(3))
	require.NoError(t, bits.InsertMany([]uint32{1, 3, 9}))

	assert.Equal(t, uint64(3), bits.Len())
	assert.True(t, bits.Contains(9))
	assert.False(t, bits.Contains(2))
	assert.Equal(t, []uint32{1, 3, 9}, bits.ToSlice())
}

func TestDocBitSetRejectsOutOfRange(t *testing.T) {
	bits := NewDocBitSet(4)
	assert.ErrorIs(t, bits.Insert(4), ErrDocOutOfRange)
	assert.ErrorIs(t, bits.InsertMany([]uint32{0, 7}), ErrDocOutOfRange)
	assert.Zero(t, bits.Len())
}

func TestBitSetDocSetIteratesAscending(t *testing.T) {
	bits := NewDocBitSet(100)
	require.NoError(t, bits.InsertMany([]uint32{42, 7, 99, 0}))

	d := NewBitSetDocSet(bits)
	assert.Equal(t, Terminated, d.Doc())
	assert.Equal(t, uint32(4), d.SizeHint())
	assert.Equal(t, []uint32{0, 7, 42, 99}, Collect(d))
	assert.False(t, d.Advance())
	assert.Equal(t, Terminated, d.Doc())
}

func TestBitSetDocSetSkipTo(t *testing.T) {
	bits := NewDocBitSet(100)
	require.NoError(t, bits.InsertMany([]uint32{5, 10, 20, 30}))

	d := NewBitSetDocSet(bits)
	require.True(t, d.SkipTo(11))
	assert.Equal(t, uint32(20), d.Doc())

	// Never moves backwards.
	require.True(t, d.SkipTo(6))
	assert.Equal(t, uint32(20), d.Doc())

	require.True(t, d.Advance())
	assert.Equal(t, uint32(30), d.Doc())
	assert.False(t, d.SkipTo(31))
}

func TestDocSetsAreIndependent(t *testing.T) {
	bits := NewDocBitSet(8)
	require.NoError(t, bits.InsertMany([]uint32{1, 2}))

	a := NewBitSetDocSet(bits)
	require.True(t, a.Advance())
	b := NewBitSetDocSet(bits)
	assert.Equal(t, []uint32{1, 2}, Collect(b))
	assert.Equal(t, []uint32{2}, Collect(a))
}

func TestConstScorer(t *testing.T) {
	bits := NewDocBitSet(8)
	require.NoError(t, bits.InsertMany([]uint32{1, 6}))

	s := NewConstScorer(NewBitSetDocSet(bits), 1.0)
	var docs []uint32
	for s.Advance() {
		docs = append(docs, s.Doc())
		assert.Equal(t, float32(1.0), s.Score())
	}
	assert.Equal(t, []uint32{1, 6}, docs)
}

func TestEmptyScorer(t *testing.T) {
	s := EmptyScorer()
	assert.False(t, s.Advance())
	assert.Equal(t, Terminated, s.Doc())
	assert.Zero(t, s.SizeHint())
}
