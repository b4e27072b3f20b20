package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderAssignsIDsInOrder(t *testing.T) {
	b := NewBuilder()
	title := b.AddTextField("title")
	country := b.AddStringField("country")
	again := b.AddTextField("title")
	s := b.Build()

	assert.Equal(t, Field(0), title)
	assert.Equal(t, Field(1), country)
	assert.Equal(t, title, again)
	assert.Equal(t, 2, s.NumFields())

	f, ok := s.Field("country")
	require.True(t, ok)
	assert.Equal(t, country, f)

	entry, ok := s.Entry(country)
	require.True(t, ok)
	assert.Equal(t, "raw", entry.Options.Analyzer)

	_, ok = s.Entry(Field(9))
	assert.False(t, ok)
}

func TestFromEntriesRoundTrip(t *testing.T) {
	b := NewBuilder()
	b.AddTextField("body")
	s := FromEntries(b.Build().Entries())

	f, ok := s.Field("body")
	require.True(t, ok)
	assert.Equal(t, Field(0), f)
}

func TestTermCopiesValue(t *testing.T) {
	raw := []byte("japan")
	term := NewTermBytes(3, raw)
	raw[0] = 'J'

	assert.Equal(t, "japan", term.Text())
	assert.Equal(t, Field(3), term.Field())

	out := term.Bytes()
	out[0] = 'x'
	assert.Equal(t, "japan", term.Text())
	assert.True(t, term.Equal(NewTerm(3, "japan")))
	assert.False(t, term.Equal(NewTerm(2, "japan")))
}

func TestDocumentKeepsRepeatedFields(t *testing.T) {
	doc := NewDocument().AddText(0, "a").AddText(0, "b").AddText(1, "c")
	assert.Len(t, doc.Values(), 3)
	assert.Equal(t, "b", doc.Values()[1].Text)
}
