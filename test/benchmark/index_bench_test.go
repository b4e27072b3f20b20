// Package benchmark contains Go benchmarks for segment building, automaton
// construction and fuzzy query evaluation, measuring throughput and
// allocation behaviour.
package benchmark

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/segment"
)

const letters = "abcdefghijklmnopqrstuvwxyz"

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// words returns n pseudo-random lower-case words of 3 to 10 letters. The
// same n always yields the same words.
func words(n int) []string {
	rng := rand.New(rand.NewSource(int64(n)))
	out := make([]string, n)
	for i := range out {
		b := make([]byte, 3+rng.Intn(8))
		for j := range b {
			b[j] = letters[rng.Intn(len(letters))]
		}
		out[i] = string(b)
	}
	return out
}

func benchSchema() (*schema.Schema, schema.Field) {
	sb := schema.NewBuilder()
	body := sb.AddTextField("body")
	return sb.Build(), body
}

// buildSegment indexes numDocs documents of wordsPerDoc words each, drawn
// from a vocabulary of vocab words.
func buildSegment(b *testing.B, name string, numDocs, wordsPerDoc, vocab int) *segment.Reader {
	b.Helper()
	s, body := benchSchema()
	builder, err := segment.NewBuilder(s)
	if err != nil {
		b.Fatal(err)
	}
	dict := words(vocab)
	rng := rand.New(rand.NewSource(int64(numDocs)))
	for i := 0; i < numDocs; i++ {
		doc := schema.NewDocument()
		for j := 0; j < wordsPerDoc; j++ {
			doc.AddText(body, dict[rng.Intn(len(dict))])
		}
		if _, err := builder.AddDocument(doc); err != nil {
			b.Fatal(err)
		}
	}
	data, err := segment.Encode(builder)
	if err != nil {
		b.Fatal(err)
	}
	r, err := segment.OpenBytes(name, data)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { r.Close() })
	return r
}

// BenchmarkBuilderAdd measures per-document insert throughput into the
// segment builder.
func BenchmarkBuilderAdd(b *testing.B) {
	s, body := benchSchema()
	builder, err := segment.NewBuilder(s)
	if err != nil {
		b.Fatal(err)
	}
	doc := schema.NewDocument().AddText(body, "this is a benchmark document with several terms for testing the indexing performance of the segment builder")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if builder.MaxDoc() == 1_000_000 {
			builder.Reset()
		}
		if _, err := builder.AddDocument(doc); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEncode measures serialising builders of increasing vocabulary
// into segment bytes.
func BenchmarkEncode(b *testing.B) {
	for _, vocab := range []int{1000, 10000, 50000} {
		b.Run(fmt.Sprintf("terms_%d", vocab), func(b *testing.B) {
			s, body := benchSchema()
			builder, err := segment.NewBuilder(s)
			if err != nil {
				b.Fatal(err)
			}
			for i, w := range words(vocab) {
				doc := schema.NewDocument().AddText(body, w)
				if i%2 == 0 {
					doc.AddText(body, "common")
				}
				if _, err := builder.AddDocument(doc); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				data, err := segment.Encode(builder)
				if err != nil {
					b.Fatal(err)
				}
				b.SetBytes(int64(len(data)))
			}
		})
	}
}

// BenchmarkOpenBytes measures header, directory and FST loading.
func BenchmarkOpenBytes(b *testing.B) {
	s, body := benchSchema()
	builder, err := segment.NewBuilder(s)
	if err != nil {
		b.Fatal(err)
	}
	for _, w := range words(20000) {
		if _, err := builder.AddDocument(schema.NewDocument().AddText(body, w)); err != nil {
			b.Fatal(err)
		}
	}
	data, err := segment.Encode(builder)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := segment.OpenBytes("bench", data)
		if err != nil {
			b.Fatal(err)
		}
		r.Close()
	}
}
