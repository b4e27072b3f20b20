// Package schema describes the fields of an index: their ids, names and how
// their values are analyzed and recorded in segments.
package schema

import (
	"fmt"
)

// Field is an opaque key into a Schema. Query evaluation passes it through
// unchanged.
type Field uint32

// IndexRecordOption selects how much per-document information a posting list
// carries.
type IndexRecordOption int

const (
	// RecordBasic stores document ids only.
	RecordBasic IndexRecordOption = iota
)

func (o IndexRecordOption) String() string {
	switch o {
	case RecordBasic:
		return "basic"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// FieldOptions controls indexing of a single field.
type FieldOptions struct {
	Indexed  bool              `json:"indexed" yaml:"indexed"`
	Analyzer string            `json:"analyzer" yaml:"analyzer"`
	Record   IndexRecordOption `json:"record" yaml:"record"`
}

var (
	// TEXT tokenizes values with the simple analyzer.
	TEXT = FieldOptions{Indexed: true, Analyzer: "simple", Record: RecordBasic}
	// STRING indexes the whole value as a single term.
	STRING = FieldOptions{Indexed: true, Analyzer: "raw", Record: RecordBasic}
	// STORED fields are accepted on documents but never reach the index.
	STORED = FieldOptions{}
)

// FieldEntry is a named field and its options.
type FieldEntry struct {
	ID      Field        `json:"id"`
	Name    string       `json:"name"`
	Options FieldOptions `json:"options"`
}

// Schema is an immutable, ordered list of fields.
type Schema struct {
	fields []FieldEntry
	byName map[string]Field
}

// Builder assigns field ids in registration order.
type Builder struct {
	fields []FieldEntry
	byName map[string]Field
}

func NewBuilder() *Builder {
	return &Builder{byName: make(map[string]Field)}
}

// AddField registers a field. Registering the same name twice returns the
// original id and keeps the original options.
func (b *Builder) AddField(name string, opts FieldOptions) Field {
	if f, ok := b.byName[name]; ok {
		return f
	}
	f := Field(len(b.fields))
	b.fields = append(b.fields, FieldEntry{ID: f, Name: name, Options: opts})
	b.byName[name] = f
	return f
}

func (b *Builder) AddTextField(name string) Field {
	return b.AddField(name, TEXT)
}

func (b *Builder) AddStringField(name string) Field {
	return b.AddField(name, STRING)
}

func (b *Builder) Build() *Schema {
	fields := make([]FieldEntry, len(b.fields))
	copy(fields, b.fields)
	return FromEntries(fields)
}

// FromEntries rebuilds a Schema from persisted entries. Entries must be
// ordered by id.
func FromEntries(entries []FieldEntry) *Schema {
	s := &Schema{
		fields: entries,
		byName: make(map[string]Field, len(entries)),
	}
	for _, e := range entries {
		s.byName[e.Name] = e.ID
	}
	return s
}

func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

func (s *Schema) Entry(f Field) (FieldEntry, bool) {
	if int(f) >= len(s.fields) {
		return FieldEntry{}, false
	}
	return s.fields[f], true
}

// Entries returns a copy of the field list.
func (s *Schema) Entries() []FieldEntry {
	out := make([]FieldEntry, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema) NumFields() int {
	return len(s.fields)
}
