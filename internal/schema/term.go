package schema

import (
	"bytes"
	"fmt"
)

// Term is a (field, bytes) pair. The value is copied on construction so a
// Term never aliases caller memory.
type Term struct {
	field Field
	value []byte
}

func NewTerm(field Field, text string) Term {
	return Term{field: field, value: []byte(text)}
}

func NewTermBytes(field Field, value []byte) Term {
	v := make([]byte, len(value))
	copy(v, value)
	return Term{field: field, value: v}
}

func (t Term) Field() Field {
	return t.field
}

// Bytes returns a copy of the term value.
func (t Term) Bytes() []byte {
	v := make([]byte, len(t.value))
	copy(v, t.value)
	return v
}

func (t Term) Text() string {
	return string(t.value)
}

func (t Term) Equal(other Term) bool {
	return t.field == other.field && bytes.Equal(t.value, other.value)
}

func (t Term) String() string {
	return fmt.Sprintf("%d:%q", t.field, t.value)
}
