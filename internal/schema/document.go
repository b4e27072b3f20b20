package schema

// FieldValue is one text value attached to a document field.
type FieldValue struct {
	Field Field
	Text  string
}

// Document is an ordered bag of field values. A field may appear more than
// once.
type Document struct {
	values []FieldValue
}

func NewDocument() *Document {
	return &Document{}
}

func (d *Document) AddText(field Field, text string) *Document {
	d.values = append(d.values, FieldValue{Field: field, Text: text})
	return d
}

func (d *Document) Values() []FieldValue {
	return d.values
}
