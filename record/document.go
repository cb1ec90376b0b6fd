package record

import (
	"iter"
	"slices"
)

// Field is one named value of a Document.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for building fields.
func F(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

// Document is an ordered list of fields. Field names are expected to be
// unique; lookups return the first match.
type Document struct {
	fields []Field
}

// NewDocument builds a document from fields, copying the slice.
func NewDocument(fields ...Field) Document {
	return Document{fields: slices.Clone(fields)}
}

func (d Document) Len() int { return len(d.fields) }

// Field returns the i-th field. Panics when i is out of range.
func (d Document) Field(i int) Field { return d.fields[i] }

// All iterates fields in order.
func (d Document) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, f := range d.fields {
			if !yield(f.Name, f.Value) {
				return
			}
		}
	}
}

// Index returns the position of the named field or -1.
func (d Document) Index(name string) int {
	for i := range d.fields {
		if d.fields[i].Name == name {
			return i
		}
	}

	return -1
}

// Get returns the named field's value, or Missing.
func (d Document) Get(name string) Value {
	if i := d.Index(name); i >= 0 {
		return d.fields[i].Value
	}

	return Missing()
}

// Set returns a copy of d with the named field replaced in place, or
// appended when absent.
func (d Document) Set(name string, v Value) Document {
	if i := d.Index(name); i >= 0 {
		return d.replace(i, v)
	}

	fields := make([]Field, len(d.fields), len(d.fields)+1)
	copy(fields, d.fields)

	return Document{fields: append(fields, Field{Name: name, Value: v})}
}

// Names returns the field names in order.
func (d Document) Names() []string {
	names := make([]string, len(d.fields))
	for i := range d.fields {
		names[i] = d.fields[i].Name
	}

	return names
}

// Equal compares two documents field by field, order included.
func (d Document) Equal(o Document) bool {
	if len(d.fields) != len(o.fields) {
		return false
	}

	for i := range d.fields {
		if d.fields[i].Name != o.fields[i].Name || !d.fields[i].Value.Equal(o.fields[i].Value) {
			return false
		}
	}

	return true
}

func (d Document) replace(i int, v Value) Document {
	fields := slices.Clone(d.fields)
	fields[i].Value = v

	return Document{fields: fields}
}

// Clone deep-copies d. Binary payloads are copied as well, so the result
// shares no memory with d.
func (d Document) Clone() Document {
	if d.fields == nil {
		return Document{}
	}

	fields := make([]Field, len(d.fields))
	for i, f := range d.fields {
		fields[i] = Field{Name: f.Name, Value: f.Value.clone()}
	}

	return Document{fields: fields}
}

func (v Value) clone() Value {
	switch v.kind {
	case KindBinary:
		v.bin = slices.Clone(v.bin)
	case KindDocument:
		v.doc = v.doc.Clone()
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i := range v.arr {
			arr[i] = v.arr[i].clone()
		}
		v.arr = arr
	}

	return v
}
