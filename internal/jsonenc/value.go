// Package jsonenc writes ordered JSON documents for buffers handed across the C boundary.
// Field order is the order fields were added, never alphabetical.
package jsonenc

// Kind identifies the type of a Value
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindArray
	KindObject
)

// Value is one node of an ordered JSON document
type Value struct {
	kind    Kind
	str     string
	num     int64
	boolean bool
	items   []Value
	fields  []Field
}

// Field is a key/value pair of an object, kept in insertion order
type Field struct {
	Key   string
	Value Value
}

// Kind returns the value's kind
func (v Value) Kind() Kind {
	return v.kind
}

// String creates a string value
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number creates an integer value
func Number(n int64) Value {
	return Value{kind: KindNumber, num: n}
}

// Bool creates a boolean value
func Bool(b bool) Value {
	return Value{kind: KindBool, boolean: b}
}

// Array creates an array value. A nil or empty item list still encodes as [].
func Array(items ...Value) Value {
	return Value{kind: KindArray, items: items}
}

// Strings creates an array of string values
func Strings(items []string) Value {
	values := make([]Value, len(items))
	for i, s := range items {
		values[i] = String(s)
	}
	return Array(values...)
}

// Object creates an object value from ordered fields
func Object(fields ...Field) Value {
	return Value{kind: KindObject, fields: fields}
}

// ObjectBuilder accumulates object fields in emission order
type ObjectBuilder struct {
	fields []Field
}

// NewObject starts an empty object
func NewObject() *ObjectBuilder {
	return &ObjectBuilder{}
}

// String appends a string field
func (b *ObjectBuilder) String(key, value string) *ObjectBuilder {
	return b.Field(key, String(value))
}

// OptionalString appends a string field only when value is non-empty
func (b *ObjectBuilder) OptionalString(key, value string) *ObjectBuilder {
	if value == "" {
		return b
	}
	return b.String(key, value)
}

// Bool appends a boolean field
func (b *ObjectBuilder) Bool(key string, value bool) *ObjectBuilder {
	return b.Field(key, Bool(value))
}

// Number appends an integer field
func (b *ObjectBuilder) Number(key string, value int64) *ObjectBuilder {
	return b.Field(key, Number(value))
}

// Array appends an array field; nil items encode as []
func (b *ObjectBuilder) Array(key string, items []Value) *ObjectBuilder {
	return b.Field(key, Array(items...))
}

// Field appends an arbitrary field
func (b *ObjectBuilder) Field(key string, value Value) *ObjectBuilder {
	b.fields = append(b.fields, Field{Key: key, Value: value})
	return b
}

// Value returns the built object
func (b *ObjectBuilder) Value() Value {
	return Object(b.fields...)
}
