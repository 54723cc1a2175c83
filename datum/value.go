// Package datum reads and writes whole values against schemas.
//
// Values are plain Go values:
//
//	null     nil
//	boolean  bool
//	int      int32
//	long     int64
//	float    float32
//	double   float64
//	bytes    []byte
//	string   string
//	fixed    Fixed
//	enum     Enum
//	array    []interface{}
//	map      map[string]interface{}
//	record   Accessor, usually *Record
//	union    the branch's value, or Union to name the branch explicitly
//
// Writer encodes values of a schema. Reader decodes data written with one schema as values of another,
// using grammars from a Cache shared between readers.
package datum

import (
	"fmt"

	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/schema"
)

// Accessor reads and writes record fields by position.
// Implement it on a struct to read and write records without going through *Record.
type Accessor interface {
	Get(pos int) interface{}
	Set(pos int, v interface{})
}

// Schemer is implemented by record values that know their schema.
// Writers use it to pick the record branch of a union.
type Schemer interface {
	Schema() *schema.Schema
}

// NewRecord returns a record of s with every field unset.
func NewRecord(s *schema.Schema) *Record {
	return &Record{
		schema: s,
		values: make([]interface{}, len(s.Fields())),
	}
}

// Record is a generic record value.
type Record struct {
	schema *schema.Schema
	values []interface{}
}

// Schema returns the record's schema.
func (r *Record) Schema() *schema.Schema { return r.schema }

// Get returns the value of the field at pos.
func (r *Record) Get(pos int) interface{} { return r.values[pos] }

// Set sets the value of the field at pos.
func (r *Record) Set(pos int, v interface{}) { r.values[pos] = v }

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.values) }

// Field returns the value of the named field.
func (r *Record) Field(name string) (interface{}, bool) {
	f, ok := r.schema.Field(name)
	if !ok {
		return nil, false
	}
	return r.values[f.Pos()], true
}

// SetField sets the value of the named field.
func (r *Record) SetField(name string, v interface{}) error {
	f, ok := r.schema.Field(name)
	if !ok {
		return encio.NewError(encio.ErrBadType, fmt.Sprintf("%v has no field %q", r.schema.FullName(), name), "Record.SetField")
	}
	r.values[f.Pos()] = v
	return nil
}

func (r *Record) String() string {
	s, err := ToJSON(r.schema, r)
	if err != nil {
		return fmt.Sprintf("%v%v", r.schema.FullName(), r.values)
	}
	return string(s)
}

// Enum is an enum value.
type Enum struct {
	Symbol  string
	Ordinal int
}

func (e Enum) String() string { return e.Symbol }

// Fixed is a fixed value.
type Fixed []byte

// Union is a union value with an explicit branch.
// Writers infer the branch of other values from their Go type. Readers and FromJSON return a Union
// only when that inference would pick a different branch, as with two enums in one union.
type Union struct {
	Branch int
	Value  interface{}
}
