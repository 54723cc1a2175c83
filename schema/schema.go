// Package schema is the immutable schema model: primitives, records, enums, fixed, arrays,
// maps and unions.
//
// Records, enums and fixed are named types. A named type is identified by its full name
// within a Names arena, and a record may refer to itself or to records that refer back
// to it; the schema graph is not acyclic. Schemas are built once, usually by Parse, and
// shared read-only afterwards.
package schema

import (
	"fmt"
	"strings"

	"github.com/stewi1014/avtape/encio"
)

// Type is the kind of a schema node.
type Type uint8

// Schema types.
const (
	Null Type = iota
	Boolean
	Int
	Long
	Float
	Double
	Bytes
	String
	Fixed
	Enum
	Array
	Map
	Union
	Record
)

var typeNames = [...]string{
	Null:    "null",
	Boolean: "boolean",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Bytes:   "bytes",
	String:  "string",
	Fixed:   "fixed",
	Enum:    "enum",
	Array:   "array",
	Map:     "map",
	Union:   "union",
	Record:  "record",
}

// String returns the type's name as written in schema descriptions.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// IsPrimitive returns true for the types without children or names.
func (t Type) IsPrimitive() bool { return t <= String }

// IsNamed returns true for records, enums and fixed.
func (t Type) IsNamed() bool { return t == Record || t == Enum || t == Fixed }

func primitiveType(name string) (Type, bool) {
	for t := Null; t <= String; t++ {
		if typeNames[t] == name {
			return t, true
		}
	}
	return 0, false
}

// Name is the name of a named type.
type Name struct {
	Name      string
	Namespace string
}

// ParseName splits a possibly dotted name. Undotted names take the enclosing namespace.
func ParseName(name, enclosing string) Name {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return Name{Name: name[i+1:], Namespace: name[:i]}
	}
	return Name{Name: name, Namespace: enclosing}
}

// FullName returns the dotted full name.
func (n Name) FullName() string {
	if n.Namespace == "" {
		return n.Name
	}
	return n.Namespace + "." + n.Name
}

func (n Name) String() string { return n.FullName() }

// Schema is a node in a schema graph.
type Schema struct {
	typ     Type
	name    Name
	aliases []Name
	doc     string

	symbols    []string
	enumDef    string
	hasEnumDef bool

	size int

	items  *Schema
	values *Schema

	branches []*Schema

	fields     []*Field
	fieldIndex map[string]int
	sealed     bool

	props map[string]interface{}
}

// Type returns the schema's type.
func (s *Schema) Type() Type { return s.typ }

// Name returns the name of a named type, or the zero Name.
func (s *Schema) Name() Name { return s.name }

// FullName returns the full name of a named type, or the type name of other schemas.
func (s *Schema) FullName() string {
	if s.typ.IsNamed() {
		return s.name.FullName()
	}
	return s.typ.String()
}

// Aliases returns the alternate names of a named type.
func (s *Schema) Aliases() []Name { return s.aliases }

// Doc returns the documentation string.
func (s *Schema) Doc() string { return s.doc }

// Symbols returns an enum's symbols in ordinal order.
func (s *Schema) Symbols() []string { return s.symbols }

// SymbolIndex returns the ordinal of an enum symbol, or -1.
func (s *Schema) SymbolIndex(symbol string) int {
	for i, sym := range s.symbols {
		if sym == symbol {
			return i
		}
	}
	return -1
}

// EnumDefault returns the symbol readers use for unknown writer symbols, if the enum declares one.
func (s *Schema) EnumDefault() (string, bool) { return s.enumDef, s.hasEnumDef }

// Size returns the byte count of a fixed schema.
func (s *Schema) Size() int { return s.size }

// Items returns an array's element schema.
func (s *Schema) Items() *Schema { return s.items }

// Values returns a map's value schema.
func (s *Schema) Values() *Schema { return s.values }

// Branches returns a union's branches in order.
func (s *Schema) Branches() []*Schema { return s.branches }

// Fields returns a record's fields in declaration order.
func (s *Schema) Fields() []*Field { return s.fields }

// Field returns the record field with the given name.
func (s *Schema) Field(name string) (*Field, bool) {
	i, ok := s.fieldIndex[name]
	if !ok {
		return nil, false
	}
	return s.fields[i], true
}

// Prop returns an extra attribute from the schema description, such as "logicalType".
func (s *Schema) Prop(key string) (interface{}, bool) {
	v, ok := s.props[key]
	return v, ok
}

// LogicalType returns the logicalType annotation, or "".
func (s *Schema) LogicalType() string {
	lt, _ := s.props["logicalType"].(string)
	return lt
}

// HasName returns true if the named type is called full, either by name or by alias.
func (s *Schema) HasName(full string) bool {
	if s.name.FullName() == full {
		return true
	}
	for _, a := range s.aliases {
		if a.FullName() == full {
			return true
		}
	}
	return false
}

// String returns the parsing canonical form.
func (s *Schema) String() string { return s.Canonical() }

// NewPrimitive returns a schema for a primitive type.
func NewPrimitive(t Type) *Schema {
	if !t.IsPrimitive() {
		panic(fmt.Sprintf("schema: %v is not a primitive type", t))
	}
	return &Schema{typ: t}
}

// NewArray returns an array schema.
func NewArray(items *Schema) *Schema {
	return &Schema{typ: Array, items: items}
}

// NewMap returns a map schema. Map keys are always strings.
func NewMap(values *Schema) *Schema {
	return &Schema{typ: Map, values: values}
}

// NewUnion returns a union schema.
// Unions may not directly contain unions, nor two branches of the same unnamed type or the same name.
func NewUnion(branches ...*Schema) (*Schema, error) {
	seen := make(map[string]bool, len(branches))
	for _, b := range branches {
		if b.typ == Union {
			return nil, invalid("union may not immediately contain another union")
		}
		key := b.FullName()
		if seen[key] {
			return nil, invalid("duplicate %v in union", key)
		}
		seen[key] = true
	}
	return &Schema{typ: Union, branches: branches}, nil
}

// NewEnum returns an enum schema.
func NewEnum(name Name, symbols []string, aliases ...Name) (*Schema, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		if !isIdent(sym) {
			return nil, invalid("invalid enum symbol %q in %v", sym, name)
		}
		if seen[sym] {
			return nil, invalid("duplicate enum symbol %q in %v", sym, name)
		}
		seen[sym] = true
	}
	return &Schema{typ: Enum, name: name, symbols: symbols, aliases: aliases}, nil
}

// WithEnumDefault returns a copy of an enum schema that declares def as its default symbol.
func (s *Schema) WithEnumDefault(def string) (*Schema, error) {
	if s.typ != Enum {
		return nil, invalid("%v is not an enum", s.FullName())
	}
	if s.SymbolIndex(def) < 0 {
		return nil, invalid("enum default %q is not a symbol of %v", def, s.name)
	}
	c := *s
	c.enumDef, c.hasEnumDef = def, true
	return &c, nil
}

// NewFixed returns a fixed schema of size bytes.
func NewFixed(name Name, size int, aliases ...Name) (*Schema, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, invalid("negative size %v for fixed %v", size, name)
	}
	return &Schema{typ: Fixed, name: name, size: size, aliases: aliases}, nil
}

// NewRecord returns a record schema with the given fields.
func NewRecord(name Name, fields ...*Field) (*Schema, error) {
	s, err := NewRecordRef(name)
	if err != nil {
		return nil, err
	}
	return s, s.SetFields(fields...)
}

// NewRecordRef returns a record schema without fields.
// The record can be referenced by other schemas, including its own fields, before SetFields is called.
func NewRecordRef(name Name, aliases ...Name) (*Schema, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	return &Schema{typ: Record, name: name, aliases: aliases}, nil
}

// SetFields completes a record created with NewRecordRef. It may only be called once.
func (s *Schema) SetFields(fields ...*Field) error {
	if s.typ != Record {
		return invalid("%v is not a record", s.FullName())
	}
	if s.sealed {
		return encio.NewError(encio.ErrBadType, "record fields already set", "")
	}
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if !isIdent(f.name) {
			return invalid("invalid field name %q in %v", f.name, s.name)
		}
		if _, ok := index[f.name]; ok {
			return invalid("duplicate field %q in %v", f.name, s.name)
		}
		if f.pos >= 0 {
			return invalid("field %q already belongs to a record", f.name)
		}
		index[f.name] = i
	}
	for i, f := range fields {
		f.pos = i
	}
	s.fields = fields
	s.fieldIndex = index
	s.sealed = true
	return nil
}

// Order is the sort order of a record field.
type Order uint8

// Field orders.
const (
	Ascending Order = iota
	Descending
	Ignore
)

// NoDefault marks a field without a default value.
var NoDefault = noDefault{}

type noDefault struct{}

// Field is a record field.
type Field struct {
	name    string
	schema  *Schema
	pos     int
	def     interface{}
	hasDef  bool
	aliases []string
	order   Order
	doc     string
}

// NewField returns a record field. def is the field's default as a decoded JSON value
// (nil for JSON null), or NoDefault.
func NewField(name string, s *Schema, def interface{}, aliases ...string) *Field {
	f := &Field{
		name:    name,
		schema:  s,
		pos:     -1,
		aliases: aliases,
	}
	if _, ok := def.(noDefault); !ok {
		f.def, f.hasDef = def, true
	}
	return f
}

// Name returns the field's name.
func (f *Field) Name() string { return f.name }

// Schema returns the field's schema.
func (f *Field) Schema() *Schema { return f.schema }

// Pos returns the field's position in its record.
func (f *Field) Pos() int { return f.pos }

// Default returns the field's default value, and whether it has one.
func (f *Field) Default() (interface{}, bool) { return f.def, f.hasDef }

// Aliases returns the field's alternate names.
func (f *Field) Aliases() []string { return f.aliases }

// Order returns the field's sort order.
func (f *Field) Order() Order { return f.order }

// Doc returns the field's documentation.
func (f *Field) Doc() string { return f.doc }

// HasName returns true if the field is called name, either by name or by alias.
func (f *Field) HasName(name string) bool {
	if f.name == name {
		return true
	}
	for _, a := range f.aliases {
		if a == name {
			return true
		}
	}
	return false
}

func (f *Field) String() string {
	return fmt.Sprintf("%v:%v", f.name, f.schema.FullName())
}

func invalid(format string, args ...interface{}) error {
	return encio.NewError(encio.ErrInvalidSchema, fmt.Sprintf(format, args...), "schema")
}

func validName(n Name) error {
	if !isIdent(n.Name) {
		return invalid("invalid name %q", n.Name)
	}
	if n.Namespace == "" {
		return nil
	}
	for _, part := range strings.Split(n.Namespace, ".") {
		if !isIdent(part) {
			return invalid("invalid namespace %q", n.Namespace)
		}
	}
	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
