package schema

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/segmentio/encoding/json"
	"github.com/stewi1014/avtape/encio"
)

// Parse parses a JSON schema description into a fresh arena.
func Parse(description []byte) (*Schema, error) {
	return ParseNames(description, NewNames(), "")
}

// ParseYAML parses a schema description written in YAML.
func ParseYAML(description []byte) (*Schema, error) {
	j, err := yaml.YAMLToJSON(description)
	if err != nil {
		return nil, encio.NewError(encio.ErrInvalidSchema, err.Error(), "ParseYAML")
	}
	return Parse(j)
}

// MustParse is like Parse but panics on error. It is meant for schemas known at compile time.
func MustParse(description string) *Schema {
	s, err := Parse([]byte(description))
	if err != nil {
		panic(err)
	}
	return s
}

// ParseNames parses a JSON schema description, resolving and registering named types in names.
// namespace is the enclosing namespace for undotted names.
func ParseNames(description []byte, names *Names, namespace string) (*Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(description))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, encio.NewError(encio.ErrInvalidSchema, err.Error(), "Parse")
	}

	p := parser{names: names}
	return p.parse(v, namespace)
}

type parser struct {
	names *Names
}

func (p *parser) parse(v interface{}, namespace string) (*Schema, error) {
	switch v := v.(type) {
	case string:
		return p.reference(v, namespace)
	case []interface{}:
		branches := make([]*Schema, len(v))
		for i, b := range v {
			s, err := p.parse(b, namespace)
			if err != nil {
				return nil, err
			}
			branches[i] = s
		}
		return NewUnion(branches...)
	case map[string]interface{}:
		return p.object(v, namespace)
	default:
		return nil, invalid("unexpected %T in schema description", v)
	}
}

func (p *parser) reference(name, namespace string) (*Schema, error) {
	if t, ok := primitiveType(name); ok {
		return NewPrimitive(t), nil
	}
	if s, ok := p.names.Lookup(name, namespace); ok {
		return s, nil
	}
	return nil, invalid("undefined name %q", name)
}

func (p *parser) object(obj map[string]interface{}, namespace string) (*Schema, error) {
	typ, ok := obj["type"]
	if !ok {
		return nil, invalid("schema object has no type")
	}

	typeName, ok := typ.(string)
	if !ok {
		// {"type": {...}} and {"type": [...]} wrap another schema.
		return p.parse(typ, namespace)
	}

	var (
		s   *Schema
		err error
	)
	switch typeName {
	case "record", "error":
		return p.record(obj, namespace)
	case "enum":
		s, err = p.enum(obj, namespace)
	case "fixed":
		s, err = p.fixed(obj, namespace)
	case "array":
		var items *Schema
		if items, err = p.child(obj, "items", namespace); err == nil {
			s = NewArray(items)
		}
	case "map":
		var values *Schema
		if values, err = p.child(obj, "values", namespace); err == nil {
			s = NewMap(values)
		}
	default:
		s, err = p.reference(typeName, namespace)
		if err == nil && s.typ.IsPrimitive() {
			s.props = props(obj)
		}
		return s, err
	}
	if err != nil {
		return nil, err
	}
	s.props = props(obj)
	return s, nil
}

func (p *parser) child(obj map[string]interface{}, key, namespace string) (*Schema, error) {
	v, ok := obj[key]
	if !ok {
		return nil, invalid("%v schema has no %q", obj["type"], key)
	}
	return p.parse(v, namespace)
}

func (p *parser) name(obj map[string]interface{}, namespace string) (Name, []Name, error) {
	raw, ok := obj["name"].(string)
	if !ok {
		return Name{}, nil, invalid("%v schema has no name", obj["type"])
	}
	if ns, ok := obj["namespace"].(string); ok {
		namespace = ns
	}
	name := ParseName(raw, namespace)

	var aliases []Name
	if list, ok := obj["aliases"].([]interface{}); ok {
		for _, a := range list {
			alias, ok := a.(string)
			if !ok {
				return Name{}, nil, invalid("alias of %v is not a string", name)
			}
			aliases = append(aliases, ParseName(alias, name.Namespace))
		}
	}
	return name, aliases, validName(name)
}

func (p *parser) record(obj map[string]interface{}, namespace string) (*Schema, error) {
	name, aliases, err := p.name(obj, namespace)
	if err != nil {
		return nil, err
	}
	s, err := NewRecordRef(name, aliases...)
	if err != nil {
		return nil, err
	}
	s.doc, _ = obj["doc"].(string)
	s.props = props(obj)

	// Registered before the fields so they can refer back to it.
	if err := p.names.Add(s); err != nil {
		return nil, err
	}

	list, ok := obj["fields"].([]interface{})
	if !ok {
		return nil, invalid("record %v has no fields", name)
	}

	fields := make([]*Field, len(list))
	for i, raw := range list {
		fobj, ok := raw.(map[string]interface{})
		if !ok {
			return nil, invalid("field %v of %v is not an object", i, name)
		}
		if fields[i], err = p.field(fobj, name); err != nil {
			return nil, err
		}
	}

	return s, s.SetFields(fields...)
}

func (p *parser) field(obj map[string]interface{}, record Name) (*Field, error) {
	fname, ok := obj["name"].(string)
	if !ok {
		return nil, invalid("field in %v has no name", record)
	}
	typ, ok := obj["type"]
	if !ok {
		return nil, invalid("field %v.%v has no type", record, fname)
	}
	fs, err := p.parse(typ, record.Namespace)
	if err != nil {
		return nil, fmt.Errorf("field %v.%v: %w", record, fname, err)
	}

	var aliases []string
	if list, ok := obj["aliases"].([]interface{}); ok {
		for _, a := range list {
			alias, ok := a.(string)
			if !ok {
				return nil, invalid("alias of field %v.%v is not a string", record, fname)
			}
			aliases = append(aliases, alias)
		}
	}

	var def interface{} = NoDefault
	if d, ok := obj["default"]; ok {
		def = d
	}

	f := NewField(fname, fs, def, aliases...)
	f.doc, _ = obj["doc"].(string)

	switch obj["order"] {
	case nil, "ascending":
		f.order = Ascending
	case "descending":
		f.order = Descending
	case "ignore":
		f.order = Ignore
	default:
		return nil, invalid("field %v.%v has invalid order %v", record, fname, obj["order"])
	}
	return f, nil
}

func (p *parser) enum(obj map[string]interface{}, namespace string) (*Schema, error) {
	name, aliases, err := p.name(obj, namespace)
	if err != nil {
		return nil, err
	}
	list, ok := obj["symbols"].([]interface{})
	if !ok {
		return nil, invalid("enum %v has no symbols", name)
	}
	symbols := make([]string, len(list))
	for i, raw := range list {
		if symbols[i], ok = raw.(string); !ok {
			return nil, invalid("symbol %v of %v is not a string", i, name)
		}
	}

	s, err := NewEnum(name, symbols, aliases...)
	if err != nil {
		return nil, err
	}
	if def, ok := obj["default"]; ok {
		sym, ok := def.(string)
		if !ok {
			return nil, invalid("enum default of %v is not a string", name)
		}
		if s, err = s.WithEnumDefault(sym); err != nil {
			return nil, err
		}
	}
	s.doc, _ = obj["doc"].(string)
	return s, p.names.Add(s)
}

func (p *parser) fixed(obj map[string]interface{}, namespace string) (*Schema, error) {
	name, aliases, err := p.name(obj, namespace)
	if err != nil {
		return nil, err
	}
	num, ok := obj["size"].(json.Number)
	if !ok {
		return nil, invalid("fixed %v has no size", name)
	}
	size, err := num.Int64()
	if err != nil || size > encio.TooBig {
		return nil, invalid("fixed %v has invalid size %v", name, num)
	}

	s, err := NewFixed(name, int(size), aliases...)
	if err != nil {
		return nil, err
	}
	return s, p.names.Add(s)
}

var reserved = map[string]bool{
	"type": true, "name": true, "namespace": true, "aliases": true, "doc": true,
	"fields": true, "symbols": true, "items": true, "values": true, "size": true, "default": true,
}

func props(obj map[string]interface{}) map[string]interface{} {
	var m map[string]interface{}
	for k, v := range obj {
		if reserved[k] {
			continue
		}
		if m == nil {
			m = make(map[string]interface{})
		}
		m[k] = v
	}
	return m
}
