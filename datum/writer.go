package datum

import (
	"fmt"
	"math"

	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/schema"
	"github.com/stewi1014/avtape/wire"
)

// NewWriter returns a Writer for values of s.
func NewWriter(s *schema.Schema) *Writer {
	return &Writer{schema: s}
}

// Writer encodes values of a schema. It is safe for concurrent use.
type Writer struct {
	schema *schema.Schema
}

// Schema returns the schema values are written with.
func (w *Writer) Schema() *schema.Schema { return w.schema }

// Write encodes v.
func (w *Writer) Write(e *wire.Encoder, v interface{}) error {
	return write(e, w.schema, v)
}

func badType(s *schema.Schema, v interface{}) error {
	return encio.NewError(encio.ErrBadType, fmt.Sprintf("cannot write %T as %v", v, s.FullName()), "datum.Writer")
}

func write(e *wire.Encoder, s *schema.Schema, v interface{}) error {
	switch s.Type() {
	case schema.Null:
		if v != nil {
			return badType(s, v)
		}
		return e.WriteNull()

	case schema.Boolean:
		b, ok := v.(bool)
		if !ok {
			return badType(s, v)
		}
		return e.WriteBoolean(b)

	case schema.Int:
		n, ok := toInt64(v)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return badType(s, v)
		}
		return e.WriteInt(int32(n))

	case schema.Long:
		n, ok := toInt64(v)
		if !ok {
			return badType(s, v)
		}
		return e.WriteLong(n)

	case schema.Float:
		f, ok := toFloat64(v)
		if !ok {
			return badType(s, v)
		}
		return e.WriteFloat(float32(f))

	case schema.Double:
		f, ok := toFloat64(v)
		if !ok {
			return badType(s, v)
		}
		return e.WriteDouble(f)

	case schema.Bytes:
		switch b := v.(type) {
		case []byte:
			return e.WriteBytes(b)
		case Fixed:
			return e.WriteBytes(b)
		case string:
			return e.WriteString(b)
		}
		return badType(s, v)

	case schema.String:
		switch str := v.(type) {
		case string:
			return e.WriteString(str)
		case []byte:
			return e.WriteBytes(str)
		}
		return badType(s, v)

	case schema.Fixed:
		var b []byte
		switch f := v.(type) {
		case Fixed:
			b = f
		case []byte:
			b = f
		default:
			return badType(s, v)
		}
		if len(b) != s.Size() {
			return encio.NewError(encio.ErrBadType, fmt.Sprintf("%v bytes for %v of size %v", len(b), s.FullName(), s.Size()), "datum.Writer")
		}
		return e.WriteFixed(b)

	case schema.Enum:
		i := -1
		switch sym := v.(type) {
		case Enum:
			i = sym.Ordinal
			if sym.Symbol != "" {
				i = s.SymbolIndex(sym.Symbol)
			}
		case string:
			i = s.SymbolIndex(sym)
		case int:
			i = sym
		default:
			return badType(s, v)
		}
		if i < 0 || i >= len(s.Symbols()) {
			return encio.NewError(encio.ErrBadType, fmt.Sprintf("%v is not a symbol of %v", v, s.FullName()), "datum.Writer")
		}
		return e.WriteEnum(i)

	case schema.Array:
		items, ok := v.([]interface{})
		if !ok {
			return badType(s, v)
		}
		if err := e.WriteArrayStart(len(items)); err != nil {
			return err
		}
		for _, item := range items {
			if err := write(e, s.Items(), item); err != nil {
				return err
			}
		}
		return e.WriteArrayEnd()

	case schema.Map:
		m, ok := v.(map[string]interface{})
		if !ok {
			return badType(s, v)
		}
		if err := e.WriteMapStart(len(m)); err != nil {
			return err
		}
		for k, mv := range m {
			if err := e.WriteString(k); err != nil {
				return err
			}
			if err := write(e, s.Values(), mv); err != nil {
				return err
			}
		}
		return e.WriteMapEnd()

	case schema.Union:
		i, err := ResolveUnion(s, v)
		if err != nil {
			return err
		}
		if u, ok := v.(Union); ok {
			v = u.Value
		}
		if err := e.WriteIndex(i); err != nil {
			return err
		}
		return write(e, s.Branches()[i], v)

	case schema.Record:
		acc, ok := v.(Accessor)
		if !ok {
			return badType(s, v)
		}
		for _, f := range s.Fields() {
			if err := write(e, f.Schema(), acc.Get(f.Pos())); err != nil {
				return fmt.Errorf("%v.%v: %w", s.FullName(), f.Name(), err)
			}
		}
		return nil
	}
	return badType(s, v)
}

// ResolveUnion returns the branch of the union s that v is written as.
// Union values name their branch; other values pick the first branch their Go type can be written as,
// and records that know their schema pick the branch of the same name.
func ResolveUnion(s *schema.Schema, v interface{}) (int, error) {
	branches := s.Branches()
	if u, ok := v.(Union); ok {
		if u.Branch < 0 || u.Branch >= len(branches) {
			return 0, encio.NewError(encio.ErrBadType, fmt.Sprintf("branch %v of %v", u.Branch, s), "datum.ResolveUnion")
		}
		return u.Branch, nil
	}

	find := func(types ...schema.Type) int {
		for _, t := range types {
			for i, b := range branches {
				if b.Type() == t {
					return i
				}
			}
		}
		return -1
	}

	i := -1
	switch v := v.(type) {
	case nil:
		i = find(schema.Null)
	case bool:
		i = find(schema.Boolean)
	case int32, int16, int8, uint8, uint16:
		i = find(schema.Int, schema.Long, schema.Float, schema.Double)
	case int64, int, uint32:
		i = find(schema.Long, schema.Int, schema.Double, schema.Float)
	case float32:
		i = find(schema.Float, schema.Double)
	case float64:
		i = find(schema.Double, schema.Float)
	case string:
		i = find(schema.String, schema.Enum, schema.Bytes)
	case []byte:
		i = find(schema.Bytes, schema.String)
	case Fixed:
		i = find(schema.Fixed, schema.Bytes)
	case Enum:
		i = find(schema.Enum)
	case []interface{}:
		i = find(schema.Array)
	case map[string]interface{}:
		i = find(schema.Map)
	case Schemer:
		for j, b := range branches {
			if b.Type().IsNamed() && b.FullName() == v.Schema().FullName() {
				i = j
				break
			}
		}
		if i < 0 {
			i = find(schema.Record)
		}
	case Accessor:
		i = find(schema.Record)
	}
	if i < 0 {
		return 0, encio.NewError(encio.ErrBadType, fmt.Sprintf("no branch of %v for %T", s, v), "datum.ResolveUnion")
	}
	return i, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	}
	n, ok := toInt64(v)
	return float64(n), ok
}
