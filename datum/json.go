package datum

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/segmentio/encoding/json"

	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/schema"
)

// ToJSON returns the Avro JSON encoding of v as a value of s.
// Unions other than null are wrapped in an object keyed by the branch's full name,
// and bytes and fixed values are strings whose code points are the byte values.
func ToJSON(s *schema.Schema, v interface{}) ([]byte, error) {
	var buff bytes.Buffer
	if err := appendJSON(&buff, s, v); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

func appendJSON(buff *bytes.Buffer, s *schema.Schema, v interface{}) error {
	switch s.Type() {
	case schema.Null:
		if v != nil {
			return badType(s, v)
		}
		buff.WriteString("null")

	case schema.Boolean:
		b, ok := v.(bool)
		if !ok {
			return badType(s, v)
		}
		buff.WriteString(strconv.FormatBool(b))

	case schema.Int, schema.Long:
		n, ok := toInt64(v)
		if !ok || (s.Type() == schema.Int && (n < math.MinInt32 || n > math.MaxInt32)) {
			return badType(s, v)
		}
		buff.WriteString(strconv.FormatInt(n, 10))

	case schema.Float, schema.Double:
		f, ok := toFloat64(v)
		if !ok {
			return badType(s, v)
		}
		bits := 64
		if s.Type() == schema.Float {
			bits = 32
		}
		switch {
		case math.IsNaN(f):
			buff.WriteString(`"NaN"`)
		case math.IsInf(f, 1):
			buff.WriteString(`"Infinity"`)
		case math.IsInf(f, -1):
			buff.WriteString(`"-Infinity"`)
		default:
			buff.WriteString(strconv.FormatFloat(f, 'g', -1, bits))
		}

	case schema.String:
		switch str := v.(type) {
		case string:
			return appendValue(buff, str)
		case []byte:
			return appendValue(buff, string(str))
		}
		return badType(s, v)

	case schema.Bytes, schema.Fixed:
		var b []byte
		switch t := v.(type) {
		case []byte:
			b = t
		case Fixed:
			b = t
		default:
			return badType(s, v)
		}
		if s.Type() == schema.Fixed && len(b) != s.Size() {
			return badType(s, v)
		}
		runes := make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
		return appendValue(buff, string(runes))

	case schema.Enum:
		var sym string
		switch e := v.(type) {
		case Enum:
			sym = e.Symbol
			if sym == "" && e.Ordinal >= 0 && e.Ordinal < len(s.Symbols()) {
				sym = s.Symbols()[e.Ordinal]
			}
		case string:
			sym = e
		default:
			return badType(s, v)
		}
		if s.SymbolIndex(sym) < 0 {
			return encio.NewError(encio.ErrBadType, fmt.Sprintf("%q is not a symbol of %v", sym, s.FullName()), "datum.ToJSON")
		}
		return appendValue(buff, sym)

	case schema.Array:
		items, ok := v.([]interface{})
		if !ok {
			return badType(s, v)
		}
		buff.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				buff.WriteByte(',')
			}
			if err := appendJSON(buff, s.Items(), item); err != nil {
				return err
			}
		}
		buff.WriteByte(']')

	case schema.Map:
		m, ok := v.(map[string]interface{})
		if !ok {
			return badType(s, v)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buff.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buff.WriteByte(',')
			}
			if err := appendValue(buff, k); err != nil {
				return err
			}
			buff.WriteByte(':')
			if err := appendJSON(buff, s.Values(), m[k]); err != nil {
				return err
			}
		}
		buff.WriteByte('}')

	case schema.Union:
		i, err := ResolveUnion(s, v)
		if err != nil {
			return err
		}
		if u, ok := v.(Union); ok {
			v = u.Value
		}
		branch := s.Branches()[i]
		if branch.Type() == schema.Null {
			return appendJSON(buff, branch, v)
		}
		buff.WriteByte('{')
		if err := appendValue(buff, branch.FullName()); err != nil {
			return err
		}
		buff.WriteByte(':')
		if err := appendJSON(buff, branch, v); err != nil {
			return err
		}
		buff.WriteByte('}')

	case schema.Record:
		acc, ok := v.(Accessor)
		if !ok {
			return badType(s, v)
		}
		buff.WriteByte('{')
		for i, f := range s.Fields() {
			if i > 0 {
				buff.WriteByte(',')
			}
			if err := appendValue(buff, f.Name()); err != nil {
				return err
			}
			buff.WriteByte(':')
			if err := appendJSON(buff, f.Schema(), acc.Get(f.Pos())); err != nil {
				return fmt.Errorf("%v.%v: %w", s.FullName(), f.Name(), err)
			}
		}
		buff.WriteByte('}')

	default:
		return badType(s, v)
	}
	return nil
}

func appendValue(buff *bytes.Buffer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buff.Write(b)
	return nil
}

// FromJSON decodes the Avro JSON encoding of a value of s, as written by ToJSON.
// Record fields missing from data take their defaults.
func FromJSON(s *schema.Schema, data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, encio.NewError(encio.ErrBadType, err.Error(), "datum.FromJSON")
	}
	return fromJSON(s, v, false)
}

// DefaultValue returns the default of f as a value.
func DefaultValue(f *schema.Field) (interface{}, error) {
	def, ok := f.Default()
	if !ok {
		return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("field %v has no default", f.Name()), "datum.DefaultValue")
	}
	return fromJSON(f.Schema(), def, true)
}

func jsonMismatch(s *schema.Schema, v interface{}) error {
	return encio.NewError(encio.ErrBadType, fmt.Sprintf("JSON %T %v for %v", v, v, s.FullName()), "datum.FromJSON")
}

// fromJSON converts a decoded JSON value. Defaults hold unions as their first branch, untagged.
func fromJSON(s *schema.Schema, v interface{}, isDefault bool) (interface{}, error) {
	switch s.Type() {
	case schema.Null:
		if v != nil {
			return nil, jsonMismatch(s, v)
		}
		return nil, nil

	case schema.Boolean:
		b, ok := v.(bool)
		if !ok {
			return nil, jsonMismatch(s, v)
		}
		return b, nil

	case schema.Int, schema.Long:
		num, ok := v.(json.Number)
		if !ok {
			return nil, jsonMismatch(s, v)
		}
		n, err := num.Int64()
		if err != nil {
			return nil, jsonMismatch(s, v)
		}
		if s.Type() == schema.Long {
			return n, nil
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, jsonMismatch(s, v)
		}
		return int32(n), nil

	case schema.Float, schema.Double:
		var f float64
		switch n := v.(type) {
		case json.Number:
			var err error
			if f, err = n.Float64(); err != nil {
				return nil, jsonMismatch(s, v)
			}
		case string:
			switch n {
			case "NaN":
				f = math.NaN()
			case "Infinity":
				f = math.Inf(1)
			case "-Infinity":
				f = math.Inf(-1)
			default:
				return nil, jsonMismatch(s, v)
			}
		default:
			return nil, jsonMismatch(s, v)
		}
		if s.Type() == schema.Float {
			return float32(f), nil
		}
		return f, nil

	case schema.String:
		str, ok := v.(string)
		if !ok {
			return nil, jsonMismatch(s, v)
		}
		return str, nil

	case schema.Bytes, schema.Fixed:
		str, ok := v.(string)
		if !ok {
			return nil, jsonMismatch(s, v)
		}
		b := make([]byte, 0, len(str))
		for _, r := range str {
			if r > 0xff {
				return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("code point %U in %v", r, s.FullName()), "datum.FromJSON")
			}
			b = append(b, byte(r))
		}
		if s.Type() == schema.Bytes {
			return b, nil
		}
		if len(b) != s.Size() {
			return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("%v bytes for %v of size %v", len(b), s.FullName(), s.Size()), "datum.FromJSON")
		}
		return Fixed(b), nil

	case schema.Enum:
		str, ok := v.(string)
		if !ok {
			return nil, jsonMismatch(s, v)
		}
		i := s.SymbolIndex(str)
		if i < 0 {
			return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("%q is not a symbol of %v", str, s.FullName()), "datum.FromJSON")
		}
		return Enum{Symbol: str, Ordinal: i}, nil

	case schema.Array:
		arr, ok := v.([]interface{})
		if !ok {
			return nil, jsonMismatch(s, v)
		}
		items := make([]interface{}, len(arr))
		for i, item := range arr {
			var err error
			if items[i], err = fromJSON(s.Items(), item, isDefault); err != nil {
				return nil, err
			}
		}
		return items, nil

	case schema.Map:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, jsonMismatch(s, v)
		}
		m := make(map[string]interface{}, len(obj))
		for k, mv := range obj {
			var err error
			if m[k], err = fromJSON(s.Values(), mv, isDefault); err != nil {
				return nil, err
			}
		}
		return m, nil

	case schema.Union:
		branches := s.Branches()
		if isDefault {
			return fromJSON(branches[0], v, true)
		}
		i := -1
		var bv interface{}
		if v == nil {
			for j, b := range branches {
				if b.Type() == schema.Null {
					i = j
					break
				}
			}
		} else if obj, ok := v.(map[string]interface{}); ok && len(obj) == 1 {
			for name, val := range obj {
				for j, b := range branches {
					if b.FullName() == name {
						i, bv = j, val
						break
					}
				}
			}
		}
		if i < 0 {
			return nil, jsonMismatch(s, v)
		}
		val, err := fromJSON(branches[i], bv, false)
		if err != nil {
			return nil, err
		}
		if inferred, err := ResolveUnion(s, val); err != nil || inferred != i {
			return Union{Branch: i, Value: val}, nil
		}
		return val, nil

	case schema.Record:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, jsonMismatch(s, v)
		}
		rec := NewRecord(s)
		for _, f := range s.Fields() {
			fv, ok := obj[f.Name()]
			var val interface{}
			var err error
			switch {
			case ok:
				val, err = fromJSON(f.Schema(), fv, isDefault)
			default:
				if _, has := f.Default(); !has {
					return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("%v is missing field %v", s.FullName(), f.Name()), "datum.FromJSON")
				}
				val, err = DefaultValue(f)
			}
			if err != nil {
				return nil, fmt.Errorf("%v.%v: %w", s.FullName(), f.Name(), err)
			}
			rec.Set(f.Pos(), val)
		}
		return rec, nil
	}
	return nil, jsonMismatch(s, v)
}
