package wire

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/segmentio/encoding/json"
	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/schema"
)

// EncodeDefault returns the binary encoding of a field default.
// v is a decoded JSON value as held by schema.Field: nil, bool, json.Number, float64, string,
// []interface{} or map[string]interface{}. Unions encode v as their first branch, and bytes and fixed
// defaults are strings whose code points are the byte values.
func EncodeDefault(s *schema.Schema, v interface{}) ([]byte, error) {
	buff := encio.NewBuffer(nil)
	if err := EncodeJSON(NewEncoder(buff), s, v); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// EncodeJSON writes the JSON value v as a value of s.
func EncodeJSON(e *Encoder, s *schema.Schema, v interface{}) error {
	switch s.Type() {
	case schema.Null:
		if v != nil {
			return mismatch(s, v)
		}
		return e.WriteNull()

	case schema.Boolean:
		b, ok := v.(bool)
		if !ok {
			return mismatch(s, v)
		}
		return e.WriteBoolean(b)

	case schema.Int:
		n, err := jsonInt(s, v)
		if err != nil {
			return err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return encio.NewError(encio.ErrBadType, fmt.Sprintf("default %v overflows int", n), "wire.EncodeJSON")
		}
		return e.WriteInt(int32(n))

	case schema.Long:
		n, err := jsonInt(s, v)
		if err != nil {
			return err
		}
		return e.WriteLong(n)

	case schema.Float:
		f, err := jsonFloat(s, v)
		if err != nil {
			return err
		}
		return e.WriteFloat(float32(f))

	case schema.Double:
		f, err := jsonFloat(s, v)
		if err != nil {
			return err
		}
		return e.WriteDouble(f)

	case schema.String:
		str, ok := v.(string)
		if !ok {
			return mismatch(s, v)
		}
		return e.WriteString(str)

	case schema.Bytes:
		str, ok := v.(string)
		if !ok {
			return mismatch(s, v)
		}
		b, err := latin1(str)
		if err != nil {
			return err
		}
		return e.WriteBytes(b)

	case schema.Fixed:
		str, ok := v.(string)
		if !ok {
			return mismatch(s, v)
		}
		b, err := latin1(str)
		if err != nil {
			return err
		}
		if len(b) != s.Size() {
			return encio.NewError(encio.ErrBadType, fmt.Sprintf("%v byte default for %v of size %v", len(b), s.FullName(), s.Size()), "wire.EncodeJSON")
		}
		return e.WriteFixed(b)

	case schema.Enum:
		sym, ok := v.(string)
		if !ok {
			return mismatch(s, v)
		}
		i := s.SymbolIndex(sym)
		if i < 0 {
			return encio.NewError(encio.ErrBadType, fmt.Sprintf("%q is not a symbol of %v", sym, s.FullName()), "wire.EncodeJSON")
		}
		return e.WriteEnum(i)

	case schema.Array:
		list, ok := v.([]interface{})
		if !ok {
			return mismatch(s, v)
		}
		if err := e.WriteArrayStart(len(list)); err != nil {
			return err
		}
		for _, item := range list {
			if err := EncodeJSON(e, s.Items(), item); err != nil {
				return err
			}
		}
		return e.WriteArrayEnd()

	case schema.Map:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return mismatch(s, v)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		if err := e.WriteMapStart(len(keys)); err != nil {
			return err
		}
		for _, k := range keys {
			if err := e.WriteString(k); err != nil {
				return err
			}
			if err := EncodeJSON(e, s.Values(), obj[k]); err != nil {
				return err
			}
		}
		return e.WriteMapEnd()

	case schema.Union:
		branches := s.Branches()
		if len(branches) == 0 {
			return encio.NewError(encio.ErrBadType, "default for empty union", "wire.EncodeJSON")
		}
		if err := e.WriteIndex(0); err != nil {
			return err
		}
		return EncodeJSON(e, branches[0], v)

	case schema.Record:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return mismatch(s, v)
		}
		for _, f := range s.Fields() {
			fv, ok := obj[f.Name()]
			if !ok {
				if fv, ok = f.Default(); !ok {
					return encio.NewError(encio.ErrBadType, fmt.Sprintf("no default value for %v.%v", s.FullName(), f.Name()), "wire.EncodeJSON")
				}
			}
			if err := EncodeJSON(e, f.Schema(), fv); err != nil {
				return fmt.Errorf("%v.%v: %w", s.FullName(), f.Name(), err)
			}
		}
		return nil
	}
	return encio.NewError(encio.ErrBadType, "unknown schema type "+s.Type().String(), "wire.EncodeJSON")
}

func mismatch(s *schema.Schema, v interface{}) error {
	return encio.NewError(encio.ErrBadType, fmt.Sprintf("%T default value %v for %v", v, v, s.Type()), "wire.EncodeJSON")
}

func jsonInt(s *schema.Schema, v interface{}) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, mismatch(s, v)
		}
		return integral(s, f)
	case float64:
		return integral(s, n)
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	}
	return 0, mismatch(s, v)
}

// integral returns f as an int64 if it is a whole number in range.
func integral(s *schema.Schema, f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, encio.NewError(encio.ErrBadType, fmt.Sprintf("default %v is not a %v", f, s.Type()), "wire.EncodeJSON")
	}
	return int64(f), nil
}

func jsonFloat(s *schema.Schema, v interface{}) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, mismatch(s, v)
		}
		return f, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, mismatch(s, v)
}

// latin1 maps each code point of str to a byte.
func latin1(str string) ([]byte, error) {
	b := make([]byte, 0, len(str))
	for _, r := range str {
		if r > 0xff {
			return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("code point %U in bytes default", r), "wire.EncodeJSON")
		}
		b = append(b, byte(r))
	}
	return b, nil
}
