package wire_test

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
	"testing/iotest"

	"github.com/maxatome/go-testdeep/td"
	"github.com/segmentio/encoding/json"
	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/schema"
	"github.com/stewi1014/avtape/wire"
)

func TestPrimitiveEncoding(t *testing.T) {
	testCases := []struct {
		desc   string
		write  func(e *wire.Encoder) error
		expect []byte
	}{
		{desc: "true", write: func(e *wire.Encoder) error { return e.WriteBoolean(true) }, expect: []byte{1}},
		{desc: "false", write: func(e *wire.Encoder) error { return e.WriteBoolean(false) }, expect: []byte{0}},
		{desc: "int -64", write: func(e *wire.Encoder) error { return e.WriteInt(-64) }, expect: []byte{0x7f}},
		{desc: "long 64", write: func(e *wire.Encoder) error { return e.WriteLong(64) }, expect: []byte{0x80, 0x01}},
		{desc: "float", write: func(e *wire.Encoder) error { return e.WriteFloat(3.5) }, expect: []byte{0, 0, 0x60, 0x40}},
		{desc: "double", write: func(e *wire.Encoder) error { return e.WriteDouble(-0.25) }, expect: []byte{0, 0, 0, 0, 0, 0, 0xd0, 0xbf}},
		{desc: "string", write: func(e *wire.Encoder) error { return e.WriteString("foo") }, expect: []byte{6, 'f', 'o', 'o'}},
		{desc: "empty bytes", write: func(e *wire.Encoder) error { return e.WriteBytes(nil) }, expect: []byte{0}},
		{desc: "fixed", write: func(e *wire.Encoder) error { return e.WriteFixed([]byte{1, 2}) }, expect: []byte{1, 2}},
		{desc: "null", write: func(e *wire.Encoder) error { return e.WriteNull() }, expect: []byte{}},
		{
			desc: "array",
			write: func(e *wire.Encoder) error {
				if err := e.WriteArrayStart(2); err != nil {
					return err
				}
				if err := e.WriteInt(1); err != nil {
					return err
				}
				if err := e.WriteInt(2); err != nil {
					return err
				}
				return e.WriteArrayEnd()
			},
			expect: []byte{4, 2, 4, 0},
		},
		{
			desc: "empty map",
			write: func(e *wire.Encoder) error {
				if err := e.WriteMapStart(0); err != nil {
					return err
				}
				return e.WriteMapEnd()
			},
			expect: []byte{0},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			buff := new(bytes.Buffer)
			td.Require(t).CmpNoError(tC.write(wire.NewEncoder(buff)))
			td.Cmp(t, buff.Bytes(), td.Code(func(got []byte) bool { return bytes.Equal(got, tC.expect) }))
		})
	}
}

func TestDecoder(t *testing.T) {
	buff := new(bytes.Buffer)
	e := wire.NewEncoder(buff)
	td.Require(t).CmpNoError(e.WriteBoolean(true))
	td.Require(t).CmpNoError(e.WriteInt(math.MinInt32))
	td.Require(t).CmpNoError(e.WriteLong(math.MaxInt64))
	td.Require(t).CmpNoError(e.WriteFloat(1.5))
	td.Require(t).CmpNoError(e.WriteDouble(math.Pi))
	td.Require(t).CmpNoError(e.WriteString("héllo"))
	td.Require(t).CmpNoError(e.WriteBytes([]byte{0xff, 0}))
	td.Require(t).CmpNoError(e.WriteFixed([]byte("abc")))
	td.Require(t).CmpNoError(e.WriteEnum(3))
	td.Require(t).CmpNoError(e.WriteIndex(1))

	for _, d := range []*wire.Decoder{
		wire.NewBytesDecoder(buff.Bytes()),
		wire.NewDecoder(iotest.OneByteReader(bytes.NewReader(buff.Bytes()))),
	} {
		b, err := d.ReadBoolean()
		td.CmpNoError(t, err)
		td.Cmp(t, b, true)

		i, err := d.ReadInt()
		td.CmpNoError(t, err)
		td.Cmp(t, i, int32(math.MinInt32))

		l, err := d.ReadLong()
		td.CmpNoError(t, err)
		td.Cmp(t, l, int64(math.MaxInt64))

		f, err := d.ReadFloat()
		td.CmpNoError(t, err)
		td.Cmp(t, f, float32(1.5))

		db, err := d.ReadDouble()
		td.CmpNoError(t, err)
		td.Cmp(t, db, math.Pi)

		s, err := d.ReadString()
		td.CmpNoError(t, err)
		td.Cmp(t, s, "héllo")

		by, err := d.ReadBytes()
		td.CmpNoError(t, err)
		td.Cmp(t, by, []byte{0xff, 0})

		fx, err := d.ReadFixed(3)
		td.CmpNoError(t, err)
		td.Cmp(t, fx, []byte("abc"))

		en, err := d.ReadEnum()
		td.CmpNoError(t, err)
		td.Cmp(t, en, 3)

		ix, err := d.ReadIndex()
		td.CmpNoError(t, err)
		td.Cmp(t, ix, 1)

		_, err = d.ReadLong()
		td.Cmp(t, errors.Is(err, io.EOF), true)
	}
}

func TestMore(t *testing.T) {
	for _, d := range []*wire.Decoder{
		wire.NewBytesDecoder([]byte{2}),
		wire.NewDecoder(bytes.NewReader([]byte{2})),
		wire.NewDecoder(iotest.OneByteReader(bytes.NewReader([]byte{2}))),
	} {
		more, err := d.More()
		td.CmpNoError(t, err)
		td.Cmp(t, more, true)

		n, err := d.ReadInt()
		td.CmpNoError(t, err)
		td.Cmp(t, n, int32(1))

		more, err = d.More()
		td.CmpNoError(t, err)
		td.Cmp(t, more, false)
	}
}

func TestDecoderMalformed(t *testing.T) {
	testCases := []struct {
		desc   string
		data   []byte
		read   func(d *wire.Decoder) error
		expect error
	}{
		{
			desc:   "bad boolean",
			data:   []byte{2},
			read:   func(d *wire.Decoder) error { _, err := d.ReadBoolean(); return err },
			expect: encio.ErrMalformed,
		},
		{
			desc:   "negative length",
			data:   []byte{1},
			read:   func(d *wire.Decoder) error { _, err := d.ReadBytes(); return err },
			expect: encio.ErrMalformed,
		},
		{
			desc:   "truncated string",
			data:   []byte{6, 'a'},
			read:   func(d *wire.Decoder) error { _, err := d.ReadString(); return err },
			expect: encio.ErrMalformed,
		},
		{
			desc:   "truncated varint",
			data:   []byte{0x80},
			read:   func(d *wire.Decoder) error { _, err := d.ReadLong(); return err },
			expect: io.ErrUnexpectedEOF,
		},
		{
			desc:   "int overflow",
			data:   []byte{0xff, 0xff, 0xff, 0xff, 0x7f},
			read:   func(d *wire.Decoder) error { _, err := d.ReadInt(); return err },
			expect: encio.ErrMalformed,
		},
		{
			desc:   "negative enum",
			data:   []byte{1},
			read:   func(d *wire.Decoder) error { _, err := d.ReadEnum(); return err },
			expect: encio.ErrMalformed,
		},
		{
			desc:   "truncated double",
			data:   []byte{1, 2, 3},
			read:   func(d *wire.Decoder) error { _, err := d.ReadDouble(); return err },
			expect: io.ErrUnexpectedEOF,
		},
		{
			desc:   "truncated float is malformed",
			data:   []byte{1},
			read:   func(d *wire.Decoder) error { _, err := d.ReadFloat(); return err },
			expect: encio.ErrMalformed,
		},
		{
			desc:   "string without its bytes",
			data:   []byte{6},
			read:   func(d *wire.Decoder) error { _, err := d.ReadString(); return err },
			expect: encio.ErrMalformed,
		},
		{
			desc:   "block without its size",
			data:   []byte{3},
			read:   func(d *wire.Decoder) error { _, err := d.ReadArrayStart(); return err },
			expect: encio.ErrMalformed,
		},
		{
			desc:   "skipped bytes cut short",
			data:   []byte{6, 'a'},
			read:   func(d *wire.Decoder) error { return d.SkipBytes() },
			expect: encio.ErrMalformed,
		},
		{
			desc:   "nothing left",
			data:   nil,
			read:   func(d *wire.Decoder) error { _, err := d.ReadDouble(); return err },
			expect: io.EOF,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			err := tC.read(wire.NewBytesDecoder(tC.data))
			td.Cmp(t, errors.Is(err, tC.expect), true, "got %v", err)
		})
	}
}

func TestBlocks(t *testing.T) {
	// Two blocks: one with a byte size, one without.
	data := []byte{
		3, 4, 2, 4, // count -2, size 2, items 1 2
		2, 6, // count 1, item 3
		0,
	}
	d := wire.NewBytesDecoder(data)
	n, err := d.ReadArrayStart()
	td.CmpNoError(t, err)
	td.Cmp(t, n, int64(2))
	for i := int32(1); i <= 2; i++ {
		v, err := d.ReadInt()
		td.CmpNoError(t, err)
		td.Cmp(t, v, i)
	}
	n, err = d.ArrayNext()
	td.CmpNoError(t, err)
	td.Cmp(t, n, int64(1))
	v, _ := d.ReadInt()
	td.Cmp(t, v, int32(3))
	n, err = d.ArrayNext()
	td.CmpNoError(t, err)
	td.Cmp(t, n, int64(0))

	d = wire.NewBytesDecoder(append(data, 42))
	n, err = d.SkipBlocks()
	td.CmpNoError(t, err)
	td.Cmp(t, n, int64(1), "sized block skipped whole")
	td.CmpNoError(t, d.Skip(schema.NewPrimitive(schema.Int)))
	n, err = d.SkipBlocks()
	td.CmpNoError(t, err)
	td.Cmp(t, n, int64(0))
	last, _ := d.ReadInt()
	td.Cmp(t, last, int32(21))
}

func TestSkip(t *testing.T) {
	s := schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "a", "type": {"type": "array", "items": "string"}},
		{"name": "m", "type": {"type": "map", "values": "double"}},
		{"name": "u", "type": ["null", "float", {"type": "fixed", "name": "F", "size": 3}]},
		{"name": "e", "type": {"type": "enum", "name": "E", "symbols": ["A", "B"]}},
		{"name": "b", "type": "boolean"}
	]}`)

	buff := new(bytes.Buffer)
	e := wire.NewEncoder(buff)
	td.Require(t).CmpNoError(wire.EncodeJSON(e, s, map[string]interface{}{
		"a": []interface{}{"x", "yy"},
		"m": map[string]interface{}{"k": 1.5, "l": json.Number("2")},
		"u": nil,
		"e": "B",
		"b": true,
	}))
	td.Require(t).CmpNoError(e.WriteLong(99))

	d := wire.NewBytesDecoder(buff.Bytes())
	td.Require(t).CmpNoError(d.Skip(s))
	n, err := d.ReadLong()
	td.CmpNoError(t, err)
	td.Cmp(t, n, int64(99))

	t.Run("union index out of range", func(t *testing.T) {
		u := schema.MustParse(`["null", "int"]`)
		err := wire.NewBytesDecoder([]byte{4}).Skip(u)
		td.Cmp(t, errors.Is(err, encio.ErrMalformed), true)
	})
}

func TestEncodeDefault(t *testing.T) {
	testCases := []struct {
		desc   string
		schema string
		value  interface{}
		expect []byte
	}{
		{desc: "null", schema: `"null"`, value: nil, expect: []byte{}},
		{desc: "boolean", schema: `"boolean"`, value: true, expect: []byte{1}},
		{desc: "int", schema: `"int"`, value: json.Number("-1"), expect: []byte{1}},
		{desc: "long from float text", schema: `"long"`, value: json.Number("2.0"), expect: []byte{4}},
		{desc: "float", schema: `"float"`, value: json.Number("3.5"), expect: []byte{0, 0, 0x60, 0x40}},
		{desc: "double", schema: `"double"`, value: float64(-0.25), expect: []byte{0, 0, 0, 0, 0, 0, 0xd0, 0xbf}},
		{desc: "string", schema: `"string"`, value: "hi", expect: []byte{4, 'h', 'i'}},
		{desc: "bytes", schema: `"bytes"`, value: "ÿ\u0001", expect: []byte{4, 0xff, 1}},
		{desc: "fixed", schema: `{"type": "fixed", "name": "F", "size": 3}`, value: "abc", expect: []byte("abc")},
		{desc: "enum", schema: `{"type": "enum", "name": "E", "symbols": ["A", "B"]}`, value: "B", expect: []byte{2}},
		{desc: "array", schema: `{"type": "array", "items": "int"}`, value: []interface{}{json.Number("1")}, expect: []byte{2, 2, 0}},
		{desc: "empty array", schema: `{"type": "array", "items": "int"}`, value: []interface{}{}, expect: []byte{0}},
		{desc: "map", schema: `{"type": "map", "values": "boolean"}`, value: map[string]interface{}{"b": false, "a": true}, expect: []byte{4, 2, 'a', 1, 2, 'b', 0, 0}},
		{desc: "union first branch", schema: `["null", "int"]`, value: nil, expect: []byte{0}},
		{
			desc:   "record with nested default",
			schema: `{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}, {"name": "b", "type": "string", "default": "z"}]}`,
			value:  map[string]interface{}{"a": json.Number("1")},
			expect: []byte{2, 2, 'z'},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			got, err := wire.EncodeDefault(schema.MustParse(tC.schema), tC.value)
			if !td.CmpNoError(t, err) {
				return
			}
			td.Cmp(t, len(got), len(tC.expect))
			td.Cmp(t, bytes.Equal(got, tC.expect), true, "got %x", got)
		})
	}
}

func TestEncodeDefaultMismatch(t *testing.T) {
	testCases := []struct {
		desc   string
		schema string
		value  interface{}
	}{
		{desc: "null", schema: `"null"`, value: false},
		{desc: "boolean", schema: `"boolean"`, value: json.Number("1")},
		{desc: "int", schema: `"int"`, value: "1"},
		{desc: "int overflow", schema: `"int"`, value: json.Number("4294967296")},
		{desc: "long", schema: `"long"`, value: true},
		{desc: "float", schema: `"float"`, value: nil},
		{desc: "double", schema: `"double"`, value: "x"},
		{desc: "string", schema: `"string"`, value: json.Number("1")},
		{desc: "bytes", schema: `"bytes"`, value: "Ā"},
		{desc: "fixed", schema: `{"type": "fixed", "name": "F", "size": 1}`, value: 1.0},
		{desc: "fixed too long", schema: `{"type": "fixed", "name": "F", "size": 2}`, value: "abcdef"},
		{desc: "fixed too short", schema: `{"type": "fixed", "name": "F", "size": 4}`, value: "ab"},
		{desc: "fractional int", schema: `"int"`, value: json.Number("1.9")},
		{desc: "fractional long", schema: `"long"`, value: 1.9},
		{desc: "long overflow", schema: `"long"`, value: json.Number("1e19")},
		{desc: "NaN long", schema: `"long"`, value: math.NaN()},
		{desc: "enum symbol", schema: `{"type": "enum", "name": "E", "symbols": ["A"]}`, value: "Z"},
		{desc: "array", schema: `{"type": "array", "items": "int"}`, value: map[string]interface{}{}},
		{desc: "map", schema: `{"type": "map", "values": "int"}`, value: []interface{}{}},
		{desc: "union", schema: `["null", "int"]`, value: json.Number("1")},
		{desc: "record missing field", schema: `{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}]}`, value: map[string]interface{}{}},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			_, err := wire.EncodeDefault(schema.MustParse(tC.schema), tC.value)
			td.Cmp(t, errors.Is(err, encio.ErrBadType), true, "got %v", err)
		})
	}
}
