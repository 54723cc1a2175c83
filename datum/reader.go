package datum

import (
	"fmt"
	"io"

	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/gram"
	"github.com/stewi1014/avtape/schema"
	"github.com/stewi1014/avtape/wire"
)

// NewReader returns a Reader for data written with writer, read as reader.
// The grammar comes from the default cache.
func NewReader(writer, reader *schema.Schema) (*Reader, error) {
	return DefaultCache.Reader(writer, reader)
}

// Reader decodes data written with one schema as values of another.
// It is safe for concurrent use.
type Reader struct {
	writer, reader *schema.Schema
	root           *gram.Root
	newRecord      func(s *schema.Schema) Accessor
}

// WithRecords returns a copy of r that creates record values with newRecord instead of NewRecord.
// Readers from a Cache are shared and must not be changed.
func (r *Reader) WithRecords(newRecord func(s *schema.Schema) Accessor) *Reader {
	c := *r
	c.newRecord = newRecord
	return &c
}

// Writer returns the schema data was written with.
func (r *Reader) Writer() *schema.Schema { return r.writer }

// Reader returns the schema values are read as.
func (r *Reader) Reader() *schema.Schema { return r.reader }

// Grammar returns the grammar the reader runs.
func (r *Reader) Grammar() *gram.Root { return r.root }

// Decoder returns a ResolvingDecoder over in that Decode can reuse for consecutive values.
func (r *Reader) Decoder(in *wire.Decoder) *ResolvingDecoder {
	return NewResolvingDecoder(r.root, in)
}

// Read decodes the value held in in. Input that ends part way through the value is encio.ErrMalformed.
func (r *Reader) Read(in *wire.Decoder) (interface{}, error) {
	v, err := r.decode(r.Decoder(in))
	return v, encio.Truncated(err)
}

// Decode decodes the next value from d, which must come from r.Decoder.
// It returns io.EOF if no input is left, and encio.ErrMalformed if the input ends part way through
// the value. On error d is reset, discarding the partly read value.
func (r *Reader) Decode(d *ResolvingDecoder) (interface{}, error) {
	more, err := d.input().More()
	if err != nil {
		return nil, err
	}
	if !more {
		return nil, io.EOF
	}
	v, err := r.decode(d)
	return v, encio.Truncated(err)
}

func (r *Reader) decode(d *ResolvingDecoder) (interface{}, error) {
	v, err := r.read(d, r.reader)
	if err == nil {
		err = d.Drain()
	}
	if err != nil {
		d.Reset(d.input())
		return nil, err
	}
	return v, nil
}

func (r *Reader) record(s *schema.Schema) Accessor {
	if r.newRecord != nil {
		return r.newRecord(s)
	}
	return NewRecord(s)
}

func (r *Reader) read(d *ResolvingDecoder, s *schema.Schema) (interface{}, error) {
	switch s.Type() {
	case schema.Null:
		return nil, d.ReadNull()
	case schema.Boolean:
		return d.ReadBoolean()
	case schema.Int:
		return d.ReadInt()
	case schema.Long:
		return d.ReadLong()
	case schema.Float:
		return d.ReadFloat()
	case schema.Double:
		return d.ReadDouble()
	case schema.Bytes:
		return d.ReadBytes()
	case schema.String:
		return d.ReadString()

	case schema.Fixed:
		b, err := d.ReadFixed()
		if err != nil {
			return nil, err
		}
		return Fixed(b), nil

	case schema.Enum:
		i, err := d.ReadEnum()
		if err != nil {
			return nil, err
		}
		return Enum{Symbol: s.Symbols()[i], Ordinal: i}, nil

	case schema.Array:
		items := make([]interface{}, 0)
		n, err := d.ReadArrayStart()
		for ; err == nil && n > 0; n, err = d.ArrayNext() {
			for ; n > 0; n-- {
				v, err := r.read(d, s.Items())
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
		}
		return items, err

	case schema.Map:
		m := make(map[string]interface{})
		n, err := d.ReadMapStart()
		for ; err == nil && n > 0; n, err = d.MapNext() {
			for ; n > 0; n-- {
				k, err := d.ReadString()
				if err != nil {
					return nil, err
				}
				v, err := r.read(d, s.Values())
				if err != nil {
					return nil, err
				}
				m[k] = v
			}
		}
		return m, err

	case schema.Union:
		i, err := d.ReadIndex()
		if err != nil {
			return nil, err
		}
		v, err := r.read(d, s.Branches()[i])
		if err != nil {
			return nil, err
		}
		// Values that would be written as another branch keep theirs.
		if inferred, err := ResolveUnion(s, v); err != nil || inferred != i {
			return Union{Branch: i, Value: v}, nil
		}
		return v, nil

	case schema.Record:
		fields, err := d.ReadFieldOrder()
		if err != nil {
			return nil, err
		}
		rec := r.record(s)
		for _, f := range fields {
			v, err := r.read(d, f.Schema())
			if err != nil {
				return nil, fmt.Errorf("%v.%v: %w", s.FullName(), f.Name(), err)
			}
			rec.Set(f.Pos(), v)
		}
		return rec, nil
	}
	return nil, encio.NewError(encio.ErrBadType, "unknown schema type "+s.Type().String(), "datum.Reader")
}
