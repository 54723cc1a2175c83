// Package wire implements the binary encoding of values.
//
// Integers are zig-zag varints, floats and doubles are little-endian IEEE 754,
// bytes and strings are length prefixed, fixed values are written as is,
// enums and union indexes are varints, and arrays and maps are written as blocks of items
// preceded by their count and terminated by an empty block.
package wire

import (
	"io"

	"github.com/stewi1014/avtape/encio"
)

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encoder writes primitive values to an io.Writer.
type Encoder struct {
	w      io.Writer
	varint encio.Varint
	buff   [8]byte
}

// Reset makes e write to w.
func (e *Encoder) Reset(w io.Writer) { e.w = w }

// WriteNull writes nothing; null has no encoding.
func (e *Encoder) WriteNull() error { return nil }

// WriteBoolean writes a single byte, 1 for true and 0 for false.
func (e *Encoder) WriteBoolean(b bool) error {
	e.buff[0] = 0
	if b {
		e.buff[0] = 1
	}
	return encio.Write(e.buff[:1], e.w)
}

// WriteInt writes a zig-zag varint.
func (e *Encoder) WriteInt(n int32) error { return e.varint.EncodeInt(e.w, n) }

// WriteLong writes a zig-zag varint.
func (e *Encoder) WriteLong(n int64) error { return e.varint.EncodeLong(e.w, n) }

// WriteFloat writes 4 little-endian bytes.
func (e *Encoder) WriteFloat(f float32) error {
	encio.EncodeFloat32(e.buff[:4], f)
	return encio.Write(e.buff[:4], e.w)
}

// WriteDouble writes 8 little-endian bytes.
func (e *Encoder) WriteDouble(f float64) error {
	encio.EncodeFloat64(e.buff[:8], f)
	return encio.Write(e.buff[:8], e.w)
}

// WriteBytes writes the length of b followed by b.
func (e *Encoder) WriteBytes(b []byte) error {
	if err := e.WriteLong(int64(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return encio.Write(b, e.w)
}

// WriteString writes the length of s followed by s.
func (e *Encoder) WriteString(s string) error {
	if err := e.WriteLong(int64(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	if sw, ok := e.w.(io.StringWriter); ok {
		n, err := sw.WriteString(s)
		if err == nil && n != len(s) {
			err = io.ErrShortWrite
		}
		return err
	}
	return encio.Write([]byte(s), e.w)
}

// WriteFixed writes b without a length.
func (e *Encoder) WriteFixed(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return encio.Write(b, e.w)
}

// WriteEnum writes an enum ordinal.
func (e *Encoder) WriteEnum(ordinal int) error { return e.WriteLong(int64(ordinal)) }

// WriteIndex writes a union branch index.
func (e *Encoder) WriteIndex(index int) error { return e.WriteLong(int64(index)) }

// WriteBlockCount starts a block of n array or map items. Empty blocks are not written.
func (e *Encoder) WriteBlockCount(n int) error {
	if n == 0 {
		return nil
	}
	return e.WriteLong(int64(n))
}

// WriteArrayStart starts an array of n items written as a single block.
func (e *Encoder) WriteArrayStart(n int) error { return e.WriteBlockCount(n) }

// WriteArrayEnd terminates an array.
func (e *Encoder) WriteArrayEnd() error { return e.WriteLong(0) }

// WriteMapStart starts a map of n entries written as a single block.
func (e *Encoder) WriteMapStart(n int) error { return e.WriteBlockCount(n) }

// WriteMapEnd terminates a map.
func (e *Encoder) WriteMapEnd() error { return e.WriteLong(0) }
