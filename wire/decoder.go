package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/stewi1014/avtape/encio"
)

type byteReader interface {
	io.Reader
	io.ByteReader
}

// NewDecoder returns a Decoder reading from r.
// Unless r is an io.ByteReader that can also report its length or peek ahead, it is buffered,
// and the Decoder may read past the values it decodes.
func NewDecoder(r io.Reader) *Decoder {
	d := new(Decoder)
	d.Reset(r)
	return d
}

// NewBytesDecoder returns a Decoder reading from buff.
func NewBytesDecoder(buff []byte) *Decoder {
	return &Decoder{r: encio.NewBuffer(buff)}
}

// Decoder reads primitive values from an io.Reader.
// An io.EOF before the first byte of a primitive is returned as is. Running out of data part way
// through one is encio.ErrTruncated, and data that cannot be a value is encio.ErrMalformed.
type Decoder struct {
	r    byteReader
	buff [8]byte
}

// Reset makes d read from r.
func (d *Decoder) Reset(r io.Reader) {
	if br, ok := r.(byteReader); ok {
		switch r.(type) {
		case interface{ Len() int }, interface{ Peek(int) ([]byte, error) }:
			d.r = br
			return
		}
	}
	d.r = bufio.NewReader(r)
}

// More reports whether any input is left.
func (d *Decoder) More() (bool, error) {
	switch r := d.r.(type) {
	case interface{ Len() int }:
		return r.Len() > 0, nil
	case interface{ Peek(int) ([]byte, error) }:
		_, err := r.Peek(1)
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return err == nil, err
	}
	return true, nil
}

// ReadNull reads nothing.
func (d *Decoder) ReadNull() error { return nil }

// ReadBoolean reads a byte that must be 0 or 1.
func (d *Decoder) ReadBoolean() (bool, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, encio.NewIOError(encio.ErrMalformed, nil, fmt.Sprintf("boolean byte %#x", b), 0)
	}
}

// ReadInt reads a zig-zag varint that must fit in 32 bits.
func (d *Decoder) ReadInt() (int32, error) { return encio.ReadVarint(d.r) }

// ReadLong reads a zig-zag varint.
func (d *Decoder) ReadLong() (int64, error) { return encio.ReadVarlong(d.r) }

// ReadFloat reads 4 little-endian bytes.
func (d *Decoder) ReadFloat() (float32, error) {
	if err := encio.Read(d.buff[:4], d.r); err != nil {
		return 0, err
	}
	return encio.DecodeFloat32(d.buff[:4]), nil
}

// ReadDouble reads 8 little-endian bytes.
func (d *Decoder) ReadDouble() (float64, error) {
	if err := encio.Read(d.buff[:8], d.r); err != nil {
		return 0, err
	}
	return encio.DecodeFloat64(d.buff[:8]), nil
}

func (d *Decoder) readLength(what string) (int, error) {
	n, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	if err := encio.CheckLength(n, what); err != nil {
		return 0, err
	}
	return int(n), nil
}

// ReadBytes reads a length-prefixed byte slice. The returned slice is never shared with the Decoder.
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.readLength("bytes")
	if err != nil {
		return nil, err
	}
	b, err := d.ReadFixed(n)
	return b, encio.Truncated(err)
}

// ReadString reads a length-prefixed string.
func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	return string(b), err
}

// ReadFixed reads exactly n bytes.
func (d *Decoder) ReadFixed(n int) ([]byte, error) {
	b := make([]byte, n)
	if n == 0 {
		return b, nil
	}
	if err := encio.Read(b, d.r); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadEnum reads an enum ordinal.
func (d *Decoder) ReadEnum() (int, error) {
	n, err := d.ReadInt()
	if err == nil && n < 0 {
		err = encio.NewIOError(encio.ErrMalformed, nil, fmt.Sprintf("negative enum ordinal %v", n), 0)
	}
	return int(n), err
}

// ReadIndex reads a union branch index.
func (d *Decoder) ReadIndex() (int, error) {
	n, err := d.ReadInt()
	if err == nil && n < 0 {
		err = encio.NewIOError(encio.ErrMalformed, nil, fmt.Sprintf("negative union index %v", n), 0)
	}
	return int(n), err
}

// ReadBlockCount reads the item count of the next array or map block.
// The byte size following negative counts is discarded. Zero means the array or map has ended.
func (d *Decoder) ReadBlockCount() (int64, error) {
	n, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		if n == -n {
			return 0, encio.NewIOError(encio.ErrMalformed, nil, "block count overflows", 0)
		}
		n = -n
		if _, err := d.ReadLong(); err != nil {
			return 0, encio.Truncated(err)
		}
	}
	return n, encio.CheckLength(n, "block")
}

// ReadArrayStart reads the count of the first array block.
func (d *Decoder) ReadArrayStart() (int64, error) { return d.ReadBlockCount() }

// ArrayNext reads the count of the next array block.
func (d *Decoder) ArrayNext() (int64, error) { return d.ReadBlockCount() }

// ReadMapStart reads the count of the first map block.
func (d *Decoder) ReadMapStart() (int64, error) { return d.ReadBlockCount() }

// MapNext reads the count of the next map block.
func (d *Decoder) MapNext() (int64, error) { return d.ReadBlockCount() }
