package wire

import (
	"fmt"
	"io"

	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/schema"
)

// SkipN discards n bytes.
func (d *Decoder) SkipN(n int64) error {
	if n == 0 {
		return nil
	}
	if b, ok := d.r.(interface{ Next(int) ([]byte, error) }); ok {
		_, err := b.Next(int(n))
		return encio.Truncated(err)
	}
	got, err := io.CopyN(io.Discard, d.r, n)
	if got != n {
		return encio.NewIOError(encio.ErrTruncated, d.r, fmt.Sprintf("skipped %v of %v bytes", got, n), 0)
	}
	return err
}

// SkipBytes discards a length-prefixed byte slice.
func (d *Decoder) SkipBytes() error {
	n, err := d.readLength("bytes")
	if err != nil {
		return err
	}
	return d.SkipN(int64(n))
}

// SkipString discards a length-prefixed string.
func (d *Decoder) SkipString() error { return d.SkipBytes() }

// SkipFixed discards n bytes.
func (d *Decoder) SkipFixed(n int) error { return d.SkipN(int64(n)) }

// SkipBlocks discards array or map blocks that carry their byte size, and returns the item count
// of the next block that must be skipped item by item. It returns 0 once the array or map has ended.
func (d *Decoder) SkipBlocks() (int64, error) {
	for {
		n, err := d.ReadLong()
		if err != nil {
			return 0, err
		}
		if n >= 0 {
			return n, encio.CheckLength(n, "block")
		}
		size, err := d.ReadLong()
		if err != nil {
			return 0, encio.Truncated(err)
		}
		if err := encio.CheckLength(size, "block byte"); err != nil {
			return 0, err
		}
		if err := d.SkipN(size); err != nil {
			return 0, err
		}
	}
}

// Skip discards a value written with s.
func (d *Decoder) Skip(s *schema.Schema) error {
	var err error
	switch s.Type() {
	case schema.Null:
	case schema.Boolean:
		_, err = d.ReadBoolean()
	case schema.Int:
		_, err = d.ReadInt()
	case schema.Long:
		_, err = d.ReadLong()
	case schema.Float:
		err = d.SkipN(4)
	case schema.Double:
		err = d.SkipN(8)
	case schema.Bytes, schema.String:
		err = d.SkipBytes()
	case schema.Fixed:
		err = d.SkipFixed(s.Size())
	case schema.Enum:
		_, err = d.ReadEnum()

	case schema.Array, schema.Map:
		elem := s.Items()
		if s.Type() == schema.Map {
			elem = s.Values()
		}
		for {
			n, err := d.SkipBlocks()
			if err != nil || n == 0 {
				return err
			}
			for ; n > 0; n-- {
				if s.Type() == schema.Map {
					if err := d.SkipString(); err != nil {
						return err
					}
				}
				if err := d.Skip(elem); err != nil {
					return err
				}
			}
		}

	case schema.Union:
		var i int
		if i, err = d.ReadIndex(); err != nil {
			return err
		}
		branches := s.Branches()
		if i >= len(branches) {
			return encio.NewIOError(encio.ErrMalformed, nil, fmt.Sprintf("union index %v out of range for %v branches", i, len(branches)), 0)
		}
		err = d.Skip(branches[i])

	case schema.Record:
		for _, f := range s.Fields() {
			if err := d.Skip(f.Schema()); err != nil {
				return err
			}
		}
	}
	return err
}
