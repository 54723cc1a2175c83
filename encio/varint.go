package encio

import (
	"errors"
	"fmt"
	"io"
)

const (
	// MaxVarintLen32 is the longest zig-zag encoding of an int32.
	MaxVarintLen32 = 5
	// MaxVarintLen64 is the longest zig-zag encoding of an int64.
	MaxVarintLen64 = 10
)

// ZigZag maps signed integers to unsigned ones so that numbers of small magnitude have short encodings.
func ZigZag(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// UnZigZag reverses ZigZag.
func UnZigZag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// PutVarlong writes the zig-zag varint encoding of n to buff and returns the number of bytes written.
// buff must be at least MaxVarintLen64 bytes long.
func PutVarlong(buff []byte, n int64) int {
	u := ZigZag(n)
	i := 0
	for u >= 0x80 {
		buff[i] = byte(u) | 0x80
		u >>= 7
		i++
	}
	buff[i] = byte(u)
	return i + 1
}

// ReadVarlong reads a zig-zag encoded int64 from r.
func ReadVarlong(r io.ByteReader) (int64, error) {
	var u uint64
	var shift uint
	for i := 0; i < MaxVarintLen64; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && i > 0 {
				err = NewIOError(ErrTruncated, r, fmt.Sprintf("varint ends after %v bytes", i), 0)
			}
			return 0, err
		}
		if i == MaxVarintLen64-1 && b > 1 {
			break
		}
		u |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return UnZigZag(u), nil
		}
		shift += 7
	}
	return 0, NewIOError(ErrMalformed, r, "varint overflows a 64-bit integer", 0)
}

// ReadVarint reads a zig-zag encoded int32 from r.
func ReadVarint(r io.ByteReader) (int32, error) {
	var u uint32
	var shift uint
	for i := 0; i < MaxVarintLen32; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && i > 0 {
				err = NewIOError(ErrTruncated, r, fmt.Sprintf("varint ends after %v bytes", i), 0)
			}
			return 0, err
		}
		if i == MaxVarintLen32-1 && b > 0x0f {
			break
		}
		u |= uint32(b&0x7f) << shift
		if b < 0x80 {
			return int32(u>>1) ^ -int32(u&1), nil
		}
		shift += 7
	}
	return 0, NewIOError(ErrMalformed, r, "varint overflows a 32-bit integer", 0)
}

// Varint provides methods for writing zig-zag variable-length integers to an io.Writer.
type Varint [MaxVarintLen64]byte

// EncodeInt writes n to w.
func (buff *Varint) EncodeInt(w io.Writer, n int32) error {
	return buff.EncodeLong(w, int64(n))
}

// EncodeLong writes n to w.
func (buff *Varint) EncodeLong(w io.Writer, n int64) error {
	l := PutVarlong(buff[:], n)
	return Write(buff[:l], w)
}
