package queue

import (
	"fmt"

	"github.com/stewi1014/avtape/encio"
)

// The file starts with a header, followed by a ring of elements filling the rest of the file.
//
//	Header:
//	4 bytes  version
//	8 bytes  file length
//	4 bytes  element count
//	8 bytes  position of the first element
//	8 bytes  position of the last element
//	4 bytes  CRC-32C of the preceding 32 bytes
//
//	Element:
//	4 bytes  data length n
//	1 byte   length checksum
//	n bytes  data
//
// Integers are little-endian. Positions are absolute file offsets, or 0 when the queue is empty.
// Elements wrap from the end of the file to the byte after the header.
// Nothing written to the ring is visible until the header pointing at it is written.
const (
	HeaderLength        = 36
	ElementHeaderLength = 5

	// MinimumLength is the size of a new or cleared queue file.
	MinimumLength = 4096

	// DefaultMaxSize is the maximum file size used when Config.MaxSize is zero.
	DefaultMaxSize = 64 << 20

	version uint32 = 0xa7a90001
)

type header struct {
	length      int64
	count       int
	first, last int64
}

func (h header) encode(buff []byte) {
	encio.EncodeUint32(buff[0:], version)
	encio.EncodeUint64(buff[4:], uint64(h.length))
	encio.EncodeUint32(buff[12:], uint32(h.count))
	encio.EncodeUint64(buff[16:], uint64(h.first))
	encio.EncodeUint64(buff[24:], uint64(h.last))
	encio.EncodeUint32(buff[32:], encio.Checksum(buff[:32]))
}

func decodeHeader(buff []byte, size int64) (header, error) {
	if v := encio.DecodeUint32(buff); v != version {
		return header{}, fmt.Errorf("unknown version %#x", v)
	}
	if sum, want := encio.DecodeUint32(buff[32:]), encio.Checksum(buff[:32]); sum != want {
		return header{}, fmt.Errorf("header checksum %#x does not match %#x", sum, want)
	}

	h := header{
		length: int64(encio.DecodeUint64(buff[4:])),
		count:  int(encio.DecodeUint32(buff[12:])),
		first:  int64(encio.DecodeUint64(buff[16:])),
		last:   int64(encio.DecodeUint64(buff[24:])),
	}
	switch {
	case h.length < MinimumLength || h.length > size:
		return header{}, fmt.Errorf("length %v outside of [%v, %v]", h.length, MinimumLength, size)
	case h.count == 0 && (h.first != 0 || h.last != 0):
		return header{}, fmt.Errorf("empty queue with elements at %v and %v", h.first, h.last)
	case h.count > 0 && !h.valid(h.first), h.count > 0 && !h.valid(h.last):
		return header{}, fmt.Errorf("element positions %v and %v outside of the ring", h.first, h.last)
	}
	return h, nil
}

func (h header) valid(pos int64) bool {
	return pos >= HeaderLength && pos < h.length
}

func (h header) String() string {
	return fmt.Sprintf("header[length=%v, count=%v, first=%v, last=%v]", h.length, h.count, h.first, h.last)
}

// element is the position and data length of an element. Position 0 is no element.
type element struct {
	pos, length int64
}

func (e element) empty() bool { return e.pos == 0 }

// end is the unwrapped position after the element.
func (e element) end() int64 { return e.pos + ElementHeaderLength + e.length }

func encodeElementHeader(buff []byte, length int64) {
	encio.EncodeUint32(buff, uint32(length))
	buff[4] = encio.LengthChecksum(uint32(length))
}
