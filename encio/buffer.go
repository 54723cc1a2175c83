package encio

import (
	"io"
)

// NewBuffer returns a Buffer reading from buff. The Buffer takes ownership of buff.
func NewBuffer(buff []byte) *Buffer {
	return &Buffer{buff: buff}
}

// Buffer is a buffer for data. It operates similar to bytes.Buffer
type Buffer struct {
	buff []byte
	off  int
}

// Read implements io.Reader
func (b *Buffer) Read(buff []byte) (int, error) {
	if len(buff) == 0 {
		return 0, nil
	}
	if b.Len() == 0 {
		return 0, io.EOF
	}
	n := copy(buff, b.buff[b.off:])
	b.off += n
	return n, nil
}

// ReadByte implements io.ByteReader
func (b *Buffer) ReadByte() (byte, error) {
	if b.Len() == 0 {
		return 0, io.EOF
	}
	by := b.buff[b.off]
	b.off++
	return by, nil
}

// Next returns a slice of the next n unread bytes, advancing the buffer.
// The slice is only valid until the next write.
func (b *Buffer) Next(n int) ([]byte, error) {
	if n > b.Len() {
		b.off = len(b.buff)
		return nil, io.ErrUnexpectedEOF
	}
	s := b.buff[b.off : b.off+n]
	b.off += n
	return s, nil
}

// Write implements io.Writer
func (b *Buffer) Write(buff []byte) (int, error) {
	return copy(b.buff[b.grow(len(buff)):], buff), nil
}

// WriteByte implements io.ByteWriter
func (b *Buffer) WriteByte(by byte) error {
	b.buff[b.grow(1)] = by
	return nil
}

// WriteString implements io.StringWriter
func (b *Buffer) WriteString(s string) (int, error) {
	return copy(b.buff[b.grow(len(s)):], s), nil
}

// Len returns the length of the unread portion of the buffer
func (b *Buffer) Len() int {
	return len(b.buff) - b.off
}

// Bytes returns the unread portion of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.buff[b.off:]
}

// Reset clears the buffer, retaining space for later use.
func (b *Buffer) Reset() {
	b.buff = b.buff[:0]
	b.off = 0
}

func (b *Buffer) grow(n int) int {
	l := len(b.buff)
	if l+n <= cap(b.buff) {
		b.buff = b.buff[:l+n]
		return l
	}

	l -= b.off
	c := cap(b.buff)
	if (l+n)*8 <= c { // let cap grow to 8 time the size so we're not always sliding.
		// slide down
		copy(b.buff, b.buff[b.off:])
		b.buff = b.buff[:l+n]
		b.off = 0
		return l
	}
	// must allocate
	nb := make([]byte, l+n, c*2+n)
	copy(nb, b.buff[b.off:])
	b.buff = nb
	b.off = 0
	return l
}
