package encio_test

import (
	"io"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/stewi1014/avtape/encio"
)

func TestBuffer(t *testing.T) {
	var b encio.Buffer

	n, err := b.Write([]byte("hello "))
	td.CmpNoError(t, err)
	td.Cmp(t, n, 6)
	td.CmpNoError(t, b.WriteByte('w'))
	_, err = b.WriteString("orld")
	td.CmpNoError(t, err)
	td.Cmp(t, string(b.Bytes()), "hello world")

	by, err := b.ReadByte()
	td.CmpNoError(t, err)
	td.Cmp(t, by, byte('h'))

	next, err := b.Next(4)
	td.CmpNoError(t, err)
	td.Cmp(t, string(next), "ello")

	rest, err := io.ReadAll(&b)
	td.CmpNoError(t, err)
	td.Cmp(t, string(rest), " world")
	td.Cmp(t, b.Len(), 0)

	_, err = b.Next(1)
	td.Cmp(t, err, io.ErrUnexpectedEOF)

	b.Reset()
	td.Cmp(t, b.Len(), 0)
}

func TestPool(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 100, 4096, 4097} {
		buff := encio.GetBuffer(n)
		td.Cmp(t, len(buff), 0)
		td.CmpGte(t, cap(buff), n)
		encio.PutBuffer(append(buff, 1, 2, 3))
	}
}

func TestChecksum(t *testing.T) {
	whole := encio.Checksum([]byte("hello world"))
	parts := encio.Checksum([]byte("hello "), []byte("world"))
	td.Cmp(t, parts, whole)
	td.CmpNot(t, encio.Checksum([]byte("hello")), whole)
	td.Cmp(t, encio.LengthChecksum(100), encio.LengthChecksum(100))
}
