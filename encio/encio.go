// Package encio provides the io helpers, wire primitives and error kinds shared by the
// avtape packages.
//
// Everything that touches bytes goes through here: zig-zag variable-length integers,
// little-endian floating point, the Buffer used for in-memory encoding, pooled byte
// slices and the checksums protecting the queue file.
package encio

import (
	"errors"
	"fmt"
	"io"
)

var (
	// TooBig is a byte count used for simple sanity checking before things like allocation and iteration with numbers decoded from readers.
	// ErrMalformed is returned if a length exceeds this.
	//
	// By default it is 32MB on 32bit machines, and 128MB on 64bit machines.
	// Feel free to change it.
	TooBig = int64(1 << (25 + ((^uint(0) >> 32) & 2)))
)

// Read fills buff from r.
// If r has nothing left, Read returns io.EOF as is so that the end of a stream can be told apart
// from a value cut short, which is reported as ErrTruncated.
func Read(buff []byte, r io.Reader) error {
	got := 0
	for got < len(buff) {
		n, err := r.Read(buff[got:])
		got += n
		switch {
		case got > len(buff):
			return NewIOError(errBadReader, r, fmt.Sprintf("%v bytes read into a %v byte value", got, len(buff)), 1)
		case got == len(buff):
			return nil
		case errors.Is(err, io.EOF) && got == 0:
			return io.EOF
		case errors.Is(err, io.EOF):
			return NewIOError(ErrTruncated, r, fmt.Sprintf("value of %v bytes ends after %v", len(buff), got), 1)
		case err != nil:
			return err
		case n == 0:
			return NewIOError(io.ErrNoProgress, r, fmt.Sprintf("stuck after %v of %v bytes", got, len(buff)), 1)
		}
	}
	return nil
}

// Write writes all of buff to w.
// A writer that stops short without an error gets one more chance before io.ErrShortWrite is returned.
func Write(buff []byte, w io.Writer) error {
	put := 0
	for retried := false; put < len(buff); retried = true {
		n, err := w.Write(buff[put:])
		put += n
		switch {
		case put > len(buff):
			return NewIOError(errBadWriter, w, fmt.Sprintf("%v bytes written from a %v byte value", put, len(buff)), 1)
		case err != nil:
			return NewIOError(err, w, fmt.Sprintf("wrote %v of %v bytes", put, len(buff)), 1)
		case put < len(buff) && retried:
			return NewIOError(io.ErrShortWrite, w, fmt.Sprintf("wrote %v of %v bytes", put, len(buff)), 1)
		case put < len(buff):
			Logger().Sugar().Warnf("%T wrote %v of %v bytes without an error", w, n, len(buff)-(put-n))
		}
	}
	return nil
}

// Truncated marks an io.EOF or io.ErrUnexpectedEOF met part way through a value as ErrTruncated.
// Other errors are returned unchanged. The result no longer matches io.EOF, so stream readers
// do not mistake a cut off value for the end of the stream.
func Truncated(err error) error {
	if err == nil || errors.Is(err, ErrMalformed) {
		return err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return IOError{Err: ErrTruncated, Message: err.Error()}
	}
	return err
}

// CheckLength returns a wrapped ErrMalformed if a decoded length is negative or exceeds TooBig.
func CheckLength(n int64, what string) error {
	if n < 0 {
		return NewIOError(ErrMalformed, nil, fmt.Sprintf("negative %v length %v", what, n), 1)
	}
	if n > TooBig {
		return NewIOError(ErrMalformed, nil, fmt.Sprintf("%v length %v is too big", what, n), 1)
	}
	return nil
}
