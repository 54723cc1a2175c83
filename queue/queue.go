// Package queue implements a crash-safe FIFO of byte elements in a single file.
//
// Elements are stored in a ring buffer after a small header. A change is committed by rewriting the header,
// so a crash at any point leaves the queue in either its old or its new state.
// Use Peek and Remove together: an element stays queued until it has been processed and removed.
//
// A QueueFile is not safe for concurrent use.
package queue

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/stewi1014/avtape/encio"
)

// Config configures a QueueFile. The zero value is usable.
type Config struct {
	// MaxSize is the size the file may grow to. It defaults to DefaultMaxSize and is at least MinimumLength.
	MaxSize int64

	// Logger defaults to encio.Logger.
	Logger *zap.Logger
}

// Open opens or creates the queue file at path.
func Open(path string, config Config) (*QueueFile, error) {
	s, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	q, err := New(s, config)
	if err != nil {
		s.Close()
		return nil, err
	}
	return q, nil
}

// New returns a QueueFile in storage, initialising empty storage.
// The QueueFile owns storage and closes it on Close.
func New(storage Storage, config Config) (*QueueFile, error) {
	q := &QueueFile{
		storage: storage,
		maxSize: config.MaxSize,
		logger:  config.Logger,
	}
	if q.maxSize == 0 {
		q.maxSize = DefaultMaxSize
	}
	if q.maxSize < MinimumLength {
		q.maxSize = MinimumLength
	}
	if q.logger == nil {
		q.logger = encio.Logger()
	}
	if s, ok := storage.(fmt.Stringer); ok {
		q.logger = q.logger.With(zap.String("queue", s.String()))
	}

	size, err := storage.Size()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		q.header = header{length: MinimumLength}
		if err := storage.Truncate(MinimumLength); err != nil {
			return nil, err
		}
		if err := q.writeHeader(); err != nil {
			return nil, err
		}
		return q, nil
	}

	if err := q.load(size); err != nil {
		return nil, err
	}
	return q, nil
}

// QueueFile is a FIFO queue of byte elements in a Storage.
type QueueFile struct {
	storage Storage
	maxSize int64
	logger  *zap.Logger

	header      header
	first, last element

	// modCount changes whenever elements move or are removed.
	modCount int
	writer   *ElementWriter
	closed   bool
}

func (q *QueueFile) load(size int64) error {
	if size < HeaderLength {
		return q.corrupt(fmt.Sprintf("file of %v bytes is shorter than the header", size))
	}
	var buff [HeaderLength]byte
	if _, err := q.storage.ReadAt(buff[:], 0); err != nil {
		return encio.NewIOError(err, q.storage, "reading queue header", 0)
	}
	h, err := decodeHeader(buff[:], size)
	if err != nil {
		return q.corrupt(err.Error())
	}
	q.header = h

	// A crash while growing the file can leave it longer than the header says.
	if h.length < size {
		q.logger.Info("truncating queue file to its committed length",
			zap.Int64("size", size),
			zap.Int64("length", h.length),
		)
		if err := q.storage.Truncate(h.length); err != nil {
			return err
		}
	}

	if q.first, err = q.readElement(h.first); err != nil {
		return err
	}
	q.last, err = q.readElement(h.last)
	return err
}

func (q *QueueFile) corrupt(message string) error {
	q.logger.Error("queue file is corrupt", zap.String("reason", message), zap.Stringer("header", q.header))
	return encio.NewIOError(ErrCorrupt, q.storage, message, 1)
}

func (q *QueueFile) check() error {
	switch {
	case q.closed:
		return ErrClosed
	case q.writer != nil:
		return ErrWriting
	}
	return nil
}

// Size returns the number of elements.
func (q *QueueFile) Size() int { return q.header.count }

// IsEmpty returns true if the queue holds no elements.
func (q *QueueFile) IsEmpty() bool { return q.header.count == 0 }

// FileSize returns the current length of the file.
func (q *QueueFile) FileSize() int64 { return q.header.length }

// MaxSize returns the length the file may grow to.
func (q *QueueFile) MaxSize() int64 { return q.maxSize }

// UsedBytes returns the bytes taken by the header and committed elements.
func (q *QueueFile) UsedBytes() int64 {
	if q.header.count == 0 {
		return HeaderLength
	}
	end := q.last.end()
	if q.last.pos >= q.first.pos {
		return HeaderLength + end - q.first.pos
	}
	// The ring wraps between first and last.
	return HeaderLength + q.header.length - q.first.pos + end - HeaderLength
}

// Add appends an element.
// It fails with ErrFull, leaving the queue unchanged, if the element does not fit.
func (q *QueueFile) Add(data []byte) error {
	return q.AddAll(data)
}

// AddAll appends elements, committing all of them or none.
func (q *QueueFile) AddAll(elements ...[]byte) error {
	w, err := q.NewElementWriter()
	if err != nil {
		return err
	}
	for _, data := range elements {
		if err := w.WriteElement(data); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Close()
}

// Peek returns the first element, or nil if the queue is empty.
func (q *QueueFile) Peek() ([]byte, error) {
	if q.closed {
		return nil, ErrClosed
	}
	if q.header.count == 0 {
		return nil, nil
	}
	return q.readData(q.first)
}

// PeekN returns up to n elements from the front of the queue.
// It stops before the element that would take the total data size over sizeLimit,
// but always returns the first element if there is one.
func (q *QueueFile) PeekN(n int, sizeLimit int64) ([][]byte, error) {
	var (
		elements [][]byte
		total    int64
	)
	it := q.Iter()
	for len(elements) < n && it.Next() {
		data := it.Bytes()
		total += int64(len(data))
		if len(elements) > 0 && total > sizeLimit {
			break
		}
		elements = append(elements, data)
	}
	return elements, it.Err()
}

// Remove removes the first n elements.
// It fails with ErrNoSuchElement, leaving the queue unchanged, if there are fewer than n elements.
func (q *QueueFile) Remove(n int) error {
	if err := q.check(); err != nil {
		return err
	}
	switch {
	case n < 0:
		return encio.NewError(ErrNoSuchElement, fmt.Sprintf("cannot remove %v elements", n), "QueueFile.Remove")
	case n == 0:
		return nil
	case n > q.header.count:
		return encio.NewError(ErrNoSuchElement, fmt.Sprintf("cannot remove %v of %v elements", n, q.header.count), "QueueFile.Remove")
	case n == q.header.count:
		return q.Clear()
	}

	first := q.first
	for i := 0; i < n; i++ {
		var err error
		if first, err = q.readElement(q.wrap(first.end())); err != nil {
			return err
		}
	}

	old, oldFirst := q.header, q.first
	q.first = first
	q.header.first = first.pos
	q.header.count -= n
	q.header.length = q.truncatedLength()
	q.modCount++

	if err := q.writeHeader(); err != nil {
		q.header, q.first = old, oldFirst
		return err
	}
	if q.header.length < old.length {
		q.logger.Debug("truncating queue file", zap.Int64("from", old.length), zap.Int64("to", q.header.length))
		return q.storage.Truncate(q.header.length)
	}
	return nil
}

// truncatedLength halves the file length while the data stays in the first half of the shorter file
// and fills at most half of it. Wrapped data is never moved to shrink the file.
func (q *QueueFile) truncatedLength() int64 {
	length := q.header.length
	extent := q.last.end()
	if q.last.pos < q.first.pos || extent > length {
		return length
	}
	used := q.UsedBytes()
	for goal := length / 2; goal >= MinimumLength && extent <= goal && used <= goal/2; goal /= 2 {
		length = goal
	}
	return length
}

// Clear removes every element and shrinks the file to MinimumLength.
func (q *QueueFile) Clear() error {
	if err := q.check(); err != nil {
		return err
	}
	oldLength := q.header.length
	q.first, q.last = element{}, element{}
	q.header = header{length: MinimumLength}
	q.modCount++
	if err := q.writeHeader(); err != nil {
		return err
	}
	if oldLength > MinimumLength {
		return q.storage.Truncate(MinimumLength)
	}
	return nil
}

// Close closes the queue and its storage.
func (q *QueueFile) Close() error {
	if q.closed {
		return nil
	}
	q.closed = true
	return q.storage.Close()
}

func (q *QueueFile) String() string {
	return fmt.Sprintf("QueueFile[%v, max=%v]", q.header, q.maxSize)
}

func (q *QueueFile) writeHeader() error {
	var buff [HeaderLength]byte
	q.header.encode(buff[:])
	if _, err := q.storage.WriteAt(buff[:], 0); err != nil {
		return encio.NewIOError(err, q.storage, "writing queue header", 0)
	}
	return q.storage.Sync()
}

// readElement reads the element header at pos.
func (q *QueueFile) readElement(pos int64) (element, error) {
	if pos == 0 {
		return element{}, nil
	}
	var buff [ElementHeaderLength]byte
	if _, err := q.readRing(pos, buff[:]); err != nil {
		return element{}, err
	}
	n := encio.DecodeUint32(buff[:])
	if sum := encio.LengthChecksum(n); sum != buff[4] {
		return element{}, q.corrupt(fmt.Sprintf("element at %v has length checksum %#x, expected %#x", pos, buff[4], sum))
	}
	if int64(n) > q.header.length-HeaderLength-ElementHeaderLength {
		return element{}, q.corrupt(fmt.Sprintf("element at %v of %v bytes does not fit in the file", pos, n))
	}
	return element{pos: pos, length: int64(n)}, nil
}

func (q *QueueFile) readData(e element) ([]byte, error) {
	data := make([]byte, e.length)
	_, err := q.readRing(e.pos+ElementHeaderLength, data)
	return data, err
}

// wrap maps a position past the end of the file to the start of the ring.
func (q *QueueFile) wrap(pos int64) int64 {
	if pos < q.header.length {
		return pos
	}
	return HeaderLength + pos - q.header.length
}

// writeRing writes buff at pos, wrapping around the end of the file, and returns the position after it.
func (q *QueueFile) writeRing(pos int64, buff []byte) (int64, error) {
	pos = q.wrap(pos)
	if linear := q.header.length - pos; int64(len(buff)) > linear {
		if err := q.writeAt(buff[:linear], pos); err != nil {
			return 0, err
		}
		buff, pos = buff[linear:], HeaderLength
	}
	if err := q.writeAt(buff, pos); err != nil {
		return 0, err
	}
	return q.wrap(pos + int64(len(buff))), nil
}

func (q *QueueFile) writeAt(buff []byte, pos int64) error {
	if _, err := q.storage.WriteAt(buff, pos); err != nil {
		return encio.NewIOError(err, q.storage, fmt.Sprintf("writing %v bytes at %v", len(buff), pos), 1)
	}
	return nil
}

// readRing fills buff from pos, wrapping around the end of the file, and returns the position after it.
func (q *QueueFile) readRing(pos int64, buff []byte) (int64, error) {
	pos = q.wrap(pos)
	if linear := q.header.length - pos; int64(len(buff)) > linear {
		if err := q.readAt(buff[:linear], pos); err != nil {
			return 0, err
		}
		buff, pos = buff[linear:], HeaderLength
	}
	if err := q.readAt(buff, pos); err != nil {
		return 0, err
	}
	return q.wrap(pos + int64(len(buff))), nil
}

func (q *QueueFile) readAt(buff []byte, pos int64) error {
	n, err := q.storage.ReadAt(buff, pos)
	if n == len(buff) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return encio.NewIOError(err, q.storage, fmt.Sprintf("reading %v bytes at %v", len(buff), pos), 1)
}

const moveChunk = 64 << 10

// move copies n bytes from src to dst. The ranges must not overlap.
func (q *QueueFile) move(src, dst, n int64) error {
	buff := encio.GetBuffer(moveChunk)[:moveChunk]
	defer encio.PutBuffer(buff)
	for n > 0 {
		c := min(n, int64(len(buff)))
		if err := q.readAt(buff[:c], src); err != nil {
			return err
		}
		if err := q.writeAt(buff[:c], dst); err != nil {
			return err
		}
		src, dst, n = src+c, dst+c, n-c
	}
	return nil
}
