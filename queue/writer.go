package queue

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/stewi1014/avtape/encio"
)

// NewElementWriter returns a writer appending elements to the queue.
// Nothing it writes is visible until Close; no other change can be made to the queue until it is closed or aborted.
func (q *QueueFile) NewElementWriter() (*ElementWriter, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	w := &ElementWriter{q: q, pos: HeaderLength}
	if q.header.count > 0 {
		w.pos = q.wrap(q.last.end())
	}
	q.writer = w
	return w, nil
}

// ElementWriter streams elements into a QueueFile.
// Write appends to the current element and Next ends it.
type ElementWriter struct {
	q   *QueueFile
	pos int64

	current     element
	first, last element
	count       int

	// used is the number of ring bytes taken by ended elements.
	used   int64
	closed bool
}

// Write appends p to the current element, starting one if needed.
// If p does not fit, the current element is discarded and ErrFull is returned;
// elements ended before it are still committed by Close.
func (w *ElementWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := w.begin(int64(len(p))); err != nil {
		return 0, err
	}
	return len(p), w.write(p)
}

// WriteElement writes data as a whole element. Empty elements are allowed.
func (w *ElementWriter) WriteElement(data []byte) error {
	if w.closed {
		return ErrClosed
	}
	if err := w.Next(); err != nil {
		return err
	}
	if err := w.begin(int64(len(data))); err != nil {
		return err
	}
	if err := w.write(data); err != nil {
		return err
	}
	return w.Next()
}

// begin makes room for n more bytes of the current element, starting the element if it has not been started.
func (w *ElementWriter) begin(n int64) error {
	if !w.current.empty() {
		return w.ensure(n)
	}
	if err := w.ensure(ElementHeaderLength + n); err != nil {
		return err
	}
	w.current = element{pos: w.pos}
	// The real header is written by Next once the length is known.
	var buff [ElementHeaderLength]byte
	pos, err := w.q.writeRing(w.pos, buff[:])
	if err != nil {
		return err
	}
	w.pos = pos
	return nil
}

func (w *ElementWriter) write(p []byte) error {
	pos, err := w.q.writeRing(w.pos, p)
	if err != nil {
		return err
	}
	w.pos = pos
	w.current.length += int64(len(p))
	return nil
}

// ensure checks that n more bytes fit in the queue, growing the file if they do not fit in its current length.
func (w *ElementWriter) ensure(n int64) error {
	q := w.q
	pending := w.used
	if !w.current.empty() {
		pending += ElementHeaderLength + w.current.length
	}
	needed := q.UsedBytes() + pending + n
	if needed > q.maxSize {
		if !w.current.empty() {
			w.pos, w.current = w.current.pos, element{}
		}
		return encio.NewError(ErrFull, fmt.Sprintf("%v bytes needed, maximum is %v", needed, q.maxSize), "ElementWriter")
	}
	if needed <= q.header.length {
		return nil
	}

	length := q.header.length
	for length < needed {
		length *= 2
	}
	return w.grow(min(length, q.maxSize))
}

// grow extends the file to length. If the data wraps around the end of the ring,
// the wrapped part is copied to the new space after the old end so the ring is contiguous again.
func (w *ElementWriter) grow(length int64) error {
	q := w.q
	old := q.header.length
	q.logger.Debug("growing queue file", zap.Int64("from", old), zap.Int64("to", length))

	var begin int64
	switch {
	case q.header.count > 0:
		begin = q.first.pos
	case !w.first.empty():
		begin = w.first.pos
	case !w.current.empty():
		begin = w.current.pos
	}

	if err := q.storage.Truncate(length); err != nil {
		return encio.NewIOError(err, q.storage, "growing queue file", 0)
	}
	q.header.length = length

	if begin != 0 && w.pos <= begin {
		if tail := w.pos - HeaderLength; tail > 0 {
			if err := q.move(HeaderLength, old, tail); err != nil {
				return err
			}
		}
		shift := old - HeaderLength
		for _, e := range []*element{&q.last, &w.current, &w.first, &w.last} {
			if !e.empty() && e.pos < begin {
				e.pos += shift
			}
		}
		w.pos += shift
		if q.header.count > 0 {
			q.header.last = q.last.pos
		}
	}
	q.modCount++
	return q.writeHeader()
}

// Next ends the current element. It does nothing if no element was started.
func (w *ElementWriter) Next() error {
	if w.closed {
		return ErrClosed
	}
	if w.current.empty() {
		return nil
	}
	var buff [ElementHeaderLength]byte
	encodeElementHeader(buff[:], w.current.length)
	if _, err := w.q.writeRing(w.current.pos, buff[:]); err != nil {
		return err
	}

	w.last = w.current
	if w.first.empty() {
		w.first = w.current
	}
	w.used += ElementHeaderLength + w.current.length
	w.count++
	w.current = element{}
	return nil
}

// Close ends the current element and commits every element written.
func (w *ElementWriter) Close() error {
	if w.closed {
		return nil
	}
	err := w.Next()
	w.closed = true
	w.q.writer = nil
	if err != nil || w.count == 0 {
		return err
	}
	return w.q.commit(w)
}

// Abort discards everything written. The space is reused by the next writer.
func (w *ElementWriter) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	w.q.writer = nil
}

// commit makes the writer's elements part of the queue with a single header write.
func (q *QueueFile) commit(w *ElementWriter) error {
	if err := q.storage.Sync(); err != nil {
		return err
	}
	old, oldFirst, oldLast := q.header, q.first, q.last
	if q.header.count == 0 {
		q.first = w.first
		q.header.first = w.first.pos
	}
	q.last = w.last
	q.header.last = w.last.pos
	q.header.count += w.count
	if err := q.writeHeader(); err != nil {
		q.header, q.first, q.last = old, oldFirst, oldLast
		return err
	}
	q.modCount++
	return nil
}
