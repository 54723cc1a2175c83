package queue

import (
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/stewi1014/avtape/encio"
)

// Serializer writes values of S as queue elements.
type Serializer[S any] interface {
	Serialize(v S, w io.Writer) error
}

// Deserializer reads queue elements as values of T.
type Deserializer[T any] interface {
	Deserialize(data []byte) (T, error)
}

// NewObjectQueue returns a queue of values stored in file.
// The ObjectQueue owns file and closes it on Close.
func NewObjectQueue[S, T any](file *QueueFile, serializer Serializer[S], deserializer Deserializer[T]) *ObjectQueue[S, T] {
	return &ObjectQueue[S, T]{
		file:         file,
		serializer:   serializer,
		deserializer: deserializer,
	}
}

// ObjectQueue is a QueueFile of values, added as S and read back as T.
// Like QueueFile, it is not safe for concurrent use.
type ObjectQueue[S, T any] struct {
	file         *QueueFile
	serializer   Serializer[S]
	deserializer Deserializer[T]
}

// File returns the underlying queue file.
func (q *ObjectQueue[S, T]) File() *QueueFile { return q.file }

// Size returns the number of values queued.
func (q *ObjectQueue[S, T]) Size() int { return q.file.Size() }

// IsEmpty returns true if no values are queued.
func (q *ObjectQueue[S, T]) IsEmpty() bool { return q.file.IsEmpty() }

// Add serializes and appends v.
func (q *ObjectQueue[S, T]) Add(v S) error {
	return q.AddAll(v)
}

// AddAll serializes and appends values, committing all of them or none.
func (q *ObjectQueue[S, T]) AddAll(values ...S) error {
	buff := encio.NewBuffer(encio.GetBuffer(512))
	defer func() { encio.PutBuffer(buff.Bytes()) }()

	w, err := q.file.NewElementWriter()
	if err != nil {
		return err
	}
	for _, v := range values {
		buff.Reset()
		if err := q.serializer.Serialize(v, buff); err != nil {
			w.Abort()
			return err
		}
		if err := w.WriteElement(buff.Bytes()); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Close()
}

// Peek returns the first value. It fails with ErrNoSuchElement if the queue is empty.
func (q *ObjectQueue[S, T]) Peek() (T, error) {
	var zero T
	data, err := q.file.Peek()
	if err != nil {
		return zero, err
	}
	if data == nil {
		return zero, ErrNoSuchElement
	}
	return q.deserializer.Deserialize(data)
}

// PeekN returns up to n values from the front of the queue, limited by their serialized size as QueueFile.PeekN.
// Elements that cannot be decoded, because they are malformed or were written with an incompatible schema,
// are logged and returned as the zero value, so that Remove(len(values)) still removes them.
func (q *ObjectQueue[S, T]) PeekN(n int, sizeLimit int64) ([]T, error) {
	elements, err := q.file.PeekN(n, sizeLimit)
	if err != nil {
		return nil, err
	}
	values := make([]T, len(elements))
	for i, data := range elements {
		v, err := q.deserializer.Deserialize(data)
		switch {
		case err == nil:
			values[i] = v
		case errors.Is(err, encio.ErrMalformed), errors.Is(err, encio.ErrIncompatible):
			q.file.logger.Warn("skipping invalid queue element",
				zap.Int("index", i),
				zap.Int("size", len(data)),
				zap.Error(err),
			)
		default:
			return nil, err
		}
	}
	return values, nil
}

// Remove removes the first n values.
func (q *ObjectQueue[S, T]) Remove(n int) error { return q.file.Remove(n) }

// Clear removes every value.
func (q *ObjectQueue[S, T]) Clear() error { return q.file.Clear() }

// Close closes the underlying queue file.
func (q *ObjectQueue[S, T]) Close() error { return q.file.Close() }
