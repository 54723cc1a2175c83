package queue

import "errors"

var (
	// ErrFull is returned when an element does not fit in the queue's maximum size.
	// The queue is unchanged.
	ErrFull = errors.New("queue full")

	// ErrNoSuchElement is returned when removing more elements than the queue holds.
	ErrNoSuchElement = errors.New("no such element")

	// ErrCorrupt is returned when the queue file's header or an element header fails verification.
	// The file should be recreated; it is never read as empty.
	ErrCorrupt = errors.New("corrupt queue file")

	// ErrClosed is returned when using a closed queue or element writer.
	ErrClosed = errors.New("queue closed")

	// ErrModified is returned by an Iterator when the queue changed after the iterator was created.
	ErrModified = errors.New("queue modified during iteration")

	// ErrWriting is returned when changing a queue while an ElementWriter is open on it.
	ErrWriting = errors.New("element writer open")
)
