package queue

// Iter returns an iterator over the elements, first to last.
func (q *QueueFile) Iter() *Iterator {
	return &Iterator{q: q, modCount: q.modCount}
}

// Iterator reads elements in order. It fails with ErrModified if elements are removed or moved while iterating.
type Iterator struct {
	q        *QueueFile
	modCount int
	index    int
	next     int64
	data     []byte
	err      error
}

// Next reads the next element, returning false at the end or on error.
func (it *Iterator) Next() bool {
	q := it.q
	switch {
	case it.err != nil:
		return false
	case q.closed:
		it.err = ErrClosed
		return false
	case q.modCount != it.modCount:
		it.err = ErrModified
		return false
	case it.index >= q.header.count:
		return false
	}

	e := q.first
	if it.index > 0 {
		var err error
		if e, err = q.readElement(it.next); err != nil {
			it.err = err
			return false
		}
	}
	data, err := q.readData(e)
	if err != nil {
		it.err = err
		return false
	}
	it.data = data
	it.next = q.wrap(e.end())
	it.index++
	return true
}

// Bytes returns the element read by Next.
func (it *Iterator) Bytes() []byte { return it.data }

// Index returns the position in the queue of the element read by Next, starting at 0.
func (it *Iterator) Index() int { return it.index - 1 }

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error { return it.err }
