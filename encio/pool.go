package encio

import (
	"math/bits"
	"sync"
)

// tier i holds buffers with a capacity of at least 1<<i.
var buffers [24]sync.Pool

// GetBuffer returns a buffer with a cap of at least n and len of 0 from the pool.
// Requests too large to pool are allocated.
func GetBuffer(n int) []byte {
	i := 0
	if n > 1 {
		i = bits.Len(uint(n - 1))
	}
	if i >= len(buffers) {
		return make([]byte, 0, n)
	}
	if buff, ok := buffers[i].Get().([]byte); ok {
		return buff[:0]
	}
	return make([]byte, 0, 1<<i)
}

// PutBuffer places a buffer in the buffer pool.
// Buffers too large to pool are discarded.
func PutBuffer(buff []byte) {
	c := cap(buff)
	if c == 0 {
		return
	}
	i := bits.Len(uint(c)) - 1
	if i >= len(buffers) {
		return
	}
	buffers[i].Put(buff[:0]) //nolint:staticcheck
}
