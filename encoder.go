package avtape

import (
	"io"
	"sync"

	"github.com/stewi1014/avtape/datum"
	"github.com/stewi1014/avtape/schema"
	"github.com/stewi1014/avtape/wire"
)

// NewEncoder returns an Encoder writing values of s to w.
func NewEncoder(w io.Writer, s *schema.Schema) *Encoder {
	return &Encoder{
		enc:    wire.NewEncoder(w),
		writer: datum.NewWriter(s),
	}
}

// Encoder writes consecutive values to a stream. It is safe for concurrent use.
type Encoder struct {
	mutex  sync.Mutex
	enc    *wire.Encoder
	writer *datum.Writer
}

// Schema returns the schema values are written with.
func (e *Encoder) Schema() *schema.Schema { return e.writer.Schema() }

// Encode writes v. See package datum for the Go values of each schema type.
func (e *Encoder) Encode(v interface{}) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return e.writer.Write(e.enc, v)
}
