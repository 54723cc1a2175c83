package avtape

import (
	"io"
	"sync"

	"github.com/stewi1014/avtape/datum"
	"github.com/stewi1014/avtape/schema"
	"github.com/stewi1014/avtape/wire"
)

// NewDecoder returns a Decoder reading values written with writer from r, as values of reader.
// It fails with encio.ErrIncompatible if the schemas cannot be reconciled.
func NewDecoder(r io.Reader, writer, reader *schema.Schema, config *Config) (*Decoder, error) {
	config = config.copyAndFill()
	rd, err := config.Cache.Reader(writer, reader)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		reader: rd,
		dec:    rd.Decoder(wire.NewDecoder(r)),
	}, nil
}

// Decoder reads consecutive values from a stream. It is safe for concurrent use.
type Decoder struct {
	mutex  sync.Mutex
	reader *datum.Reader
	dec    *datum.ResolvingDecoder
}

// Decode reads the next value. At the end of the stream the error satisfies errors.Is(err, io.EOF),
// while a stream ending part way through a value gives encio.ErrMalformed.
// The stream cannot be read past a value that fails to decode.
func (d *Decoder) Decode() (interface{}, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.reader.Decode(d.dec)
}
