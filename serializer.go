package avtape

import (
	"fmt"
	"io"

	"github.com/stewi1014/avtape/datum"
	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/schema"
	"github.com/stewi1014/avtape/wire"
)

// NewSerializer returns a Serializer writing values of s.
func NewSerializer(s *schema.Schema) *Serializer {
	return &Serializer{writer: datum.NewWriter(s)}
}

// Serializer writes values as queue elements. It implements queue.Serializer.
type Serializer struct {
	writer *datum.Writer
}

// Serialize writes v to w.
func (s *Serializer) Serialize(v interface{}, w io.Writer) error {
	return s.writer.Write(wire.NewEncoder(w), v)
}

// NewDeserializer returns a Deserializer reading elements written with writer as values of reader.
func NewDeserializer(writer, reader *schema.Schema, config *Config) (*Deserializer, error) {
	config = config.copyAndFill()
	r, err := config.Cache.Reader(writer, reader)
	if err != nil {
		return nil, err
	}
	return &Deserializer{reader: r}, nil
}

// Deserializer reads queue elements. It implements queue.Deserializer.
type Deserializer struct {
	reader *datum.Reader
}

// Deserialize reads the value held in data. Data that ends early, or has bytes left after the value, is malformed.
func (d *Deserializer) Deserialize(data []byte) (interface{}, error) {
	buff := encio.NewBuffer(data)
	v, err := d.reader.Read(wire.NewDecoder(buff))
	if err != nil {
		return nil, err
	}
	if buff.Len() > 0 {
		return nil, encio.NewIOError(encio.ErrMalformed, nil, fmt.Sprintf("%v bytes after the value", buff.Len()), 0)
	}
	return v, nil
}
