package avtape

import (
	"github.com/stewi1014/avtape/queue"
	"github.com/stewi1014/avtape/schema"
)

// RecordQueue is a queue of values added with one schema and read with another.
type RecordQueue = queue.ObjectQueue[interface{}, interface{}]

// OpenQueue opens or creates the queue file at path.
// Values are added as values of writer, and read back as values of reader.
func OpenQueue(path string, writer, reader *schema.Schema, config *Config) (*RecordQueue, error) {
	config = config.copyAndFill()
	deserializer, err := NewDeserializer(writer, reader, config)
	if err != nil {
		return nil, err
	}

	file, err := queue.Open(path, queue.Config{
		MaxSize: config.QueueMaxSize,
		Logger:  config.Logger,
	})
	if err != nil {
		return nil, err
	}
	return queue.NewObjectQueue[interface{}, interface{}](file, NewSerializer(writer), deserializer), nil
}
