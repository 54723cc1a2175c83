package avtape

import (
	"go.uber.org/zap"

	"github.com/stewi1014/avtape/datum"
	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/queue"
)

// Config defines configuration for Encoders, Decoders and queues. A nil *Config uses the defaults.
type Config struct {
	// Cache holds compiled grammars. If nil, datum.DefaultCache is used.
	Cache *datum.Cache

	// Logger is used by queues. If nil, encio.Logger is used.
	Logger *zap.Logger

	// QueueMaxSize is the size queue files may grow to. If zero, queue.DefaultMaxSize is used.
	QueueMaxSize int64
}

func (c *Config) copyAndFill() *Config {
	config := new(Config)
	if c != nil {
		*config = *c
	}

	if config.Cache == nil {
		config.Cache = datum.DefaultCache
	}
	if config.Logger == nil {
		config.Logger = encio.Logger()
	}
	if config.QueueMaxSize == 0 {
		config.QueueMaxSize = queue.DefaultMaxSize
	}

	return config
}
