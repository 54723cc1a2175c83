package datum

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/stewi1014/avtape/encio"
	"github.com/stewi1014/avtape/gram"
	"github.com/stewi1014/avtape/resolve"
	"github.com/stewi1014/avtape/schema"
)

// DefaultCache is the cache used by NewReader.
var DefaultCache = NewCache(nil)

// NewCache returns an empty cache logging to logger, or to encio.Logger if logger is nil.
func NewCache(logger *zap.Logger) *Cache {
	return &Cache{
		logger:  logger,
		readers: make(map[cacheKey]*Reader),
	}
}

// Cache holds a Reader for each pair of schemas it has been asked for,
// so each grammar is generated once no matter how many goroutines ask for it.
// Schemas are keyed by identity; parse a schema once and share it.
type Cache struct {
	logger *zap.Logger
	group  singleflight.Group

	mu      sync.RWMutex
	readers map[cacheKey]*Reader
}

type cacheKey struct {
	writer, reader *schema.Schema
}

// Reader returns the Reader for data written with writer, read as reader.
// It fails with ErrIncompatible if no value of writer can be read as reader.
func (c *Cache) Reader(writer, reader *schema.Schema) (*Reader, error) {
	key := cacheKey{writer: writer, reader: reader}

	c.mu.RLock()
	r, ok := c.readers[key]
	c.mu.RUnlock()
	if ok {
		return r, nil
	}

	v, err, _ := c.group.Do(fmt.Sprintf("%p/%p", writer, reader), func() (interface{}, error) {
		c.mu.RLock()
		r, ok := c.readers[key]
		c.mu.RUnlock()
		if ok {
			return r, nil
		}

		r, err := c.generate(writer, reader)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.readers[key] = r
		c.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Reader), nil
}

func (c *Cache) generate(writer, reader *schema.Schema) (*Reader, error) {
	logger := c.log().With(
		zap.String("writer", writer.FullName()),
		zap.String("reader", reader.FullName()),
	)

	start := time.Now()
	action := resolve.Resolve(writer, reader)
	if err := resolve.Check(action); err != nil {
		logger.Debug("schemas are incompatible", zap.Error(err))
		return nil, err
	}

	sym, err := gram.NewGenerator().Generate(action)
	if err != nil {
		logger.Warn("cannot generate grammar", zap.Error(err))
		return nil, err
	}

	logger.Debug("generated grammar",
		zap.Uint64("writer_fingerprint", writer.Fingerprint64()),
		zap.Uint64("reader_fingerprint", reader.Fingerprint64()),
		zap.Duration("took", time.Since(start)),
	)
	return &Reader{
		writer: writer,
		reader: reader,
		root:   gram.NewRoot(sym),
	}, nil
}

func (c *Cache) log() *zap.Logger {
	if c.logger != nil {
		return c.logger
	}
	return encio.Logger()
}

// Len returns the number of cached readers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.readers)
}
