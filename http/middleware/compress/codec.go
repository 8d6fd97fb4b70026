package compress

import (
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type Level int

const (
	DefaultCompression Level = 0
	BestCompression    Level = 1
	BestSpeed          Level = 2
)

// Compression hands out compressors of one scheme.
type Compression interface {
	Acquire() Compressor
	Release(c Compressor)
}

type Compressor interface {
	Write(p []byte) (int, error)
	Flush() error
	Reset(w io.Writer)
	Close() error
}

type pooled struct {
	pool sync.Pool
}

func newPooled(create func() (Compressor, error)) Compression {
	p := &pooled{}
	p.pool.New = func() interface{} {
		c, err := create()
		if err != nil {
			return nil
		}

		return c
	}

	return p
}

// Acquire returns a compressor that writes to io.Discard, or nil if none could be created.
func (p *pooled) Acquire() Compressor {
	c, ok := p.pool.Get().(Compressor)
	if !ok {
		return nil
	}

	c.Reset(io.Discard)

	return c
}

func (p *pooled) Release(c Compressor) {
	c.Reset(io.Discard)
	p.pool.Put(c)
}

// NewGzip returns a pool of gzip compressors.
func NewGzip(level Level) Compression {
	gzipLevel := gzip.DefaultCompression

	switch level {
	case BestCompression:
		gzipLevel = gzip.BestCompression
	case BestSpeed:
		gzipLevel = gzip.BestSpeed
	}

	return newPooled(func() (Compressor, error) {
		return gzip.NewWriterLevel(io.Discard, gzipLevel)
	})
}

// NewZstd returns a pool of zstd compressors. Empty responses are written as
// a valid zstd frame.
func NewZstd(level Level) Compression {
	zstdLevel := zstd.SpeedDefault

	switch level {
	case BestCompression:
		zstdLevel = zstd.SpeedBestCompression
	case BestSpeed:
		zstdLevel = zstd.SpeedFastest
	}

	return newPooled(func() (Compressor, error) {
		return zstd.NewWriter(io.Discard, zstd.WithZeroFrames(true), zstd.WithEncoderLevel(zstdLevel))
	})
}
