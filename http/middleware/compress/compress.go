// Package compress implements a middleware that compresses responses with gzip or zstd,
// depending on what the client accepts.
package compress

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config defines the config for compress middleware.
type Config struct {
	// Skipper defines a function to skip middleware.
	Skipper middleware.Skipper

	// Compression level. Optional. Default DefaultCompression.
	Level Level

	// Responses shorter than MinLength bytes are sent uncompressed. Optional. Default 0.
	MinLength int

	// Schemes is a list of enabled compressions, "zstd" or "gzip". If the client
	// accepts more than one, the first in this list wins. Optional. Default [gzip]
	Schemes []string

	// List of content types to compress. If empty, everything will be compressed.
	ContentTypes []string
}

// DefaultConfig is the default compress middleware config.
var DefaultConfig = Config{
	Skipper:      middleware.DefaultSkipper,
	Level:        DefaultCompression,
	MinLength:    0,
	Schemes:      []string{"gzip"},
	ContentTypes: []string{},
}

var bufferPool = sync.Pool{
	New: func() interface{} {
		return &bytes.Buffer{}
	},
}

// New returns a middleware which compresses HTTP response using a compression
// scheme.
func New() echo.MiddlewareFunc {
	return NewWithConfig(DefaultConfig)
}

// NewWithConfig return compress middleware with config.
// See: `New()`.
func NewWithConfig(config Config) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultConfig.Skipper
	}

	if config.MinLength < 0 {
		config.MinLength = DefaultConfig.MinLength
	}

	if len(config.Schemes) == 0 {
		config.Schemes = DefaultConfig.Schemes
	}

	contentTypes := slices.Clone(config.ContentTypes)

	schemes := []string{}
	compressions := map[string]Compression{}

	for _, s := range config.Schemes {
		if _, ok := compressions[s]; ok {
			continue
		}

		switch s {
		case "gzip":
			compressions[s] = NewGzip(config.Level)
		case "zstd":
			compressions[s] = NewZstd(config.Level)
		default:
			continue
		}

		schemes = append(schemes, s)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			scheme := negotiate(c.Request().Header.Get(echo.HeaderAcceptEncoding), schemes)
			if len(scheme) == 0 {
				return next(c)
			}

			compression := compressions[scheme]

			compressor := compression.Acquire()
			if compressor == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, fmt.Errorf("failed to acquire compressor for %s", scheme))
			}

			res := c.Response()
			rw := res.Writer
			compressor.Reset(rw)

			buffer := bufferPool.Get().(*bytes.Buffer)
			buffer.Reset()

			w := &compressResponseWriter{
				Compressor:     compressor,
				ResponseWriter: rw,
				minLength:      config.MinLength,
				buffer:         buffer,
				scheme:         scheme,
				contentTypes:   contentTypes,
			}

			defer func() {
				w.finish()
				res.Writer = rw

				compressor.Close()
				bufferPool.Put(buffer)
				compression.Release(compressor)
			}()

			res.Writer = w

			return next(c)
		}
	}
}

// negotiate returns the first of the schemes that the Accept-Encoding header allows,
// or an empty string. A scheme with a q-value of 0 is not acceptable.
func negotiate(header string, schemes []string) string {
	if len(header) == 0 {
		return ""
	}

	accepted := map[string]bool{}
	wildcard := false

	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))

		ok := true

		for _, param := range strings.Split(params, ";") {
			key, val, found := strings.Cut(strings.TrimSpace(param), "=")
			if !found || strings.TrimSpace(key) != "q" {
				continue
			}

			q, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil || q <= 0 {
				ok = false
			}
		}

		if name == "*" {
			wildcard = ok
			continue
		}

		accepted[name] = ok
	}

	for _, s := range schemes {
		ok, listed := accepted[s]
		if listed {
			if ok {
				return s
			}

			continue
		}

		if wildcard {
			return s
		}
	}

	return ""
}

type compressResponseWriter struct {
	Compressor
	http.ResponseWriter
	hasHeader           bool
	wroteHeader         bool
	wroteBody           bool
	minLength           int
	minLengthExceeded   bool
	buffer              *bytes.Buffer
	code                int
	headerContentLength string
	scheme              string
	contentTypes        []string
	passThrough         bool
}

// finish writes what is still pending after the handler returned. Only a started
// compression stays attached to the response, such that closing the compressor
// completes it.
func (w *compressResponseWriter) finish() {
	switch {
	case w.passThrough:
		if w.hasHeader {
			w.writePassThroughHeader()
		}
	case w.minLengthExceeded:
		return
	case !w.wroteBody:
		if w.Header().Get(echo.HeaderContentEncoding) == w.scheme {
			w.Header().Del(echo.HeaderContentEncoding)
		}

		if w.hasHeader && !w.wroteHeader {
			w.ResponseWriter.WriteHeader(w.code)
		}
	default:
		// Too short for compression, the buffered body is written as is.
		w.writePassThroughHeader()
		w.buffer.WriteTo(w.ResponseWriter)
	}

	w.Compressor.Reset(io.Discard)
}

func (w *compressResponseWriter) WriteHeader(code int) {
	if code == http.StatusNoContent {
		w.Header().Del(echo.HeaderContentEncoding)
	}

	w.headerContentLength = w.Header().Get(echo.HeaderContentLength)
	w.Header().Del(echo.HeaderContentLength)

	if !w.canCompress(w.Header().Get(echo.HeaderContentType)) {
		w.passThrough = true
	}

	w.hasHeader = true

	// The header is written as soon as it is known whether the body will be compressed.
	w.code = code
}

func (w *compressResponseWriter) canCompress(responseContentType string) bool {
	if len(w.contentTypes) == 0 {
		return true
	}

	for _, contentType := range w.contentTypes {
		if strings.Contains(responseContentType, contentType) {
			return true
		}
	}

	return false
}

// startCompression sets the encoding headers and writes the header.
func (w *compressResponseWriter) startCompression() {
	w.minLengthExceeded = true

	w.Header().Set(echo.HeaderContentEncoding, w.scheme)
	w.Header().Add(echo.HeaderVary, echo.HeaderAcceptEncoding)

	if w.hasHeader {
		w.ResponseWriter.WriteHeader(w.code)
		w.wroteHeader = true
	}
}

func (w *compressResponseWriter) writePassThroughHeader() {
	if !w.wroteHeader {
		if len(w.headerContentLength) != 0 {
			w.Header().Set(echo.HeaderContentLength, w.headerContentLength)
		}
		w.ResponseWriter.WriteHeader(w.code)
		w.wroteHeader = true
	}
}

func (w *compressResponseWriter) Write(b []byte) (int, error) {
	if w.Header().Get(echo.HeaderContentType) == "" {
		w.Header().Set(echo.HeaderContentType, http.DetectContentType(b))
	}

	w.wroteBody = true

	if !w.hasHeader {
		w.WriteHeader(http.StatusOK)
	}

	if w.passThrough {
		w.writePassThroughHeader()
		return w.ResponseWriter.Write(b)
	}

	if w.minLengthExceeded {
		return w.Compressor.Write(b)
	}

	n, err := w.buffer.Write(b)
	if err != nil {
		return n, err
	}

	if w.buffer.Len() < w.minLength {
		return n, nil
	}

	w.startCompression()

	if _, err := w.Compressor.Write(w.buffer.Bytes()); err != nil {
		return 0, err
	}

	return n, nil
}

func (w *compressResponseWriter) Flush() {
	if !w.hasHeader {
		w.WriteHeader(http.StatusOK)
	}

	if w.passThrough {
		w.writePassThroughHeader()
	} else {
		if !w.minLengthExceeded {
			w.startCompression()
			w.Compressor.Write(w.buffer.Bytes())
		}

		w.Compressor.Flush()
	}

	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}

	return hijacker.Hijack()
}

func (w *compressResponseWriter) Push(target string, opts *http.PushOptions) error {
	if p, ok := w.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}

	return http.ErrNotSupported
}
