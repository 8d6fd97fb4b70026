// Package client implements the RPC transport to the host. It retrieves and persists
// the configuration document on the host's configuration endpoint.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sacnlogger/configsync/document"
	"github.com/sacnlogger/configsync/encoding/json"
	"github.com/sacnlogger/configsync/encoding/wire"
	"github.com/sacnlogger/configsync/http/api"
	"github.com/sacnlogger/configsync/log"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	// DocumentPath is the path of the configuration endpoint on the host.
	DocumentPath = "/rpc/config"

	// DefaultTimeout is used if no timeout has been configured.
	DefaultTimeout = 30 * time.Second

	ContentTypeDocument = "application/octet-stream"
	ContentTypeAck      = "text/plain"

	maxErrorSize = 64 * 1024
)

// ErrTransport is matched by every error that is caused by the network, the host's
// response status, or a timeout.
var ErrTransport = errors.New("transport error")

// TransportError describes a failed request.
type TransportError struct {
	// Op is the operation that failed, either "fetch" or "save".
	Op string

	// Code is the HTTP status code of the response, or 0 if no response has been received.
	Code int

	Err error
}

func (e *TransportError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
	}

	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Err.Error())
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client retrieves and persists the configuration document.
type Client interface {
	// Address returns the origin of the host
	Address() string

	// FetchDocument retrieves the document from the host. It fails with ErrTransport
	// or wire.ErrMalformedDocument.
	FetchDocument(ctx context.Context) (document.Document, error) // GET /rpc/config

	// SaveDocument sends the document to the host and returns once the host acknowledged
	// it. It fails with ErrTransport.
	SaveDocument(ctx context.Context, d document.Document) error // POST /rpc/config
}

// Config is the configuration for a new client.
type Config struct {
	// Address is the origin of the host, e.g. http://192.168.1.2:5050
	Address string

	// Client is a HTTPClient that will be used for the requests. Optional. Don't
	// set a timeout in the client if you want to use the timeout in this config.
	Client HTTPClient

	// Timeout is the timeout for a whole request. Defaults to DefaultTimeout.
	Timeout time.Duration

	Logger log.Logger
}

type restclient struct {
	address string
	client  HTTPClient
	timeout time.Duration
	logger  log.Logger
}

// New returns a new client for the given config.
func New(config Config) (Client, error) {
	r := &restclient{
		client:  config.Client,
		timeout: config.Timeout,
		logger:  config.Logger,
	}

	u, err := url.Parse(config.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address '%s': %w", config.Address, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid address '%s': scheme must be http or https", config.Address)
	}

	if len(u.Host) == 0 {
		return nil, fmt.Errorf("invalid address '%s': host is missing", config.Address)
	}

	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""

	r.address = strings.TrimSuffix(u.String(), "/")

	if r.client == nil {
		r.client = &http.Client{
			Timeout: 0,
		}
	}

	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}

	if r.logger == nil {
		r.logger = log.New("")
	}

	r.logger = r.logger.WithField("address", r.address)

	return r, nil
}

func (r *restclient) Address() string {
	return r.address
}

func (r *restclient) FetchDocument(ctx context.Context) (document.Document, error) {
	header := http.Header{}
	header.Set("Accept", ContentTypeDocument)

	data, err := r.call(ctx, "fetch", http.MethodGet, DocumentPath, header, nil)
	if err != nil {
		return document.Document{}, err
	}

	d, err := wire.Decode(data)
	if err != nil {
		r.logger.Warn().WithError(err).WithField("size", len(data)).Log("Received malformed document")
		return document.Document{}, err
	}

	return d, nil
}

func (r *restclient) SaveDocument(ctx context.Context, d document.Document) error {
	header := http.Header{}
	header.Set("Content-Type", ContentTypeDocument)
	header.Set("Accept", ContentTypeAck)

	ack, err := r.call(ctx, "save", http.MethodPost, DocumentPath, header, wire.Encode(d))
	if err != nil {
		return err
	}

	r.logger.Debug().WithField("ack", string(ack)).Log("Document saved")

	return nil
}

// call sends a request and returns the body of a successful response. Every error
// is a *TransportError.
func (r *restclient) call(ctx context.Context, op, method, path string, header http.Header, data []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var body io.Reader = nil
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.address+path, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header = header.Clone()
	req.Header.Set("Accept-Encoding", "zstd, gzip")

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	logger := r.logger.WithFields(log.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()

	status, reader, err := r.request(req)
	if err != nil {
		logger.Debug().WithError(err).Log("Request failed")
		return nil, &TransportError{Op: op, Err: err}
	}

	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		logger.Debug().WithError(err).Log("Reading response failed")
		return nil, &TransportError{Op: op, Code: status, Err: fmt.Errorf("read body: %w", err)}
	}

	logger.Debug().WithFields(log.Fields{
		"status":   status,
		"size":     len(payload),
		"duration": time.Since(start),
	}).Log("Request done")

	if status < 200 || status >= 300 {
		return nil, &TransportError{Op: op, Code: status, Err: responseError(status, payload)}
	}

	return payload, nil
}

func (r *restclient) request(req *http.Request) (int, io.ReadCloser, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		return -1, nil, err
	}

	reader := resp.Body

	contentEncoding := resp.Header.Get("Content-Encoding")

	if contentEncoding == "gzip" {
		gzip, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return -1, nil, err
		}

		reader = &decodedBody{ReadCloser: gzip, body: resp.Body}
	} else if contentEncoding == "zstd" {
		zstd, err := zstd.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return -1, nil, err
		}

		reader = &decodedBody{ReadCloser: zstd.IOReadCloser(), body: resp.Body}
	}

	return resp.StatusCode, reader, nil
}

// decodedBody closes the decoder and the underlying response body.
type decodedBody struct {
	io.ReadCloser
	body io.ReadCloser
}

func (d *decodedBody) Close() error {
	d.ReadCloser.Close()

	return d.body.Close()
}

// responseError reconstructs the error the host sent. The host either sends an api.Error
// as JSON or some text.
func responseError(status int, payload []byte) error {
	e := api.Error{}

	if err := json.Unmarshal(payload, &e); err == nil && len(e.Message) != 0 {
		if e.Code == 0 {
			e.Code = status
		}

		return e
	}

	if len(payload) > maxErrorSize {
		payload = payload[:maxErrorSize]
	}

	text := strings.TrimSpace(string(payload))
	if len(text) == 0 {
		text = http.StatusText(status)
	}

	return api.Err(status, text)
}
