// Package host implements the configuration endpoint of the sACN logger host. It's
// used as a development host and as the counterpart of the client in tests.
package host

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/sacnlogger/configsync/encoding/wire"
	"github.com/sacnlogger/configsync/http/api"
	"github.com/sacnlogger/configsync/http/errorhandler"
	"github.com/sacnlogger/configsync/http/middleware/compress"
	mwlog "github.com/sacnlogger/configsync/http/middleware/log"
	"github.com/sacnlogger/configsync/http/validator"
	"github.com/sacnlogger/configsync/log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	contentTypeDocument = "application/octet-stream"
	maxBodySize         = "64K"
)

// Config is the configuration for a new host.
type Config struct {
	// Storage holds the document of the host. Required.
	Storage Storage

	// Compress lists the enabled compression schemes for responses, "zstd" and "gzip".
	// Responses are not compressed if it is empty.
	Compress []string

	Logger log.Logger
}

// Stats are the request counters of a host.
type Stats struct {
	Served   uint64
	Updated  uint64
	Rejected uint64
}

// Host serves the configuration endpoint.
type Host struct {
	router  *echo.Echo
	storage Storage
	logger  log.Logger

	served   atomic.Uint64
	updated  atomic.Uint64
	rejected atomic.Uint64
}

// New returns a new host for the given config.
func New(config Config) (*Host, error) {
	if config.Storage == nil {
		return nil, fmt.Errorf("no storage provided")
	}

	h := &Host{
		storage: config.Storage,
		logger:  config.Logger,
	}

	if h.logger == nil {
		h.logger = log.New("")
	}

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.Logger.SetOutput(io.Discard)
	router.HTTPErrorHandler = errorhandler.HTTPErrorHandler
	router.Validator = validator.New()

	router.Use(middleware.RequestID())
	router.Use(mwlog.NewWithConfig(mwlog.Config{
		Logger: h.logger,
	}))
	router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))

	if len(config.Compress) != 0 {
		router.Use(compress.NewWithConfig(compress.Config{
			Level:   compress.BestSpeed,
			Schemes: config.Compress,
		}))
	}

	group := router.Group("/rpc")
	group.GET("/config", h.getConfig)
	group.POST("/config", h.postConfig, middleware.BodyLimit(maxBodySize))

	h.router = router

	return h, nil
}

// ServeHTTP implements the http.Handler interface.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Echo returns the router such that more routes can be added.
func (h *Host) Echo() *echo.Echo {
	return h.router
}

// Stats returns how many documents have been served, how many updates have been
// stored and how many updates have been rejected.
func (h *Host) Stats() Stats {
	return Stats{
		Served:   h.served.Load(),
		Updated:  h.updated.Load(),
		Rejected: h.rejected.Load(),
	}
}

func (h *Host) getConfig(c echo.Context) error {
	if !accepts(c.Request().Header.Get(echo.HeaderAccept), contentTypeDocument) {
		return api.Err(http.StatusNotAcceptable, "", "Supported types: %s", contentTypeDocument)
	}

	d, err := h.storage.Load()
	if err != nil {
		return api.Err(http.StatusInternalServerError, "", "load: %s", err.Error())
	}

	h.served.Add(1)

	return c.Blob(http.StatusOK, contentTypeDocument, wire.Encode(d))
}

func (h *Host) postConfig(c echo.Context) error {
	mediatype, _, err := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	if err != nil || mediatype != contentTypeDocument {
		h.rejected.Add(1)
		return api.Err(http.StatusUnsupportedMediaType, "", "Supported types: %s", contentTypeDocument)
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	d, err := wire.Decode(data)
	if err != nil {
		h.rejected.Add(1)
		return api.Err(http.StatusUnprocessableEntity, "", "Bad content format: %s", err.Error())
	}

	if err := c.Validate(d); err != nil {
		h.rejected.Add(1)
		return api.Err(http.StatusUnprocessableEntity, "Invalid configuration", "%s", err.Error())
	}

	if err := h.storage.Store(d); err != nil {
		return api.Err(http.StatusInternalServerError, "", "store: %s", err.Error())
	}

	h.updated.Add(1)

	h.logger.Info().WithFields(log.Fields{
		"universes": len(d.Universes),
		"use_pap":   d.UsePap,
	}).Log("Configuration updated")

	return c.String(http.StatusOK, "OK")
}

// accepts returns whether the Accept header allows the given content type.
func accepts(header, contentType string) bool {
	if len(header) == 0 {
		return true
	}

	major, _, _ := strings.Cut(contentType, "/")

	for _, part := range strings.Split(header, ",") {
		mediatype, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}

		switch mediatype {
		case contentType, "*/*", major + "/*":
			return true
		}
	}

	return false
}
