// Package cli wires the configuration, the local settings and the editor for the
// command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/sacnlogger/configsync/app"
	"github.com/sacnlogger/configsync/config"
	configstore "github.com/sacnlogger/configsync/config/store"
	configvars "github.com/sacnlogger/configsync/config/vars"
	"github.com/sacnlogger/configsync/editor"
	"github.com/sacnlogger/configsync/http/client"
	"github.com/sacnlogger/configsync/localstorage"
	"github.com/sacnlogger/configsync/log"
	"github.com/sacnlogger/configsync/prometheus"
)

// Config is the configuration for a new App.
type Config struct {
	// ConfigFile is the path to the JSON config file. Standard locations are probed if empty.
	ConfigFile string

	// Address overrides the origin of the host for this session. Optional.
	Address string

	// LogOutput receives the log messages.
	LogOutput io.Writer
}

type App struct {
	config  *config.Config
	storage localstorage.Storage
	editor  editor.Editor
	origin  string

	metrics       prometheus.Metrics
	metricsServer *http.Server

	cancelEvents func()
	logger       log.Logger
	logbuffer    log.BufferWriter
}

// New reads the configuration and creates the editor for the resolved host origin.
func New(c Config) (*App, error) {
	a := &App{}

	if c.LogOutput == nil {
		c.LogOutput = io.Discard
	}

	logger := log.New("Client").WithOutput(log.NewConsoleWriter(c.LogOutput, log.Lwarn, true))

	path := configstore.Location(c.ConfigFile)

	store, err := configstore.NewJSON(path)
	if err != nil {
		return nil, err
	}

	cfg := store.Get()

	cfg.Merge()
	cfg.Validate(false)

	loglevel, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		loglevel = log.Linfo
	}

	a.logbuffer = log.NewBufferWriter(log.Ldebug, 200)

	logger = logger.WithOutput(log.NewMultiWriter(
		log.NewConsoleWriter(c.LogOutput, loglevel, true),
		a.logbuffer,
	))

	logger.Debug().WithFields(log.Fields{
		"application": app.Name,
		"version":     app.Version.String(),
		"arch":        app.Arch,
		"compiler":    app.Compiler,
	}).Log("")

	logger.Debug().WithField("path", path).Log("Read config file")

	configlogger := logger.WithComponent("Config")
	cfg.Messages(func(level string, v configvars.Variable, message string) {
		configlogger = configlogger.WithFields(log.Fields{
			"variable":    v.Name,
			"value":       v.Value,
			"env":         v.EnvName,
			"description": v.Description,
			"override":    v.Merged,
		})
		configlogger.Debug().Log(message)

		switch level {
		case "warn":
			configlogger.Warn().Log(message)
		case "error":
			configlogger.Error().WithField("error", message).Log("")
		default:
			break
		}
	})

	if cfg.HasErrors() {
		logger.Error().WithField("error", "Not all variables are set or are valid. Check the error messages above. Bailing out.").Log("")
		return nil, fmt.Errorf("not all variables are set or valid")
	}

	cfg.LoadedAt = time.Now()

	if err := store.SetActive(cfg); err != nil {
		return nil, err
	}

	a.config = cfg
	a.logger = logger

	storage, err := localstorage.New(filepath.Join(cfg.Storage.Dir, "local.db"))
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}

	a.storage = storage

	a.origin = c.Address
	if len(a.origin) == 0 {
		a.origin, err = localstorage.ResolveOrigin(storage, cfg.Address)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("local storage: %w", err)
		}
	}

	restclient, err := client.New(client.Config{
		Address: a.origin,
		Timeout: cfg.Timeout(),
		Logger:  logger.WithComponent("Transport"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.editor, err = editor.New(editor.Config{
		Client: restclient,
		Logger: logger.WithComponent("Editor"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.watchEvents()

	a.metrics = prometheus.New()
	if err := a.metrics.Register(prometheus.NewEditorCollector("cli", a.editor)); err != nil {
		a.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	if len(cfg.Metrics.Address) != 0 {
		a.startMetricsServer(cfg.Metrics.Address)
	}

	logger.Info().WithField("address", a.origin).Log("Using host")

	return a, nil
}

func (a *App) Editor() editor.Editor {
	return a.editor
}

func (a *App) Storage() localstorage.Storage {
	return a.storage
}

// Origin returns the origin of the host for this session.
func (a *App) Origin() string {
	return a.origin
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	return a.config.Clone()
}

// Logs returns the most recent log events of this session, including debug messages.
func (a *App) Logs() []*log.Event {
	return a.logbuffer.Events()
}

func (a *App) Metrics() prometheus.Reader {
	return a.metrics
}

func (a *App) Close() {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a.metricsServer.Shutdown(ctx)
		cancel()
		a.metricsServer = nil
	}

	if a.metrics != nil {
		a.metrics.UnregisterAll()
	}

	if a.cancelEvents != nil {
		a.cancelEvents()
		a.cancelEvents = nil
	}

	if a.editor != nil {
		a.editor.Close()
	}

	if a.storage != nil {
		a.storage.Close()
		a.storage = nil
	}
}

func (a *App) watchEvents() {
	events, cancel := a.editor.Events()
	a.cancelEvents = cancel

	logger := a.logger.WithComponent("Events")

	go func() {
		for e := range events {
			logger.Debug().WithFields(log.Fields{
				"type":   string(e.Type),
				"dirty":  e.Dirty,
				"saving": e.Saving,
			}).Log("%s", e.Working.String())
		}
	}()
}

func (a *App) startMetricsServer(address string) {
	a.metricsServer = &http.Server{
		Addr:              address,
		Handler:           a.metrics.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger := a.logger.WithComponent("Metrics").WithField("address", address)

	go func(server *http.Server) {
		logger.Info().Log("Server started")

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().WithError(err).Log("Server failed")
			return
		}

		logger.Info().Log("Server exited")
	}(a.metricsServer)
}
