package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/sacnlogger/configsync/config/value"
	"github.com/sacnlogger/configsync/host"
	"github.com/sacnlogger/configsync/log"
	"github.com/sacnlogger/configsync/prometheus"

	"github.com/docopt/docopt-go"
	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	"go.uber.org/automaxprocs/maxprocs"
)

const usage = `Development host for the configuration endpoint.

Serves GET and POST /rpc/config and the prometheus metrics on /metrics.

Usage:
    configsync-host [--listen=<address>] [--storage=<file>] [--log-level=<level>] [--log-format=<format>] [--compress=<schemes>]
    configsync-host -h | --help

Options:
    -h --help               Show this screen.
    --listen=<address>      Listen address [default: :5050].
    --storage=<file>        JSON file that holds the configuration [default: ./config/host.json].
    --log-level=<level>     Loglevel: silent, error, warn, info, debug [default: info].
    --log-format=<format>   Log format: console, json [default: console].
    --compress=<schemes>    Comma separated compression schemes, zstd and gzip.`

func main() {
	logger := log.New("Host").WithOutput(log.NewConsoleWriter(os.Stderr, log.Lwarn, true))

	opts, err := docopt.ParseArgs(usage, os.Args[1:], "")
	if err != nil {
		logger.Error().WithError(err).Log("Invalid arguments")
		os.Exit(2)
	}

	listen, _ := opts.String("--listen")
	path, _ := opts.String("--storage")
	levelName, _ := opts.String("--log-level")
	format, _ := opts.String("--log-format")
	schemes, _ := opts.String("--compress")

	level, err := log.ParseLevel(levelName)
	if err != nil {
		logger.Error().WithError(err).Log("Invalid log level")
		os.Exit(2)
	}

	address := value.NewAddress(&listen, listen)
	address.Set(listen)
	if err := address.Validate(); err != nil {
		logger.Error().WithError(err).Log("Invalid listen address")
		os.Exit(2)
	}

	writer, err := log.NewWriter(os.Stderr, level, format)
	if err != nil {
		logger.Error().WithError(err).Log("Invalid log format")
		os.Exit(2)
	}

	logger = logger.WithOutput(writer)

	undoMaxprocs, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		format = strings.TrimPrefix(format, "maxprocs: ")
		logger.Debug().Log(format, args...)
	}))
	if err != nil {
		logger.Warn().Log("%s", err.Error())
	}

	defer undoMaxprocs()

	storage, err := host.NewJSONStorage(path)
	if err != nil {
		logger.Error().WithError(err).WithField("path", path).Log("Failed to open storage")
		os.Exit(1)
	}

	h, err := host.New(host.Config{
		Storage:  storage,
		Compress: compressSchemes(schemes),
		Logger:   logger.WithComponent("HTTP"),
	})
	if err != nil {
		logger.Error().WithError(err).Log("Failed to create host")
		os.Exit(1)
	}

	metrics := prometheus.New()
	if err := metrics.Register(prometheus.NewHostCollector(h)); err != nil {
		logger.Error().WithError(err).Log("Failed to register metrics")
		os.Exit(1)
	}

	h.Echo().GET("/metrics", echo.WrapHandler(metrics.HTTPHandler()))

	server := &http.Server{
		Addr:              listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().WithFields(log.Fields{
			"address": listen,
			"storage": path,
		}).Log("Server started")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().WithError(err).Log("Server failed")

			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				proc.Signal(os.Interrupt)
			}
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server.Shutdown(ctx)

	logger.Info().Log("Server exited")
}

func compressSchemes(list string) []string {
	schemes := []string{}

	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if len(s) != 0 {
			schemes = append(schemes, s)
		}
	}

	return schemes
}
