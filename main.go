package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sacnlogger/configsync/app"
	"github.com/sacnlogger/configsync/app/cli"
	"github.com/sacnlogger/configsync/config/value"
	"github.com/sacnlogger/configsync/log"

	"github.com/docopt/docopt-go"
	_ "github.com/joho/godotenv/autoload"
)

const usage = `Configuration client for the sACN logger host.

Without a command an interactive shell is started. The origin of the host is
taken from --address, the stored override (see the server commands), or the
address in the config file, in this order.

Usage:
    configsync [--config=<file>] [--address=<origin>]
    configsync show [--config=<file>] [--address=<origin>]
    configsync server [--config=<file>]
    configsync server set <origin> [--config=<file>]
    configsync server reset [--config=<file>]
    configsync config [--config=<file>]
    configsync -h | --help
    configsync --version

Options:
    -h --help             Show this screen.
    --version             Show version.
    --config=<file>       Path to the config file. Defaults to CONFIGSYNC_CONFIGFILE
                          or one of the standard locations.
    --address=<origin>    Origin of the host for this session, e.g. http://192.168.1.2:5050`

func main() {
	logger := log.New("").WithOutput(log.NewConsoleWriter(os.Stderr, log.Lwarn, true))

	opts, err := docopt.ParseArgs(usage, os.Args[1:], app.Name+" "+app.Version.String())
	if err != nil {
		logger.Error().WithError(err).Log("Invalid arguments")
		os.Exit(2)
	}

	configfile, _ := opts.String("--config")
	if len(configfile) == 0 {
		configfile = os.Getenv("CONFIGSYNC_CONFIGFILE")
	}

	address, _ := opts.String("--address")
	if len(address) != 0 {
		if err := value.ValidateOrigin(address); err != nil {
			logger.Error().WithError(err).Log("Invalid address")
			os.Exit(2)
		}
	}

	a, err := cli.New(cli.Config{
		ConfigFile: configfile,
		Address:    address,
		LogOutput:  os.Stderr,
	})
	if err != nil {
		logger.Error().WithError(err).Log("Failed to start")
		os.Exit(1)
	}

	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	shell := cli.NewShell(cli.ShellConfig{
		Editor:         a.Editor(),
		Storage:        a.Storage(),
		DefaultAddress: a.Config().Address,
		Logs:           a.Logs,
		Config:         a.Config(),
		Output:         os.Stdout,
	})

	if server, _ := opts.Bool("server"); server {
		err = serverCommand(ctx, shell, opts)
	} else if cfg, _ := opts.Bool("config"); cfg {
		err = shell.Execute(ctx, "config")
	} else if show, _ := opts.Bool("show"); show {
		err = shell.Execute(ctx, "fetch")
	} else {
		err = shell.Run(ctx, os.Stdin)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		a.Close()
		os.Exit(1)
	}
}

func serverCommand(ctx context.Context, shell *cli.Shell, opts docopt.Opts) error {
	if set, _ := opts.Bool("set"); set {
		origin, _ := opts.String("<origin>")
		return shell.Execute(ctx, "server "+origin)
	}

	if reset, _ := opts.Bool("reset"); reset {
		return shell.Execute(ctx, "server reset")
	}

	return shell.Execute(ctx, "server")
}
