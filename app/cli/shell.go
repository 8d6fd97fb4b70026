package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/sacnlogger/configsync/config"
	"github.com/sacnlogger/configsync/config/value"
	"github.com/sacnlogger/configsync/document/store"
	"github.com/sacnlogger/configsync/editor"
	"github.com/sacnlogger/configsync/localstorage"
	"github.com/sacnlogger/configsync/log"
)

// ErrQuit is returned by Execute if the shell should end.
var ErrQuit = errors.New("quit")

const help = `Commands:
    fetch                 Load the configuration from the host, discards unsaved changes
    show                  Show the working copy
    add [<universe>]      Add a universe, defaults to the next suggested universe
    remove <universe>     Remove a universe
    pap on|off|toggle     Set the per-address-priority flag
    revert                Discard all unsaved changes
    save                  Save the working copy in the background
    wait                  Wait for a running save to finish
    server                Show the stored host origin override
    server <origin>       Store a host origin override, used from the next start
    server reset          Remove the host origin override
    log [<n>]             Show the last n log messages, defaults to 20
    config                Show the client settings and their environment variables
    help                  Show this screen
    quit                  Leave the shell`

type ShellConfig struct {
	Editor editor.Editor

	// Storage keeps the host origin override. Optional.
	Storage localstorage.Storage

	// DefaultAddress is the configured origin of the host.
	DefaultAddress string

	// Logs returns the recent log events. Optional.
	Logs func() []*log.Event

	// Config holds the client settings. Optional.
	Config *config.Config

	Output io.Writer
}

// Shell is an interactive line based editor.
type Shell struct {
	editor         editor.Editor
	storage        localstorage.Storage
	defaultAddress string
	logs           func() []*log.Event
	config         *config.Config

	out     io.Writer
	outLock sync.Mutex

	saves sync.WaitGroup
}

func NewShell(c ShellConfig) *Shell {
	s := &Shell{
		editor:         c.Editor,
		storage:        c.Storage,
		defaultAddress: c.DefaultAddress,
		logs:           c.Logs,
		config:         c.Config,
		out:            c.Output,
	}

	if s.out == nil {
		s.out = io.Discard
	}

	return s
}

// Run fetches the configuration and executes the lines from in until it is
// exhausted or a quit command has been read. Running saves are awaited.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	defer s.saves.Wait()

	s.printf("Host: %s\n", s.editor.Address())

	if err := s.Execute(ctx, "fetch"); err != nil {
		s.printf("error: %s\n", err.Error())
	}

	scanner := bufio.NewScanner(in)

	s.prompt()

	for scanner.Scan() {
		err := s.Execute(ctx, scanner.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}

		if err != nil {
			s.printf("error: %s\n", err.Error())
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.prompt()
	}

	return scanner.Err()
}

// Execute runs a single command.
func (s *Shell) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	command, args := strings.ToLower(fields[0]), fields[1:]

	switch command {
	case "help", "?":
		s.printf("%s\n", help)
	case "quit", "exit":
		return ErrQuit
	case "fetch", "reload":
		if err := s.editor.Fetch(ctx); err != nil {
			return err
		}

		s.show()
	case "show", "ls":
		s.show()
	case "add":
		return s.add(args)
	case "remove", "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: remove <universe>")
		}

		universe, err := parseUniverse(args[0])
		if err != nil {
			return err
		}

		if err := s.editor.RemoveUniverse(universe); err != nil {
			return err
		}

		s.show()
	case "pap":
		return s.pap(args)
	case "revert":
		s.editor.Revert()
		s.show()
	case "save":
		s.save(ctx)
	case "wait":
		s.saves.Wait()
	case "server":
		return s.server(args)
	case "log":
		return s.showLog(args)
	case "config":
		s.showConfig()
	default:
		return fmt.Errorf("unknown command '%s', type 'help' for a list of commands", command)
	}

	return nil
}

func (s *Shell) add(args []string) error {
	var universe int

	switch len(args) {
	case 0:
		next, ok := s.editor.NextSuggestedUniverse()
		if !ok {
			return fmt.Errorf("no suggestion available, usage: add <universe>")
		}

		universe = next
	case 1:
		u, err := parseUniverse(args[0])
		if err != nil {
			return err
		}

		universe = u
	default:
		return fmt.Errorf("usage: add [<universe>]")
	}

	if err := s.editor.AddUniverse(universe); err != nil {
		return err
	}

	s.show()

	return nil
}

func (s *Shell) pap(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: pap on|off|toggle")
	}

	var err error

	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		err = s.editor.SetPriorityFlag(true)
	case "off", "false", "0":
		err = s.editor.SetPriorityFlag(false)
	case "toggle":
		_, err = s.editor.TogglePriorityFlag()
	default:
		return fmt.Errorf("usage: pap on|off|toggle")
	}

	if err != nil {
		return err
	}

	s.show()

	return nil
}

func (s *Shell) save(ctx context.Context) {
	if s.editor.IsSaving() {
		s.printf("A save is already in progress\n")
		return
	}

	s.saves.Add(1)

	go func() {
		defer s.saves.Done()

		err := s.editor.Save(ctx)
		if err != nil {
			s.printf("\nSave failed: %s\n", err.Error())
			return
		}

		confirmed, _ := s.editor.LastConfirmed()
		s.printf("\nSaved: %s\n", confirmed.String())
	}()
}

func (s *Shell) server(args []string) error {
	if s.storage == nil {
		return fmt.Errorf("no local storage available")
	}

	if len(args) == 0 {
		origin, err := s.storage.Get(localstorage.KeyServer)
		if err != nil {
			if errors.Is(err, localstorage.ErrNotFound) {
				s.printf("No override, using %s\n", s.defaultAddress)
				return nil
			}

			return err
		}

		s.printf("Override: %s\n", origin)

		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("usage: server [<origin>|reset]")
	}

	if strings.ToLower(args[0]) == "reset" {
		if err := s.storage.Delete(localstorage.KeyServer); err != nil {
			return err
		}

		s.printf("Override removed, %s will be used from the next start\n", s.defaultAddress)

		return nil
	}

	origin := strings.TrimSuffix(args[0], "/")

	if err := value.ValidateOrigin(origin); err != nil {
		return err
	}

	if err := s.storage.Set(localstorage.KeyServer, origin); err != nil {
		return err
	}

	s.printf("Override stored, %s will be used from the next start\n", origin)

	return nil
}

func (s *Shell) showLog(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: log [<n>]")
	}

	n := 20
	if len(args) == 1 {
		var err error
		n, err = strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("usage: log [<n>]")
		}
	}

	if s.logs == nil {
		s.printf("No log available\n")
		return nil
	}

	events := s.logs()
	if len(events) > n {
		events = events[len(events)-n:]
	}

	formatter := log.NewConsoleFormatter(false)

	for _, e := range events {
		s.printf("%s", formatter.String(e))
	}

	return nil
}

func (s *Shell) showConfig() {
	if s.config == nil {
		s.printf("No settings available\n")
		return
	}

	s.outLock.Lock()
	defer s.outLock.Unlock()

	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "NAME\tVALUE\tENV\tOVERRIDE\n")

	for _, v := range s.config.Variables() {
		env := v.EnvName
		if len(env) == 0 {
			env = "-"
		}

		override := ""
		if v.Merged {
			override = "yes"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Name, v.Value, env, override)
	}

	w.Flush()
}

func (s *Shell) show() {
	working, ok := s.editor.Working()
	if !ok {
		s.printf("No configuration loaded, use 'fetch'\n")
		return
	}

	flags := []string{}

	if s.editor.IsDirty() {
		flags = append(flags, "unsaved changes")
	}

	if s.editor.IsSaving() {
		flags = append(flags, "saving")
	}

	universes := make([]string, 0, len(working.Universes))
	for _, u := range working.Universes {
		universes = append(universes, strconv.Itoa(int(u)))
	}

	if len(universes) == 0 {
		universes = append(universes, "(none)")
	}

	status := ""
	if len(flags) != 0 {
		status = " [" + strings.Join(flags, ", ") + "]"
	}

	s.printf("Universes: %s\nPer-address priority: %t%s\n", strings.Join(universes, " "), working.UsePap, status)
}

func (s *Shell) prompt() {
	s.printf("> ")
}

func (s *Shell) printf(format string, args ...interface{}) {
	s.outLock.Lock()
	defer s.outLock.Unlock()

	fmt.Fprintf(s.out, format, args...)
}

func parseUniverse(arg string) (int, error) {
	universe, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: '%s' is not an integer", store.ErrInvalidUniverseID, arg)
	}

	return universe, nil
}
