// Package editor is the entry point for presentation layers. It fetches the configuration
// document from the host, applies edits to the working copy, saves and reverts them,
// and publishes every state change as an event.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sacnlogger/configsync/document"
	"github.com/sacnlogger/configsync/document/store"
	"github.com/sacnlogger/configsync/event"
	"github.com/sacnlogger/configsync/http/client"
	"github.com/sacnlogger/configsync/log"
	"github.com/sacnlogger/configsync/save"
)

type Editor interface {
	// Address returns the origin of the host.
	Address() string

	// Fetch retrieves the document from the host and replaces both copies with it.
	// Unsaved edits are discarded. On error the local state is not touched.
	Fetch(ctx context.Context) error

	AddUniverse(universe int) error
	RemoveUniverse(universe int) error
	SetPriorityFlag(value bool) error
	TogglePriorityFlag() (bool, error)

	// Revert discards all unsaved edits.
	Revert()

	// Save persists a snapshot of the working copy. See save.Coordinator.
	Save(ctx context.Context) error

	Working() (document.Document, bool)
	LastConfirmed() (document.Document, bool)
	NextSuggestedUniverse() (int, bool)

	IsLoaded() bool
	IsDirty() bool
	IsSaving() bool

	// Events returns a channel with the state changes from now on.
	Events() (<-chan event.Event, event.CancelFunc)

	// Stats returns the counters of fetch and save outcomes.
	Stats() Stats

	Close()
}

// Stats are the counters of an editor.
type Stats struct {
	Fetches        uint64
	FetchFailures  uint64
	Saves          uint64
	SaveFailures   uint64
	SaveRejections uint64

	Saving    bool
	Dirty     bool
	Universes int
}

type StatsReader interface {
	Stats() Stats
}

type Config struct {
	Client client.Client
	Logger log.Logger
}

type editor struct {
	client      client.Client
	store       store.Store
	coordinator save.Coordinator
	events      *event.PubSub
	logger      log.Logger

	fetches        atomic.Uint64
	fetchFailures  atomic.Uint64
	saves          atomic.Uint64
	saveFailures   atomic.Uint64
	saveRejections atomic.Uint64
}

func New(config Config) (Editor, error) {
	e := &editor{
		client: config.Client,
		store:  store.New(),
		events: event.NewPubSub(),
		logger: config.Logger,
	}

	if e.client == nil {
		return nil, fmt.Errorf("no client provided")
	}

	if e.logger == nil {
		e.logger = log.New("")
	}

	e.logger = e.logger.WithField("address", e.client.Address())

	coordinator, err := save.New(save.Config{
		Store:  e.store,
		Client: e.client,
		OnTransmit: func(snapshot document.Document) {
			e.publish(event.TypeSaving, nil)
		},
		Logger: e.logger.WithComponent("Save"),
	})
	if err != nil {
		return nil, err
	}

	e.coordinator = coordinator

	return e, nil
}

func (e *editor) Address() string {
	return e.client.Address()
}

func (e *editor) Fetch(ctx context.Context) error {
	d, err := e.client.FetchDocument(ctx)
	if err != nil {
		e.fetchFailures.Add(1)
		e.logger.Error().WithError(err).Log("Fetching the configuration failed")
		e.publish(event.TypeFetchFailed, err)
		return err
	}

	e.fetches.Add(1)
	e.store.Load(d)

	e.logger.Info().WithField("document", d.String()).Log("Configuration loaded")
	e.publish(event.TypeLoaded, nil)

	return nil
}

func (e *editor) AddUniverse(universe int) error {
	if err := e.store.AddUniverse(universe); err != nil {
		return err
	}

	e.publish(event.TypeChanged, nil)

	return nil
}

func (e *editor) RemoveUniverse(universe int) error {
	if err := e.store.RemoveUniverse(universe); err != nil {
		return err
	}

	e.publish(event.TypeChanged, nil)

	return nil
}

func (e *editor) SetPriorityFlag(value bool) error {
	if err := e.store.SetPriorityFlag(value); err != nil {
		return err
	}

	e.publish(event.TypeChanged, nil)

	return nil
}

func (e *editor) TogglePriorityFlag() (bool, error) {
	value, err := e.store.TogglePriorityFlag()
	if err != nil {
		return false, err
	}

	e.publish(event.TypeChanged, nil)

	return value, nil
}

func (e *editor) Revert() {
	if !e.store.IsLoaded() {
		return
	}

	e.store.Revert()

	e.publish(event.TypeReverted, nil)
}

func (e *editor) Save(ctx context.Context) error {
	err := e.coordinator.Save(ctx)
	if err == nil {
		e.saves.Add(1)

		confirmed, _ := e.store.LastConfirmed()
		e.logger.Info().WithField("document", confirmed.String()).Log("Configuration saved")
		e.publish(event.TypeSaved, nil)

		return nil
	}

	switch {
	case errors.Is(err, save.ErrSaveInProgress):
		e.saveRejections.Add(1)
	case errors.Is(err, store.ErrNotLoaded):
	default:
		e.saveFailures.Add(1)
		e.logger.Error().WithError(err).Log("Saving the configuration failed")
		e.publish(event.TypeSaveFailed, err)
	}

	return err
}

func (e *editor) Working() (document.Document, bool) {
	return e.store.Working()
}

func (e *editor) LastConfirmed() (document.Document, bool) {
	return e.store.LastConfirmed()
}

func (e *editor) NextSuggestedUniverse() (int, bool) {
	return e.store.NextSuggestedUniverse()
}

func (e *editor) IsLoaded() bool {
	return e.store.IsLoaded()
}

func (e *editor) IsDirty() bool {
	return e.store.IsDirty()
}

func (e *editor) IsSaving() bool {
	return e.coordinator.IsSaving()
}

func (e *editor) Events() (<-chan event.Event, event.CancelFunc) {
	return e.events.Subscribe()
}

func (e *editor) Stats() Stats {
	working, _ := e.store.Working()

	return Stats{
		Fetches:        e.fetches.Load(),
		FetchFailures:  e.fetchFailures.Load(),
		Saves:          e.saves.Load(),
		SaveFailures:   e.saveFailures.Load(),
		SaveRejections: e.saveRejections.Load(),
		Saving:         e.coordinator.IsSaving(),
		Dirty:          e.store.IsDirty(),
		Universes:      len(working.Universes),
	}
}

func (e *editor) Close() {
	e.events.Close()
}

func (e *editor) publish(t event.Type, err error) {
	working, _ := e.store.Working()

	if perr := e.events.Publish(event.Event{
		Type:    t,
		Working: working,
		Dirty:   e.store.IsDirty(),
		Saving:  e.coordinator.IsSaving(),
		Err:     err,
	}); perr != nil {
		e.logger.Debug().WithError(perr).WithField("event", string(t)).Log("Dropped event")
	}
}
