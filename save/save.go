// Package save sequences the persistence of the working copy: validate, transmit and,
// after the host acknowledged the document, promote the transmitted snapshot to the
// last confirmed copy. At most one save is in flight at any time.
package save

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sacnlogger/configsync/document"
	"github.com/sacnlogger/configsync/document/store"
	"github.com/sacnlogger/configsync/http/client"
	"github.com/sacnlogger/configsync/log"
)

// ErrSaveInProgress is returned by Save if another save has not finished yet.
var ErrSaveInProgress = errors.New("save in progress")

type State int32

const (
	Idle State = iota
	Saving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Saving:
		return "saving"
	}

	return "unknown"
}

type Coordinator interface {
	// Save transmits a snapshot of the working copy and commits it on success. It
	// returns ErrSaveInProgress if a save is already running, store.ErrNotLoaded if
	// there's nothing to save, or an error wrapping document.ErrInvalidDocument if the
	// snapshot must not be transmitted. Transport errors are returned unchanged.
	Save(ctx context.Context) error

	// State returns the current state.
	State() State

	// IsSaving returns whether a save is in flight.
	IsSaving() bool
}

type Config struct {
	Store  store.Store
	Client client.Client

	// OnTransmit is called with the snapshot right before it is handed to the
	// client. Optional.
	OnTransmit func(snapshot document.Document)

	Logger log.Logger
}

type coordinator struct {
	store      store.Store
	client     client.Client
	onTransmit func(snapshot document.Document)
	logger     log.Logger

	state atomic.Int32
}

func New(config Config) (Coordinator, error) {
	c := &coordinator{
		store:      config.Store,
		client:     config.Client,
		onTransmit: config.OnTransmit,
		logger:     config.Logger,
	}

	if c.store == nil {
		return nil, fmt.Errorf("no store provided")
	}

	if c.client == nil {
		return nil, fmt.Errorf("no client provided")
	}

	if c.logger == nil {
		c.logger = log.New("")
	}

	c.state.Store(int32(Idle))

	return c, nil
}

func (c *coordinator) Save(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(Idle), int32(Saving)) {
		c.logger.Debug().Log("Save rejected, another save is in flight")
		return ErrSaveInProgress
	}

	defer c.state.Store(int32(Idle))

	snapshot, ok := c.store.Working()
	if !ok {
		return store.ErrNotLoaded
	}

	if err := snapshot.Validate(); err != nil {
		c.logger.Warn().WithError(err).Log("Refusing to transmit document")
		return err
	}

	logger := c.logger.WithField("document", snapshot.String())

	if c.onTransmit != nil {
		c.onTransmit(snapshot.Clone())
	}

	start := time.Now()

	if err := c.client.SaveDocument(ctx, snapshot); err != nil {
		logger.Debug().WithError(err).Log("Transmission failed")
		return err
	}

	c.store.Commit(snapshot)

	logger.Debug().WithField("duration", time.Since(start)).Log("Snapshot committed")

	return nil
}

func (c *coordinator) State() State {
	return State(c.state.Load())
}

func (c *coordinator) IsSaving() bool {
	return c.State() == Saving
}
