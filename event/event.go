// Package event distributes editor state changes to any number of subscribers.
package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sacnlogger/configsync/document"

	"github.com/lithammer/shortuuid/v4"
)

type Type string

const (
	TypeLoaded      Type = "loaded"
	TypeChanged     Type = "changed"
	TypeReverted    Type = "reverted"
	TypeSaving      Type = "saving"
	TypeSaved       Type = "saved"
	TypeSaveFailed  Type = "save_failed"
	TypeFetchFailed Type = "fetch_failed"
)

// Event describes a state change of the editor.
type Event struct {
	Time time.Time
	Type Type

	// Working is the working copy after the change. It's the zero document if
	// nothing has been loaded.
	Working document.Document

	Dirty  bool
	Saving bool

	// Err is the cause of a failed fetch or save.
	Err error
}

func (e Event) Clone() Event {
	c := e
	c.Working = e.Working.Clone()

	return c
}

func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Type, e.Err.Error())
	}

	return fmt.Sprintf("%s: %s dirty=%t saving=%t", e.Type, e.Working.String(), e.Dirty, e.Saving)
}

type CancelFunc func()

type EventSource interface {
	Events() (<-chan Event, CancelFunc)
}

type PubSub struct {
	publisher       chan Event
	publisherClosed bool
	publisherLock   sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	subscriber     map[string]chan Event
	subscriberLock sync.Mutex
}

func NewPubSub() *PubSub {
	w := &PubSub{
		publisher:       make(chan Event, 1024),
		publisherClosed: false,
		subscriber:      make(map[string]chan Event),
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())

	go w.broadcast()

	return w
}

// Publish queues an event for all subscribers. It never blocks.
func (w *PubSub) Publish(e Event) error {
	event := e.Clone()

	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	w.publisherLock.Lock()
	defer w.publisherLock.Unlock()

	if w.publisherClosed {
		return fmt.Errorf("publisher is closed")
	}

	select {
	case w.publisher <- event:
	default:
		return fmt.Errorf("publisher queue full")
	}

	return nil
}

func (w *PubSub) Close() {
	w.cancel()

	w.publisherLock.Lock()
	if !w.publisherClosed {
		close(w.publisher)
		w.publisherClosed = true
	}
	w.publisherLock.Unlock()

	w.subscriberLock.Lock()
	for _, c := range w.subscriber {
		close(c)
	}
	w.subscriber = nil
	w.subscriberLock.Unlock()
}

// Subscribe returns a channel with all events published from now on. Slow subscribers
// miss events. The channel is closed after calling the CancelFunc or after the
// PubSub has been closed.
func (w *PubSub) Subscribe() (<-chan Event, CancelFunc) {
	l := make(chan Event, 1024)

	var id string = ""

	w.subscriberLock.Lock()
	if w.subscriber == nil {
		w.subscriberLock.Unlock()
		close(l)
		return l, func() {}
	}

	for {
		id = shortuuid.New()
		if _, ok := w.subscriber[id]; !ok {
			w.subscriber[id] = l
			break
		}
	}
	w.subscriberLock.Unlock()

	unsubscribe := func() {
		w.subscriberLock.Lock()
		if c, ok := w.subscriber[id]; ok {
			delete(w.subscriber, id)
			close(c)
		}
		w.subscriberLock.Unlock()
	}

	return l, unsubscribe
}

func (w *PubSub) broadcast() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case e, ok := <-w.publisher:
			if !ok {
				return
			}

			w.subscriberLock.Lock()
			for _, c := range w.subscriber {
				select {
				case c <- e.Clone():
				default:
				}
			}
			w.subscriberLock.Unlock()
		}
	}
}
