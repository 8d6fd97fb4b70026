package save

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sacnlogger/configsync/document"
	"github.com/sacnlogger/configsync/document/store"
	"github.com/sacnlogger/configsync/host"
	"github.com/sacnlogger/configsync/http/client"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	lock  sync.Mutex
	saved []document.Document

	started chan struct{}
	release chan struct{}
	err     error
}

func (c *fakeClient) Address() string {
	return "http://localhost"
}

func (c *fakeClient) FetchDocument(ctx context.Context) (document.Document, error) {
	return document.Document{}, nil
}

func (c *fakeClient) SaveDocument(ctx context.Context, d document.Document) error {
	c.lock.Lock()
	c.saved = append(c.saved, d.Clone())
	c.lock.Unlock()

	if c.started != nil {
		c.started <- struct{}{}
	}

	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return c.err
}

func (c *fakeClient) Saved() []document.Document {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([]document.Document(nil), c.saved...)
}

// invalidStore hands out a working copy that violates the document invariants.
type invalidStore struct {
	store.Store
}

func (s *invalidStore) Working() (document.Document, bool) {
	return document.Document{Universes: []uint16{0, 0}}, true
}

func newCoordinator(t *testing.T, s store.Store, c client.Client) Coordinator {
	coordinator, err := New(Config{
		Store:  s,
		Client: c,
	})
	require.NoError(t, err)

	return coordinator
}

func TestNew(t *testing.T) {
	_, err := New(Config{Client: &fakeClient{}})
	require.Error(t, err)

	_, err = New(Config{Store: store.New()})
	require.Error(t, err)
}

func TestSave(t *testing.T) {
	s := store.New()
	s.Load(document.Document{Universes: []uint16{1, 5, 10}})

	require.NoError(t, s.AddUniverse(5))
	require.NoError(t, s.AddUniverse(7))
	require.NoError(t, s.RemoveUniverse(1))

	c := &fakeClient{}

	transmitted := []document.Document{}

	coordinator, err := New(Config{
		Store:  s,
		Client: c,
		OnTransmit: func(snapshot document.Document) {
			transmitted = append(transmitted, snapshot)
		},
	})
	require.NoError(t, err)

	require.Equal(t, Idle, coordinator.State())

	err = coordinator.Save(context.Background())
	require.NoError(t, err)

	require.Equal(t, []document.Document{{Universes: []uint16{5, 7, 10}}}, transmitted)

	require.Equal(t, []document.Document{{Universes: []uint16{5, 7, 10}, UsePap: false}}, c.Saved())

	confirmed, ok := s.LastConfirmed()
	require.True(t, ok)
	require.Equal(t, document.Document{Universes: []uint16{5, 7, 10}}, confirmed)
	require.False(t, s.IsDirty())
	require.Equal(t, Idle, coordinator.State())
}

func TestSaveNotLoaded(t *testing.T) {
	c := &fakeClient{}
	coordinator := newCoordinator(t, store.New(), c)

	err := coordinator.Save(context.Background())
	require.ErrorIs(t, err, store.ErrNotLoaded)
	require.Empty(t, c.Saved())
	require.False(t, coordinator.IsSaving())
}

func TestSaveInvalidDocument(t *testing.T) {
	s := &invalidStore{Store: store.New()}
	s.Load(document.Document{Universes: []uint16{1}})

	c := &fakeClient{}
	coordinator := newCoordinator(t, s, c)

	err := coordinator.Save(context.Background())
	require.ErrorIs(t, err, document.ErrInvalidDocument)
	require.Empty(t, c.Saved())

	confirmed, _ := s.LastConfirmed()
	require.Equal(t, []uint16{1}, confirmed.Universes)
	require.Equal(t, Idle, coordinator.State())
}

func TestSaveFailure(t *testing.T) {
	s := store.New()
	s.Load(document.Document{Universes: []uint16{1}})
	require.NoError(t, s.AddUniverse(2))

	c := &fakeClient{err: &client.TransportError{Op: "save", Code: 500, Err: errors.New("boom")}}
	coordinator := newCoordinator(t, s, c)

	err := coordinator.Save(context.Background())
	require.ErrorIs(t, err, client.ErrTransport)

	confirmed, _ := s.LastConfirmed()
	require.Equal(t, []uint16{1}, confirmed.Universes)

	working, _ := s.Working()
	require.Equal(t, []uint16{1, 2}, working.Universes)
	require.True(t, s.IsDirty())
	require.Equal(t, Idle, coordinator.State())

	c.err = nil

	require.NoError(t, coordinator.Save(context.Background()))
	require.False(t, s.IsDirty())
	require.Len(t, c.Saved(), 2)
}

func TestSaveInProgress(t *testing.T) {
	s := store.New()
	s.Load(document.Document{Universes: []uint16{1}})

	c := &fakeClient{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	coordinator := newCoordinator(t, s, c)

	done := make(chan error, 1)
	go func() {
		done <- coordinator.Save(context.Background())
	}()

	<-c.started

	require.True(t, coordinator.IsSaving())

	// Edits during the save are not part of the transmitted snapshot.
	require.NoError(t, s.AddUniverse(2))

	for i := 0; i < 10; i++ {
		require.ErrorIs(t, coordinator.Save(context.Background()), ErrSaveInProgress)
	}

	close(c.release)

	require.NoError(t, <-done)
	require.False(t, coordinator.IsSaving())

	require.Equal(t, []document.Document{{Universes: []uint16{1}}}, c.Saved())

	confirmed, _ := s.LastConfirmed()
	require.Equal(t, []uint16{1}, confirmed.Universes)

	working, _ := s.Working()
	require.Equal(t, []uint16{1, 2}, working.Universes)
	require.True(t, s.IsDirty())
}

func TestSaveConcurrent(t *testing.T) {
	s := store.New()
	s.Load(document.Document{Universes: []uint16{3}})

	c := &fakeClient{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	coordinator := newCoordinator(t, s, c)

	first := make(chan error, 1)
	go func() {
		first <- coordinator.Save(context.Background())
	}()

	<-c.started

	wg := sync.WaitGroup{}
	rejected := make(chan error, 32)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rejected <- coordinator.Save(context.Background())
		}()
	}

	wg.Wait()
	close(rejected)

	for err := range rejected {
		require.ErrorIs(t, err, ErrSaveInProgress)
	}

	close(c.release)

	require.NoError(t, <-first)
	require.Len(t, c.Saved(), 1)
}

func TestSaveCanceled(t *testing.T) {
	s := store.New()
	s.Load(document.Document{Universes: []uint16{1}})
	require.NoError(t, s.SetPriorityFlag(true))

	c := &fakeClient{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	coordinator := newCoordinator(t, s, c)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- coordinator.Save(ctx)
	}()

	<-c.started
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	require.Equal(t, Idle, coordinator.State())
	require.True(t, s.IsDirty())
}

func TestSaveHost(t *testing.T) {
	storage := host.NewMemoryStorage(document.Document{Universes: []uint16{1, 5, 10}})

	h, err := host.New(host.Config{Storage: storage})
	require.NoError(t, err)

	server := httptest.NewServer(h)
	defer server.Close()

	c, err := client.New(client.Config{Address: server.URL})
	require.NoError(t, err)

	fetched, err := c.FetchDocument(context.Background())
	require.NoError(t, err)

	s := store.New()
	s.Load(fetched)

	require.NoError(t, s.AddUniverse(7))
	require.NoError(t, s.RemoveUniverse(1))
	require.NoError(t, s.SetPriorityFlag(true))

	coordinator := newCoordinator(t, s, c)
	require.NoError(t, coordinator.Save(context.Background()))

	stored, err := storage.Load()
	require.NoError(t, err)
	require.Equal(t, document.Document{Universes: []uint16{5, 7, 10}, UsePap: true}, stored)

	confirmed, _ := s.LastConfirmed()
	require.Equal(t, stored, confirmed)
}
