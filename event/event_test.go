package event

import (
	"errors"
	"testing"
	"time"

	"github.com/sacnlogger/configsync/document"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	select {
	case e, ok := <-ch:
		require.True(t, ok)
		return e
	case <-time.After(time.Second):
		require.Fail(t, "no event received")
	}

	return Event{}
}

func TestPubSub(t *testing.T) {
	p := NewPubSub()
	defer p.Close()

	ch1, cancel1 := p.Subscribe()
	defer cancel1()

	ch2, cancel2 := p.Subscribe()
	defer cancel2()

	err := p.Publish(Event{
		Type:    TypeLoaded,
		Working: document.Document{Universes: []uint16{1, 2}},
	})
	require.NoError(t, err)

	e1 := receive(t, ch1)
	e2 := receive(t, ch2)

	require.Equal(t, TypeLoaded, e1.Type)
	require.False(t, e1.Time.IsZero())
	require.Equal(t, []uint16{1, 2}, e1.Working.Universes)

	e1.Working.Universes[0] = 42
	require.Equal(t, uint16(1), e2.Working.Universes[0])
}

func TestPublishCopies(t *testing.T) {
	p := NewPubSub()
	defer p.Close()

	ch, cancel := p.Subscribe()
	defer cancel()

	d := document.Document{Universes: []uint16{1}}

	require.NoError(t, p.Publish(Event{Type: TypeChanged, Working: d}))
	d.Universes[0] = 5

	e := receive(t, ch)
	require.Equal(t, []uint16{1}, e.Working.Universes)
}

func TestUnsubscribe(t *testing.T) {
	p := NewPubSub()
	defer p.Close()

	ch, cancel := p.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)

	require.NoError(t, p.Publish(Event{Type: TypeChanged}))
}

func TestClose(t *testing.T) {
	p := NewPubSub()

	ch, cancel := p.Subscribe()

	p.Close()
	p.Close()

	_, ok := <-ch
	require.False(t, ok)

	cancel()

	require.Error(t, p.Publish(Event{Type: TypeChanged}))

	ch, _ = p.Subscribe()
	_, ok = <-ch
	require.False(t, ok)
}

func TestString(t *testing.T) {
	e := Event{
		Type:    TypeChanged,
		Working: document.Document{Universes: []uint16{5}},
		Dirty:   true,
	}

	require.Equal(t, "changed: universes=[5] usePap=false dirty=true saving=false", e.String())

	e = Event{Type: TypeSaveFailed, Err: errors.New("timeout")}
	require.Equal(t, "save_failed: timeout", e.String())
}
