package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Writer receives the events of a logger.
type Writer interface {
	Write(e *Event) error
	Close()
}

// enabled returns whether an event with the given level passes a writer that is set
// to the level limit.
func enabled(limit, level Level) bool {
	return level != Lsilent && level <= limit
}

type streamWriter struct {
	lock      sync.Mutex
	writer    io.Writer
	level     Level
	formatter Formatter
}

// NewStreamWriter returns a writer that formats each event with the given level or
// a more severe level and writes it to w. Writes are serialized.
func NewStreamWriter(w io.Writer, level Level, formatter Formatter) Writer {
	return &streamWriter{
		writer:    w,
		level:     level,
		formatter: formatter,
	}
}

// NewJSONWriter returns a writer that writes one JSON object per line.
func NewJSONWriter(w io.Writer, level Level) Writer {
	return NewStreamWriter(w, level, NewJSONFormatter())
}

// NewConsoleWriter returns a writer that writes human readable lines. Colors are only
// used if requested and w is a terminal.
func NewConsoleWriter(w io.Writer, level Level, useColor bool) Writer {
	return NewStreamWriter(w, level, NewConsoleFormatter(useColor && isTerminal(w)))
}

// NewWriter returns a console or a JSON writer, depending on format.
func NewWriter(w io.Writer, level Level, format string) (Writer, error) {
	switch format {
	case "", "console":
		return NewConsoleWriter(w, level, true), nil
	case "json":
		return NewJSONWriter(w, level), nil
	}

	return nil, fmt.Errorf("unknown log format '%s', expected 'console' or 'json'", format)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (w *streamWriter) Write(e *Event) error {
	if !enabled(w.level, e.Level) {
		return nil
	}

	data := w.formatter.Bytes(e)

	w.lock.Lock()
	defer w.lock.Unlock()

	_, err := w.writer.Write(data)

	return err
}

func (w *streamWriter) Close() {}

type multiWriter struct {
	writers []Writer
}

// NewMultiWriter returns a writer that passes each event to all given writers.
func NewMultiWriter(writers ...Writer) Writer {
	mw := &multiWriter{}

	for _, w := range writers {
		if w != nil {
			mw.writers = append(mw.writers, w)
		}
	}

	return mw
}

func (w *multiWriter) Write(e *Event) error {
	for _, writer := range w.writers {
		if err := writer.Write(e); err != nil {
			return err
		}
	}

	return nil
}

func (w *multiWriter) Close() {
	for _, writer := range w.writers {
		writer.Close()
	}
}

// BufferWriter keeps the most recent events in memory.
type BufferWriter interface {
	Writer

	// Events returns copies of the kept events, the oldest first.
	Events() []*Event
}

type bufferWriter struct {
	lock   sync.RWMutex
	level  Level
	events []*Event
	next   int
	full   bool
}

// NewBufferWriter returns a writer that keeps the last size events with the given
// level or a more severe level.
func NewBufferWriter(level Level, size int) BufferWriter {
	b := &bufferWriter{
		level: level,
	}

	if size > 0 {
		b.events = make([]*Event, size)
	}

	return b
}

func (w *bufferWriter) Write(e *Event) error {
	if !enabled(w.level, e.Level) {
		return nil
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	if len(w.events) == 0 {
		return nil
	}

	w.events[w.next] = e.clone()
	w.next++

	if w.next == len(w.events) {
		w.next = 0
		w.full = true
	}

	return nil
}

func (w *bufferWriter) Close() {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.events = nil
	w.next = 0
	w.full = false
}

func (w *bufferWriter) Events() []*Event {
	w.lock.RLock()
	defer w.lock.RUnlock()

	events := []*Event{}

	if w.full {
		for _, e := range w.events[w.next:] {
			events = append(events, e.clone())
		}
	}

	for _, e := range w.events[:w.next] {
		events = append(events, e.clone())
	}

	return events
}
