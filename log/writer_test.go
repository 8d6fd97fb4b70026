package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testEvent() *Event {
	return &Event{
		logger:    &logger{},
		Time:      time.Date(2009, time.November, 10, 23, 0, 0, 0, time.UTC),
		Level:     Linfo,
		Component: "test",
		Caller:    "me",
		Message:   "hello world",
		Data:      map[string]interface{}{"foo": "bar"},
	}
}

func TestJSONWriter(t *testing.T) {
	buffer := bytes.Buffer{}

	writer := NewJSONWriter(&buffer, Linfo)
	writer.Write(testEvent())

	require.Equal(t, `{"caller":"me","component":"test","foo":"bar","level":"INFO","message":"hello world","ts":"2009-11-10T23:00:00Z"}`+"\n", buffer.String())
}

func TestConsoleWriter(t *testing.T) {
	buffer := bytes.Buffer{}

	writer := NewConsoleWriter(&buffer, Linfo, false)
	writer.Write(testEvent())

	require.Equal(t, `ts=2009-11-10T23:00:00Z level=INFO component="test" msg="hello world" foo="bar"`+"\n", buffer.String())
}

func TestMultiWriter(t *testing.T) {
	bufwriter1 := NewBufferWriter(Linfo, 10)
	bufwriter2 := NewBufferWriter(Linfo, 10)

	writer := NewMultiWriter(bufwriter1, bufwriter2)

	writer.Write(testEvent())

	require.Equal(t, 1, len(bufwriter1.Events()))
	require.Equal(t, 1, len(bufwriter2.Events()))
}

func TestBufferWriter(t *testing.T) {
	bufwriter := NewBufferWriter(Linfo, 2)

	e := testEvent()
	bufwriter.Write(e)

	e.Level = Ldebug
	bufwriter.Write(e)

	require.Equal(t, 1, len(bufwriter.Events()))

	e.Level = Lerror
	e.Message = "second"
	bufwriter.Write(e)

	e.Message = "third"
	bufwriter.Write(e)

	events := bufwriter.Events()
	require.Equal(t, 2, len(events))
	require.Equal(t, "second", events[0].Message)
	require.Equal(t, "third", events[1].Message)

	bufwriter.Close()

	require.Equal(t, 0, len(bufwriter.Events()))
}

func TestNewWriter(t *testing.T) {
	buffer := bytes.Buffer{}

	writer, err := NewWriter(&buffer, Linfo, "json")
	require.NoError(t, err)

	writer.Write(testEvent())
	require.Contains(t, buffer.String(), `"message":"hello world"`)

	buffer.Reset()

	writer, err = NewWriter(&buffer, Linfo, "console")
	require.NoError(t, err)

	writer.Write(testEvent())
	require.Contains(t, buffer.String(), `msg="hello world"`)

	_, err = NewWriter(&buffer, Linfo, "xml")
	require.Error(t, err)
}

func TestMultiWriterLevels(t *testing.T) {
	errors := NewBufferWriter(Lerror, 10)
	all := NewBufferWriter(Ldebug, 10)

	logger := New("test").WithOutput(NewMultiWriter(errors, nil, all))

	logger.Debug().Log("debug")
	logger.Error().Log("error")

	require.Equal(t, 1, len(errors.Events()))
	require.Equal(t, 2, len(all.Events()))
	require.Equal(t, "debug", all.Events()[0].Message)
}

func TestBufferWriterDisabled(t *testing.T) {
	bufwriter := NewBufferWriter(Linfo, 0)

	require.NoError(t, bufwriter.Write(testEvent()))
	require.Equal(t, 0, len(bufwriter.Events()))
}
