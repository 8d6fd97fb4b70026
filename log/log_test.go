package log

import (
	"bufio"
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoglevelNames(t *testing.T) {
	assert.Equal(t, "DEBUG", Ldebug.String())
	assert.Equal(t, "ERROR", Lerror.String())
	assert.Equal(t, "WARN", Lwarn.String())
	assert.Equal(t, "INFO", Linfo.String())
	assert.Equal(t, `SILENT`, Lsilent.String())
}

func TestParseLevel(t *testing.T) {
	for _, level := range []Level{Lsilent, Lerror, Lwarn, Linfo, Ldebug} {
		l, err := ParseLevel(level.String())
		require.NoError(t, err)
		require.Equal(t, level, l)
	}

	_, err := ParseLevel("trace")
	require.Error(t, err)
}

func TestLogColorToNotTTY(t *testing.T) {
	var buffer bytes.Buffer
	writer := bufio.NewWriter(&buffer)

	w := NewConsoleWriter(writer, Linfo, true).(*streamWriter)
	formatter := w.formatter.(*consoleFormatter)

	assert.NotEqual(t, true, formatter.color, "Color should not be used on a buffer logger")
}

func TestLogClone(t *testing.T) {
	var buffer bytes.Buffer
	writer := bufio.NewWriter(&buffer)

	logger := New("test").WithOutput(NewConsoleWriter(writer, Linfo, false))

	logger.Info().Log("info")
	writer.Flush()

	assert.Contains(t, buffer.String(), `component="test"`)

	buffer.Reset()

	logger2 := logger.WithComponent("tset")

	logger2.Info().Log("info")
	writer.Flush()

	assert.Contains(t, buffer.String(), `component="tset"`)
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level   Level
		written []bool // debug, info, warn, error
	}{
		{Lsilent, []bool{false, false, false, false}},
		{Lerror, []bool{false, false, false, true}},
		{Lwarn, []bool{false, false, true, true}},
		{Linfo, []bool{false, true, true, true}},
		{Ldebug, []bool{true, true, true, true}},
	}

	for _, test := range tests {
		var buffer bytes.Buffer
		writer := bufio.NewWriter(&buffer)

		logger := New("test").WithOutput(NewConsoleWriter(writer, test.level, false))

		for i, l := range []Logger{logger.Debug(), logger.Info(), logger.Warn(), logger.Error()} {
			l.Log("message")
			writer.Flush()

			if test.written[i] {
				assert.NotEqual(t, 0, buffer.Len(), "%s: buffer should not be empty", test.level)
			} else {
				assert.Equal(t, 0, buffer.Len(), "%s: buffer should be empty", test.level)
			}

			buffer.Reset()
		}
	}
}

func TestLogFields(t *testing.T) {
	buffer := NewBufferWriter(Ldebug, 10)

	logger := New("test").WithOutput(buffer)

	logger.WithField("universe", 7).WithError(fmt.Errorf("failed")).Warn().Log("add %s", "universe")
	logger.Info().Log("plain")

	events := buffer.Events()
	require.Equal(t, 2, len(events))

	require.Equal(t, Lwarn, events[0].Level)
	require.Equal(t, "add universe", events[0].Message)
	require.Equal(t, 7, events[0].Data["universe"])
	require.EqualError(t, events[0].Data["error"].(error), "failed")

	require.Equal(t, Linfo, events[1].Level)
	require.Equal(t, 0, len(events[1].Data))
}

func TestLogWithoutOutput(t *testing.T) {
	logger := New("test")

	logger.Info().Log("discarded")
	logger.Close()
}

func TestLogWrite(t *testing.T) {
	buffer := NewBufferWriter(Ldebug, 10)

	logger := New("test").WithOutput(buffer)

	n, err := logger.Write([]byte("hello world\n"))
	require.NoError(t, err)
	require.Equal(t, 12, n)

	events := buffer.Events()
	require.Equal(t, 1, len(events))
	require.Equal(t, Ldebug, events[0].Level)
	require.Equal(t, "hello world", events[0].Message)
}
