package wire

import (
	"testing"

	"github.com/sacnlogger/configsync/document"

	"github.com/stretchr/testify/require"
)

// hostBuffer is a Config table as the host lays it out: vtable first, then the
// table, then the universes vector.
var hostBuffer = []byte{
	0x0c, 0x00, 0x00, 0x00, // root table at 12
	0x08, 0x00, 0x0c, 0x00, 0x04, 0x00, 0x08, 0x00, // vtable
	0x08, 0x00, 0x00, 0x00, // soffset to vtable
	0x08, 0x00, 0x00, 0x00, // universes
	0x01, 0x00, 0x00, 0x00, // usePap + padding
	0x03, 0x00, 0x00, 0x00, // vector length
	0x05, 0x00, 0x07, 0x00, 0x0a, 0x00,
}

// extendedBuffer carries a third field that is unknown to this schema version.
var extendedBuffer = []byte{
	0x10, 0x00, 0x00, 0x00,
	0x0a, 0x00, 0x10, 0x00, 0x04, 0x00, 0x08, 0x00, 0x0c, 0x00, 0x00, 0x00,
	0x0c, 0x00, 0x00, 0x00,
	0x0c, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x2a, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x02, 0x00,
}

func TestDecodeHostBuffer(t *testing.T) {
	d, err := Decode(hostBuffer)
	require.NoError(t, err)
	require.Equal(t, []uint16{5, 7, 10}, d.Universes)
	require.True(t, d.UsePap)
}

func TestDecodeUnknownFields(t *testing.T) {
	d, err := Decode(extendedBuffer)
	require.NoError(t, err)
	require.Equal(t, []uint16{1, 2}, d.Universes)
	require.False(t, d.UsePap)
}

func TestRoundTrip(t *testing.T) {
	docs := []document.Document{
		{},
		{Universes: []uint16{}},
		{Universes: []uint16{1, 5, 10}},
		{Universes: []uint16{5, 7, 10}, UsePap: true},
		{Universes: []uint16{1, 63999}, UsePap: true},
	}

	for _, d := range docs {
		data := Encode(d)

		x, err := Decode(data)
		require.NoError(t, err)
		require.True(t, d.Equal(x), "%s != %s", d, x)
	}
}

func TestReencodeHostBuffer(t *testing.T) {
	d, err := Decode(hostBuffer)
	require.NoError(t, err)

	x, err := Decode(Encode(d))
	require.NoError(t, err)
	require.Equal(t, d, x)
}

func TestEncodeDoesNotAlias(t *testing.T) {
	d := document.Document{Universes: []uint16{1, 2, 3}}
	data := Encode(d)

	d.Universes[0] = 42

	x, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, []uint16{1, 2, 3}, x.Universes)
}

func TestDecodeDoesNotAlias(t *testing.T) {
	data := append([]byte{}, hostBuffer...)

	d, err := Decode(data)
	require.NoError(t, err)

	data[28] = 0x63

	require.Equal(t, uint16(5), d.Universes[0])
}

func TestDecodeMalformed(t *testing.T) {
	valid := Encode(document.Document{Universes: []uint16{1, 5, 10}})

	buffers := map[string][]byte{
		"nil":               nil,
		"short":             {0x01, 0x02},
		"root out of range": {0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		"truncated vector":  valid[:len(valid)-4],
		"truncated table":   hostBuffer[:20],
		"vtable out of range": {
			0x04, 0x00, 0x00, 0x00,
			0xf0, 0xff, 0xff, 0xff,
		},
	}

	for name, data := range buffers {
		_, err := Decode(data)
		require.ErrorIs(t, err, ErrMalformedDocument, name)
	}
}
