// Package wire converts a configuration document from and to the binary representation
// that the host uses on its RPC endpoint. The layout is the FlatBuffers table
// sacnlogger.message.Config.
package wire

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sacnlogger/configsync/document"
	"github.com/sacnlogger/configsync/message"

	flatbuffers "github.com/google/flatbuffers/go"
)

// ErrMalformedDocument is returned if a buffer can't be decoded into a document.
var ErrMalformedDocument = errors.New("malformed document")

const (
	slotUniverses = 0
	slotUsePap    = 1
)

// Encode serializes the document. The document is not validated.
func Encode(d document.Document) []byte {
	msg := &message.ConfigT{
		Universes: slices.Clone(d.Universes),
		UsePap:    d.UsePap,
	}

	// The host always receives the universes vector, even if it's empty.
	if msg.Universes == nil {
		msg.Universes = []uint16{}
	}

	builder := flatbuffers.NewBuilder(1024)
	message.FinishConfigBuffer(builder, msg.Pack(builder))

	return slices.Clone(builder.FinishedBytes())
}

// Decode parses a buffer into a document. The buffer is not retained. The returned
// error wraps ErrMalformedDocument.
func Decode(data []byte) (document.Document, error) {
	if err := verify(data); err != nil {
		return document.Document{}, fmt.Errorf("%w: %s", ErrMalformedDocument, err.Error())
	}

	msg := message.GetRootAsConfig(data, 0).UnPack()

	d := document.Document{
		Universes: msg.Universes,
		UsePap:    msg.UsePap,
	}

	return d, nil
}

// verify checks that every offset that will be followed while reading a Config
// table stays within the buffer. Unknown fields are not inspected.
func verify(buf []byte) error {
	size := len(buf)

	if size < flatbuffers.SizeUOffsetT {
		return fmt.Errorf("buffer too short (%d bytes)", size)
	}

	root := int(flatbuffers.GetUOffsetT(buf))
	if root < flatbuffers.SizeUOffsetT || root+flatbuffers.SizeSOffsetT > size {
		return fmt.Errorf("root table offset %d out of range", root)
	}

	vtable := root - int(flatbuffers.GetSOffsetT(buf[root:]))
	if vtable < 0 || vtable+2*flatbuffers.SizeVOffsetT > size {
		return fmt.Errorf("vtable offset %d out of range", vtable)
	}

	vtableSize := int(flatbuffers.GetVOffsetT(buf[vtable:]))
	if vtableSize < 2*flatbuffers.SizeVOffsetT || vtableSize%flatbuffers.SizeVOffsetT != 0 || vtable+vtableSize > size {
		return fmt.Errorf("invalid vtable size %d", vtableSize)
	}

	tableSize := int(flatbuffers.GetVOffsetT(buf[vtable+flatbuffers.SizeVOffsetT:]))
	if tableSize < flatbuffers.SizeSOffsetT || root+tableSize > size {
		return fmt.Errorf("invalid table size %d", tableSize)
	}

	field := func(slot int) int {
		o := (2 + slot) * flatbuffers.SizeVOffsetT
		if o >= vtableSize {
			return 0
		}

		return int(flatbuffers.GetVOffsetT(buf[vtable+o:]))
	}

	if o := field(slotUniverses); o != 0 {
		if o+flatbuffers.SizeUOffsetT > tableSize {
			return fmt.Errorf("universes field outside of table")
		}

		pos := root + o
		vector := pos + int(flatbuffers.GetUOffsetT(buf[pos:]))
		if vector+flatbuffers.SizeUOffsetT > size {
			return fmt.Errorf("universes vector offset %d out of range", vector)
		}

		length := int(flatbuffers.GetUOffsetT(buf[vector:]))
		if vector+flatbuffers.SizeUOffsetT+length*flatbuffers.SizeUint16 > size {
			return fmt.Errorf("universes vector with %d elements is truncated", length)
		}
	}

	if o := field(slotUsePap); o != 0 {
		if o+flatbuffers.SizeBool > tableSize {
			return fmt.Errorf("usePap field outside of table")
		}
	}

	return nil
}
