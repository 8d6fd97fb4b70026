package validator

import (
	"testing"

	"github.com/sacnlogger/configsync/document"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(document.Document{Universes: []uint16{1, 63999}}))

	err := v.Validate(document.Document{Universes: []uint16{64000}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Document.Universes[0] failed on 'max'")

	err = v.Validate(document.Document{Universes: []uint16{2, 2}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed on 'unique'")
}
