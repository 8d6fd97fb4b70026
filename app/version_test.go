package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	v := versionInfo{Major: 1, Minor: 2, Patch: 3}

	require.Equal(t, "1.2.3", v.String())
	require.NotEmpty(t, Arch)
}
