package json

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnmarshalSyntaxError(t *testing.T) {
	data := []byte("{\n    \"universes\": [1, 2,]\n}")

	x := struct {
		Universes []uint16 `json:"universes"`
	}{}

	err := Unmarshal(data, &x)
	require.Error(t, err)
	require.Contains(t, err.Error(), "syntax error at line 2, character 24")
}

func TestUnmarshalTypeError(t *testing.T) {
	data := []byte("{\n    \"usePap\": 42\n}")

	x := struct {
		UsePap bool `json:"usePap"`
	}{}

	err := Unmarshal(data, &x)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expect type 'bool' for 'usePap' at line 2")
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(map[string]int{"a": 1})
	require.NoError(t, err)
	require.Equal(t, "{\n    \"a\": 1\n}", string(data))
}

func TestUnmarshalSyntaxErrorEndOfLine(t *testing.T) {
	data := []byte("{\n    \"usePap\": tru\n}")

	x := struct {
		UsePap bool `json:"usePap"`
	}{}

	err := Unmarshal(data, &x)
	require.Error(t, err)
	require.Contains(t, err.Error(), "syntax error at line 2, character 18")
}

func TestLineAndCharacter(t *testing.T) {
	input := []byte("ab\ncd\n")

	line, character, err := lineAndCharacter(input, 1)
	require.NoError(t, err)
	require.Equal(t, 1, line)
	require.Equal(t, 1, character)

	line, character, err = lineAndCharacter(input, 3)
	require.NoError(t, err)
	require.Equal(t, 1, line)
	require.Equal(t, 3, character)

	line, character, err = lineAndCharacter(input, 5)
	require.NoError(t, err)
	require.Equal(t, 2, line)
	require.Equal(t, 2, character)

	_, _, err = lineAndCharacter(input, 10)
	require.Error(t, err)
}
