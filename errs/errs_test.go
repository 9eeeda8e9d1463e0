package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestField_NestsNames(t *testing.T) {
	err := Field("Blocks", Field("Palette", ErrWrongFieldType))

	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, "Blocks.Palette", derr.Field)
	require.ErrorIs(t, err, ErrWrongFieldType)
	require.Equal(t, "invalid schematic: Blocks.Palette: wrong field type", err.Error())
}

func TestField_Nil(t *testing.T) {
	require.NoError(t, Field("Width", nil))
	require.NoError(t, WithPath("a.schem", nil))
}

func TestWithPath(t *testing.T) {
	err := WithPath("/tmp/a.schem", Field("Width", ErrMissingField))

	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, "/tmp/a.schem", derr.Path)
	require.Equal(t, "Width", derr.Field)
	require.ErrorIs(t, err, ErrMissingField)
	require.Contains(t, err.Error(), "/tmp/a.schem")

	wrapped := WithPath("b.schem", fmt.Errorf("open: %w", ErrIO))
	require.ErrorIs(t, wrapped, ErrIO)
	require.True(t, errors.As(wrapped, &derr))
	require.Empty(t, derr.Field)
}
