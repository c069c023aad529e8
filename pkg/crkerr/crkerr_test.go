package crkerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapAndClassOf(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(ClassSubprocess, base)
	require.Error(t, wrapped)

	class, ok := ClassOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, ClassSubprocess, class)
	assert.ErrorIs(t, wrapped, base)
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(ClassConfig, nil))
}

func TestFatalClassification(t *testing.T) {
	tests := []struct {
		class Class
		fatal bool
	}{
		{ClassConfig, true},
		{ClassSecurity, true},
		{ClassSubprocess, false},
		{ClassParse, false},
		{ClassFilesystem, false},
		{ClassTimeout, false},
		{ClassCancellation, false},
	}
	for _, tt := range tests {
		err := Wrap(tt.class, errors.New("x"))
		assert.Equal(t, tt.fatal, IsFatal(err), "class %s", tt.class)
		if tt.fatal {
			assert.ErrorIs(t, err, Fatal)
		} else {
			assert.ErrorIs(t, err, Recoverable)
		}
	}
}

func TestClassOfUnclassified(t *testing.T) {
	_, ok := ClassOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "security", ClassSecurity.String())
	assert.Equal(t, "unknown", Class(99).String())
}
