package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	l, err := New("")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))

	l, err = New("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	_, err = New("loud")
	assert.Error(t, err)
}

func TestMustPanicsOnError(t *testing.T) {
	assert.Panics(t, func() { Must(New("loud")) })
}

func TestNamedNilBase(t *testing.T) {
	assert.NotNil(t, Named(nil, "svc"))
}
