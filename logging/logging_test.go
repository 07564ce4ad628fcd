package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestOrNop(t *testing.T) {
	nop := OrNop(nil)
	require.NotNil(t, nop)
	assert.False(t, nop.Core().Enabled(zapcore.ErrorLevel))

	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}

func TestNewVerbose(t *testing.T) {
	l, err := New(true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New(false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
