package slow5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	prev := CurrentLogLevel()
	t.Cleanup(func() { SetLogLevel(prev) })

	for _, l := range []LogLevel{LogOff, LogError, LogWarn, LogInfo, LogVerbose, LogDebug} {
		SetLogLevel(l)
		assert.Equal(t, l, CurrentLogLevel(), l.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	l, err := ParseLogLevel(" Verbose ")
	require.NoError(t, err)
	assert.Equal(t, LogVerbose, l)

	_, err = ParseLogLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Equal(t, "log-level(9)", LogLevel(9).String())
}
