package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.TraceLevel, true},
		{"VERBOSE", zerolog.DebugLevel, true},
		{" info ", zerolog.InfoLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := ParseLevel(tc.raw)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestParseBool(t *testing.T) {
	v, ok := parseBool("true")
	assert.True(t, v)
	assert.True(t, ok)

	_, ok = parseBool("")
	assert.False(t, ok)

	_, ok = parseBool("maybe")
	assert.False(t, ok)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "1")
	t.Setenv(EnvLogTimestamp, "false")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	assert.Equal(t, zerolog.ErrorLevel, cfg.Level)
	assert.True(t, cfg.NoColor)
	assert.False(t, cfg.Timestamp)
}

func TestSetLevel(t *testing.T) {
	prev := Level()
	defer SetLevel(prev)

	SetLevel(zerolog.WarnLevel)
	assert.Equal(t, zerolog.WarnLevel, Level())

	l := Logger("test")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	l.Debug().Msg("suppressed")
}
