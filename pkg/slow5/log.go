package slow5

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ssargent/slow5/internal/logging"
)

// LogLevel is the process-wide verbosity of the library and its engine
type LogLevel int

const (
	LogOff LogLevel = iota
	LogError
	LogWarn
	LogInfo
	LogVerbose
	LogDebug
)

var logLevelNames = []string{"off", "error", "warn", "info", "verbose", "debug"}

func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(logLevelNames) {
		return logLevelNames[l]
	}
	return fmt.Sprintf("log-level(%d)", int(l))
}

// ParseLogLevel maps a level name to a LogLevel
func ParseLogLevel(name string) (LogLevel, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range logLevelNames {
		if n == name {
			return LogLevel(i), nil
		}
	}
	return LogInfo, wrapf(ErrInvalidOption, "unknown log level %q", name)
}

// SetLogLevel changes the verbosity for the whole process. It may be called
// at any time and does not affect any open Reader or Writer otherwise.
func SetLogLevel(l LogLevel) {
	logging.SetLevel(l.zerolog())
}

// CurrentLogLevel returns the process-wide verbosity
func CurrentLogLevel() LogLevel {
	switch logging.Level() {
	case zerolog.Disabled:
		return LogOff
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return LogError
	case zerolog.WarnLevel:
		return LogWarn
	case zerolog.DebugLevel:
		return LogVerbose
	case zerolog.TraceLevel:
		return LogDebug
	default:
		return LogInfo
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogOff:
		return zerolog.Disabled
	case LogError:
		return zerolog.ErrorLevel
	case LogWarn:
		return zerolog.WarnLevel
	case LogVerbose:
		return zerolog.DebugLevel
	case LogDebug:
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}
