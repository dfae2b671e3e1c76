// Package logging hands out scoped leveled loggers that share one factory.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pion/logging"
)

var (
	mu            sync.Mutex
	loggerFactory = logging.NewDefaultLoggerFactory()
)

// NewLogger returns a logger for scope. Loggers created before Configure keep
// the settings they were created with.
func NewLogger(scope string) logging.LeveledLogger {
	mu.Lock()
	defer mu.Unlock()
	return loggerFactory.NewLogger(scope)
}

// Configure replaces the shared factory. An empty level keeps the PION_LOG_*
// environment defaults, a nil w keeps stdout.
func Configure(level string, w io.Writer) error {
	f := logging.NewDefaultLoggerFactory()
	if level != "" {
		l, err := ParseLevel(level)
		if err != nil {
			return err
		}
		f.DefaultLogLevel = l
	}
	if w != nil {
		f.Writer = w
	}

	mu.Lock()
	loggerFactory = f
	mu.Unlock()
	return nil
}

// ParseLevel converts a level name such as "debug" to a pion log level.
func ParseLevel(level string) (logging.LogLevel, error) {
	switch strings.ToLower(level) {
	case "disabled", "off":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "info":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	}
	return logging.LogLevelDisabled, fmt.Errorf("unknown log level %q", level)
}
