// Package sysutil holds small process-level helpers shared by the server
// entrypoint and the services: log setup, env string helpers and the clock
// abstraction used for quota day boundaries and cache expiry.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AppName is attached to every log line.
const AppName = "trip-planner"

// logOutput is where SetupLogger writes; tests replace it.
var logOutput io.Writer = os.Stderr

// ParseLogLevel maps a configured level name onto zerolog. Unknown and empty
// names read as info; "warning" is accepted for warn.
func ParseLogLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" || lvl == zerolog.NoLevel || lvl == zerolog.TraceLevel || lvl == zerolog.Disabled {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetLogLevel sets the global zerolog level from a level name.
func SetLogLevel(name string) {
	zerolog.SetGlobalLevel(ParseLogLevel(name))
}

// SetupLogger replaces the global zerolog logger and returns it. Pretty
// output uses the console writer; otherwise JSON lines go to stderr.
func SetupLogger(lvl string, pretty bool) zerolog.Logger {
	SetLogLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	w := logOutput
	if pretty {
		w = zerolog.ConsoleWriter{Out: logOutput, TimeFormat: time.Kitchen}
	}
	l := zerolog.New(w).With().Timestamp().Str("app", AppName).Logger()
	log.Logger = l
	return l
}

// IsTruthy reports whether an environment value means "on":
// 1, true, yes, y or on, in any case.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// FirstNonEmpty returns the first value that is not blank, unmodified.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
