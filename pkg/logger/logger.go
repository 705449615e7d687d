// Package logger builds the zerolog loggers used across the service.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to stdout at the given level.
// Development gets a human readable console writer, every other environment
// gets one JSON object per line.
func New(environment, level string) *zerolog.Logger {
	return NewWithWriter(os.Stdout, environment, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, environment, level string) *zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = w
	if environment == "development" {
		console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		console.FormatLevel = func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		}
		out = console
	}

	log := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return &log
}

// Named returns a child logger tagged with a component name.
func Named(log *zerolog.Logger, name string) *zerolog.Logger {
	l := log.With().Str("name", name).Logger()
	return &l
}

// Nop returns a logger that discards everything.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
