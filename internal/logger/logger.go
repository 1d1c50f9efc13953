// Package logger prints tagged, human-oriented console output on top of zerolog.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	out     io.Writer // nil means os.Stdout at call time
	level   = zerolog.InfoLevel
	noColor bool
)

// SetOutput redirects all output. Nil restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetNoColor disables ANSI colours.
func SetNoColor(v bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = v
}

// SetLevel sets the minimum level ("debug", "info", "warn", "error").
func SetLevel(s string) error {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if l == zerolog.NoLevel {
		l = zerolog.InfoLevel
	}
	mu.Lock()
	defer mu.Unlock()
	level = l
	return nil
}

func writer() io.Writer {
	if out != nil {
		return out
	}
	return os.Stdout
}

func get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	cw := zerolog.ConsoleWriter{Out: writer(), TimeFormat: "15:04:05", NoColor: noColor}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

// Debug logs a diagnostic message.
func Debug(tag, msg string) {
	l := get()
	l.Debug().Str("tag", tag).Msg(msg)
}

// Info logs an informational message.
func Info(tag, msg string) {
	l := get()
	l.Info().Str("tag", tag).Msg(msg)
}

// Success logs a completed step.
func Success(tag, msg string) {
	l := get()
	l.Info().Str("tag", tag).Bool("ok", true).Msg(msg)
}

// Warn logs a recoverable problem.
func Warn(tag, msg string) {
	l := get()
	l.Warn().Str("tag", tag).Msg(msg)
}

// Error logs a failure.
func Error(tag, msg string) {
	l := get()
	l.Error().Str("tag", tag).Msg(msg)
}

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	mu.Lock()
	w := writer()
	mu.Unlock()
	fmt.Fprintf(w, "\n  albion-flipper %s\n  market flips and crafting plans for Albion Online\n\n", version)
}

// Section prints a section header.
func Section(title string) {
	mu.Lock()
	w := writer()
	mu.Unlock()
	fmt.Fprintf(w, "\n== %s %s\n", title, strings.Repeat("=", max(0, 60-len(title))))
}

// Stats logs a single key/value statistic.
func Stats(key string, value interface{}) {
	l := get()
	l.Info().Str("stat", key).Interface("value", value).Msg("")
}
