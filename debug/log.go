package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	console io.Writer = os.Stderr
	file    *os.File
	verbose bool
	logger  = build()
)

func build() zerolog.Logger {
	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05.000"},
	}
	if file != nil {
		writers = append(writers, file)
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func current() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// SetConsole redirects the human-readable output. Pass io.Discard to silence it,
// e.g. while a full-screen UI owns the terminal.
func SetConsole(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	console = w
	logger = build()
}

// SetVerbose toggles debug level output
func SetVerbose(on bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = on
	logger = build()
}

// DefaultPath is ~/.config/midi-lamps/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "midi-lamps", "debug.log")
}

// Enable additionally writes JSON log lines to path (truncated on open)
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	file = f
	logger = build()
	logger.Info().Str("cat", "debug").Time("started", time.Now()).Msg("=== Debug logging started ===")
	return nil
}

// Disable stops file logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	logger = build()
}

// Log writes an informational line under a category
func Log(category, format string, args ...any) {
	l := current()
	l.Info().Str("cat", category).Msgf(format, args...)
}

// Debug writes a line only shown in verbose mode
func Debug(category, format string, args ...any) {
	l := current()
	l.Debug().Str("cat", category).Msgf(format, args...)
}

// Warn reports a recoverable problem
func Warn(category, format string, args ...any) {
	l := current()
	l.Warn().Str("cat", category).Msgf(format, args...)
}

// Error reports a failure that aborted an operation
func Error(category string, err error, format string, args ...any) {
	l := current()
	l.Error().Str("cat", category).Err(err).Msgf(format, args...)
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
