// Package logger is the process-wide leveled logger for the CLI and server.
// Warnings and errors always print; info and debug lines appear in verbose
// mode (--verbose or LOG_LEVEL=debug) so an ingestion run can be followed
// source by source.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders message severity. Messages above the current level are dropped.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelTags = [...]string{"[ERROR]", "[WARN]", "[INFO]", "[DEBUG]"}

var (
	mu         sync.Mutex
	level                = LevelWarn
	output     io.Writer = os.Stderr
	timestamps bool
	now        = time.Now
)

// SetLevel sets the most verbose level that is printed.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = max(LevelError, min(l, LevelDebug))
}

// SetVerbose switches between debug output and the default warn level.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelWarn)
	}
}

func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return level >= LevelInfo
}

// SetOutput redirects all log lines; tests use it to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetTimestamps prefixes each line with an RFC 3339 UTC time. The server
// turns this on since its logs outlive a terminal session.
func SetTimestamps(on bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = on
}

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l > level {
		return
	}
	var b strings.Builder
	if timestamps {
		b.WriteString(now().UTC().Format(time.RFC3339))
		b.WriteByte(' ')
	}
	b.WriteString(levelTags[l])
	b.WriteByte(' ')
	fmt.Fprintf(&b, format, args...)
	b.WriteByte('\n')
	_, _ = io.WriteString(output, b.String())
}

func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }
func Info(format string, args ...any)  { logf(LevelInfo, format, args...) }
func Warn(format string, args ...any)  { logf(LevelWarn, format, args...) }
func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Section prints a blank line and a banner in verbose mode, marking a phase
// of an ingestion run.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if level >= LevelInfo {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// ParseLevel accepts debug, info, warn (or warning) and error.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelWarn, false
}

// ConfigureFromEnv applies LOG_LEVEL when it names a known level.
func ConfigureFromEnv() {
	if l, ok := ParseLevel(os.Getenv("LOG_LEVEL")); ok {
		SetLevel(l)
	}
}
