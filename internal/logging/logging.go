// Package logging configures the process-wide structured logger.
package logging

import (
    "io"
    "log/slog"
    "os"
    "strings"
    "sync"
)

type Config struct {
    Level  string
    Format string
    Output io.Writer
}

var (
    mu     sync.RWMutex
    logger *slog.Logger
)

// Init replaces the process logger. It may be called again, e.g. by tests
// that want to capture output.
func Init(cfg Config) *slog.Logger {
    out := cfg.Output
    if out == nil { out = os.Stdout }
    opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
    var h slog.Handler
    if strings.EqualFold(cfg.Format, "json") {
        h = slog.NewJSONHandler(out, opts)
    } else {
        h = slog.NewTextHandler(out, opts)
    }
    l := slog.New(h)
    mu.Lock()
    logger = l
    mu.Unlock()
    return l
}

func parseLevel(level string) slog.Level {
    switch strings.ToLower(strings.TrimSpace(level)) {
    case "debug":
        return slog.LevelDebug
    case "warn", "warning":
        return slog.LevelWarn
    case "error":
        return slog.LevelError
    default:
        return slog.LevelInfo
    }
}

// L returns the process logger, initialising a text logger on first use.
func L() *slog.Logger {
    mu.RLock()
    l := logger
    mu.RUnlock()
    if l == nil { return Init(Config{}) }
    return l
}

// Named returns a child logger tagged with a component name.
func Named(name string) *slog.Logger {
    return L().With("component", name)
}

// Discard is a logger that drops everything; handy for tests.
func Discard() *slog.Logger {
    return slog.New(slog.NewTextHandler(io.Discard, nil))
}
