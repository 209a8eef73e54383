// Package logging sets up the slog default logger. Output can be held
// back in a buffer until the TUI log pane exists, and is optionally
// copied to a file.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	c "lautenbacher.net/buttonleds/config"
)

// teeWriter buffers or forwards log output, and copies it to a file if
// one is configured.
type teeWriter struct {
	mu          sync.Mutex
	buffer      bytes.Buffer
	target      io.Writer
	file        *os.File
	isBuffering bool
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	if w.isBuffering {
		w.buffer.Write(p)
	} else if w.target != nil {
		if _, err := w.target.Write(p); err != nil {
			firstErr = err
		}
	}
	if w.file != nil {
		if _, err := w.file.Write(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return len(p), firstErr
}

var (
	writer = &teeWriter{target: os.Stderr}
	level  = new(slog.LevelVar)
)

// ParseLevel maps DEBUG, INFO, WARN and ERROR (any case) to their
// slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Init installs the default logger. With bufferOutput everything is
// kept until SetOutput, otherwise it goes to stderr. An unknown level
// falls back to INFO.
func Init(cfg c.LogConfig, bufferOutput bool) error {
	w := &teeWriter{isBuffering: bufferOutput}
	if !bufferOutput {
		w.target = os.Stderr
	}
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("can't open log file %s: %w", cfg.File, err)
		}
		w.file = file
	}
	writer = w

	lvl, lvlErr := ParseLevel(cfg.Level)
	level.Set(lvl)

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))

	if lvlErr != nil {
		slog.Warn("Using log level INFO", "error", lvlErr)
	}
	return nil
}

// SetLevel changes the level of the running logger.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	if level.Level() != lvl {
		level.Set(lvl)
		slog.Info("Log level changed", "level", lvl)
	}
	return nil
}

// SetOutput flushes the buffer to target and logs there from now on.
func SetOutput(target io.Writer) error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.buffer.Len() > 0 {
		if _, err := target.Write(writer.buffer.Bytes()); err != nil {
			return err
		}
		writer.buffer.Reset()
	}
	writer.target = target
	writer.isBuffering = false
	return nil
}

// BufferOutput stops live logging and starts buffering.
func BufferOutput() {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	writer.target = nil
	writer.isBuffering = true
}

// Close writes what is still buffered to the log file, or to stderr if
// there is neither a file nor a target, and closes the file.
func Close() error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	var firstErr error
	if writer.file != nil {
		if writer.buffer.Len() > 0 {
			if _, err := writer.file.Write(writer.buffer.Bytes()); err != nil {
				firstErr = err
			}
		}
		if err := writer.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		writer.file = nil
	} else if writer.target == nil && writer.buffer.Len() > 0 {
		if _, err := os.Stderr.Write(writer.buffer.Bytes()); err != nil {
			firstErr = err
		}
	}
	writer.buffer.Reset()
	return firstErr
}
