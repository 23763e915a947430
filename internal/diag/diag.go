// Package diag provides the leveled diagnostics sink used by every core
// component (schema, reader, validator, multiplexer, selection engine,
// reprojection driver) to report per-record warnings and fatal errors
// without relying on a process-wide global.
package diag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Level is one of the four diagnostic severities.
type Level int

const (
	LevelDebug Level = iota
	LevelNote
	LevelWarning
	LevelError
)

// ErrUnknownLevel indicates an unrecognized level string.
var ErrUnknownLevel = errors.New("diag: unknown level")

// ParseLevel parses a level string ("error", "warning", "note", "debug").
func ParseLevel(s string) (Level, error) {
	switch s {
	case "error":
		return LevelError, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "note", "info":
		return LevelNote, nil
	case "debug":
		return LevelDebug, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarning:
		return slog.LevelWarn
	case LevelNote:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Sink is the explicit, non-global diagnostics collaborator every component
// constructor takes a reference to. It fans messages out to a console writer
// and, if configured, a log-file writer, each message tagged with the run's
// correlation id.
//
// Sink is not safe for concurrent use: Errorf sets an unsynchronized flag.
// The core pipeline itself is single-threaded.
type Sink struct {
	logger  *slog.Logger
	runID   string
	errored bool
}

// New creates a Sink writing to console at minimum level minLevel. If
// logFile is non-nil, messages are also written there through the same
// handler, so the log file is filtered by minLevel too and records only
// what the console shows.
func New(console io.Writer, logFile io.Writer, minLevel Level) *Sink {
	var w io.Writer = console
	if logFile != nil {
		w = io.MultiWriter(console, logFile)
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: minLevel.slogLevel(),
	})
	return &Sink{
		logger: slog.New(handler),
		runID:  uuid.NewString(),
	}
}

// Errorf records a fatal-class diagnostic. It does not panic or exit; the
// caller decides how to unwind. Schema/selection/reprojection config
// defects and I/O opens are fatal and reported once.
func (s *Sink) Errorf(format string, args ...any) {
	s.errored = true
	s.log(LevelError, fmt.Sprintf(format, args...))
}

// Warningf records a per-record defect; the caller skips the record and
// continues.
func (s *Sink) Warningf(format string, args ...any) {
	s.log(LevelWarning, fmt.Sprintf(format, args...))
}

// Notef records a non-fatal informational message (e.g. schema option with
// no effect under the current tag mode).
func (s *Sink) Notef(format string, args ...any) {
	s.log(LevelNote, fmt.Sprintf(format, args...))
}

// Debugf records a debug-only diagnostic.
func (s *Sink) Debugf(format string, args ...any) {
	s.log(LevelDebug, fmt.Sprintf(format, args...))
}

// Errored reports whether Errorf has been called on this sink.
func (s *Sink) Errored() bool {
	return s.errored
}

// RunID returns the correlation id stamped on every message from this sink.
func (s *Sink) RunID() string {
	return s.runID
}

func (s *Sink) log(level Level, msg string) {
	s.logger.LogAttrs(context.Background(), level.slogLevel(), msg,
		slog.String("run_id", s.runID),
		slog.String("diag_level", level.String()),
	)
}
