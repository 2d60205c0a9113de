// Package notify decouples user-visible notifications from the state
// transitions that trigger them. Store and orchestrator code reports events
// here; the sink decides how they reach the user.
package notify

import (
	"log/slog"
	"sync"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notifier interface {
	Success(message string)
	Warning(message string)
	Error(message string)
}

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier reports notifications through the structured log, which is
// where a headless deployment surfaces them.
func NewLogNotifier(logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &logNotifier{logger: logger}
}

func (n *logNotifier) Success(message string) {
	n.logger.Info("notification", slog.String("level", string(LevelSuccess)), slog.String("message", message))
}

func (n *logNotifier) Warning(message string) {
	n.logger.Warn("notification", slog.String("level", string(LevelWarning)), slog.String("message", message))
}

func (n *logNotifier) Error(message string) {
	n.logger.Error("notification", slog.String("level", string(LevelError)), slog.String("message", message))
}

type Event struct {
	Level   Level
	Message string
}

// Recorder captures events for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(message string) { r.record(LevelSuccess, message) }
func (r *Recorder) Warning(message string) { r.record(LevelWarning, message) }
func (r *Recorder) Error(message string)   { r.record(LevelError, message) }

func (r *Recorder) record(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, Event{Level: level, Message: message})
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)

	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}
