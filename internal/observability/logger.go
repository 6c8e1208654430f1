package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeJourneyStart EventType = "journey_start"
	EventTypeCategory     EventType = "category"
	EventTypeStepStart    EventType = "step_start"
	EventTypeStepFinish   EventType = "step_finish"
	EventTypeStepError    EventType = "step_error"
	EventTypeJourneyEnd   EventType = "journey_end"
	EventTypeInsights     EventType = "insights"
	EventTypeHeartbeat    EventType = "heartbeat"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	Journey   string    `json:"journey,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger writes the human console stream and, when an event path is set,
// a JSON lines stream of structured events. The two never mix: the console
// only ever receives the plain text lines.
type Logger struct {
	mu        *sync.Mutex
	console   io.Writer
	eventPath string
	maxSize   int64
	runID     string
	journey   string
}

// NewLogger returns a logger printing to console. An empty eventPath disables
// the JSON sink.
func NewLogger(console io.Writer, eventPath string) *Logger {
	if console == nil {
		console = os.Stdout
	}
	return &Logger{
		mu:        &sync.Mutex{},
		console:   console,
		eventPath: eventPath,
		maxSize:   10 * 1024 * 1024, // 10MB
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger(io.Discard, "")
}

// WithRun returns a logger sharing l's sinks that stamps every event with
// the run.
func (l *Logger) WithRun(runID, journey string) *Logger {
	return &Logger{
		mu:        l.mu,
		console:   l.console,
		eventPath: l.eventPath,
		maxSize:   l.maxSize,
		runID:     runID,
		journey:   journey,
	}
}

// Console prints one line to the console stream, like console.log.
func (l *Logger) Console(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, format+"\n", args...)
}

// Log appends a structured event to the JSON sink.
func (l *Logger) Log(evt Event) {
	if l.eventPath == "" {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if evt.RunID == "" {
		evt.RunID = l.runID
	}
	if evt.Journey == "" {
		evt.Journey = l.journey
	}
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("failed to marshal event: %v", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeToFile(data)
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.eventPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.eventPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.eventPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.eventPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.eventPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogCategory(name, description string) {
	l.Log(Event{
		Type: EventTypeCategory,
		Data: map[string]string{
			"category":    name,
			"description": description,
		},
	})
}

func (l *Logger) LogStepStart(step, categoryStep int, category, description string, startMs int64) {
	l.Log(Event{
		Type: EventTypeStepStart,
		Data: map[string]any{
			"step":          step,
			"category":      category,
			"category_step": categoryStep,
			"description":   description,
			"start_ms":      startMs,
		},
	})
}

func (l *Logger) LogStepFinish(step, categoryStep int, category, description string, endMs, elapsedMs int64) {
	l.Log(Event{
		Type: EventTypeStepFinish,
		Data: map[string]any{
			"step":          step,
			"category":      category,
			"category_step": categoryStep,
			"description":   description,
			"end_ms":        endMs,
			"elapsed_ms":    elapsedMs,
		},
	})
}

func (l *Logger) LogStepError(step, categoryStep int, category, description, policy, reason string) {
	l.Log(Event{
		Type: EventTypeStepError,
		Data: map[string]any{
			"step":          step,
			"category":      category,
			"category_step": categoryStep,
			"description":   description,
			"policy":        policy,
			"reason":        reason,
		},
	})
}

func (l *Logger) LogHeartbeat(journey, outcome string) {
	l.Log(Event{
		Type:    EventTypeHeartbeat,
		Journey: journey,
		Data:    map[string]string{"status": "alive", "last_outcome": outcome},
	})
}
