// Package notify surfaces mutation outcomes to the user. Sinks are pure side
// effects: they never influence cache state.
package notify

import (
	"sync"

	"github.com/bassista/go_quill/internal/logger"
	"github.com/sirupsen/logrus"
)

// Color is the visual severity of an event.
type Color string

const (
	ColorSuccess Color = "success"
	ColorDanger  Color = "danger"
	ColorWarning Color = "warning"
	ColorInfo    Color = "info"
)

// Event is one toast-like notification.
type Event struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       Color  `json:"color"`
}

// Sink consumes notification events.
type Sink interface {
	Notify(e Event)
}

// Func adapts a plain function to a Sink.
type Func func(e Event)

func (f Func) Notify(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = Func(func(Event) {})

// Multi fans an event out to every sink in order.
type Multi []Sink

func (m Multi) Notify(e Event) {
	for _, s := range m {
		if s != nil {
			s.Notify(e)
		}
	}
}

// LogSink writes events through the shared logrus logger.
type LogSink struct {
	entry *logrus.Entry
}

func NewLogSink() *LogSink {
	return &LogSink{entry: logger.WithComponent("notify")}
}

func (s *LogSink) Notify(e Event) {
	entry := s.entry.WithField("color", e.Color)
	switch e.Color {
	case ColorDanger:
		entry.Errorf("%s: %s", e.Title, e.Description)
	case ColorWarning:
		entry.Warnf("%s: %s", e.Title, e.Description)
	default:
		entry.Infof("%s: %s", e.Title, e.Description)
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many recorded events carry the given color.
func (r *Recorder) Count(c Color) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Color == c {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
