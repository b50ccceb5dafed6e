// Package journey is the generic observation kit for simulated navigation
// sessions. The simulation core emits typed events; observers fan them out
// to logs, JSONL traces, metrics, and narration without the core knowing
// any sink exists.
package journey

import (
	"log/slog"
	"sync"
)

// EventType classifies session events for filtering and routing.
type EventType string

const (
	EventSessionStart EventType = "session_start"
	EventThought      EventType = "thought"
	EventWait         EventType = "wait"
	EventEmotion      EventType = "emotion"
	EventCandidates   EventType = "candidates"
	EventAction       EventType = "action"
	EventTerminal     EventType = "terminal"
)

// EmotionSnapshot is the affect vector as observed at one step.
type EmotionSnapshot struct {
	Valence     float64 `json:"valence"`
	Arousal     float64 `json:"arousal"`
	Stress      float64 `json:"stress"`
	Frustration float64 `json:"frustration"`
	Confidence  float64 `json:"confidence"`
	Label       string  `json:"label"`
}

// Candidate is one scored option from a decision step.
type Candidate struct {
	LinkID int     `json:"linkId"`
	ToID   int     `json:"to_id"`
	Label  string  `json:"label,omitempty"`
	Score  float64 `json:"score"`
}

// Action is one taken transition.
type Action struct {
	FromID int    `json:"from_id"`
	ToID   int    `json:"to_id"`
	LinkID int    `json:"linkId"`
	Target string `json:"target,omitempty"`
	Auto   bool   `json:"auto,omitempty"`
}

// Event is a single observation from one session. Only the fields
// relevant to the event's Type are populated; everything else stays at
// its zero value and is elided from serialized output.
type Event struct {
	Type        EventType        `json:"type"`
	SessionID   string           `json:"session_id,omitempty"`
	Persona     string           `json:"persona,omitempty"`
	Step        int              `json:"step"`
	ScreenID    int              `json:"screen_id"`
	Screen      string           `json:"screen,omitempty"`
	Text        string           `json:"text,omitempty"`
	WaitSeconds float64          `json:"wait_seconds,omitempty"`
	Emotion     *EmotionSnapshot `json:"emotion,omitempty"`
	Candidates  []Candidate      `json:"candidates,omitempty"`
	Action      *Action          `json:"action,omitempty"`
	Outcome     string           `json:"outcome,omitempty"`
	Err         string           `json:"error,omitempty"`
}

// Observer receives session events. Single-method design (like
// http.Handler) so adding new event types never breaks existing
// observers.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// MultiObserver fans out events to multiple observers.
type MultiObserver []Observer

func (m MultiObserver) OnEvent(e Event) {
	for _, obs := range m {
		obs.OnEvent(e)
	}
}

// Compose returns a single observer from possibly-nil observers,
// flattening away the nils. Returns nil when nothing remains.
func Compose(obs ...Observer) Observer {
	var live []Observer
	for _, o := range obs {
		if o != nil {
			live = append(live, o)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	default:
		return MultiObserver(live)
	}
}

// Emit sends an event to a possibly-nil observer.
func Emit(obs Observer, e Event) {
	if obs != nil {
		obs.OnEvent(e)
	}
}

// LogObserver writes session events as structured slog lines.
type LogObserver struct {
	Logger *slog.Logger
}

func (o *LogObserver) OnEvent(e Event) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{
		slog.String("event", string(e.Type)),
		slog.Int("step", e.Step),
	}
	if e.SessionID != "" {
		attrs = append(attrs, slog.String("session", e.SessionID))
	}
	if e.Persona != "" {
		attrs = append(attrs, slog.String("persona", e.Persona))
	}
	if e.Screen != "" {
		attrs = append(attrs, slog.String("screen", e.Screen))
	}
	if e.WaitSeconds > 0 {
		attrs = append(attrs, slog.Float64("wait_s", e.WaitSeconds))
	}
	if e.Emotion != nil {
		attrs = append(attrs, slog.String("mood", e.Emotion.Label))
	}
	if e.Action != nil {
		attrs = append(attrs, slog.Int("link", e.Action.LinkID), slog.Int("to", e.Action.ToID))
	}
	if e.Outcome != "" {
		attrs = append(attrs, slog.String("outcome", e.Outcome))
	}

	level := slog.LevelInfo
	if e.Err != "" {
		attrs = append(attrs, slog.String("error", e.Err))
		level = slog.LevelWarn
	}
	logger.LogAttrs(nil, level, "session", attrs...)
}

// Collector accumulates events in memory for post-session analysis.
// Safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) OnEvent(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

// Events returns a copy of all collected events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// EventsOfType returns only events matching the given type.
func (c *Collector) EventsOfType(typ EventType) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears collected events.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.events = nil
	c.mu.Unlock()
}
