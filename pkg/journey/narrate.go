package journey

import (
	"fmt"
	"log/slog"
	"sync"
)

// NarrationSink receives a single human-readable narration line.
type NarrationSink func(line string)

// NarrationOption configures a NarrationObserver.
type NarrationOption func(*NarrationObserver)

// WithVocabulary sets the vocabulary for translating screen names.
func WithVocabulary(v Vocabulary) NarrationOption {
	return func(n *NarrationObserver) { n.vocab = v }
}

// WithSink sets the output destination for narration lines.
func WithSink(s NarrationSink) NarrationOption {
	return func(n *NarrationObserver) { n.sink = s }
}

// WithMilestoneInterval sets how often milestone summaries are emitted.
// A value of 0 disables milestones. Default is 5.
func WithMilestoneInterval(every int) NarrationOption {
	return func(n *NarrationObserver) { n.milestoneEvery = every }
}

// WithThoughts enables or disables narration of thought events.
func WithThoughts(enabled bool) NarrationOption {
	return func(n *NarrationObserver) { n.showThoughts = enabled }
}

// Progress captures a snapshot of session progress. Time is simulated
// dwell time, not wall clock.
type Progress struct {
	Steps         int
	SimulatedSecs float64
	CurrentScreen string
	Mood          string
}

// NarrationObserver produces human-readable narration lines from
// session events. It translates screen names via a Vocabulary, tracks
// the persona's simulated clock, and emits milestone summaries.
//
// Zero-config: NewNarrationObserver() with no options logs to slog.Info.
type NarrationObserver struct {
	mu             sync.Mutex
	vocab          Vocabulary
	sink           NarrationSink
	milestoneEvery int
	showThoughts   bool

	persona   string
	steps     int
	simClock  float64
	current   string
	mood      string
	frictions int
}

// NewNarrationObserver creates a narration observer with sensible defaults.
// Pass NarrationOption values to customize vocabulary, sink, etc.
func NewNarrationObserver(opts ...NarrationOption) *NarrationObserver {
	n := &NarrationObserver{
		vocab:          VocabularyFunc(func(code string) string { return code }),
		sink:           func(line string) { slog.Info(line) },
		milestoneEvery: 5,
		showThoughts:   true,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Progress returns a snapshot of current session progress.
func (n *NarrationObserver) Progress() Progress {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Progress{
		Steps:         n.steps,
		SimulatedSecs: n.simClock,
		CurrentScreen: n.current,
		Mood:          n.mood,
	}
}

// OnEvent implements Observer.
func (n *NarrationObserver) OnEvent(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch e.Type {
	case EventSessionStart:
		n.persona = e.Persona
		n.current = e.Screen
		if e.Text != "" {
			n.emit(fmt.Sprintf("%s starts at %s, looking to %q", n.who(), n.vocab.Name(e.Screen), e.Text))
		} else {
			n.emit(fmt.Sprintf("%s starts at %s", n.who(), n.vocab.Name(e.Screen)))
		}

	case EventThought:
		if n.showThoughts && e.Text != "" {
			n.emit(fmt.Sprintf("%s thinks: %s", n.who(), e.Text))
		}

	case EventWait:
		n.simClock += e.WaitSeconds
		n.emit(fmt.Sprintf("%s lingers on %s for %s", n.who(), n.vocab.Name(e.Screen), fmtSimSeconds(e.WaitSeconds)))

	case EventEmotion:
		if e.Emotion == nil {
			return
		}
		// Only mood shifts are worth a line; the raw vector is noise.
		if e.Emotion.Label != n.mood {
			n.mood = e.Emotion.Label
			n.emit(fmt.Sprintf("%s is feeling %s", n.who(), n.vocab.Name(n.mood)))
		}

	case EventCandidates:
		// silent by default; per-option scores are high-frequency noise

	case EventAction:
		if e.Action == nil {
			return
		}
		n.steps++
		n.current = e.Screen
		dest := n.vocab.Name(e.Screen)
		if e.Action.Auto {
			n.emit(fmt.Sprintf("%s is carried along to %s", n.who(), dest))
		} else if e.Action.Target != "" {
			n.emit(fmt.Sprintf("%s clicks %q and lands on %s", n.who(), e.Action.Target, dest))
		} else {
			n.emit(fmt.Sprintf("%s moves to %s", n.who(), dest))
		}
		if n.milestoneEvery > 0 && n.steps%n.milestoneEvery == 0 {
			n.emitMilestone()
		}

	case EventTerminal:
		outcome := n.vocab.Name(e.Outcome)
		n.emit(fmt.Sprintf("Journey over for %s after %d steps and %s: %s",
			n.who(), n.steps, fmtSimSeconds(n.simClock), outcome))
	}
}

func (n *NarrationObserver) who() string {
	if n.persona != "" {
		return n.persona
	}
	return "The visitor"
}

func (n *NarrationObserver) emit(line string) {
	n.sink(line)
}

func (n *NarrationObserver) emitMilestone() {
	line := fmt.Sprintf("--- Progress: %d steps | %s on the clock",
		n.steps, fmtSimSeconds(n.simClock))
	if n.mood != "" {
		line += fmt.Sprintf(" | mood: %s", n.mood)
	}
	line += " ---"
	n.emit(line)
}

func fmtSimSeconds(s float64) string {
	if s < 1 {
		return fmt.Sprintf("%dms", int(s*1000))
	}
	if s < 60 {
		return fmt.Sprintf("%.1fs", s)
	}
	m := int(s) / 60
	sec := int(s) % 60
	return fmt.Sprintf("%dm%ds", m, sec)
}
