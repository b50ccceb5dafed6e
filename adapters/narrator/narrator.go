// Package narrator turns finished session traces into a first-person
// retelling. The default narrator is deterministic and offline; the
// remote narrator asks an OpenAI-compatible model to rewrite the draft
// in the persona's voice. Narration always happens after a session
// finishes, never inside the step loop.
package narrator

import (
	"context"
	"fmt"
	"strings"

	"wayfarer/internal/persona"
	"wayfarer/internal/sim"
)

// Narrator produces a narrative for one finished session.
type Narrator interface {
	Narrate(ctx context.Context, p persona.Profile, tr *sim.Trace) (string, error)
}

// TemplateNarrator builds the narrative from fixed templates keyed by
// the persona's communication style. Same trace, same text.
type TemplateNarrator struct{}

func (TemplateNarrator) Narrate(_ context.Context, p persona.Profile, tr *sim.Trace) (string, error) {
	if tr == nil {
		return "", fmt.Errorf("narrator: trace is nil")
	}
	style := p.Communication
	lines := []string{pick(style,
		fmt.Sprintf("Goal: %s.", tr.Goal),
		fmt.Sprintf("I set out to %s.", tr.Goal),
		fmt.Sprintf("Alright, today I really want to %s!", tr.Goal),
	)}

	mood := "Neutral"
	for _, step := range tr.Steps {
		if step.Auto {
			lines = append(lines, pick(style,
				fmt.Sprintf("Screen %d moved me along.", step.ToID),
				fmt.Sprintf("The screen moved on by itself after %.1fs.", step.WaitSeconds),
				fmt.Sprintf("Whoa, it just whisked me along after %.1fs!", step.WaitSeconds),
			))
		} else {
			lines = append(lines, pick(style,
				fmt.Sprintf("Clicked %q.", step.ClickTarget),
				fmt.Sprintf("I clicked %q.", step.ClickTarget),
				fmt.Sprintf("I went with %q and hoped for the best!", step.ClickTarget),
			))
		}
		if step.Mood != mood && step.Mood != "" {
			mood = step.Mood
			lines = append(lines, pick(style,
				fmt.Sprintf("Feeling %s.", strings.ToLower(mood)),
				fmt.Sprintf("Starting to feel %s.", strings.ToLower(mood)),
				fmt.Sprintf("Now I am honestly feeling %s about this.", strings.ToLower(mood)),
			))
		}
	}

	lines = append(lines, closing(style, tr))
	return strings.Join(lines, "\n"), nil
}

func closing(style persona.CommunicationStyle, tr *sim.Trace) string {
	n := len(tr.Steps)
	switch tr.Outcome {
	case sim.OutcomeReachedTarget:
		return pick(style,
			fmt.Sprintf("Done in %d steps.", n),
			fmt.Sprintf("I got where I was going after %d steps.", n),
			fmt.Sprintf("Made it! %d steps and I am done.", n),
		)
	case sim.OutcomeLoopDetected:
		return pick(style,
			"Going in circles.",
			"I kept circling back to the same screens and gave up.",
			"I swear I have seen this screen five times already. I quit.",
		)
	case sim.OutcomeNoChoice:
		return pick(style,
			"Nothing worth clicking.",
			"Nothing on the screen looked like the right way forward, so I stopped.",
			"Not one of those buttons felt right. Forget it.",
		)
	case sim.OutcomeNoOutgoing:
		return pick(style,
			"Dead end.",
			"I hit a screen with no way forward.",
			"Great, a total dead end. Now what?",
		)
	default:
		return pick(style,
			"Out of time.",
			"I ran out of patience before I got there.",
			"I do not have all day for this!",
		)
	}
}

// pick selects the phrasing for the persona's communication style.
// Unset or unknown styles read as neutral.
func pick(style persona.CommunicationStyle, terse, neutral, expressive string) string {
	switch style {
	case persona.StyleTerse:
		return terse
	case persona.StyleExpressive:
		return expressive
	default:
		return neutral
	}
}
