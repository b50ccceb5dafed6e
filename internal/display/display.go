// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output, markdown reports, logs, and docs.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

import "strings"

// --- Outcomes ---

var outcomes = map[string]string{
	"reached-target": "Reached Target",
	"timeout":        "Timed Out",
	"no-outgoing":    "Dead End",
	"no-choice":      "Nothing Worth Clicking",
	"loop-detected":  "Went In Circles",
}

// Outcome returns the human-readable name for an outcome code.
// Unknown codes are returned as-is.
func Outcome(code string) string {
	if name, ok := outcomes[code]; ok {
		return name
	}
	return code
}

// OutcomeWithCode returns "Reached Target (reached-target)" format.
func OutcomeWithCode(code string) string {
	if name, ok := outcomes[code]; ok {
		return name + " (" + code + ")"
	}
	return code
}

// --- Friction Kinds ---

var frictionKinds = map[string]string{
	"auto_advance":     "Auto Advance",
	"back_navigation":  "Back Navigation",
	"oscillation":      "Oscillation",
	"long_wait":        "Long Wait",
	"choice_overload":  "Choice Overload",
	"ambiguous_choice": "Ambiguous Choice",
	"dead_end":         "Dead End",
}

// Friction returns the human-readable name for a friction kind.
// "choice_overload" -> "Choice Overload".
func Friction(kind string) string {
	if name, ok := frictionKinds[kind]; ok {
		return name
	}
	return kind
}

// FrictionWithCode returns "Choice Overload (choice_overload)" format.
func FrictionWithCode(kind string) string {
	if name, ok := frictionKinds[kind]; ok {
		return name + " (" + kind + ")"
	}
	return kind
}

// --- Journey Paths ---

// JourneyPath converts a slice of screen names to a readable path.
// ["Home", "Plans", "Checkout"] -> "Home -> Plans -> Checkout"
func JourneyPath(screens []string) string {
	return strings.Join(screens, " \u2192 ")
}
