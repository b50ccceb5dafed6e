// Package persona models the synthetic users driving simulated sessions.
// A Profile carries five normalized OCEAN trait scores plus optional
// categorical attributes; three derived Scales bias the decision engine.
// Profiles are validated once at session start and read-only afterwards.
package persona

import (
	"fmt"
	"math"
)

// RiskAppetite describes willingness to take uncertain paths.
type RiskAppetite string

const (
	RiskCautious    RiskAppetite = "cautious"
	RiskBalanced    RiskAppetite = "balanced"
	RiskAdventurous RiskAppetite = "adventurous"
)

// CommunicationStyle describes how the persona phrases intent.
type CommunicationStyle string

const (
	StyleTerse      CommunicationStyle = "terse"
	StyleNeutral    CommunicationStyle = "neutral"
	StyleExpressive CommunicationStyle = "expressive"
)

// AgeBand is a coarse age bracket affecting pacing, not preference.
type AgeBand string

const (
	AgeYounger AgeBand = "younger"
	AgeMiddle  AgeBand = "middle"
	AgeOlder   AgeBand = "older"
)

// ExperienceLevel describes familiarity with digital products.
type ExperienceLevel string

const (
	ExpNovice       ExperienceLevel = "novice"
	ExpIntermediate ExperienceLevel = "intermediate"
	ExpExpert       ExperienceLevel = "expert"
)

// Profile is a validated persona. Trait scores are in [0,1]; categorical
// fields default to the neutral value when missing from the source record.
type Profile struct {
	Name string `json:"name" yaml:"name"`

	Openness          float64 `json:"openness" yaml:"openness"`
	Conscientiousness float64 `json:"conscientiousness" yaml:"conscientiousness"`
	Extraversion      float64 `json:"extraversion" yaml:"extraversion"`
	Agreeableness     float64 `json:"agreeableness" yaml:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism" yaml:"neuroticism"`

	RiskAppetite  RiskAppetite       `json:"risk_appetite,omitempty" yaml:"risk_appetite"`
	Communication CommunicationStyle `json:"communication_style,omitempty" yaml:"communication_style"`
	AgeBand       AgeBand            `json:"age_band,omitempty" yaml:"age_band"`
	Experience    ExperienceLevel    `json:"experience_level,omitempty" yaml:"experience_level"`
}

// Default returns the neutral profile every load starts from: 0.5 on all
// traits and the middle categorical values. Unmarshalling a persona record
// over this value gives missing fields their documented defaults.
func Default() Profile {
	return Profile{
		Name:              "neutral",
		Openness:          0.5,
		Conscientiousness: 0.5,
		Extraversion:      0.5,
		Agreeableness:     0.5,
		Neuroticism:       0.5,
		RiskAppetite:      RiskBalanced,
		Communication:     StyleNeutral,
		AgeBand:           AgeMiddle,
		Experience:        ExpIntermediate,
	}
}

// Validate checks trait ranges and categorical values. Empty categorical
// fields are filled with their defaults in place; anything else out of
// range is an error, surfaced before any session begins.
func (p *Profile) Validate() error {
	traits := map[string]float64{
		"openness":          p.Openness,
		"conscientiousness": p.Conscientiousness,
		"extraversion":      p.Extraversion,
		"agreeableness":     p.Agreeableness,
		"neuroticism":       p.Neuroticism,
	}
	for name, v := range traits {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("persona %q: trait %s = %v out of [0,1]", p.Name, name, v)
		}
	}

	if p.RiskAppetite == "" {
		p.RiskAppetite = RiskBalanced
	}
	switch p.RiskAppetite {
	case RiskCautious, RiskBalanced, RiskAdventurous:
	default:
		return fmt.Errorf("persona %q: unknown risk_appetite %q", p.Name, p.RiskAppetite)
	}

	if p.Communication == "" {
		p.Communication = StyleNeutral
	}
	switch p.Communication {
	case StyleTerse, StyleNeutral, StyleExpressive:
	default:
		return fmt.Errorf("persona %q: unknown communication_style %q", p.Name, p.Communication)
	}

	if p.AgeBand == "" {
		p.AgeBand = AgeMiddle
	}
	switch p.AgeBand {
	case AgeYounger, AgeMiddle, AgeOlder:
	default:
		return fmt.Errorf("persona %q: unknown age_band %q", p.Name, p.AgeBand)
	}

	if p.Experience == "" {
		p.Experience = ExpIntermediate
	}
	switch p.Experience {
	case ExpNovice, ExpIntermediate, ExpExpert:
	default:
		return fmt.Errorf("persona %q: unknown experience_level %q", p.Name, p.Experience)
	}

	return nil
}
