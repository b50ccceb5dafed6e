package persona_test

import (
	"math"
	"strings"
	"testing"

	"wayfarer/internal/persona"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestValidate_FillsDefaults(t *testing.T) {
	p := persona.Profile{Name: "bare", Openness: 0.2, Conscientiousness: 0.9}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.RiskAppetite != persona.RiskBalanced {
		t.Errorf("RiskAppetite = %q, want balanced", p.RiskAppetite)
	}
	if p.Communication != persona.StyleNeutral {
		t.Errorf("Communication = %q, want neutral", p.Communication)
	}
	if p.AgeBand != persona.AgeMiddle {
		t.Errorf("AgeBand = %q, want middle", p.AgeBand)
	}
	if p.Experience != persona.ExpIntermediate {
		t.Errorf("Experience = %q, want intermediate", p.Experience)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*persona.Profile)
		wantSub string
	}{
		{"trait above one", func(p *persona.Profile) { p.Neuroticism = 1.2 }, "neuroticism"},
		{"trait below zero", func(p *persona.Profile) { p.Openness = -0.1 }, "openness"},
		{"trait NaN", func(p *persona.Profile) { p.Extraversion = math.NaN() }, "extraversion"},
		{"bad risk appetite", func(p *persona.Profile) { p.RiskAppetite = "reckless" }, "risk_appetite"},
		{"bad experience", func(p *persona.Profile) { p.Experience = "wizard" }, "experience_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := persona.Default()
			tt.mutate(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestDeriveScales_NeutralProfile(t *testing.T) {
	s := persona.DeriveScales(persona.Default())
	if !approxEqual(s.Direct, 1.0+0.5*0.5-0.3*0.5) {
		t.Errorf("Direct = %v", s.Direct)
	}
	if !approxEqual(s.Back, 1.0+0.8*0.5-0.4*0.5) {
		t.Errorf("Back = %v", s.Back)
	}
	if !approxEqual(s.Distance, 1.0+0.6*0.5-0.3*0.5) {
		t.Errorf("Distance = %v", s.Distance)
	}
}

func TestDeriveScales_Bounds(t *testing.T) {
	// Extreme trait and categorical combinations stay inside the clamps.
	extremes := []persona.Profile{
		{Name: "max", Conscientiousness: 1, RiskAppetite: persona.RiskCautious,
			Experience: persona.ExpExpert, Communication: persona.StyleTerse},
		{Name: "min", Openness: 1, RiskAppetite: persona.RiskAdventurous,
			Experience: persona.ExpNovice, Communication: persona.StyleExpressive},
	}
	for _, p := range extremes {
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate(%s): %v", p.Name, err)
		}
		s := persona.DeriveScales(p)
		if s.Direct < 0.4 || s.Direct > 2.0 {
			t.Errorf("%s: Direct %v out of [0.4,2.0]", p.Name, s.Direct)
		}
		if s.Back < 0.3 || s.Back > 2.0 {
			t.Errorf("%s: Back %v out of [0.3,2.0]", p.Name, s.Back)
		}
		if s.Distance < 0.3 || s.Distance > 2.0 {
			t.Errorf("%s: Distance %v out of [0.3,2.0]", p.Name, s.Distance)
		}
	}
}

func TestDeriveScales_CautiousRaisesBack(t *testing.T) {
	base := persona.Default()
	cautious := base
	cautious.RiskAppetite = persona.RiskCautious

	if persona.DeriveScales(cautious).Back <= persona.DeriveScales(base).Back {
		t.Error("cautious persona should penalize back navigation harder")
	}
}
