package emotion_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"wayfarer/internal/emotion"
	"wayfarer/internal/persona"

	"github.com/google/go-cmp/cmp"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBaseline_Seeding(t *testing.T) {
	calm := persona.Default()
	calm.Neuroticism = 0.0
	calm.Conscientiousness = 0.9
	calm.Extraversion = 0.8

	anxious := persona.Default()
	anxious.Neuroticism = 1.0
	anxious.Conscientiousness = 0.2
	anxious.Extraversion = 0.2

	sc := emotion.Baseline(calm)
	sa := emotion.Baseline(anxious)

	if sa.Stress <= sc.Stress {
		t.Errorf("neurotic baseline stress %v should exceed calm %v", sa.Stress, sc.Stress)
	}
	if sa.Confidence >= sc.Confidence {
		t.Errorf("neurotic baseline confidence %v should trail calm %v", sa.Confidence, sc.Confidence)
	}
	if sa.Valence >= sc.Valence {
		t.Errorf("neurotic baseline valence %v should trail calm %v", sa.Valence, sc.Valence)
	}
	assertBounded(t, sc)
	assertBounded(t, sa)
}

func TestUpdate_IsPure(t *testing.T) {
	prev := emotion.State{Valence: 0.4, Arousal: 0.5, Stress: 0.3, Frustration: 0.2, Confidence: 0.7}
	saved := prev

	_ = emotion.Update(prev, emotion.Signals{WaitSeconds: 5, OptionCount: 8}, persona.Default())

	if diff := cmp.Diff(saved, prev); diff != "" {
		t.Errorf("Update mutated its input:\n%s", diff)
	}
}

func TestUpdate_SignalDirections(t *testing.T) {
	p := persona.Default()
	prev := emotion.State{Valence: 0.2, Arousal: 0.4, Stress: 0.4, Frustration: 0.3, Confidence: 0.5}
	quiet := emotion.Signals{ClarityGap: 10}
	base := emotion.Update(prev, quiet, p)

	tests := []struct {
		name  string
		sig   emotion.Signals
		check func(t *testing.T, got emotion.State)
	}{
		{
			"long wait raises arousal and stress",
			emotion.Signals{WaitSeconds: 3.5, ClarityGap: 10},
			func(t *testing.T, got emotion.State) {
				if got.Arousal <= base.Arousal {
					t.Errorf("arousal %v <= %v", got.Arousal, base.Arousal)
				}
				if got.Stress <= base.Stress {
					t.Errorf("stress %v <= %v", got.Stress, base.Stress)
				}
			},
		},
		{
			"crowded screen raises frustration",
			emotion.Signals{OptionCount: 7, ClarityGap: 10},
			func(t *testing.T, got emotion.State) {
				if got.Frustration <= base.Frustration {
					t.Errorf("frustration %v <= %v", got.Frustration, base.Frustration)
				}
			},
		},
		{
			"ambiguous choice raises frustration",
			emotion.Signals{ClarityGap: 0.1},
			func(t *testing.T, got emotion.State) {
				if got.Frustration <= base.Frustration {
					t.Errorf("frustration %v <= %v", got.Frustration, base.Frustration)
				}
			},
		},
		{
			"auto-advance raises stress and frustration",
			emotion.Signals{AutoWait: true, ClarityGap: 10},
			func(t *testing.T, got emotion.State) {
				if got.Stress <= base.Stress || got.Frustration <= base.Frustration {
					t.Errorf("auto-wait should raise stress and frustration: %+v vs %+v", got, base)
				}
			},
		},
		{
			"progress lifts confidence and valence",
			emotion.Signals{ReducesDistance: true, ClarityGap: 10},
			func(t *testing.T, got emotion.State) {
				if got.Confidence <= base.Confidence || got.Valence <= base.Valence {
					t.Errorf("progress should lift confidence and valence: %+v vs %+v", got, base)
				}
				if got.Stress >= base.Stress || got.Frustration >= base.Frustration {
					t.Errorf("progress should ease stress and frustration: %+v vs %+v", got, base)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, emotion.Update(prev, tt.sig, p))
		})
	}
}

func TestUpdate_NeuroticismScalesWaitStress(t *testing.T) {
	prev := emotion.State{Stress: 0.2}
	sig := emotion.Signals{WaitSeconds: 4, ClarityGap: 10}

	lowN := persona.Default()
	lowN.Neuroticism = 0.1
	highN := persona.Default()
	highN.Neuroticism = 0.9

	if emotion.Update(prev, sig, highN).Stress <= emotion.Update(prev, sig, lowN).Stress {
		t.Error("high Neuroticism should amplify wait-driven stress")
	}
}

func TestUpdate_ClampInvariantRandomized(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1))

	randomPersona := func() persona.Profile {
		p := persona.Default()
		p.Openness = rng.Float64()
		p.Conscientiousness = rng.Float64()
		p.Extraversion = rng.Float64()
		p.Agreeableness = rng.Float64()
		p.Neuroticism = rng.Float64()
		return p
	}

	for i := 0; i < 10000; i++ {
		// Previous states deliberately include out-of-bounds values.
		prev := emotion.State{
			Valence:     rng.Float64()*6 - 3,
			Arousal:     rng.Float64()*4 - 1,
			Stress:      rng.Float64()*4 - 1,
			Frustration: rng.Float64()*4 - 1,
			Confidence:  rng.Float64()*4 - 1,
		}
		sig := emotion.Signals{
			WaitSeconds:     rng.Float64() * 20,
			OptionCount:     rng.IntN(20),
			ClarityGap:      rng.Float64()*8 - 2,
			ReducesDistance: rng.IntN(2) == 0,
			AutoWait:        rng.IntN(2) == 0,
		}
		got := emotion.Update(prev, sig, randomPersona())
		assertBounded(t, got)
		if t.Failed() {
			t.Fatalf("clamp invariant broken at iteration %d: %+v", i, got)
		}
	}
}

func assertBounded(t *testing.T, s emotion.State) {
	t.Helper()
	if s.Valence < -1 || s.Valence > 1 {
		t.Errorf("valence %v out of [-1,1]", s.Valence)
	}
	for name, v := range map[string]float64{
		"arousal": s.Arousal, "stress": s.Stress,
		"frustration": s.Frustration, "confidence": s.Confidence,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s %v out of [0,1]", name, v)
		}
	}
}

func TestLabel_PriorityOrder(t *testing.T) {
	tests := []struct {
		name  string
		state emotion.State
		want  string
	}{
		{"high stress wins", emotion.State{Stress: 0.8, Valence: 0.9, Confidence: 0.9}, emotion.LabelStressed},
		{"high frustration wins", emotion.State{Frustration: 0.7, Valence: 0.9, Confidence: 0.9}, emotion.LabelStressed},
		{"confident", emotion.State{Valence: 0.5, Confidence: 0.8}, emotion.LabelConfident},
		{"focused", emotion.State{Arousal: 0.6, Frustration: 0.1, Stress: 0.1}, emotion.LabelFocused},
		{"frustrated", emotion.State{Valence: -0.3, Frustration: 0.5}, emotion.LabelFrustrated},
		{"neutral zero value", emotion.State{}, emotion.LabelNeutral},
		{"confident outranks focused", emotion.State{Valence: 0.5, Confidence: 0.8, Arousal: 0.9}, emotion.LabelConfident},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Label(); got != tt.want {
				t.Errorf("Label(%+v) = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}
