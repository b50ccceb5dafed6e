package persona

// Scales are the three decision-engine multipliers derived from a Profile.
// Computed once per session; read-only thereafter.
//
//   - Direct multiplies the exact-target bonus: goal-driven personas lock
//     onto the finish line, exploratory ones linger.
//   - Back multiplies the penalty for back/return/close/cancel actions.
//   - Distance weights the reward for edges that cut remaining hops.
type Scales struct {
	Direct   float64 `json:"direct"`
	Back     float64 `json:"back"`
	Distance float64 `json:"distance"`
}

// DeriveScales maps a validated Profile onto Scales.
//
// Derivation: each scale starts at 1.0, rises with Conscientiousness and
// falls with Openness (conscientious personas beeline, open ones wander),
// then takes small categorical nudges before clamping:
//
//	Direct   = 1.0 + 0.5*C - 0.3*O, clamped to [0.4, 2.0]
//	Back     = 1.0 + 0.8*C - 0.4*O, clamped to [0.3, 2.0]
//	Distance = 1.0 + 0.6*C - 0.3*O, clamped to [0.3, 2.0]
func DeriveScales(p Profile) Scales {
	s := Scales{
		Direct:   1.0 + 0.5*p.Conscientiousness - 0.3*p.Openness,
		Back:     1.0 + 0.8*p.Conscientiousness - 0.4*p.Openness,
		Distance: 1.0 + 0.6*p.Conscientiousness - 0.3*p.Openness,
	}

	switch p.RiskAppetite {
	case RiskCautious:
		s.Direct += 0.10
		s.Back += 0.15
	case RiskAdventurous:
		s.Direct -= 0.10
		s.Back -= 0.15
	}

	switch p.Experience {
	case ExpExpert:
		s.Distance += 0.15
	case ExpNovice:
		s.Distance -= 0.10
	}

	switch p.Communication {
	case StyleTerse:
		s.Direct += 0.05
	case StyleExpressive:
		s.Direct -= 0.05
	}

	s.Direct = clampRange(s.Direct, 0.4, 2.0)
	s.Back = clampRange(s.Back, 0.3, 2.0)
	s.Distance = clampRange(s.Distance, 0.3, 2.0)
	return s
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
