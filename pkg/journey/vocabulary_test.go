package journey

import "testing"

func TestMapVocabulary_ZeroConfig(t *testing.T) {
	v := NewMapVocabulary()
	if got := v.Name("cart_v2"); got != "cart_v2" {
		t.Errorf("empty vocabulary: Name(cart_v2) = %q, want cart_v2", got)
	}
}

func TestMapVocabulary_Register(t *testing.T) {
	v := NewMapVocabulary().
		Register("cart_v2", "Shopping Cart").
		Register("checkout", "Checkout")

	tests := []struct {
		code, want string
	}{
		{"cart_v2", "Shopping Cart"},
		{"checkout", "Checkout"},
		{"settings", "settings"},
	}
	for _, tt := range tests {
		if got := v.Name(tt.code); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestMapVocabulary_RegisterAll(t *testing.T) {
	v := NewMapVocabulary().RegisterAll(map[string]string{
		"reached-target": "Reached the goal",
		"loop-detected":  "Stuck in a loop",
	})
	if got := v.Name("loop-detected"); got != "Stuck in a loop" {
		t.Errorf("Name(loop-detected) = %q, want Stuck in a loop", got)
	}
}

func TestNameWithCode(t *testing.T) {
	v := NewMapVocabulary().Register("cart_v2", "Shopping Cart")

	if got := NameWithCode(v, "cart_v2"); got != "Shopping Cart (cart_v2)" {
		t.Errorf("NameWithCode(cart_v2) = %q, want %q", got, "Shopping Cart (cart_v2)")
	}
	if got := NameWithCode(v, "faq"); got != "faq" {
		t.Errorf("NameWithCode(faq) = %q, want faq (unknown passthrough)", got)
	}
}

func TestVocabularyFunc(t *testing.T) {
	upper := VocabularyFunc(func(code string) string {
		if code == "home" {
			return "Home"
		}
		return code
	})
	if got := upper.Name("home"); got != "Home" {
		t.Errorf("VocabularyFunc(home) = %q, want Home", got)
	}
	if got := upper.Name("faq"); got != "faq" {
		t.Errorf("VocabularyFunc(faq) = %q, want faq (passthrough)", got)
	}
}

func TestChainVocabulary(t *testing.T) {
	screens := NewMapVocabulary().Register("cart_v2", "Shopping Cart")
	outcomes := NewMapVocabulary().Register("timeout", "Ran out of patience")

	chain := ChainVocabulary{screens, outcomes}

	tests := []struct {
		code, want string
	}{
		{"cart_v2", "Shopping Cart"},
		{"timeout", "Ran out of patience"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := chain.Name(tt.code); got != tt.want {
			t.Errorf("ChainVocabulary.Name(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestChainVocabulary_FirstWins(t *testing.T) {
	first := NewMapVocabulary().Register("X", "First")
	second := NewMapVocabulary().Register("X", "Second")

	chain := ChainVocabulary{first, second}
	if got := chain.Name("X"); got != "First" {
		t.Errorf("chain should pick first match: got %q, want First", got)
	}
}
