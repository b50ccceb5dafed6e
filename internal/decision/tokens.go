package decision

import (
	"strings"
	"unicode"
)

// stopwords are dropped during tokenization. Deliberately small: edge and
// goal texts are short labels, and over-aggressive filtering would erase
// the signal the overlap score depends on.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "of": {}, "in": {}, "on": {},
	"for": {}, "and": {}, "or": {}, "with": {}, "is": {}, "are": {},
	"this": {}, "that": {}, "it": {}, "at": {}, "by": {}, "from": {},
	"your": {}, "you": {}, "my": {}, "i": {},
}

// ctaVocab is the generic call-to-action vocabulary. Any overlap earns a
// small bonus: these labels signal forward motion regardless of goal text.
var ctaVocab = map[string]struct{}{
	"continue": {}, "next": {}, "submit": {}, "confirm": {}, "proceed": {},
	"start": {}, "finish": {}, "done": {}, "ok": {}, "go": {}, "open": {},
}

// backVocab marks actions that undo progress.
var backVocab = map[string]struct{}{
	"back": {}, "return": {}, "close": {}, "cancel": {},
}

// Tokenize lowercases the given texts and splits them into alphanumeric
// tokens with stopwords removed. It is total: nil, empty, and arbitrarily
// malformed input all yield a (possibly empty) set, never an error.
func Tokenize(texts ...string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, text := range texts {
		fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, f := range fields {
			if _, skip := stopwords[f]; skip {
				continue
			}
			tokens[f] = struct{}{}
		}
	}
	return tokens
}

// overlap counts tokens present in both sets.
func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}

// intersects reports whether any token of a is in vocab.
func intersects(a, vocab map[string]struct{}) bool {
	for tok := range a {
		if _, ok := vocab[tok]; ok {
			return true
		}
	}
	return false
}
