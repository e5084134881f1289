// Package fallback provides deterministic rule-based text correction used
// when the language model is unavailable or resources are insufficient.
package fallback

import (
	"regexp"
	"strings"
	"unicode"
)

// Corrector applies a fixed set of rule-based normalizations. Pure and
// deterministic; it never fails and in the worst case returns its input
// unchanged.
type Corrector struct{}

// New returns a rule-based corrector.
func New() *Corrector { return &Corrector{} }

var (
	multiSpaceRe     = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.,!?;:])`)
	missingSpaceRe   = regexp.MustCompile(`([.,!?;:])([A-Za-zÄÖÜäöü])`)
	standaloneIRe    = regexp.MustCompile(`\bi\b`)
)

// Common transcription artifacts fixed by substitution. Keys must be whole
// words; matching is case-sensitive on the lowercase form.
var substitutions = map[string]string{
	"dont":    "don't",
	"doesnt":  "doesn't",
	"didnt":   "didn't",
	"cant":    "can't",
	"couldnt": "couldn't",
	"wont":    "won't",
	"wouldnt": "wouldn't",
	"isnt":    "isn't",
	"wasnt":   "wasn't",
	"arent":   "aren't",
	"im":      "I'm",
	"ive":     "I've",
	"youre":   "you're",
	"theyre":  "they're",
	"thats":   "that's",
	"whats":   "what's",
	"lets":    "let's",
}

var wordRe = regexp.MustCompile(`\b[a-z]+\b`)

// Correct normalizes whitespace, punctuation spacing, sentence
// capitalization, duplicated words and a fixed substitution table.
func (c *Corrector) Correct(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	out := text

	// Whitespace and punctuation spacing.
	out = multiSpaceRe.ReplaceAllString(out, " ")
	out = spaceBeforePunct.ReplaceAllString(out, "$1")
	out = missingSpaceRe.ReplaceAllString(out, "$1 $2")

	// Collapse immediate word repetitions ("the the" -> "the").
	out = collapseDuplicateWords(out)

	// Known contraction artifacts.
	out = wordRe.ReplaceAllStringFunc(out, func(w string) string {
		if rep, ok := substitutions[w]; ok {
			return rep
		}
		return w
	})

	// Standalone lowercase "i".
	out = standaloneIRe.ReplaceAllString(out, "I")

	out = capitalizeSentences(out)
	return strings.TrimSpace(out)
}

// collapseDuplicateWords drops a word that immediately repeats the previous
// one, case-insensitively. Backreferences are not available in RE2, so this
// is a plain scan. Only bare words collapse; tokens carrying punctuation are
// kept as-is.
func collapseDuplicateWords(s string) string {
	words := strings.Split(s, " ")
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if len(kept) > 0 && isBareWord(w) && strings.EqualFold(w, kept[len(kept)-1]) {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func isBareWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// capitalizeSentences upper-cases the first letter of the text and of every
// sentence following terminal punctuation.
func capitalizeSentences(s string) string {
	runes := []rune(s)
	capNext := true
	for i, r := range runes {
		switch {
		case capNext && unicode.IsLetter(r):
			runes[i] = unicode.ToUpper(r)
			capNext = false
		case r == '.' || r == '!' || r == '?':
			capNext = true
		}
	}
	return string(runes)
}
