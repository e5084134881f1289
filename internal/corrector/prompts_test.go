package corrector

import (
	"strings"
	"testing"

	"correctd/internal/config"
	"correctd/pkg/types"
)

func TestBuildPromptEmbedsText(t *testing.T) {
	for _, level := range []types.CorrectionLevel{types.LevelBasic, types.LevelAdvanced, types.LevelFormal} {
		p := buildPrompt(level, "teh quick fox")
		if !strings.Contains(p, "teh quick fox") {
			t.Fatalf("%s prompt does not embed the chunk text", level)
		}
		if !strings.HasSuffix(p, "Corrected text:") {
			t.Fatalf("%s prompt must end with the completion cue", level)
		}
	}
}

func TestGenerationParamsCapsTemperature(t *testing.T) {
	cfg := config.Correction{Temperature: 0.9, MaxTokens: 512}

	if got := generationParams(types.LevelBasic, cfg).Temperature; got != 0.3 {
		t.Fatalf("basic temperature = %v, want capped 0.3", got)
	}
	if got := generationParams(types.LevelFormal, cfg).Temperature; got != 0.4 {
		t.Fatalf("formal temperature = %v, want capped 0.4", got)
	}
	if got := generationParams(types.LevelAdvanced, cfg).Temperature; got != 0.5 {
		t.Fatalf("advanced temperature = %v, want capped 0.5", got)
	}
	if got := generationParams(types.LevelBasic, cfg).MaxTokens; got != 512 {
		t.Fatalf("max tokens = %d, want 512", got)
	}
}

func TestCleanCompletion(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  hello  ", "hello"},
		{`"wrapped in quotes"`, "wrapped in quotes"},
		{"\n\"both\" \n", "both"},
		{"", ""},
		{`"`, `"`},
	}
	for _, c := range cases {
		if got := cleanCompletion(c.in); got != c.want {
			t.Fatalf("cleanCompletion(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestApproxChanges(t *testing.T) {
	cases := []struct {
		original, corrected string
		want                int
	}{
		{"same text", "same text", 0},
		{"teh cat", "the cat", 1},
		{"one two three", "one two three four", 1},
		{"a b c d", "w x y z", 4},
	}
	for _, c := range cases {
		if got := approxChanges(c.original, c.corrected); got != c.want {
			t.Fatalf("approxChanges(%q, %q) = %d, want %d", c.original, c.corrected, got, c.want)
		}
	}
}
