package corrector

import (
	"fmt"
	"strings"

	"correctd/internal/config"
	"correctd/internal/llm"
	"correctd/pkg/types"
)

// Prompt templates per correction level. Each asks for the corrected text
// only, so the completion can be spliced back without post-parsing.
const (
	promptBasic = `Fix obvious transcription errors in the following text: spelling, punctuation and word repetitions. Do not rephrase. Reply with the corrected text only.

Text:
%s

Corrected text:`

	promptAdvanced = `Correct the following transcribed text: fix spelling, punctuation, grammar and word order while keeping the speaker's wording and meaning. Reply with the corrected text only.

Text:
%s

Corrected text:`

	promptFormal = `Rewrite the following transcribed text into correct, formal written language: fix all errors and replace colloquial phrasing with its formal equivalent, preserving the meaning exactly. Reply with the corrected text only.

Text:
%s

Corrected text:`
)

// buildPrompt formats the level-specific prompt for one chunk.
func buildPrompt(level types.CorrectionLevel, text string) string {
	switch level {
	case types.LevelAdvanced:
		return fmt.Sprintf(promptAdvanced, text)
	case types.LevelFormal:
		return fmt.Sprintf(promptFormal, text)
	default:
		return fmt.Sprintf(promptBasic, text)
	}
}

// generationParams derives per-level generation parameters. Basic correction
// runs coldest so the model stays close to the input; advanced gets the most
// freedom.
func generationParams(level types.CorrectionLevel, cfg config.Correction) llm.Params {
	temp := float32(cfg.Temperature)
	switch level {
	case types.LevelBasic:
		if temp > 0.3 {
			temp = 0.3
		}
	case types.LevelAdvanced:
		if temp > 0.5 {
			temp = 0.5
		}
	case types.LevelFormal:
		if temp > 0.4 {
			temp = 0.4
		}
	}
	return llm.Params{
		Temperature: temp,
		TopP:        0.9,
		MaxTokens:   cfg.MaxTokens,
		Stop:        []string{"\n\nText:"},
	}
}

// cleanCompletion strips the whitespace and quote wrapping models tend to add
// around the corrected text.
func cleanCompletion(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
