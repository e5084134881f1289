package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Span is a half-open byte range into the source text. Spans produced by a
// segmenter tile the text: span i ends where span i+1 begins, the first span
// starts at 0 and the last ends at len(text).
type Span struct {
	Start int
	End   int
}

// Segmenter splits text into tiling sentence spans.
type Segmenter interface {
	// Name identifies the strategy for diagnostics.
	Name() string
	// Segment returns sentence spans covering the whole text. An error makes
	// the chunker fall through to the next strategy in the chain.
	Segment(text string) ([]Span, error)
}

// newSegmenterChain builds the priority-ordered strategy chain. Strategies
// whose construction fails are dropped here; runtime failures make the chunker
// fall through to the next entry. The regex splitter never fails, so the chain
// is never empty.
func newSegmenterChain() []Segmenter {
	var chain []Segmenter
	if s, err := newPunktSegmenter(); err == nil {
		chain = append(chain, s)
	}
	chain = append(chain, &heuristicSegmenter{}, &regexSegmenter{})
	return chain
}

// punktSegmenter uses the trained punkt tokenizer from neurosnap/sentences.
type punktSegmenter struct {
	tok *sentences.DefaultSentenceTokenizer
}

func newPunktSegmenter() (*punktSegmenter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &punktSegmenter{tok: tok}, nil
}

func (p *punktSegmenter) Name() string { return "punkt" }

func (p *punktSegmenter) Segment(text string) ([]Span, error) {
	sents := p.tok.Tokenize(text)
	if len(sents) == 0 {
		return nil, nil
	}
	// The tokenizer reports sentence text; rebuild tiling spans by locating
	// each sentence from a moving cursor so offsets stay exact even when the
	// tokenizer trims whitespace.
	spans := make([]Span, 0, len(sents))
	cursor := 0
	start := 0
	for _, s := range sents {
		body := strings.TrimSpace(s.Text)
		if body == "" {
			continue
		}
		idx := strings.Index(text[cursor:], body)
		if idx < 0 {
			// Tokenizer produced text we cannot map back; bail so the chunker
			// can retry with the next strategy.
			return nil, errSpanMismatch
		}
		end := cursor + idx + len(body)
		spans = append(spans, Span{Start: start, End: end})
		start = end
		cursor = end
	}
	if len(spans) == 0 {
		return nil, nil
	}
	spans[len(spans)-1].End = len(text)
	return spans, nil
}

type spanMismatchError struct{}

func (spanMismatchError) Error() string { return "segmenter: sentence text not found in source" }

var errSpanMismatch = spanMismatchError{}

// heuristicSegmenter scans for terminal punctuation while skipping common
// abbreviations and decimal points. Secondary strategy; never fails.
type heuristicSegmenter struct{}

func (h *heuristicSegmenter) Name() string { return "heuristic" }

var commonAbbrev = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
	"sr": true, "jr": true, "st": true, "vs": true, "etc": true,
	"e.g": true, "i.e": true, "approx": true, "no": true, "fig": true,
}

func (h *heuristicSegmenter) Segment(text string) ([]Span, error) {
	var spans []Span
	start := 0
	runes := []rune(text)
	pos := 0 // byte position of runes[i]
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		sz := utf8.RuneLen(r)
		if r == '.' || r == '!' || r == '?' {
			if r == '.' && h.insideNumber(runes, i) {
				pos += sz
				continue
			}
			if r == '.' && h.afterAbbrev(text, pos) {
				pos += sz
				continue
			}
			// Consume any run of terminal punctuation and closing quotes.
			end := pos + sz
			for j := i + 1; j < len(runes); j++ {
				rj := runes[j]
				if rj == '.' || rj == '!' || rj == '?' || rj == '"' || rj == '\'' || rj == ')' {
					end += utf8.RuneLen(rj)
					i = j
					continue
				}
				break
			}
			// A boundary only counts if followed by whitespace or end of text.
			if end >= len(text) || isSpaceAt(text, end) {
				spans = append(spans, Span{Start: start, End: end})
				start = end
			}
			pos = end
			continue
		}
		pos += sz
	}
	if start < len(text) {
		if strings.TrimSpace(text[start:]) != "" {
			spans = append(spans, Span{Start: start, End: len(text)})
		} else if len(spans) > 0 {
			spans[len(spans)-1].End = len(text)
		}
	} else if len(spans) > 0 {
		spans[len(spans)-1].End = len(text)
	}
	return spans, nil
}

func (h *heuristicSegmenter) insideNumber(runes []rune, i int) bool {
	return i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1])
}

func (h *heuristicSegmenter) afterAbbrev(text string, dot int) bool {
	wordStart := dot
	for wordStart > 0 {
		r, sz := utf8.DecodeLastRuneInString(text[:wordStart])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		wordStart -= sz
	}
	word := strings.ToLower(strings.TrimSuffix(text[wordStart:dot], "."))
	return commonAbbrev[word]
}

func isSpaceAt(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}

// regexSegmenter is the tertiary fallback: split on terminal punctuation runs.
type regexSegmenter struct{}

func (r *regexSegmenter) Name() string { return "regex" }

var sentenceEndRe = regexp.MustCompile(`[.!?]+(\s+|$)`)

func (r *regexSegmenter) Segment(text string) ([]Span, error) {
	locs := sentenceEndRe.FindAllStringIndex(text, -1)
	var spans []Span
	start := 0
	for _, loc := range locs {
		spans = append(spans, Span{Start: start, End: loc[1]})
		start = loc[1]
	}
	if start < len(text) {
		spans = append(spans, Span{Start: start, End: len(text)})
	} else if len(spans) > 0 {
		spans[len(spans)-1].End = len(text)
	}
	return spans, nil
}
