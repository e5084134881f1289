// Package chunker splits long transcribed text into sentence-respecting,
// token-budgeted chunks with configurable sentence overlap between neighbors.
package chunker

import (
	"strings"
)

// Chunk is one model-sized slice of the source text.
type Chunk struct {
	// Text is the chunk content, including any leading overlap sentences.
	Text string
	// Index is the sequence order of the chunk.
	Index int
	// StartPos/EndPos are byte offsets of Text within the source.
	StartPos int
	EndPos   int
	// OverlapStart is the number of leading bytes shared with the previous
	// chunk; OverlapEnd the number of trailing bytes repeated in the next.
	OverlapStart int
	OverlapEnd   int
	// SentenceStart/SentenceEnd are the sentence indices covered, half-open.
	SentenceStart int
	SentenceEnd   int
	// TokenCount is the estimated token count of Text.
	TokenCount int
	// Degenerate marks a single sentence that alone exceeds the token budget.
	Degenerate bool
}

// Defaults applied when the corresponding Config fields are unset.
const (
	defaultBytesPerToken = 4
	defaultPromptReserve = 256
)

// Config holds chunker tunables. Zero values select package defaults.
type Config struct {
	// BytesPerToken is the estimation coefficient: tokens ~= ceil(bytes/BPT).
	BytesPerToken int
	// PromptReserveTokens is subtracted from the context budget to leave room
	// for the correction prompt wrapper.
	PromptReserveTokens int
}

// Chunker splits text using the first working strategy from a fallback chain.
// It never returns errors; an unusable strategy degrades to the next one.
type Chunker struct {
	chain         []Segmenter
	bytesPerToken int
	reserve       int
	selected      string
}

// New constructs a Chunker, evaluating the segmenter chain once.
func New(cfg Config) *Chunker {
	c := &Chunker{
		chain:         newSegmenterChain(),
		bytesPerToken: cfg.BytesPerToken,
		reserve:       cfg.PromptReserveTokens,
	}
	if c.bytesPerToken <= 0 {
		c.bytesPerToken = defaultBytesPerToken
	}
	if c.reserve <= 0 {
		c.reserve = defaultPromptReserve
	}
	c.selected = c.chain[0].Name()
	return c
}

// Strategy reports the sentence segmentation strategy selected at
// construction, for diagnostics.
func (c *Chunker) Strategy() string { return c.selected }

// EstimateTokens estimates the token count of s. Byte-ratio estimate with a
// word-count floor so short texts in wide scripts are not undercounted.
func (c *Chunker) EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	t := (len(s) + c.bytesPerToken - 1) / c.bytesPerToken
	if w := len(strings.Fields(s)); w > t {
		t = w
	}
	return t
}

// segment runs the strategy chain, falling through on runtime failure. The
// regex strategy terminates the chain and cannot fail.
func (c *Chunker) segment(text string) []Span {
	for _, seg := range c.chain {
		spans, err := seg.Segment(text)
		if err != nil {
			continue
		}
		c.selected = seg.Name()
		return spans
	}
	return nil
}

// Split chunks text under maxContextTokens, repeating the last
// overlapSentences sentences of each chunk at the start of the next.
// Empty or whitespace-only input yields no chunks.
func (c *Chunker) Split(text string, maxContextTokens, overlapSentences int) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	spans := c.segment(text)
	if len(spans) == 0 {
		return nil
	}
	budget := maxContextTokens - c.reserve
	if budget < 1 {
		budget = 1
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}

	tokens := make([]int, len(spans))
	for i, sp := range spans {
		tokens[i] = c.EstimateTokens(text[sp.Start:sp.End])
	}

	var chunks []Chunk
	first := 0 // first sentence of the current chunk
	lead := 0  // how many of those are overlap from the previous chunk
	for first < len(spans) {
		sum := 0
		last := first
		for last < len(spans) {
			if sum > 0 && sum+tokens[last] > budget {
				break
			}
			sum += tokens[last]
			last++
		}
		degenerate := last == first+1 && tokens[first] > budget

		start := spans[first].Start
		end := spans[last-1].End
		ck := Chunk{
			Text:          text[start:end],
			Index:         len(chunks),
			StartPos:      start,
			EndPos:        end,
			SentenceStart: first,
			SentenceEnd:   last,
			TokenCount:    sum,
			Degenerate:    degenerate,
		}
		if lead > 0 {
			ck.OverlapStart = spans[first+lead].Start - start
		}
		chunks = append(chunks, ck)

		if last >= len(spans) {
			break
		}
		// Start the next chunk overlapSentences back, but always make forward
		// progress past the previous chunk's first fresh sentence.
		next := last - overlapSentences
		min := first + lead + 1
		if next < min {
			next = min
		}
		if next > last {
			next = last
		}
		lead = last - next
		first = next
	}

	// OverlapEnd of chunk i mirrors OverlapStart of chunk i+1.
	for i := 0; i < len(chunks)-1; i++ {
		chunks[i].OverlapEnd = chunks[i+1].OverlapStart
	}
	return chunks
}
