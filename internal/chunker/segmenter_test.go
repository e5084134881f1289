package chunker

import "testing"

func segmentWith(t *testing.T, seg Segmenter, text string) []Span {
	t.Helper()
	spans, err := seg.Segment(text)
	if err != nil {
		t.Fatalf("%s segment: %v", seg.Name(), err)
	}
	return spans
}

func assertTiling(t *testing.T, text string, spans []Span) {
	t.Helper()
	if len(spans) == 0 {
		return
	}
	if spans[0].Start != 0 {
		t.Fatalf("first span starts at %d", spans[0].Start)
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start != spans[i-1].End {
			t.Fatalf("gap between span %d and %d", i-1, i)
		}
	}
	if spans[len(spans)-1].End != len(text) {
		t.Fatalf("last span ends at %d, want %d", spans[len(spans)-1].End, len(text))
	}
}

func TestSegmenterChainNotEmpty(t *testing.T) {
	chain := newSegmenterChain()
	if len(chain) < 2 {
		t.Fatalf("expected at least heuristic+regex in the chain, got %d", len(chain))
	}
}

func TestSegmentersTile(t *testing.T) {
	texts := []string{
		"One. Two! Three?",
		"Dr. Brown arrived at 3.50 pm. He left soon after.",
		"Trailing text without punctuation",
		"",
	}
	for _, seg := range []Segmenter{&heuristicSegmenter{}, &regexSegmenter{}} {
		for _, text := range texts {
			assertTiling(t, text, segmentWith(t, seg, text))
		}
	}
}

func TestHeuristicAbbreviations(t *testing.T) {
	seg := &heuristicSegmenter{}
	spans := segmentWith(t, seg, "Dr. Brown spoke. Everyone listened.")
	if len(spans) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(spans))
	}
}

func TestHeuristicDecimals(t *testing.T) {
	seg := &heuristicSegmenter{}
	spans := segmentWith(t, seg, "Pi is 3.14 roughly. Euler is 2.71 roughly.")
	if len(spans) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(spans))
	}
}

func TestRegexSegmenterBasic(t *testing.T) {
	seg := &regexSegmenter{}
	spans := segmentWith(t, seg, "Eins. Zwei. Drei.")
	if len(spans) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(spans))
	}
}

func TestPunktSegmenterWhenAvailable(t *testing.T) {
	p, err := newPunktSegmenter()
	if err != nil {
		t.Skipf("punkt tokenizer unavailable: %v", err)
	}
	text := "The meeting ran long. We still finished the agenda."
	spans := segmentWith(t, p, text)
	if len(spans) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(spans))
	}
	assertTiling(t, text, spans)
}
