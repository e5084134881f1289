package processor

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"correctd/internal/chunker"
)

func splitFixture(t *testing.T, text string, budget, overlap int) []chunker.Chunk {
	t.Helper()
	c := chunker.New(chunker.Config{PromptReserveTokens: 1})
	chunks := c.Split(text, budget, overlap)
	if len(chunks) < 2 {
		t.Fatalf("fixture did not split: %d chunks", len(chunks))
	}
	return chunks
}

func passthroughResults(chunks []chunker.Chunk) []Result {
	results := make([]Result, len(chunks))
	for i, ck := range chunks {
		results[i] = Result{Chunk: ck, CorrectedText: ck.Text, Success: true}
	}
	return results
}

func TestReassemblePassthroughExact(t *testing.T) {
	text := "Satz eins. Satz zwei. Satz drei. Satz vier. Satz fünf."
	chunks := splitFixture(t, text, 8, 1)
	if got := Reassemble(passthroughResults(chunks)); got != text {
		t.Fatalf("reassembly not byte-exact:\n got %q\nwant %q", got, text)
	}
}

func TestReassembleEachSentenceOnce(t *testing.T) {
	text := "Satz eins. Satz zwei. Satz drei."
	chunks := splitFixture(t, text, 8, 1)
	got := Reassemble(passthroughResults(chunks))
	for _, s := range []string{"Satz eins.", "Satz zwei.", "Satz drei."} {
		if strings.Count(got, s) != 1 {
			t.Fatalf("sentence %q appears %d times in %q", s, strings.Count(got, s), got)
		}
	}
}

func TestReassembleWithFailedChunk(t *testing.T) {
	text := "Alpha one. Beta two. Gamma three. Delta four. Epsilon five. Zeta six."
	chunks := splitFixture(t, text, 10, 1)
	results := passthroughResults(chunks)
	// Mark the second chunk failed; it keeps original text so the recorded
	// overlap span still matches exactly.
	results[1].Success = false
	got := Reassemble(results)
	if got != text {
		t.Fatalf("failed chunk broke reassembly:\n got %q\nwant %q", got, text)
	}
}

func TestReassembleCorrectedOverlap(t *testing.T) {
	text := "Alpha one. Beta two. Gamma three. Delta four. Epsilon five. Zeta six."
	chunks := splitFixture(t, text, 10, 1)
	p := NewSequential(zerolog.Nop())
	// The "model" uppercases everything, so the overlap bytes change too.
	out, results := p.Process(context.Background(), chunks, func(ctx context.Context, s string) (string, error) {
		return strings.ToUpper(s), nil
	}, nil)
	for _, r := range results {
		if !r.Success {
			t.Fatalf("chunk %d failed: %v", r.Chunk.Index, r.Err)
		}
	}
	want := strings.ToUpper(text)
	if out != want {
		t.Fatalf("overlap dedup on corrected text failed:\n got %q\nwant %q", out, want)
	}
}

func TestReassembleConservativeWhenNoMatch(t *testing.T) {
	// If the model rewrote the overlap beyond recognition, nothing is
	// trimmed: duplicated context is acceptable, dropped text is not.
	results := []Result{
		{Chunk: chunker.Chunk{Text: "First part. Shared tail."}, CorrectedText: "First part. Shared tail.", Success: true},
		{
			Chunk:         chunker.Chunk{Text: "Shared tail. Second part.", OverlapStart: len("Shared tail.")},
			CorrectedText: "Completely rewritten beginning. Second part.",
			Success:       true,
		},
	}
	got := Reassemble(results)
	if !strings.Contains(got, "First part.") || !strings.Contains(got, "Second part.") {
		t.Fatalf("text was dropped: %q", got)
	}
	if !strings.Contains(got, "Completely rewritten beginning.") {
		t.Fatalf("conservative path must keep the rewritten chunk intact: %q", got)
	}
}

func TestSuffixPrefixMatch(t *testing.T) {
	cases := []struct {
		assembled, next string
		limit, want     int
	}{
		{"hello world. ", "world. more", 20, 7},
		{"abc", "xyz", 10, 0},
		{"abcabc", "abcxyz", 6, 3},
		{"", "anything", 10, 0},
	}
	for _, tc := range cases {
		if got := suffixPrefixMatch(tc.assembled, tc.next, tc.limit); got != tc.want {
			t.Fatalf("suffixPrefixMatch(%q,%q,%d) = %d, want %d", tc.assembled, tc.next, tc.limit, got, tc.want)
		}
	}
}
