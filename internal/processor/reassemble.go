package processor

import "strings"

// minOverlapMatch is the smallest suffix/prefix match accepted when the
// corrected overlap no longer matches the original byte-for-byte. Below this
// the trim is skipped entirely; duplicated context beats dropped text.
const minOverlapMatch = 8

// Reassemble concatenates corrected chunk texts in order, removing duplicated
// overlap content. The overlap byte spans recorded by the chunker locate the
// duplicate; when the model rewrote the overlap region a longest
// suffix/prefix match trims conservatively instead.
func Reassemble(results []Result) string {
	var b strings.Builder
	for i, r := range results {
		text := r.CorrectedText
		overlap := r.Chunk.OverlapStart
		if i == 0 || overlap <= 0 {
			b.WriteString(text)
			continue
		}
		// Exact case: the chunk still starts with the original overlap bytes.
		// Always true for failed/cancelled chunks since those keep the
		// original text.
		orig := r.Chunk.Text
		if overlap <= len(orig) && strings.HasPrefix(text, orig[:overlap]) {
			b.WriteString(text[overlap:])
			continue
		}
		// The model rewrote the overlap; find the longest prefix of this
		// chunk already present as a suffix of the assembled output. Search
		// is bounded by twice the recorded overlap to stay local.
		if cut := suffixPrefixMatch(b.String(), text, 2*overlap); cut >= minOverlapMatch {
			b.WriteString(text[cut:])
			continue
		}
		b.WriteString(text)
	}
	return b.String()
}

// suffixPrefixMatch returns the length of the longest prefix of next that is
// also a suffix of assembled, considering at most limit bytes.
func suffixPrefixMatch(assembled, next string, limit int) int {
	if limit > len(next) {
		limit = len(next)
	}
	if limit > len(assembled) {
		limit = len(assembled)
	}
	for n := limit; n > 0; n-- {
		if strings.HasSuffix(assembled, next[:n]) {
			return n
		}
	}
	return 0
}
