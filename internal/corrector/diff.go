package corrector

import "strings"

// approxChanges estimates how many words differ between the original and the
// corrected text. Symmetric word-frequency difference: cheap, order-blind,
// good enough for the "~N changes" metadata the callers display.
func approxChanges(original, corrected string) int {
	if original == corrected {
		return 0
	}
	freq := map[string]int{}
	for _, w := range strings.Fields(original) {
		freq[strings.ToLower(w)]++
	}
	for _, w := range strings.Fields(corrected) {
		freq[strings.ToLower(w)]--
	}
	diff := 0
	for _, n := range freq {
		if n < 0 {
			n = -n
		}
		diff += n
	}
	// Each substitution shows up twice: once as a removed word, once as an
	// added one.
	return (diff + 1) / 2
}
