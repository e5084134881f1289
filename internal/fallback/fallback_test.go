package fallback

import "testing"

func TestCorrectRules(t *testing.T) {
	c := New()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"capitalization", "this is a test. another sentence.", "This is a test. Another sentence."},
		{"space before punct", "hello , world .", "Hello, world."},
		{"missing space after punct", "first.second", "First. Second"},
		{"multi space", "too   many    spaces here.", "Too many spaces here."},
		{"duplicate words", "the the quick brown fox.", "The quick brown fox."},
		{"contraction", "i dont know.", "I don't know."},
		{"standalone i", "so i said yes.", "So I said yes."},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Correct(tc.in); got != tc.want {
				t.Fatalf("Correct(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCorrectDeterministic(t *testing.T) {
	c := New()
	in := "some   text , with issues.it repeats repeats words."
	first := c.Correct(in)
	for i := 0; i < 5; i++ {
		if got := c.Correct(in); got != first {
			t.Fatalf("corrector is not deterministic")
		}
	}
}

func TestCorrectIdempotentOnCleanText(t *testing.T) {
	c := New()
	clean := "This sentence is already fine. So is this one."
	if got := c.Correct(clean); got != clean {
		t.Fatalf("clean text must pass through unchanged, got %q", got)
	}
}

func TestCorrectNeverPanicsOnOddInput(t *testing.T) {
	c := New()
	for _, in := range []string{"...", "!!!", "   ", "émile zola. ça va.", "123. 456."} {
		_ = c.Correct(in)
	}
}
