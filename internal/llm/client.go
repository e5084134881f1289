// Package llm abstracts the Language Model Backend used for chunk correction.
// Two implementations exist: an HTTP client for a managed llama-server
// subprocess, and an in-process go-llama.cpp runtime behind the 'llama' tag.
package llm

import "context"

// Params captures generation parameters for one inference call.
type Params struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
	Stop        []string
}

// Client is the minimal inference surface the orchestrator depends on.
// Implementations may block; callers bound calls with the context.
type Client interface {
	// Infer runs a completion for prompt and returns the generated text.
	Infer(ctx context.Context, prompt string, p Params) (string, error)
	// Close releases backend resources.
	Close() error
}

// notBuiltError signals the in-process runtime was not compiled in.
type notBuiltError struct{}

func (notBuiltError) Error() string {
	return "in-process llama support not built (missing 'llama' build tag)"
}

// IsNotBuilt reports whether err indicates a missing in-process runtime.
func IsNotBuilt(err error) bool {
	_, ok := err.(notBuiltError)
	return ok
}
