package resource

import "fmt"

// memoryInsufficientError signals a failed pre-load memory check. Non-fatal:
// callers route to the rule-based fallback.
type memoryInsufficientError struct {
	availableGB float64
	requiredGB  float64
}

func (e memoryInsufficientError) Error() string {
	return fmt.Sprintf("insufficient memory: %.1fGB available, %.1fGB required", e.availableGB, e.requiredGB)
}

// ErrMemoryInsufficient constructs a memoryInsufficientError.
func ErrMemoryInsufficient(availableGB, requiredGB float64) error {
	return memoryInsufficientError{availableGB: availableGB, requiredGB: requiredGB}
}

// IsMemoryInsufficient reports whether err is a failed memory check.
func IsMemoryInsufficient(err error) bool {
	_, ok := err.(memoryInsufficientError)
	return ok
}

// loadFailureError wraps a backend load error.
type loadFailureError struct {
	modelType string
	cause     error
}

func (e loadFailureError) Error() string {
	return "model load failed: " + e.modelType + ": " + e.cause.Error()
}

func (e loadFailureError) Unwrap() error { return e.cause }

// ErrModelLoadFailure constructs a loadFailureError.
func ErrModelLoadFailure(modelType string, cause error) error {
	return loadFailureError{modelType: modelType, cause: cause}
}

// IsModelLoadFailure reports whether err is a backend load failure.
func IsModelLoadFailure(err error) bool {
	_, ok := err.(loadFailureError)
	return ok
}

// notLoadedError is returned when releasing a slot that holds no model.
type notLoadedError struct{ modelType string }

func (e notLoadedError) Error() string { return "model not loaded: " + e.modelType }

// ErrNotLoaded constructs a notLoadedError.
func ErrNotLoaded(modelType string) error { return notLoadedError{modelType: modelType} }

// IsNotLoaded reports whether err indicates an empty slot.
func IsNotLoaded(err error) bool {
	_, ok := err.(notLoadedError)
	return ok
}

// swapIncompleteError signals that the second half of a swap failed. Both
// slots are left unloaded; callers surface this as a load failure.
type swapIncompleteError struct {
	from string
	to   string
}

func (e swapIncompleteError) Error() string {
	return "swap incomplete: released " + e.from + " but failed to load " + e.to
}

// ErrSwapIncomplete constructs a swapIncompleteError.
func ErrSwapIncomplete(from, to string) error { return swapIncompleteError{from: from, to: to} }

// IsSwapIncomplete reports whether err indicates a half-completed swap.
func IsSwapIncomplete(err error) bool {
	_, ok := err.(swapIncompleteError)
	return ok
}

// dependencyUnavailableError signals a missing external dependency (e.g. a
// server binary) so callers can distinguish it from a transient failure.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing dependency.
func IsDependencyUnavailable(err error) bool {
	_, ok := err.(dependencyUnavailableError)
	return ok
}
