//go:build !llama

package llm

// This stub compiles when the 'llama' build tag is NOT set, keeping default
// builds and CI CGO-free. The real runtime lives in local.go (tagged 'llama').

// LocalOptions configures the in-process go-llama.cpp runtime.
type LocalOptions struct {
	ContextLength int
	Threads       int
	NGPULayers    int
}

// NewLocal fails fast: the in-process runtime is not available in this build.
// Callers treat this as a model load failure and fall back.
func NewLocal(modelPath string, opts LocalOptions) (Client, error) {
	return nil, notBuiltError{}
}
