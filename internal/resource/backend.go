package resource

import (
	"context"

	"correctd/internal/llm"
	"correctd/pkg/types"
)

// ManagedModel abstracts a heavyweight backend whose lifecycle the manager
// owns. Implementations: SubprocessModel (external server process) and
// InProcessModel (go-llama.cpp in this process).
type ManagedModel interface {
	Type() types.ModelType
	// Load brings the backend up; it must be safe to call once per lifecycle.
	Load(ctx context.Context) error
	// Unload tears the backend down. It must leave the process in a state
	// where the slot's memory can be reclaimed by the OS.
	Unload(ctx context.Context) error
	// Healthy reports whether the loaded backend is responsive.
	Healthy(ctx context.Context) bool
}

// LanguageBackend is implemented by language-model backends that can serve
// inference once loaded.
type LanguageBackend interface {
	ManagedModel
	Client() llm.Client
}

// ModelConfig carries per-load backend settings.
type ModelConfig struct {
	// ModelPath is the weights file for the backend.
	ModelPath string
	// BinPath is the server binary for subprocess backends.
	BinPath string
	// InProcess selects the in-process runtime for the language model.
	InProcess bool

	ContextLength int
	Threads       int
	NGPULayers    int
}

// Factory builds a ManagedModel for a slot. Swappable in tests.
type Factory func(mt types.ModelType, cfg ModelConfig) (ManagedModel, error)

// defaultFactory wires the production backends: subprocess servers for both
// model types, or the in-process runtime for the language model on request.
func defaultFactory(mt types.ModelType, cfg ModelConfig) (ManagedModel, error) {
	if mt == types.ModelTypeLanguage && cfg.InProcess {
		return NewInProcessModel(cfg), nil
	}
	return NewSubprocessModel(mt, cfg), nil
}
