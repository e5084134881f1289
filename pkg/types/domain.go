package types

// ModelType identifies one of the two heavyweight backends that share the
// machine's memory budget. Only one of them may be loaded at a time when the
// budget does not cover both.
type ModelType string

const (
	// ModelTypeTranscription is the subprocess-based speech-to-text engine.
	ModelTypeTranscription ModelType = "transcription_engine"
	// ModelTypeLanguage is the local language model used for text correction.
	ModelTypeLanguage ModelType = "language_model"
)

// ModelState is the lifecycle state of a model slot.
type ModelState string

const (
	StateUnloaded  ModelState = "unloaded"
	StateLoading   ModelState = "loading"
	StateLoaded    ModelState = "loaded"
	StateUnloading ModelState = "unloading"
	StateFailed    ModelState = "failed"
)

// GPUAcceleration reports the acceleration backend detected at startup.
type GPUAcceleration string

const (
	GPUMetal GPUAcceleration = "metal"
	GPUCUDA  GPUAcceleration = "cuda"
	GPUNone  GPUAcceleration = "none"
)

// CorrectionLevel controls prompt aggressiveness and generation parameters.
type CorrectionLevel string

const (
	LevelBasic    CorrectionLevel = "basic"
	LevelAdvanced CorrectionLevel = "advanced"
	LevelFormal   CorrectionLevel = "formal"
)

// Valid reports whether the level is one of the known values.
func (l CorrectionLevel) Valid() bool {
	switch l {
	case LevelBasic, LevelAdvanced, LevelFormal:
		return true
	}
	return false
}

// CorrectionMethod records which path produced the corrected text.
type CorrectionMethod string

const (
	MethodLLM       CorrectionMethod = "llm"
	MethodRuleBased CorrectionMethod = "rule_based"
)

// ResourceStatus is a read-only snapshot of the resource arbiter.
type ResourceStatus struct {
	// Available system memory in GB.
	// example: 9.4
	AvailableGB float64 `json:"available_gb" example:"9.4"`
	// Percentage of system memory in use.
	// example: 41.2
	PercentUsed float64 `json:"percent_used" example:"41.2"`
	// Detected GPU acceleration backend.
	// example: cuda
	GPUAcceleration GPUAcceleration `json:"gpu_acceleration" example:"cuda"`
	// Current lifecycle state per model slot.
	ModelStates map[ModelType]ModelState `json:"model_states"`
	// False once memory use passes the warning threshold.
	// example: true
	MemorySafe bool `json:"memory_safe" example:"true"`
}
