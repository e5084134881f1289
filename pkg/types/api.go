package types

// CorrectionRequest is the payload accepted by POST /correct.
type CorrectionRequest struct {
	// Text to correct. Required.
	// example: this is a transcrybed sentence  it needs fixing
	Text string `json:"text" example:"this is a transcrybed sentence  it needs fixing"`
	// Correction level: basic, advanced or formal. Defaults to basic.
	// example: advanced
	Level CorrectionLevel `json:"level,omitempty" example:"advanced"`
	// Optional client-supplied request id; generated when empty.
	// example: 4f9b0d0e-6f3a-4a3e-9b8e-0c1d2e3f4a5b
	RequestID string `json:"request_id,omitempty" example:"4f9b0d0e-6f3a-4a3e-9b8e-0c1d2e3f4a5b"`
}

// ChunkResult summarizes one chunk of a correction request.
type ChunkResult struct {
	// Chunk sequence index.
	// example: 0
	Index int `json:"index" example:"0"`
	// Whether the model call for this chunk succeeded.
	// example: true
	Success bool `json:"success" example:"true"`
	// True when the chunk was never scheduled because the request was canceled.
	Cancelled bool `json:"cancelled,omitempty"`
	// Error message for failed chunks.
	Error string `json:"error,omitempty"`
	// Wall-clock processing time in milliseconds.
	// example: 412
	ProcessingMS int64 `json:"processing_ms" example:"412"`
}

// CorrectionResult is returned by POST /correct and the CLI.
type CorrectionResult struct {
	// Request id (client-supplied or generated).
	RequestID string `json:"request_id"`
	// The corrected text. Always present, possibly rule-based.
	CorrectedText string `json:"corrected_text"`
	// Which path produced the text: llm or rule_based.
	// example: llm
	Method CorrectionMethod `json:"method" example:"llm"`
	// Correction level that was applied.
	// example: advanced
	Level CorrectionLevel `json:"level" example:"advanced"`
	// Total elapsed time in milliseconds.
	// example: 5210
	ElapsedMS int64 `json:"elapsed_ms" example:"5210"`
	// Per-chunk accounting.
	ChunksTotal     int `json:"chunks_total"`
	ChunksSucceeded int `json:"chunks_succeeded"`
	ChunksFailed    int `json:"chunks_failed"`
	ChunksCancelled int `json:"chunks_cancelled,omitempty"`
	// Approximate number of changed words between input and output.
	// example: 7
	ApproxChanges int `json:"approx_changes" example:"7"`
	// Per-chunk results in chunk order.
	Chunks []ChunkResult `json:"chunks,omitempty"`
}

// ProgressEvent is pushed to progress sinks after each chunk completes.
type ProgressEvent struct {
	RequestID string `json:"request_id"`
	// Number of chunks completed so far (monotonically non-decreasing).
	// example: 3
	Current int `json:"current" example:"3"`
	// Total number of chunks.
	// example: 8
	Total int `json:"total" example:"8"`
	// Short status string, e.g. "chunk 3/8 ok".
	Status string `json:"status"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Resource arbiter snapshot.
	Resource ResourceStatus `json:"resource"`
	// Total corrections served since start.
	// example: 42
	CorrectionsTotal uint64 `json:"corrections_total" example:"42"`
	// Corrections that fell back to rule-based.
	// example: 3
	FallbacksTotal uint64 `json:"fallbacks_total" example:"3"`
	// Completed model swaps.
	// example: 5
	SwapsTotal uint64 `json:"swaps_total" example:"5"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
