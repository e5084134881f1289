// Package corrector composes chunking, resource arbitration, per-chunk model
// correction and the rule-based fallback into one correction pipeline.
package corrector

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"correctd/internal/chunker"
	"correctd/internal/config"
	"correctd/internal/fallback"
	"correctd/internal/llm"
	"correctd/internal/processor"
	"correctd/internal/resource"
	"correctd/pkg/types"
)

// ProgressSink receives per-chunk progress events, e.g. a WebSocket hub.
type ProgressSink interface {
	PublishProgress(types.ProgressEvent)
}

// Orchestrator drives a correction request end to end. Safe for concurrent
// use; all mutable state lives in the resource manager and in per-request
// locals.
type Orchestrator struct {
	res    *resource.Manager
	chunks *chunker.Chunker
	fb     *fallback.Corrector
	cfg    config.Config
	log    zerolog.Logger

	progress ProgressSink
	// sequential forces the deterministic processor variant (CLI mode).
	sequential bool

	correctionsTotal uint64
	fallbacksTotal   uint64
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithProgressSink routes chunk progress to sink.
func WithProgressSink(sink ProgressSink) Option {
	return func(o *Orchestrator) { o.progress = sink }
}

// WithSequential selects the deterministic sequential processor.
func WithSequential() Option {
	return func(o *Orchestrator) { o.sequential = true }
}

// New builds an Orchestrator around a resource manager and configuration.
func New(res *resource.Manager, cfg config.Config, log zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		res:    res,
		chunks: chunker.New(chunker.Config{}),
		fb:     fallback.New(),
		cfg:    cfg,
		log:    log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Totals reports served corrections and fallback activations.
func (o *Orchestrator) Totals() (corrections, fallbacks uint64) {
	return atomic.LoadUint64(&o.correctionsTotal), atomic.LoadUint64(&o.fallbacksTotal)
}

// ChunkerStrategy exposes the selected sentence segmentation strategy.
func (o *Orchestrator) ChunkerStrategy() string { return o.chunks.Strategy() }

// CorrectText corrects req.Text at the requested level. The result always
// contains usable text: fully or partially model-corrected, or rule-based
// when resources or the model are unavailable.
func (o *Orchestrator) CorrectText(ctx context.Context, req types.CorrectionRequest) types.CorrectionResult {
	start := time.Now()
	level := req.Level
	if !level.Valid() {
		level = types.CorrectionLevel(o.cfg.Correction.Level)
		if !level.Valid() {
			level = types.LevelBasic
		}
	}
	reqID := req.RequestID
	if reqID == "" {
		reqID = uuid.NewString()
	}
	atomic.AddUint64(&o.correctionsTotal, 1)

	// Resource check before anything heavy.
	status := o.res.Status()
	if !status.MemorySafe || status.AvailableGB < o.cfg.Resource.MemoryThresholdGB {
		o.log.Warn().
			Str("request", reqID).
			Float64("available_gb", status.AvailableGB).
			Float64("threshold_gb", o.cfg.Resource.MemoryThresholdGB).
			Bool("memory_safe", status.MemorySafe).
			Msg("memory constrained, using rule-based correction")
		return o.fallbackResult(reqID, req.Text, level, start)
	}

	chunks := o.chunks.Split(req.Text, o.cfg.Models.ContextLength, o.cfg.Correction.OverlapSentences)
	if len(chunks) == 0 {
		return types.CorrectionResult{
			RequestID: reqID, CorrectedText: "", Method: types.MethodRuleBased,
			Level: level, ElapsedMS: time.Since(start).Milliseconds(),
		}
	}

	if !o.acquireLanguageModel(ctx) {
		o.log.Warn().
			Str("request", reqID).
			AnErr("cause", o.res.LastError(types.ModelTypeLanguage)).
			Msg("language model unavailable, using rule-based correction")
		return o.fallbackResult(reqID, req.Text, level, start)
	}
	client, ok := o.res.LanguageClient()
	if !ok {
		o.log.Error().Str("request", reqID).Msg("language model loaded but no inference client")
		o.releaseLanguageModel(ctx)
		return o.fallbackResult(reqID, req.Text, level, start)
	}

	correctFn := o.buildCorrectionFn(client, level)
	proc := o.buildProcessor()
	progressFn := o.buildProgressFn(reqID)

	corrected, results := proc.Process(ctx, chunks, correctFn, progressFn)
	o.releaseLanguageModel(ctx)

	failed, cancelled, succeeded := tally(results)
	if failed > 0 && float64(failed)/float64(len(results)) > o.cfg.Correction.FailureRatio {
		o.log.Warn().
			Str("request", reqID).
			Int("failed", failed).
			Int("total", len(results)).
			Msg("batch failure ratio exceeded, redoing rule-based")
		return o.fallbackResult(reqID, req.Text, level, start)
	}

	res := types.CorrectionResult{
		RequestID:       reqID,
		CorrectedText:   corrected,
		Method:          types.MethodLLM,
		Level:           level,
		ElapsedMS:       time.Since(start).Milliseconds(),
		ChunksTotal:     len(results),
		ChunksSucceeded: succeeded,
		ChunksFailed:    failed,
		ChunksCancelled: cancelled,
		ApproxChanges:   approxChanges(req.Text, corrected),
		Chunks:          summarize(results),
	}
	o.log.Info().
		Str("request", reqID).
		Str("level", string(level)).
		Int("chunks", res.ChunksTotal).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("correction complete")
	return res
}

// acquireLanguageModel requests the language slot, swapping away from the
// transcription engine when it holds the shared budget.
func (o *Orchestrator) acquireLanguageModel(ctx context.Context) bool {
	mcfg := resource.ModelConfig{
		ModelPath:     o.cfg.Models.LanguageModelPath,
		BinPath:       o.cfg.Models.LlamaBin,
		InProcess:     o.cfg.Models.InProcess,
		ContextLength: o.cfg.Models.ContextLength,
		Threads:       o.cfg.Models.Threads,
		NGPULayers:    o.cfg.Models.NGPULayers,
	}
	if o.res.Request(ctx, types.ModelTypeLanguage, mcfg) {
		return true
	}
	// Denied: when the transcription engine holds the budget, swapping frees
	// it; any other denial means fallback.
	if o.res.State(types.ModelTypeTranscription) == types.StateLoaded {
		return o.res.Swap(ctx, types.ModelTypeTranscription, types.ModelTypeLanguage, mcfg)
	}
	return false
}

// releaseLanguageModel releases the slot; failure to release is logged but
// never fails the request.
func (o *Orchestrator) releaseLanguageModel(ctx context.Context) {
	if err := o.res.Release(ctx, types.ModelTypeLanguage); err != nil && !resource.IsNotLoaded(err) {
		o.log.Error().Err(err).Msg("language model release failed")
	}
}

// buildCorrectionFn wraps the backend call with the level prompt, a per-call
// timeout and exponential-backoff retries.
func (o *Orchestrator) buildCorrectionFn(client llm.Client, level types.CorrectionLevel) processor.CorrectionFunc {
	params := generationParams(level, o.cfg.Correction)
	timeout := o.cfg.Correction.Timeout()
	return func(ctx context.Context, text string) (string, error) {
		prompt := buildPrompt(level, text)
		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = o.cfg.Correction.RetryBackoff()
		call := func() (string, error) {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			out, err := client.Infer(callCtx, prompt, params)
			if err != nil {
				if ctx.Err() != nil {
					// Request-level cancellation is not retryable.
					return "", backoff.Permanent(ctx.Err())
				}
				return "", err
			}
			return cleanCompletion(out), nil
		}
		return backoff.RetryWithData(call, backoff.WithContext(
			backoff.WithMaxRetries(policy, uint64(o.cfg.Correction.MaxRetries)), ctx))
	}
}

func (o *Orchestrator) buildProcessor() *processor.Processor {
	if o.sequential {
		return processor.NewSequential(o.log)
	}
	return processor.NewPooled(o.cfg.Correction.BatchSize, o.log)
}

func (o *Orchestrator) buildProgressFn(reqID string) processor.ProgressFunc {
	if o.progress == nil {
		return nil
	}
	return func(current, total int, statusMsg string) {
		o.progress.PublishProgress(types.ProgressEvent{
			RequestID: reqID,
			Current:   current,
			Total:     total,
			Status:    statusMsg,
		})
	}
}

// fallbackResult produces a rule-based result for the whole text.
func (o *Orchestrator) fallbackResult(reqID, text string, level types.CorrectionLevel, start time.Time) types.CorrectionResult {
	atomic.AddUint64(&o.fallbacksTotal, 1)
	corrected := o.fb.Correct(text)
	return types.CorrectionResult{
		RequestID:     reqID,
		CorrectedText: corrected,
		Method:        types.MethodRuleBased,
		Level:         level,
		ElapsedMS:     time.Since(start).Milliseconds(),
		ApproxChanges: approxChanges(text, corrected),
	}
}

func tally(results []processor.Result) (failed, cancelled, succeeded int) {
	for _, r := range results {
		switch {
		case r.Cancelled:
			cancelled++
		case r.Success:
			succeeded++
		default:
			failed++
		}
	}
	return failed, cancelled, succeeded
}

func summarize(results []processor.Result) []types.ChunkResult {
	out := make([]types.ChunkResult, len(results))
	for i, r := range results {
		cr := types.ChunkResult{
			Index:        r.Chunk.Index,
			Success:      r.Success,
			Cancelled:    r.Cancelled,
			ProcessingMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			cr.Error = r.Err.Error()
		}
		out[i] = cr
	}
	return out
}
