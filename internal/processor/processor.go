// Package processor drives per-chunk correction with strict error isolation:
// one chunk's failure or panic never aborts the rest of the batch.
package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"correctd/internal/chunker"
)

// DefaultWorkers is the fixed pool size for the concurrent variant.
const DefaultWorkers = 4

// CorrectionFunc corrects one chunk's text. Supplied by the orchestrator; it
// ultimately calls the Language Model Backend.
type CorrectionFunc func(ctx context.Context, text string) (string, error)

// ProgressFunc is invoked after each chunk completes (success or failure).
// current is monotonically non-decreasing.
type ProgressFunc func(current, total int, status string)

// Result is the outcome for a single chunk. When Success is false,
// CorrectedText always equals the chunk's original text.
type Result struct {
	Chunk         chunker.Chunk
	CorrectedText string
	Duration      time.Duration
	Err           error
	Success       bool
	// Cancelled marks chunks that were never scheduled because the request's
	// context was canceled. Cancelled implies !Success.
	Cancelled bool
}

// Processor runs a batch of chunks through a CorrectionFunc. Workers selects
// the variant: 1 is the deterministic sequential mode used by the CLI, >1 a
// bounded pool used by the HTTP daemon.
type Processor struct {
	workers int
	log     zerolog.Logger
}

// NewSequential returns a deterministic, in-order processor.
func NewSequential(log zerolog.Logger) *Processor {
	return &Processor{workers: 1, log: log}
}

// NewPooled returns a bounded-concurrent processor. workers<=0 selects
// DefaultWorkers; concurrency never exceeds the pool size regardless of
// chunk count.
func NewPooled(workers int, log zerolog.Logger) *Processor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Processor{workers: workers, log: log}
}

// Process runs correctFn over all chunks and returns the reassembled text
// plus per-chunk results in chunk order. It never returns an error: failures
// are isolated into Results.
func (p *Processor) Process(ctx context.Context, chunks []chunker.Chunk, correctFn CorrectionFunc, progress ProgressFunc) (string, []Result) {
	results := make([]Result, len(chunks))
	if len(chunks) == 0 {
		return "", results
	}

	var (
		mu   sync.Mutex
		done int
	)
	report := func(r Result) {
		if progress == nil {
			return
		}
		mu.Lock()
		done++
		cur := done
		mu.Unlock()
		status := fmt.Sprintf("chunk %d/%d ok", cur, len(chunks))
		switch {
		case r.Cancelled:
			status = fmt.Sprintf("chunk %d/%d cancelled", cur, len(chunks))
		case !r.Success:
			status = fmt.Sprintf("chunk %d/%d failed", cur, len(chunks))
		}
		progress(cur, len(chunks), status)
	}

	if p.workers <= 1 {
		for i, ck := range chunks {
			if ctx.Err() != nil {
				results[i] = cancelledResult(ck)
			} else {
				results[i] = p.runOne(ctx, ck, correctFn)
			}
			report(results[i])
		}
		return Reassemble(results), results
	}

	// Bounded pool: a semaphore channel caps in-flight work at the pool size.
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup
	for i, ck := range chunks {
		// Chunks not yet scheduled when the context dies are cancelled, not
		// failed; in-flight ones finish or time out on their own.
		if ctx.Err() != nil {
			results[i] = cancelledResult(ck)
			report(results[i])
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = cancelledResult(ck)
			report(results[i])
			continue
		}
		wg.Add(1)
		go func(i int, ck chunker.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.runOne(ctx, ck, correctFn)
			report(results[i])
		}(i, ck)
	}
	wg.Wait()
	return Reassemble(results), results
}

// runOne executes correctFn for a single chunk, converting errors and panics
// into a failed Result that preserves the original text.
func (p *Processor) runOne(ctx context.Context, ck chunker.Chunk, correctFn CorrectionFunc) (res Result) {
	start := time.Now()
	res = Result{Chunk: ck, CorrectedText: ck.Text}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("correction panic: %v", r)
			res.Success = false
			res.CorrectedText = ck.Text
			res.Duration = time.Since(start)
			p.log.Error().Int("chunk", ck.Index).Interface("panic", r).Msg("chunk correction panicked")
		}
	}()
	out, err := correctFn(ctx, ck.Text)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		p.log.Warn().Int("chunk", ck.Index).Err(err).Msg("chunk correction failed, original preserved")
		return res
	}
	if out == "" {
		// An empty completion would drop text on reassembly; treat as failure.
		res.Err = fmt.Errorf("empty correction result")
		return res
	}
	res.CorrectedText = out
	res.Success = true
	return res
}

func cancelledResult(ck chunker.Chunk) Result {
	return Result{
		Chunk:         ck,
		CorrectedText: ck.Text,
		Err:           context.Canceled,
		Cancelled:     true,
	}
}
