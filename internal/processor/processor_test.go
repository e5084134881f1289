package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"correctd/internal/chunker"
)

func testChunks(t *testing.T, n int) []chunker.Chunk {
	t.Helper()
	chunks := make([]chunker.Chunk, n)
	for i := range chunks {
		chunks[i] = chunker.Chunk{
			Text:  fmt.Sprintf("sentence number %d. ", i),
			Index: i,
		}
	}
	return chunks
}

func upper(ctx context.Context, text string) (string, error) {
	return strings.ToUpper(text), nil
}

func TestSequentialProcessAll(t *testing.T) {
	p := NewSequential(zerolog.Nop())
	chunks := testChunks(t, 5)
	out, results := p.Process(context.Background(), chunks, upper, nil)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.Success {
			t.Fatalf("chunk %d failed: %v", i, r.Err)
		}
		if r.CorrectedText != strings.ToUpper(chunks[i].Text) {
			t.Fatalf("chunk %d not corrected", i)
		}
	}
	if !strings.Contains(out, "SENTENCE NUMBER 0.") {
		t.Fatalf("reassembled output wrong: %q", out)
	}
}

func TestErrorIsolation(t *testing.T) {
	p := NewSequential(zerolog.Nop())
	chunks := testChunks(t, 10)
	boom := errors.New("inference exploded")
	fn := func(ctx context.Context, text string) (string, error) {
		if strings.Contains(text, "number 4.") { // chunk #5
			return "", boom
		}
		return strings.ToUpper(text), nil
	}
	_, results := p.Process(context.Background(), chunks, fn, nil)
	for i, r := range results {
		if i == 4 {
			if r.Success {
				t.Fatalf("chunk 5 must fail")
			}
			if r.CorrectedText != chunks[4].Text {
				t.Fatalf("failed chunk must preserve original text")
			}
			if !errors.Is(r.Err, boom) {
				t.Fatalf("unexpected error: %v", r.Err)
			}
			continue
		}
		if !r.Success {
			t.Fatalf("chunk %d must succeed, got %v", i+1, r.Err)
		}
	}
}

func TestPanicIsolation(t *testing.T) {
	p := NewSequential(zerolog.Nop())
	chunks := testChunks(t, 3)
	fn := func(ctx context.Context, text string) (string, error) {
		if strings.Contains(text, "number 1.") {
			panic("backend segfault surrogate")
		}
		return strings.ToUpper(text), nil
	}
	_, results := p.Process(context.Background(), chunks, fn, nil)
	if results[1].Success {
		t.Fatalf("panicking chunk must be marked failed")
	}
	if results[1].CorrectedText != chunks[1].Text {
		t.Fatalf("panicking chunk must preserve original text")
	}
	if !results[0].Success || !results[2].Success {
		t.Fatalf("panic must not affect other chunks")
	}
}

func TestPooledBoundedConcurrency(t *testing.T) {
	p := NewPooled(4, zerolog.Nop())
	chunks := testChunks(t, 20)
	var inflight, peak int32
	fn := func(ctx context.Context, text string) (string, error) {
		cur := atomic.AddInt32(&inflight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		return text, nil
	}
	_, results := p.Process(context.Background(), chunks, fn, nil)
	if got := atomic.LoadInt32(&peak); got > 4 {
		t.Fatalf("pool exceeded 4 workers: peak=%d", got)
	}
	for i, r := range results {
		if !r.Success {
			t.Fatalf("chunk %d failed: %v", i, r.Err)
		}
	}
}

func TestProgressMonotonic(t *testing.T) {
	p := NewPooled(4, zerolog.Nop())
	chunks := testChunks(t, 12)
	var mu sync.Mutex
	var seen []int
	progress := func(current, total int, status string) {
		mu.Lock()
		seen = append(seen, current)
		mu.Unlock()
		if total != 12 {
			t.Errorf("total = %d, want 12", total)
		}
	}
	p.Process(context.Background(), chunks, upper, progress)
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 12 {
		t.Fatalf("progress called %d times, want 12", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress current went backwards: %v", seen)
		}
	}
}

func TestCancellationMarksUnscheduled(t *testing.T) {
	p := NewSequential(zerolog.Nop())
	chunks := testChunks(t, 6)
	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	fn := func(ctx context.Context, text string) (string, error) {
		count++
		if count == 2 {
			cancel()
		}
		return strings.ToUpper(text), nil
	}
	_, results := p.Process(ctx, chunks, fn, nil)
	// The first two ran; everything after the cancel is cancelled, not failed.
	if !results[0].Success || !results[1].Success {
		t.Fatalf("in-flight chunks must be allowed to complete")
	}
	for i := 2; i < len(results); i++ {
		if !results[i].Cancelled {
			t.Fatalf("chunk %d should be cancelled", i)
		}
		if results[i].CorrectedText != chunks[i].Text {
			t.Fatalf("cancelled chunk must preserve original text")
		}
	}
}

func TestEmptyResultTreatedAsFailure(t *testing.T) {
	p := NewSequential(zerolog.Nop())
	chunks := testChunks(t, 1)
	fn := func(ctx context.Context, text string) (string, error) { return "", nil }
	_, results := p.Process(context.Background(), chunks, fn, nil)
	if results[0].Success {
		t.Fatalf("empty completion must not count as success")
	}
	if results[0].CorrectedText != chunks[0].Text {
		t.Fatalf("original text must be preserved")
	}
}

func TestProcessEmptyBatch(t *testing.T) {
	p := NewSequential(zerolog.Nop())
	out, results := p.Process(context.Background(), nil, upper, nil)
	if out != "" || len(results) != 0 {
		t.Fatalf("empty batch must produce empty output")
	}
}
