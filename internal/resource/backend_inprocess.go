package resource

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"

	"correctd/internal/llm"
	"correctd/pkg/types"
)

// InProcessModel owns an in-process language model runtime. Unloading closes
// the runtime and forces a GC pass so the weights' memory returns to the OS
// before the next load.
type InProcessModel struct {
	cfg ModelConfig

	mu     sync.Mutex
	client llm.Client
}

// NewInProcessModel constructs the backend without loading weights.
func NewInProcessModel(cfg ModelConfig) *InProcessModel {
	return &InProcessModel{cfg: cfg}
}

func (p *InProcessModel) Type() types.ModelType { return types.ModelTypeLanguage }

func (p *InProcessModel) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := llm.NewLocal(p.cfg.ModelPath, llm.LocalOptions{
		ContextLength: p.cfg.ContextLength,
		Threads:       p.cfg.Threads,
		NGPULayers:    p.cfg.NGPULayers,
	})
	if err != nil {
		if llm.IsNotBuilt(err) {
			return ErrDependencyUnavailable(err.Error())
		}
		return err
	}
	p.mu.Lock()
	p.client = client
	p.mu.Unlock()
	return nil
}

func (p *InProcessModel) Unload(ctx context.Context) error {
	p.mu.Lock()
	client := p.client
	p.client = nil
	p.mu.Unlock()
	var err error
	if client != nil {
		err = client.Close()
	}
	runtime.GC()
	debug.FreeOSMemory()
	return err
}

func (p *InProcessModel) Healthy(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client != nil
}

// Client returns the inference client. Nil before Load / after Unload.
func (p *InProcessModel) Client() llm.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client
}
