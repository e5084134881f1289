//go:build llama

package llm

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// LocalOptions configures the in-process go-llama.cpp runtime.
type LocalOptions struct {
	ContextLength int
	Threads       int
	NGPULayers    int
}

// localClient owns a loaded go-llama.cpp model.
type localClient struct {
	model   *llama.LLama
	threads int
}

// NewLocal loads modelPath into the process. Unloading happens via Close; the
// resource manager additionally forces a GC pass afterwards.
func NewLocal(modelPath string, opts LocalOptions) (Client, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	mo := []llama.ModelOption{}
	if opts.ContextLength > 0 {
		mo = append(mo, llama.SetContext(opts.ContextLength))
	}
	if opts.NGPULayers > 0 {
		mo = append(mo, llama.SetGPULayers(opts.NGPULayers))
	}
	m, err := llama.New(modelPath, mo...)
	if err != nil {
		return nil, err
	}
	return &localClient{model: m, threads: opts.Threads}, nil
}

func (c *localClient) Infer(ctx context.Context, prompt string, p Params) (string, error) {
	if c.model == nil {
		return "", errors.New("llama model not initialized")
	}
	// Bridge cancellation through the token callback.
	c.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	})
	po := []llama.PredictOption{
		llama.SetTokens(maxInt(1, p.MaxTokens)),
		llama.SetThreads(maxInt(1, c.threads)),
		llama.SetTemperature(zf(p.Temperature, llama.DefaultOptions.Temperature)),
	}
	if p.TopP > 0 {
		po = append(po, llama.SetTopP(p.TopP))
	}
	if len(p.Stop) > 0 {
		po = append(po, llama.SetStopWords(p.Stop...))
	}
	text, err := c.model.Predict(prompt, po...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

func (c *localClient) Close() error {
	if c.model != nil {
		c.model.Free()
		c.model = nil
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}
