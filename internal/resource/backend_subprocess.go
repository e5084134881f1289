package resource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"correctd/internal/llm"
	"correctd/pkg/types"
)

const (
	healthPollInterval = 200 * time.Millisecond
	healthWaitTimeout  = 15 * time.Second
	termGracePeriod    = 2 * time.Second
)

// SubprocessModel manages an external server process (llama-server for the
// language model, whisper-server for transcription) bound to 127.0.0.1 on a
// free port, with HTTP health checks and graceful termination.
type SubprocessModel struct {
	typ types.ModelType
	cfg ModelConfig

	mu      sync.Mutex
	cmd     *exec.Cmd
	port    int
	baseURL string

	httpClient *http.Client
}

// NewSubprocessModel constructs the backend without starting anything.
func NewSubprocessModel(mt types.ModelType, cfg ModelConfig) *SubprocessModel {
	return &SubprocessModel{
		typ:        mt,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *SubprocessModel) Type() types.ModelType { return s.typ }

// BaseURL returns the server address once loaded.
func (s *SubprocessModel) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// Client returns an inference client for the running server. Only meaningful
// for the language-model type.
func (s *SubprocessModel) Client() llm.Client {
	return llm.NewServerClient(s.BaseURL())
}

// Load starts the server process and waits for it to become healthy.
func (s *SubprocessModel) Load(ctx context.Context) error {
	bin := strings.TrimSpace(s.cfg.BinPath)
	if bin == "" {
		return ErrDependencyUnavailable(fmt.Sprintf("no server binary configured for %s", s.typ))
	}
	if fi, err := os.Stat(bin); err != nil || fi.IsDir() {
		return ErrDependencyUnavailable(fmt.Sprintf("server binary not found: %s", bin))
	}
	modelPath := strings.TrimSpace(s.cfg.ModelPath)
	if modelPath == "" {
		return fmt.Errorf("%s: empty model path", s.typ)
	}

	port, err := findFreePort()
	if err != nil {
		return err
	}
	args := []string{
		"--host", "127.0.0.1",
		"--port", fmt.Sprintf("%d", port),
		"-m", modelPath,
	}
	if s.cfg.ContextLength > 0 {
		args = append(args, "--ctx-size", fmt.Sprintf("%d", s.cfg.ContextLength))
	}
	if s.cfg.Threads > 0 {
		args = append(args, "--threads", fmt.Sprintf("%d", s.cfg.Threads))
	}
	if s.cfg.NGPULayers > 0 {
		args = append(args, "--n-gpu-layers", fmt.Sprintf("%d", s.cfg.NGPULayers))
	}
	cmd := exec.Command(bin, args...)
	// Run from the model directory so relative assets resolve.
	cmd.Dir = filepath.Dir(modelPath)
	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()
	if err := cmd.Start(); err != nil {
		return err
	}
	// Background readers so full pipe buffers never block the server.
	go drain(stdout)
	go drain(stderr)

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	if err := s.waitForHealth(ctx, baseURL); err != nil {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
		return err
	}

	s.mu.Lock()
	s.cmd = cmd
	s.port = port
	s.baseURL = baseURL
	s.mu.Unlock()
	return nil
}

// Unload terminates the process: SIGTERM first, forced kill after a grace
// period.
func (s *SubprocessModel) Unload(ctx context.Context) error {
	s.mu.Lock()
	cmd := s.cmd
	s.cmd = nil
	s.port = 0
	s.baseURL = ""
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		_, _ = cmd.Process.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(termGracePeriod):
	case <-ctx.Done():
	}
	_ = cmd.Process.Kill()
	select {
	case <-done:
	case <-time.After(termGracePeriod):
		return fmt.Errorf("%s: process did not exit after kill", s.typ)
	}
	return nil
}

// Healthy checks the server's health endpoint.
func (s *SubprocessModel) Healthy(ctx context.Context) bool {
	base := s.BaseURL()
	if base == "" {
		return false
	}
	return s.checkHealth(ctx, base) == nil
}

func (s *SubprocessModel) waitForHealth(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, healthWaitTimeout)
	defer cancel()
	for {
		if err := s.checkHealth(ctx, baseURL); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: health check timeout at %s: %w", s.typ, baseURL, ctx.Err())
		case <-time.After(healthPollInterval):
		}
	}
}

func (s *SubprocessModel) checkHealth(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("health status %d", resp.StatusCode)
	}
	return nil
}

func findFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, errors.New("unexpected listener address type")
	}
	return addr.Port, nil
}

func drain(r io.Reader) {
	if r == nil {
		return
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	for s.Scan() {
		_ = s.Text()
	}
}
