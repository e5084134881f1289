package resource

import (
	"sync/atomic"
	"time"
)

// defaultMonitorInterval is how often the background monitor samples memory.
const defaultMonitorInterval = 10 * time.Second

// SetSampleHook installs a callback invoked with every monitor sample, e.g.
// to feed a metrics gauge. Must be set before EnableMonitoring.
func (m *Manager) SetSampleHook(fn func(MemoryInfo)) {
	m.mu.Lock()
	m.sampleHook = fn
	m.mu.Unlock()
}

// EnableMonitoring starts a background goroutine sampling memory at interval
// (<=0 selects the default). Sampling is purely observational: it never
// mutates model state, though a critical sample triggers a cleanup pass.
// Returns a stop function; calling it twice is safe.
func (m *Manager) EnableMonitoring(interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	m.mu.Lock()
	if m.monitorStop != nil {
		ch := m.monitorStop
		m.mu.Unlock()
		return func() { safeClose(ch) }
	}
	ch := make(chan struct{})
	m.monitorStop = ch
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sample()
			case <-ch:
				return
			}
		}
	}()
	return func() {
		m.mu.Lock()
		if m.monitorStop == ch {
			m.monitorStop = nil
		}
		m.mu.Unlock()
		safeClose(ch)
	}
}

func (m *Manager) sample() {
	info := m.CheckAvailableMemory()
	m.mu.Lock()
	m.lastSample = info
	hook := m.sampleHook
	m.mu.Unlock()
	atomic.AddUint64(&m.sampleCount, 1)
	if hook != nil {
		hook(info)
	}
	if info.Critical() {
		m.log.Warn().Float64("percent_used", info.PercentUsed).Msg("memory critical, forcing cleanup")
		m.ForceCleanup()
	}
}

func safeClose(ch chan struct{}) {
	defer func() { _ = recover() }()
	close(ch)
}
