package resource

import (
	"runtime"
	"runtime/debug"
	"sync/atomic"

	"github.com/shirou/gopsutil/v4/mem"
)

// Memory pressure thresholds as percent of total system memory.
const (
	warnPercent     = 80.0
	criticalPercent = 90.0
)

// MemoryInfo is one sample of system memory state.
type MemoryInfo struct {
	TotalGB     float64
	AvailableGB float64
	PercentUsed float64
}

// Safe reports whether the sample is below the warning threshold.
func (i MemoryInfo) Safe() bool { return i.PercentUsed < warnPercent }

// Critical reports whether the sample is past the critical threshold.
func (i MemoryInfo) Critical() bool { return i.PercentUsed >= criticalPercent }

const bytesPerGB = 1024 * 1024 * 1024

// readSystemMemory queries the OS for current memory state.
func readSystemMemory() (MemoryInfo, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryInfo{}, err
	}
	return MemoryInfo{
		TotalGB:     float64(vm.Total) / bytesPerGB,
		AvailableGB: float64(vm.Available) / bytesPerGB,
		PercentUsed: vm.UsedPercent,
	}, nil
}

// CheckAvailableMemory returns the current memory sample. On query failure it
// returns a zero-available sample so callers treat the system as constrained
// rather than bypassing checks.
func (m *Manager) CheckAvailableMemory() MemoryInfo {
	info, err := m.memFn()
	if err != nil {
		m.log.Warn().Err(err).Msg("memory query failed")
		return MemoryInfo{PercentUsed: 100}
	}
	return info
}

// ForceCleanup triggers a garbage-collection and memory-trim pass. Invoked
// automatically when memory use passes the critical threshold.
func (m *Manager) ForceCleanup() {
	runtime.GC()
	debug.FreeOSMemory()
	atomic.AddUint64(&m.cleanupsTotal, 1)
	m.publisher.Publish(Event{Name: "force_cleanup", Fields: map[string]any{}})
}
