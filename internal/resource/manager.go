// Package resource arbitrates exclusive access to the machine's heavyweight
// model backends. The Manager is the sole mutator of model-loaded state; all
// other components read it through snapshot accessors.
package resource

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"correctd/internal/llm"
	"correctd/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	// defaultCleanupDelay is the mandatory pause between unloading one model
	// type and loading a different one, so the OS can reclaim memory.
	defaultCleanupDelay = 2500 * time.Millisecond
)

// Config encapsulates all tunables for Manager construction.
type Config struct {
	// MemoryBudgetGB is the shared budget used for mutual-exclusion math.
	// 0 means "use total system memory".
	MemoryBudgetGB float64
	// CleanupDelay overrides defaultCleanupDelay (tests use a small value).
	CleanupDelay time.Duration
	// Publisher receives lifecycle events; nil installs a no-op publisher.
	Publisher EventPublisher
	// Logger for structured logs; zero value is a disabled logger.
	Logger zerolog.Logger
	// Factory overrides backend construction (tests inject fakes).
	Factory Factory
	// MemoryFn overrides the OS memory query (tests simulate pressure).
	MemoryFn func() (MemoryInfo, error)
}

type slot struct {
	state        types.ModelState
	model        ManagedModel
	loadedAt     time.Time
	loadDuration time.Duration
	lastErr      error
	// sessions bounds concurrent inference calls to the constraint table's
	// MaxConcurrent; rebuilt on every successful load.
	sessions chan struct{}
}

// Manager owns the model slots. One instance per process; construct it in
// main and inject it, or share the lazily-built Default().
type Manager struct {
	mu    sync.Mutex
	slots map[types.ModelType]*slot
	// opLocks serialize load/unload/swap per model type so no two calls can
	// concurrently transition the same slot.
	opLocks map[types.ModelType]*sync.Mutex

	budgetGB     float64
	cleanupDelay time.Duration
	// nextLoadAfter is the earliest time a different model type may begin
	// loading after a release; guarded by mu.
	nextLoadAfter time.Time
	lastReleased  types.ModelType

	gpu       types.GPUAcceleration
	publisher EventPublisher
	log       zerolog.Logger
	factory   Factory
	memFn     func() (MemoryInfo, error)

	loadsTotal    uint64
	releasesTotal uint64
	swapsTotal    uint64
	cleanupsTotal uint64

	monitorStop chan struct{}
	sampleHook  func(MemoryInfo)
	lastSample  MemoryInfo
	sampleCount uint64

	startTime time.Time
}

// New constructs a Manager from Config. GPU detection runs once here.
func New(cfg Config) *Manager {
	m := &Manager{
		slots: map[types.ModelType]*slot{
			types.ModelTypeTranscription: {state: types.StateUnloaded},
			types.ModelTypeLanguage:      {state: types.StateUnloaded},
		},
		opLocks: map[types.ModelType]*sync.Mutex{
			types.ModelTypeTranscription: {},
			types.ModelTypeLanguage:      {},
		},
		budgetGB:     cfg.MemoryBudgetGB,
		cleanupDelay: cfg.CleanupDelay,
		gpu:          detectGPU(),
		publisher:    cfg.Publisher,
		log:          cfg.Logger,
		factory:      cfg.Factory,
		memFn:        cfg.MemoryFn,
		startTime:    time.Now(),
	}
	if m.cleanupDelay <= 0 {
		m.cleanupDelay = defaultCleanupDelay
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if m.factory == nil {
		m.factory = defaultFactory
	}
	if m.memFn == nil {
		m.memFn = readSystemMemory
	}
	if m.budgetGB <= 0 {
		if info, err := m.memFn(); err == nil {
			m.budgetGB = info.TotalGB
		}
	}
	return m
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns the process-wide shared Manager, constructed lazily exactly
// once regardless of calling goroutine.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = New(Config{})
	})
	return defaultManager
}

// GPU returns the acceleration backend detected at construction.
func (m *Manager) GPU() types.GPUAcceleration { return m.gpu }

func (m *Manager) opLock(mt types.ModelType) *sync.Mutex {
	if l, ok := m.opLocks[mt]; ok {
		return l
	}
	// Unknown model type: fall back to the language slot lock rather than
	// panic; callers validate types at the API boundary.
	return m.opLocks[types.ModelTypeLanguage]
}

// Request attempts to load mt. Returns false without mutating state when
// memory is insufficient or a mutually exclusive model holds the budget; the
// caller is then responsible for an explicit Swap. Already-loaded slots
// return true immediately.
func (m *Manager) Request(ctx context.Context, mt types.ModelType, cfg ModelConfig) bool {
	lock := m.opLock(mt)
	lock.Lock()
	defer lock.Unlock()
	return m.requestLocked(ctx, mt, cfg)
}

// requestLocked runs under the per-type op lock. Admission is decided in a
// single critical section: the exclusivity scan counts both Loaded and
// Loading slots and the winner reserves its slot as Loading before mu is
// released, so two concurrent first-time requests for exclusive types can
// never both pass the scan.
func (m *Manager) requestLocked(ctx context.Context, mt types.ModelType, cfg ModelConfig) bool {
	m.mu.Lock()
	s := m.slots[mt]
	if s.state == types.StateLoaded {
		m.mu.Unlock()
		return true
	}
	for other, os := range m.slots {
		if other == mt {
			continue
		}
		if os.state != types.StateLoaded && os.state != types.StateLoading {
			continue
		}
		if mutuallyExclusive(mt, other, m.budgetGB) {
			m.mu.Unlock()
			m.log.Warn().
				Str("requested", string(mt)).
				Str("loaded", string(other)).
				Float64("budget_gb", m.budgetGB).
				Msg("request denied: mutually exclusive model loaded, swap required")
			m.publisher.Publish(Event{Name: "request_denied_exclusive", ModelType: string(mt)})
			return false
		}
	}
	// Reserve the slot so the scan above stays authoritative while the
	// cleanup wait and memory check run outside mu.
	s.state = types.StateLoading
	s.lastErr = nil
	m.mu.Unlock()

	if !m.waitCleanupDelay(ctx, mt) {
		m.revertReservation(s)
		return false
	}

	cons := ConstraintFor(mt)
	info := m.CheckAvailableMemory()
	if info.Critical() {
		m.ForceCleanup()
		info = m.CheckAvailableMemory()
	}
	if info.AvailableGB < cons.MinMemoryGB {
		m.mu.Lock()
		s.state = types.StateUnloaded
		s.lastErr = ErrMemoryInsufficient(info.AvailableGB, cons.MinMemoryGB)
		m.mu.Unlock()
		m.log.Warn().
			Str("model", string(mt)).
			Float64("available_gb", info.AvailableGB).
			Float64("min_gb", cons.MinMemoryGB).
			Float64("percent_used", info.PercentUsed).
			Msg("request denied: insufficient memory")
		m.publisher.Publish(Event{Name: "request_denied_memory", ModelType: string(mt), Fields: map[string]any{
			"available_gb": info.AvailableGB,
			"min_gb":       cons.MinMemoryGB,
		}})
		return false
	}

	m.publisher.Publish(Event{Name: "load_start", ModelType: string(mt)})

	start := time.Now()
	model, err := m.factory(mt, cfg)
	if err == nil {
		err = model.Load(ctx)
	}
	if err != nil {
		m.mu.Lock()
		s.state = types.StateFailed
		s.lastErr = ErrModelLoadFailure(string(mt), err)
		s.model = nil
		m.mu.Unlock()
		m.log.Error().Err(err).Str("model", string(mt)).Msg("model load failed")
		m.publisher.Publish(Event{Name: "load_failed", ModelType: string(mt), Fields: map[string]any{"error": err.Error()}})
		return false
	}

	m.mu.Lock()
	s.state = types.StateLoaded
	s.model = model
	s.loadedAt = time.Now()
	s.loadDuration = time.Since(start)
	s.sessions = make(chan struct{}, maxConcurrentFor(cons))
	m.mu.Unlock()
	atomic.AddUint64(&m.loadsTotal, 1)
	m.log.Info().Str("model", string(mt)).Dur("load_duration", time.Since(start)).Msg("model loaded")
	m.publisher.Publish(Event{Name: "load_done", ModelType: string(mt), Fields: map[string]any{"duration_ms": time.Since(start).Milliseconds()}})
	return true
}

// revertReservation drops a Loading reservation back to Unloaded when
// admission fails before the backend was constructed.
func (m *Manager) revertReservation(s *slot) {
	m.mu.Lock()
	s.state = types.StateUnloaded
	m.mu.Unlock()
}

func maxConcurrentFor(cons ResourceConstraint) int {
	if cons.MaxConcurrent < 1 {
		return 1
	}
	return cons.MaxConcurrent
}

// waitCleanupDelay blocks until the post-release cleanup delay has elapsed
// when loading a different model type than the one last released. Returns
// false if ctx is canceled while waiting.
func (m *Manager) waitCleanupDelay(ctx context.Context, mt types.ModelType) bool {
	m.mu.Lock()
	wait := time.Until(m.nextLoadAfter)
	same := m.lastReleased == mt
	m.mu.Unlock()
	if wait <= 0 || same {
		return true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Release unloads mt. The slot always ends Unloaded, even when the backend's
// teardown reports an error; that error is returned for logging.
func (m *Manager) Release(ctx context.Context, mt types.ModelType) error {
	lock := m.opLock(mt)
	lock.Lock()
	defer lock.Unlock()
	return m.releaseLocked(ctx, mt)
}

func (m *Manager) releaseLocked(ctx context.Context, mt types.ModelType) error {
	m.mu.Lock()
	s := m.slots[mt]
	if s.state != types.StateLoaded || s.model == nil {
		state := s.state
		s.state = types.StateUnloaded
		s.model = nil
		m.mu.Unlock()
		if state == types.StateLoaded {
			return nil
		}
		return ErrNotLoaded(string(mt))
	}
	model := s.model
	s.state = types.StateUnloading
	m.mu.Unlock()
	m.publisher.Publish(Event{Name: "unload_start", ModelType: string(mt)})

	err := model.Unload(ctx)

	m.mu.Lock()
	s.state = types.StateUnloaded
	s.model = nil
	m.nextLoadAfter = time.Now().Add(m.cleanupDelay)
	m.lastReleased = mt
	m.mu.Unlock()
	atomic.AddUint64(&m.releasesTotal, 1)
	if err != nil {
		m.log.Error().Err(err).Str("model", string(mt)).Msg("model unload reported error")
		m.publisher.Publish(Event{Name: "unload_error", ModelType: string(mt), Fields: map[string]any{"error": err.Error()}})
	} else {
		m.publisher.Publish(Event{Name: "unload_done", ModelType: string(mt)})
	}
	return err
}

// Swap releases from, waits the cleanup delay so the OS can reclaim memory,
// re-checks memory safety and loads to. On failure both slots are left
// Unloaded and false is returned.
func (m *Manager) Swap(ctx context.Context, from, to types.ModelType, cfg ModelConfig) bool {
	if err := m.Release(ctx, from); err != nil && !IsNotLoaded(err) {
		// Teardown errors do not block the swap; the slot is Unloaded.
		m.log.Warn().Err(err).Str("from", string(from)).Msg("swap: release reported error")
	}

	timer := time.NewTimer(m.cleanupDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		m.publisher.Publish(Event{Name: "swap_canceled", ModelType: string(to)})
		return false
	}

	if info := m.CheckAvailableMemory(); info.Critical() {
		m.ForceCleanup()
	}

	// Loading 'to' right now is what the delay protected; mark the release
	// as consumed so Request does not wait a second time.
	m.mu.Lock()
	m.lastReleased = to
	m.mu.Unlock()

	if !m.Request(ctx, to, cfg) {
		swapErr := ErrSwapIncomplete(string(from), string(to))
		m.mu.Lock()
		m.slots[to].lastErr = swapErr
		m.mu.Unlock()
		m.log.Error().
			Err(swapErr).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("swap incomplete: target failed to load, both slots unloaded")
		m.publisher.Publish(Event{Name: "swap_incomplete", ModelType: string(to), Fields: map[string]any{"from": string(from)}})
		return false
	}
	atomic.AddUint64(&m.swapsTotal, 1)
	m.publisher.Publish(Event{Name: "swap_done", ModelType: string(to), Fields: map[string]any{"from": string(from)}})
	return true
}

// LanguageClient returns an inference client for the loaded language model.
// The client serializes calls beyond the type's MaxConcurrent constraint.
func (m *Manager) LanguageClient() (llm.Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.slots[types.ModelTypeLanguage]
	if s.state != types.StateLoaded || s.model == nil {
		return nil, false
	}
	lb, ok := s.model.(LanguageBackend)
	if !ok {
		return nil, false
	}
	c := lb.Client()
	if c == nil {
		return nil, false
	}
	return &sessionLimitedClient{inner: c, sem: s.sessions}, true
}

// sessionLimitedClient caps in-flight Infer calls with the slot's session
// semaphore. Close is a no-op; the Manager owns the backend's lifecycle.
type sessionLimitedClient struct {
	inner llm.Client
	sem   chan struct{}
}

func (c *sessionLimitedClient) Infer(ctx context.Context, prompt string, p llm.Params) (string, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-c.sem }()
	return c.inner.Infer(ctx, prompt, p)
}

func (c *sessionLimitedClient) Close() error { return nil }

// LastError returns the most recent admission or load error for mt, nil when
// the last operation succeeded. Inspect it with the Is* predicates.
func (m *Manager) LastError(mt types.ModelType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[mt].lastErr
}

// State returns the lifecycle state of one slot.
func (m *Manager) State(mt types.ModelType) types.ModelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[mt].state
}

// Status returns a read-only snapshot including a fresh memory sample.
func (m *Manager) Status() types.ResourceStatus {
	info := m.CheckAvailableMemory()
	m.mu.Lock()
	defer m.mu.Unlock()
	states := make(map[types.ModelType]types.ModelState, len(m.slots))
	for mt, s := range m.slots {
		states[mt] = s.state
	}
	return types.ResourceStatus{
		AvailableGB:     info.AvailableGB,
		PercentUsed:     info.PercentUsed,
		GPUAcceleration: m.gpu,
		ModelStates:     states,
		MemorySafe:      info.Safe(),
	}
}

// Metrics is a read-only counter snapshot.
type Metrics struct {
	LoadsTotal    uint64
	ReleasesTotal uint64
	SwapsTotal    uint64
	CleanupsTotal uint64
	SampleCount   uint64
	LastSample    MemoryInfo
	UptimeSeconds int64
}

// GetMetrics returns current counters without blocking model operations
// beyond the short critical section for the last sample.
func (m *Manager) GetMetrics() Metrics {
	m.mu.Lock()
	last := m.lastSample
	m.mu.Unlock()
	return Metrics{
		LoadsTotal:    atomic.LoadUint64(&m.loadsTotal),
		ReleasesTotal: atomic.LoadUint64(&m.releasesTotal),
		SwapsTotal:    atomic.LoadUint64(&m.swapsTotal),
		CleanupsTotal: atomic.LoadUint64(&m.cleanupsTotal),
		SampleCount:   atomic.LoadUint64(&m.sampleCount),
		LastSample:    last,
		UptimeSeconds: int64(time.Since(m.startTime).Seconds()),
	}
}
