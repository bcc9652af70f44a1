package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"media-processor/internal/logging"
	"media-processor/internal/metrics"
)

// Config holds monitor thresholds.
type Config struct {
	// LimitBytes is the reference limit. Zero uses the Go memory limit.
	LimitBytes int64
	// HighWaterMark is the usage fraction below which a pause ends.
	HighWaterMark float64
	// CriticalWaterMark is the usage fraction at which new work pauses.
	CriticalWaterMark float64
	// CheckInterval is how often heap allocation is sampled.
	CheckInterval time.Duration
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     2 * time.Second,
	}
}

// Monitor pauses new work while heap usage is critical.
type Monitor struct {
	config Config
	limit  int64
	alloc  func() uint64

	mu      sync.Mutex
	current uint64
	paused  bool
	resume  chan struct{}
}

// NewMonitor creates a Monitor. Without a limit it never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			limit = l
		}
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultConfig().CheckInterval
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, backpressure disabled")
	}
	return &Monitor{
		config: config,
		limit:  limit,
		alloc:  heapAlloc,
		resume: make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Run samples until ctx is done. It returns immediately without a limit.
func (m *Monitor) Run(ctx context.Context) {
	if m.limit == 0 {
		return
	}
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-ctx.Done():
			m.release()
			return
		}
	}
}

func (m *Monitor) sample() {
	alloc := m.alloc()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc

	switch {
	case !m.paused && usage >= m.config.CriticalWaterMark:
		logging.Warn("Memory critical (%.1f%% of limit), pausing new files", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPauses.Inc()
		go runtime.GC()
	case m.paused && usage < m.config.HighWaterMark:
		logging.Info("Memory recovered (%.1f%% of limit), resuming", usage*100)
		m.unpauseLocked()
	}
}

func (m *Monitor) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paused {
		m.unpauseLocked()
	}
}

func (m *Monitor) unpauseLocked() {
	m.paused = false
	metrics.MemoryPaused.Set(0)
	close(m.resume)
	m.resume = make(chan struct{})
}

// Wait blocks while the monitor is paused. It returns ctx.Err() if ctx is
// done first.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.Lock()
	if !m.paused {
		m.mu.Unlock()
		return nil
	}
	resume := m.resume
	m.mu.Unlock()

	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether new work is currently held back.
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Usage returns the last sampled allocation as a fraction of the limit, 0
// without a limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.current) / float64(m.limit)
}
