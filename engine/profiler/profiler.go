package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Profiler tracks sector throughput and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval. It is safe for concurrent use.
type Profiler struct {
	mu             sync.Mutex
	sectorCount    int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
}

// ProfilerBuilderOption is a function that configures a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithUpdateInterval is an option builder that sets how often the profiler logs.
//
// Parameters:
//   - d: the log interval, non-positive values keep the default
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option to a profiler
func WithUpdateInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick records processed sectors and logs performance statistics when the update interval has
// elapsed. Statistics include: sectors/s, heap usage, allocation rate, GC count/pause times,
// total memory.
//
// Parameters:
//   - sectors: the number of sectors processed since the previous tick
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(sectors int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sectorCount += sectors
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	rate := float64(p.sectorCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, Sys the process footprint obtained from the OS.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	logs.WithTag("sectors_per_second", rate).
		WithTag("heap_mb", allocMB).
		WithTag("alloc_rate_mb_s", allocRateMB).
		WithTag("gc_count", gcCount).
		WithTag("gc_last_pause_us", lastPauseUs).
		WithTag("gc_max_pause_us", maxPauseUs).
		WithTag("sys_mb", sysMB).
		Info("profile")

	p.sectorCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
