package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/sirupsen/logrus"
)

// Stats is one reporting window of evaluation statistics.
type Stats struct {
	// FPS is the number of evaluated frames per second over the window.
	FPS float64

	// AvgEvaluation is the mean wall time of one frame's evaluation.
	AvgEvaluation time.Duration

	// Instances is the instance count seen by the last recorded frame.
	Instances int

	// Evaluated is the number of instance evaluations over the window.
	Evaluated int
}

// Profiler tracks evaluation rate, evaluation time and memory statistics.
// Outputs stats through the logger at a configurable interval.
type Profiler struct {
	mu             *sync.Mutex
	log            *logrus.Entry
	now            func() time.Time
	updateInterval time.Duration

	frameCount     int
	evalTime       time.Duration
	evaluated      int
	instances      int
	lastTime       time.Time
	last           Stats
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: optional builder options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, option := range options {
		option(p)
	}
	if p.log == nil {
		p.log = common.ComponentLogger("profiler")
	}
	p.lastTime = p.now()
	return p
}

// RecordEvaluation adds one evaluated frame to the current window.
//
// Parameters:
//   - instances: the number of registered instances
//   - evaluated: the number of instances actually evaluated this frame
//   - d: the wall time the evaluation took
func (p *Profiler) RecordEvaluation(instances, evaluated int, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frameCount++
	p.evalTime += d
	p.evaluated += evaluated
	p.instances = instances
}

// Stats returns the statistics of the last completed window.
func (p *Profiler) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Tick should be called once per frame after RecordEvaluation.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: evaluation FPS, average evaluation time, instance counts, heap usage,
// allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	stats := Stats{
		FPS:       float64(p.frameCount) / elapsed.Seconds(),
		Instances: p.instances,
		Evaluated: p.evaluated,
	}
	if p.frameCount > 0 {
		stats.AvgEvaluation = p.evalTime / time.Duration(p.frameCount)
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap; TotalAlloc: cumulative, tracks churn; Sys: process footprint
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
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.log.WithFields(logrus.Fields{
		"fps":           stats.FPS,
		"avg_eval":      stats.AvgEvaluation,
		"instances":     stats.Instances,
		"evaluated":     stats.Evaluated,
		"heap_mb":       allocMB,
		"alloc_rate_mb": allocRateMB,
		"gc":            gcCount,
		"gc_last_us":    lastPauseUs,
		"gc_max_us":     maxPauseUs,
		"sys_mb":        sysMB,
	}).Info("evaluation stats")

	p.last = stats
	p.frameCount = 0
	p.evalTime = 0
	p.evaluated = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
