package engine

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/sirupsen/logrus"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables per-tick evaluation statistics.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the engine's profiler, e.g. to change its report interval.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.engineTickRate = tickPeriod(fps)
	}
}

// WithFixedStep runs ticks back to back with a constant delta of one tick period instead of
// following the wall clock.
//
// Parameters:
//   - fixed: if true, enables fixed-step ticking
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFixedStep(fixed bool) EngineBuilderOption {
	return func(e *engine) {
		e.fixedStep = fixed
	}
}

// WithMaxTicks makes Run return after n ticks. 0 runs until Quit.
//
// Parameters:
//   - n: the tick limit
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxTicks(n int) EngineBuilderOption {
	return func(e *engine) {
		e.maxTicks = n
	}
}

// WithAnimator registers an Animator at the given key during engine construction.
// Animators are evaluated in ascending key order.
//
// Parameters:
//   - key: the order key
//   - a: the Animator to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAnimator(key int, a animator.Animator) EngineBuilderOption {
	return func(e *engine) {
		e.animators[key] = a
	}
}

// WithLogger sets the log entry the engine reports through.
//
// Parameters:
//   - entry: the log entry
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(entry *logrus.Entry) EngineBuilderOption {
	return func(e *engine) {
		e.log = entry
	}
}
