package animator

import (
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/sirupsen/logrus"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithComputeWorkers sets the maximum number of evaluation workers.
//
// Parameters:
//   - workers: the worker count, at least 1
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the worker count to an animator
func WithComputeWorkers(workers int) AnimatorBuilderOption {
	return func(a *animator) {
		a.computeWorkers = max(workers, 1)
	}
}

// WithQueueSize sets the task queue capacity of the compute pool.
//
// Parameters:
//   - size: the queue capacity
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the queue size to an animator
func WithQueueSize(size int) AnimatorBuilderOption {
	return func(a *animator) {
		if size > 0 {
			a.queueSize = size
		}
	}
}

// WithIdleTimeout sets how long an idle worker waits before exiting.
//
// Parameters:
//   - timeout: the idle timeout
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the timeout to an animator
func WithIdleTimeout(timeout time.Duration) AnimatorBuilderOption {
	return func(a *animator) {
		if timeout > 0 {
			a.idleTimeout = timeout
		}
	}
}

// WithProfiler records every PrepareFrame into p.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the profiler to an animator
func WithProfiler(p *profiler.Profiler) AnimatorBuilderOption {
	return func(a *animator) {
		a.profiler = p
	}
}

// WithLogger sets the log entry the animator reports through.
//
// Parameters:
//   - entry: the log entry
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the logger to an animator
func WithLogger(entry *logrus.Entry) AnimatorBuilderOption {
	return func(a *animator) {
		a.log = entry
	}
}
