package profiler

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithUpdateInterval sets how often Tick reports.
//
// Parameters:
//   - interval: the reporting interval
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval to a profiler
func WithUpdateInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = interval
	}
}

// WithLogger sets the log entry stats are reported through.
//
// Parameters:
//   - entry: the log entry
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the logger to a profiler
func WithLogger(entry *logrus.Entry) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.log = entry
	}
}

// withClock replaces the wall clock; tests only.
func withClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
