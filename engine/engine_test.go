package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAnimator records PrepareFrame calls; the embedded interface panics on anything else.
type fakeAnimator struct {
	animator.Animator
	name   string
	mu     *sync.Mutex
	calls  *[]string
	deltas []float32
	failAt int
}

func (f *fakeAnimator) PrepareFrame(dt float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	*f.calls = append(*f.calls, f.name)
	f.deltas = append(f.deltas, dt)
	if f.failAt > 0 && len(f.deltas) == f.failAt {
		return errors.New("evaluation failed")
	}
	return nil
}

func (f *fakeAnimator) InstanceCount() uint32 { return 1 }

func newFakes(names ...string) ([]*fakeAnimator, *[]string) {
	mu := &sync.Mutex{}
	calls := &[]string{}
	out := make([]*fakeAnimator, len(names))
	for i, n := range names {
		out[i] = &fakeAnimator{name: n, mu: mu, calls: calls}
	}
	return out, calls
}

func quietLogger() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

func TestFixedStepRunsAnimatorsInKeyOrder(t *testing.T) {
	fakes, calls := newFakes("back", "front")
	ticks := 0
	e := NewEngine(
		WithLogger(quietLogger()),
		WithTickRate(50),
		WithFixedStep(true),
		WithMaxTicks(4),
		WithAnimator(10, fakes[0]),
	)
	e.AddAnimator(-1, fakes[1])
	e.SetTickCallback(func(dt float32) {
		assert.InDelta(t, 0.02, dt, 1e-6)
		ticks++
	})

	require.NoError(t, e.Run())
	assert.Equal(t, 4, ticks)
	assert.Equal(t, []string{"front", "back", "front", "back", "front", "back", "front", "back"}, *calls)
	for _, dt := range fakes[0].deltas {
		assert.InDelta(t, 0.02, dt, 1e-6)
	}
}

func TestRunStopsOnAnimatorError(t *testing.T) {
	fakes, _ := newFakes("broken")
	fakes[0].failAt = 3
	e := NewEngine(WithLogger(quietLogger()), WithFixedStep(true), WithMaxTicks(10))
	e.AddAnimator(1, fakes[0])

	err := e.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "animator 1")
	assert.Len(t, fakes[0].deltas, 3)
}

func TestQuitStopsRealTimeLoop(t *testing.T) {
	fakes, _ := newFakes("live")
	e := NewEngine(WithLogger(quietLogger()), WithTickRate(500))
	e.AddAnimator(0, fakes[0])

	ticks := 0
	e.SetTickCallback(func(float32) {
		ticks++
		if ticks == 3 {
			e.Quit()
		}
	})

	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.GreaterOrEqual(t, ticks, 3)

	// quitting twice is safe
	e.Quit()
}

func TestAnimatorRegistry(t *testing.T) {
	fakes, _ := newFakes("a", "b")
	e := NewEngine(WithLogger(quietLogger()))
	e.AddAnimator(1, fakes[0])
	e.AddAnimator(2, fakes[1])

	assert.Same(t, fakes[0], e.Animator(1))
	assert.Len(t, e.Animators(), 2)

	e.RemoveAnimator(1)
	assert.Nil(t, e.Animator(1))
	snapshot := e.Animators()
	delete(snapshot, 2)
	assert.Len(t, e.Animators(), 1)
}

func TestTickPeriod(t *testing.T) {
	assert.Equal(t, time.Second/60, tickPeriod(0))
	assert.Equal(t, 20*time.Millisecond, tickPeriod(50))
	fps := 144.0
	assert.Equal(t, time.Duration(float64(time.Second)/fps), tickPeriod(fps))
}

func TestProfilingRecordsTicks(t *testing.T) {
	fakes, _ := newFakes("a", "b")
	logger, hook := test.NewNullLogger()
	e := NewEngine(
		WithLogger(quietLogger()),
		WithProfiler(profiler.NewProfiler(
			profiler.WithLogger(logrus.NewEntry(logger)),
			profiler.WithUpdateInterval(time.Nanosecond),
		)),
		WithProfiling(true),
		WithFixedStep(true),
		WithMaxTicks(2),
		WithAnimator(0, fakes[0]),
		WithAnimator(1, fakes[1]),
	)
	e.SetTickCallback(func(float32) { time.Sleep(time.Millisecond) })

	require.NoError(t, e.Run())
	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, 2, hook.LastEntry().Data["instances"])

	hook.Reset()
	e.DisableProfiler()
	require.NoError(t, e.Run())
	assert.Empty(t, hook.Entries)
}
