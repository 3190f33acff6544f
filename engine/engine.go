package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// engine is the implementation of the Engine interface.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled bool
	log              *logrus.Entry

	engineTickRate time.Duration
	fixedStep      bool
	maxTicks       int
	tickCallback   func(deltaTime float32)

	animators map[int]animator.Animator
}

// Engine is the headless frame loop of the animation engine.
//
// Each tick the engine calls the tick callback, then advances and evaluates every registered
// Animator in ascending key order. In real-time mode ticks follow a wall clock ticker and the
// delta is the measured time between ticks; in fixed-step mode ticks run back to back with a
// constant delta of one tick period, which makes runs reproducible.
type Engine interface {
	// EnableProfiler enables per-tick evaluation statistics in the log.
	EnableProfiler()

	// DisableProfiler disables per-tick evaluation statistics.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// If the engine is running, the change takes effect immediately.
	//
	// Parameters:
	//   - fps: target ticks per second, values <= 0 select 60
	SetTickRate(fps float64)

	// SetTickCallback registers the function called at the start of each tick, before the
	// animators advance. Game logic such as PlayAnimation or BlendToAnimation belongs here.
	//
	// Parameters:
	//   - callback: the function receiving the tick delta in seconds
	SetTickCallback(callback func(deltaTime float32))

	// AddAnimator registers an Animator at the given key, replacing any previous one.
	//
	// Parameters:
	//   - key: the order key, lower keys are evaluated first
	//   - a: the Animator
	AddAnimator(key int, a animator.Animator)

	// RemoveAnimator unregisters the Animator at the given key.
	//
	// Parameters:
	//   - key: the order key
	RemoveAnimator(key int)

	// Animator returns the Animator registered at the given key, or nil.
	//
	// Parameters:
	//   - key: the order key
	//
	// Returns:
	//   - animator.Animator: the Animator or nil
	Animator(key int) animator.Animator

	// Animators returns a copy of the registered Animators by key.
	//
	// Returns:
	//   - map[int]animator.Animator: the Animators
	Animators() map[int]animator.Animator

	// Run blocks and ticks until Quit is called, the tick limit is reached or an Animator fails.
	//
	// Returns:
	//   - error: the first Animator error, or nil
	Run() error

	// Quit stops a running engine. Safe to call more than once and from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: variadic list of EngineBuilderOption functions to configure the engine
//
// Returns:
//   - Engine: the newly created engine instance
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		animators:       make(map[int]animator.Animator),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.log == nil {
		e.log = common.ComponentLogger("engine")
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.log.WithField("profiler", true)))
	}
	return e
}

func (e *engine) Run() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("engine is already running")
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	e.log.WithFields(logrus.Fields{
		"tick_rate":  e.engineTickRate,
		"fixed_step": e.fixedStep,
		"max_ticks":  e.maxTicks,
	}).Info("engine started")

	if e.fixedStep {
		return e.runFixed()
	}
	return e.runRealTime()
}

// runFixed ticks back to back with a constant delta.
func (e *engine) runFixed() error {
	for ticks := 0; e.maxTicks <= 0 || ticks < e.maxTicks; ticks++ {
		select {
		case <-e.quitChannel:
			return nil
		case newRate := <-e.tickRateChannel:
			e.engineTickRate = newRate
		default:
		}
		if err := e.tick(float32(e.engineTickRate.Seconds())); err != nil {
			return err
		}
	}
	return nil
}

// runRealTime ticks on a wall clock ticker with the measured delta.
func (e *engine) runRealTime() error {
	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()
	for ticks := 0; e.maxTicks <= 0 || ticks < e.maxTicks; {
		select {
		case <-e.quitChannel:
			return nil
		case now := <-ticker.C:
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			if err := e.tick(dt); err != nil {
				return err
			}
			ticks++
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
	return nil
}

// tick runs the callback, then every animator in ascending key order.
func (e *engine) tick(dt float32) error {
	start := time.Now()
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}

	e.mu.Lock()
	keys := make([]int, 0, len(e.animators))
	for k := range e.animators {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	animators := make([]animator.Animator, 0, len(keys))
	for _, k := range keys {
		animators = append(animators, e.animators[k])
	}
	profiling := e.profilingEnabled
	e.mu.Unlock()

	instances := 0
	for i, a := range animators {
		if err := a.PrepareFrame(dt); err != nil {
			e.log.WithError(err).WithField("animator", keys[i]).Error("animator frame failed")
			return errors.Wrapf(err, "animator %d", keys[i])
		}
		instances += int(a.InstanceCount())
	}

	if profiling {
		e.profiler.RecordEvaluation(instances, instances, time.Since(start))
		e.profiler.Tick()
	}
	return nil
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) SetTickRate(fps float64) {
	newRate := tickPeriod(fps)

	e.mu.Lock()
	running := e.running
	if !running {
		e.engineTickRate = newRate
	}
	e.mu.Unlock()
	if !running {
		return
	}

	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) AddAnimator(key int, a animator.Animator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.animators[key] = a
}

func (e *engine) RemoveAnimator(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.animators, key)
}

func (e *engine) Animator(key int) animator.Animator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.animators[key]
}

func (e *engine) Animators() map[int]animator.Animator {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make(map[int]animator.Animator, len(e.animators))
	for k, v := range e.animators {
		cp[k] = v
	}
	return cp
}

// tickPeriod converts ticks per second into a ticker period, defaulting to 60Hz.
func tickPeriod(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}
