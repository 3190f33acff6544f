// Package animator drives many animated targets per frame: it advances playback cursors and
// crossfades, then evaluates every changed target on a worker pool and keeps its skin palette.
package animator

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// animator is the implementation of the Animator interface.
type animator struct {
	mu        *sync.Mutex
	instances []*instance
	log       *logrus.Entry
	profiler  *profiler.Profiler

	computeWorkers int
	queueSize      int
	idleTimeout    time.Duration
	computePool    worker.DynamicWorkerPool
	released       bool
}

// Animator defines the public interface of the per-frame animation driver.
//
// Each registered instance owns an AnimationStateSet built from its target's animations and a
// playback cursor: one current animation plus an optional crossfade target. PrepareFrame advances
// every cursor, then evaluates the instances whose states changed in parallel and stores their
// skin matrix palettes.
type Animator interface {
	// AddInstance registers a target and creates its animation states.
	//
	// Parameters:
	//   - target: the skeleton or skeleton instance to animate
	//
	// Returns:
	//   - uint32: the index of the newly registered instance
	//   - error: an error if the target is nil, already registered, or its states cannot be created
	AddInstance(target Target) (uint32, error)

	// RemoveInstance removes the instance at the given index using a swap-remove strategy.
	// Returns the old last index that was swapped and whether a swap occurred.
	//
	// Parameters:
	//   - index: the instance index to remove
	//
	// Returns:
	//   - uint32: the old last index that was swapped into the removed slot (only meaningful when bool is true)
	//   - bool: true if the last instance was swapped into the removed slot
	RemoveInstance(index uint32) (uint32, bool)

	// InstanceCount returns the current number of registered instances.
	//
	// Returns:
	//   - uint32: the number of active instances
	InstanceCount() uint32

	// States returns the animation state set of an instance for direct manipulation.
	//
	// Parameters:
	//   - index: the instance index
	//
	// Returns:
	//   - *animation.AnimationStateSet: the state set
	//   - error: common.ErrOutOfRange for an unknown index
	States(index uint32) (*animation.AnimationStateSet, error)

	// PlayAnimation starts playback of a named animation on an instance, disabling every other
	// state. Time resets to 0 and speed to 1.
	//
	// Parameters:
	//   - index: the instance to animate
	//   - name: the animation to play
	//   - loop: whether the animation should loop
	//
	// Returns:
	//   - error: common.ErrOutOfRange for an unknown index, common.ErrNotFound for an unknown animation
	PlayAnimation(index uint32, name string, loop bool) error

	// BlendToAnimation crossfades an instance from its current animation to another one.
	// The outgoing state is weighted 1-p and the incoming one p, where p is the elapsed fraction
	// of duration. A duration <= 0, or an instance with nothing playing, switches immediately.
	//
	// Parameters:
	//   - index: the instance to blend
	//   - name: the animation to blend to
	//   - duration: the transition time in seconds
	//
	// Returns:
	//   - error: common.ErrOutOfRange for an unknown index, common.ErrNotFound for an unknown animation
	BlendToAnimation(index uint32, name string, duration float32) error

	// SetAnimationTime sets the playback position of the current animation of an instance.
	//
	// Parameters:
	//   - index: the instance to update
	//   - time: the playback time in seconds
	SetAnimationTime(index uint32, time float32)

	// SetAnimationSpeed sets the playback speed multiplier for an instance.
	//
	// Parameters:
	//   - index: the instance to update
	//   - speed: the speed multiplier (1.0 = normal, 0.5 = half speed)
	SetAnimationSpeed(index uint32, speed float32)

	// IsBlending returns whether an instance is currently crossfading.
	//
	// Parameters:
	//   - index: the instance to check
	//
	// Returns:
	//   - bool: true if the instance is blending
	IsBlending(index uint32) bool

	// BlendProgress returns the current blend progress for an instance.
	//
	// Parameters:
	//   - index: the instance to check
	//
	// Returns:
	//   - float32: blend progress from 0.0 (start) to 1.0 (complete), or 0.0 if not blending
	BlendProgress(index uint32) float32

	// CancelBlend stops an in-progress blend and keeps the current animation.
	//
	// Parameters:
	//   - index: the instance to cancel blending for
	CancelBlend(index uint32)

	// PrepareFrame advances every instance by deltaTime, primes the shared animation caches and
	// evaluates the changed instances in parallel.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - error: the first evaluation error, wrapped with its instance index
	PrepareFrame(deltaTime float32) error

	// BoneMatrices returns a copy of the palette written by the last evaluation of an instance.
	//
	// Parameters:
	//   - index: the instance
	//
	// Returns:
	//   - []mgl32.Mat4: the skin matrices, indexed by bone handle
	//   - error: common.ErrOutOfRange for an unknown index
	BoneMatrices(index uint32) ([]mgl32.Mat4, error)

	// Release drops every instance. PrepareFrame does nothing afterwards.
	Release()
}

var _ Animator = &animator{}

// NewAnimator creates an Animator with its compute pool.
//
// Parameters:
//   - options: optional builder options
//
// Returns:
//   - Animator: the animator
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{
		mu:             &sync.Mutex{},
		computeWorkers: max(runtime.NumCPU()-1, 1),
		queueSize:      256,
		idleTimeout:    time.Second,
	}
	for _, option := range options {
		option(a)
	}
	if a.log == nil {
		a.log = common.ComponentLogger("animator")
	}

	// Initialize the compute pool after options so WithComputeWorkers can override the default.
	a.computePool = worker.NewDynamicWorkerPool(a.computeWorkers, a.queueSize, a.idleTimeout)
	a.log.WithFields(logrus.Fields{
		"workers":    a.computeWorkers,
		"queue_size": a.queueSize,
	}).Debug("compute pool started")
	return a
}

func (a *animator) AddInstance(target Target) (uint32, error) {
	if target == nil {
		return 0, errors.New("animator target is nil")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, in := range a.instances {
		if in.target == target {
			return 0, errors.Wrap(common.ErrDuplicate, "animator target")
		}
	}

	set := animation.NewAnimationStateSet()
	if err := target.InitAnimationState(set); err != nil {
		return 0, errors.Wrap(err, "failed to init animation states")
	}
	in := &instance{
		target:  target,
		states:  set,
		state:   playbackState{speed: 1, loop: true},
		palette: make([]mgl32.Mat4, target.PaletteSize()),
	}
	a.instances = append(a.instances, in)
	idx := uint32(len(a.instances) - 1)
	a.log.WithField("instance", idx).Debug("instance added")
	return idx, nil
}

func (a *animator) RemoveInstance(index uint32) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if int(index) >= len(a.instances) {
		return 0, false
	}
	last := uint32(len(a.instances) - 1)
	var swapped bool
	a.instances, swapped = common.SwapRemove(a.instances, int(index))
	a.log.WithFields(logrus.Fields{"instance": index, "swapped": swapped}).Debug("instance removed")
	return last, swapped
}

func (a *animator) InstanceCount() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return uint32(len(a.instances))
}

func (a *animator) States(index uint32) (*animation.AnimationStateSet, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	in, err := a.instance(index)
	if err != nil {
		return nil, err
	}
	return in.states, nil
}

func (a *animator) PlayAnimation(index uint32, name string, loop bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	in, err := a.instance(index)
	if err != nil {
		return err
	}
	st, err := a.lookupState(in, name)
	if err != nil {
		return err
	}

	in.state.blending = false
	in.state.blendTo = nil
	in.state.blendElapsed = 0
	for _, other := range in.states.EnabledAnimationStates() {
		if other != st {
			other.SetEnabled(false)
			other.SetWeight(1)
		}
	}
	st.SetLoop(loop)
	st.SetTimePosition(0)
	st.SetWeight(1)
	st.SetEnabled(true)
	in.state.current = st
	in.state.speed = 1
	in.state.loop = loop
	in.forceDirty = true
	return nil
}

func (a *animator) BlendToAnimation(index uint32, name string, duration float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	in, err := a.instance(index)
	if err != nil {
		return err
	}
	st, err := a.lookupState(in, name)
	if err != nil {
		return err
	}

	// a previous crossfade target is dropped, the current animation fades out from where it is
	if in.state.blending && in.state.blendTo != st {
		in.cancelBlend()
	}
	if st != in.state.current {
		st.SetLoop(in.state.loop)
		st.SetTimePosition(0)
		st.SetWeight(0)
		st.SetEnabled(true)
	}
	in.state.blending = true
	in.state.blendTo = st
	in.state.blendDuration = duration
	in.state.blendElapsed = 0
	if duration <= 0 || in.state.current == nil || st == in.state.current {
		in.finishBlend()
	}
	in.forceDirty = true
	return nil
}

func (a *animator) SetAnimationTime(index uint32, time float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	in, err := a.instance(index)
	if err != nil || in.state.current == nil {
		return
	}
	in.state.current.SetTimePosition(time)
	in.forceDirty = true
}

func (a *animator) SetAnimationSpeed(index uint32, speed float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if in, err := a.instance(index); err == nil {
		in.state.speed = speed
	}
}

func (a *animator) IsBlending(index uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	in, err := a.instance(index)
	if err != nil {
		return false
	}
	return in.state.blending
}

func (a *animator) BlendProgress(index uint32) float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	in, err := a.instance(index)
	if err != nil || !in.state.blending {
		return 0
	}
	return in.state.blendElapsed / in.state.blendDuration
}

func (a *animator) CancelBlend(index uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if in, err := a.instance(index); err == nil && in.state.blending {
		in.cancelBlend()
		in.forceDirty = true
	}
}

func (a *animator) PrepareFrame(deltaTime float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil
	}
	start := time.Now()

	// Phase 1: single-threaded advance and cache priming. Instances of one master share its
	// animations, so every lazy cache must be built before workers start reading them.
	dirty := make([]*instance, 0, len(a.instances))
	dirtyIndex := make([]int, 0, len(a.instances))
	for i, in := range a.instances {
		in.advance(deltaTime)
		if !in.needsEvaluation() {
			continue
		}
		in.target.PrepareAnimationCaches()
		dirty = append(dirty, in)
		dirtyIndex = append(dirtyIndex, i)
	}

	// Phase 2: parallel evaluation on the compute pool. Workers are reused across frames.
	// A WaitGroup provides per-frame barrier sync since pool.Wait() blocks until
	// workers idle-exit which is unsuitable for frame-rate workloads.
	errs := make([]error, len(dirty))
	var wg sync.WaitGroup
	for i, in := range dirty {
		wg.Add(1)
		slot := i
		inCap := in
		a.computePool.SubmitTask(worker.Task{
			ID: dirtyIndex[i],
			Do: func() (any, error) {
				defer wg.Done()
				errs[slot] = inCap.evaluate()
				return nil, nil
			},
		})
	}
	wg.Wait()

	var first error
	for i, err := range errs {
		if err == nil {
			continue
		}
		a.log.WithError(err).WithField("instance", dirtyIndex[i]).Warn("instance evaluation failed")
		if first == nil {
			first = errors.Wrapf(err, "instance %d", dirtyIndex[i])
		}
	}

	if a.profiler != nil {
		a.profiler.RecordEvaluation(len(a.instances), len(dirty), time.Since(start))
		a.profiler.Tick()
	}
	return first
}

func (a *animator) BoneMatrices(index uint32) ([]mgl32.Mat4, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	in, err := a.instance(index)
	if err != nil {
		return nil, err
	}
	out := make([]mgl32.Mat4, len(in.palette))
	copy(out, in.palette)
	if !in.evaluated {
		for i := range out {
			out[i] = mgl32.Ident4()
		}
	}
	return out, nil
}

func (a *animator) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.instances = nil
	a.released = true
	a.log.Debug("animator released")
}

// instance returns the instance at index; the caller holds mu.
func (a *animator) instance(index uint32) (*instance, error) {
	if int(index) >= len(a.instances) {
		return nil, errors.Wrapf(common.ErrOutOfRange, "animator instance %d of %d", index, len(a.instances))
	}
	return a.instances[index], nil
}

// lookupState finds the state for name, refreshing the set once for animations created after
// the instance was added.
func (a *animator) lookupState(in *instance, name string) (*animation.AnimationState, error) {
	if st, err := in.states.AnimationState(name); err == nil {
		return st, nil
	}
	if err := in.target.RefreshAnimationState(in.states); err != nil {
		return nil, errors.Wrap(err, "failed to refresh animation states")
	}
	st, err := in.states.AnimationState(name)
	if err != nil {
		return nil, errors.Wrapf(common.ErrNotFound, "animation %q", name)
	}
	return st, nil
}
