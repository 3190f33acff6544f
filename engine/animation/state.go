package animation

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// AnimationState is the playback cursor of one animation on one entity: where it is, how
// strongly it contributes and whether it contributes at all.
type AnimationState struct {
	name      string
	parent    *AnimationStateSet
	time      float32
	length    float32
	invLength float32
	weight    float32
	enabled   bool
	loop      bool
}

func newAnimationState(parent *AnimationStateSet, name string, time, length, weight float32, enabled bool) *AnimationState {
	s := &AnimationState{
		name:    name,
		parent:  parent,
		time:    time,
		weight:  weight,
		enabled: enabled,
		loop:    true,
	}
	s.setLength(length)
	return s
}

// Name returns the name of the animation the state plays.
func (s *AnimationState) Name() string {
	return s.name
}

// Parent returns the set that owns the state.
func (s *AnimationState) Parent() *AnimationStateSet {
	return s.parent
}

// TimePosition returns the current time position in seconds.
func (s *AnimationState) TimePosition() float32 {
	return s.time
}

// SetTimePosition moves the cursor. Looping states wrap into [0, length); others clamp to it.
//
// Parameters:
//   - t: the new time position in seconds
func (s *AnimationState) SetTimePosition(t float32) {
	if t == s.time {
		return
	}
	if s.loop {
		t = common.WrapTime(t, s.length)
	} else {
		t = mgl32.Clamp(t, 0, s.length)
	}
	s.time = t
	if s.enabled && s.parent != nil {
		s.parent.notifyDirty()
	}
}

// AddTime advances the cursor by offset seconds.
func (s *AnimationState) AddTime(offset float32) {
	s.SetTimePosition(s.time + offset)
}

// HasEnded reports whether a non-looping state has reached its end.
func (s *AnimationState) HasEnded() bool {
	return s.time >= s.length && !s.loop
}

// Length returns the animation length in seconds.
func (s *AnimationState) Length() float32 {
	return s.length
}

// SetLength changes the length, keeping the inverse length in sync.
func (s *AnimationState) SetLength(length float32) {
	s.setLength(length)
	if s.enabled && s.parent != nil {
		s.parent.notifyDirty()
	}
}

func (s *AnimationState) setLength(length float32) {
	s.length = length
	if length != 0 {
		s.invLength = 1 / length
	} else {
		s.invLength = 0
	}
}

// Weight returns the blend weight.
func (s *AnimationState) Weight() float32 {
	return s.weight
}

// SetWeight sets the blend weight.
func (s *AnimationState) SetWeight(weight float32) {
	s.weight = weight
	if s.enabled && s.parent != nil {
		s.parent.notifyDirty()
	}
}

// Enabled reports whether the state contributes to the pose.
func (s *AnimationState) Enabled() bool {
	return s.enabled
}

// SetEnabled enables or disables the state. Enabling moves the state to the end of the set's
// enabled list.
func (s *AnimationState) SetEnabled(enabled bool) {
	s.enabled = enabled
	if s.parent != nil {
		s.parent.NotifyAnimationStateEnabled(s, enabled)
	}
}

// Loop reports whether time positions wrap.
func (s *AnimationState) Loop() bool {
	return s.loop
}

// SetLoop sets whether time positions wrap or clamp.
func (s *AnimationState) SetLoop(loop bool) {
	s.loop = loop
}

// Value returns the normalised time position, time / length, or 0 for a zero-length animation.
func (s *AnimationState) Value() float32 {
	return s.time * s.invLength
}

// CopyStateFrom copies time, length, weight, enabled and loop from another state.
func (s *AnimationState) CopyStateFrom(other *AnimationState) {
	s.time = other.time
	s.setLength(other.length)
	s.weight = other.weight
	s.loop = other.loop
	if s.enabled != other.enabled {
		s.SetEnabled(other.enabled)
	} else if s.parent != nil {
		s.parent.notifyDirty()
	}
}

// AnimationStateSet owns the animation states of one entity and tracks which are enabled, in the
// order they were enabled.
type AnimationStateSet struct {
	states  map[string]*AnimationState
	enabled []*AnimationState
	dirty   uint64
}

// NewAnimationStateSet creates an empty set.
func NewAnimationStateSet() *AnimationStateSet {
	return &AnimationStateSet{
		states: make(map[string]*AnimationState),
	}
}

// CreateAnimationState creates a state for the named animation.
//
// Parameters:
//   - name: the animation name
//   - time: the starting time position in seconds
//   - length: the animation length in seconds
//   - weight: the blend weight
//   - enabled: whether the state starts enabled
//
// Returns:
//   - *AnimationState: the state
//   - error: common.ErrDuplicate if a state with the name exists
func (set *AnimationStateSet) CreateAnimationState(name string, time, length, weight float32, enabled bool) (*AnimationState, error) {
	if _, ok := set.states[name]; ok {
		return nil, errors.Wrapf(common.ErrDuplicate, "animation state %q", name)
	}
	s := newAnimationState(set, name, time, length, weight, enabled)
	set.states[name] = s
	if enabled {
		set.enabled = append(set.enabled, s)
		set.notifyDirty()
	}
	return s, nil
}

// AnimationState returns the named state.
//
// Returns:
//   - *AnimationState: the state
//   - error: common.ErrNotFound if no state has the name
func (set *AnimationStateSet) AnimationState(name string) (*AnimationState, error) {
	s, ok := set.states[name]
	if !ok {
		return nil, errors.Wrapf(common.ErrNotFound, "animation state %q", name)
	}
	return s, nil
}

// HasAnimationState reports whether a state exists for name.
func (set *AnimationStateSet) HasAnimationState(name string) bool {
	_, ok := set.states[name]
	return ok
}

// RemoveAnimationState removes the named state. Removing an unknown name is a no-op.
func (set *AnimationStateSet) RemoveAnimationState(name string) {
	s, ok := set.states[name]
	if !ok {
		return
	}
	delete(set.states, name)
	if list, removed := common.RemoveValue(set.enabled, s); removed {
		set.enabled = list
		set.notifyDirty()
	}
	s.parent = nil
}

// RemoveAllAnimationStates removes every state.
func (set *AnimationStateSet) RemoveAllAnimationStates() {
	for _, s := range set.states {
		s.parent = nil
	}
	set.states = make(map[string]*AnimationState)
	if len(set.enabled) > 0 {
		set.enabled = nil
		set.notifyDirty()
	}
}

// AnimationStates returns every state ordered by name.
func (set *AnimationStateSet) AnimationStates() []*AnimationState {
	out := make([]*AnimationState, 0, len(set.states))
	for _, s := range set.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// EnabledAnimationStates returns a copy of the enabled list in enable order.
func (set *AnimationStateSet) EnabledAnimationStates() []*AnimationState {
	return append([]*AnimationState(nil), set.enabled...)
}

// HasEnabledAnimationState reports whether any state is enabled.
func (set *AnimationStateSet) HasEnabledAnimationState() bool {
	return len(set.enabled) > 0
}

// VisitEnabled calls fn for every enabled state in enable order without copying the list.
// fn must not enable or disable states.
func (set *AnimationStateSet) VisitEnabled(fn func(s *AnimationState)) {
	for _, s := range set.enabled {
		fn(s)
	}
}

// NotifyAnimationStateEnabled moves target out of the enabled list and, when enabled, back in at
// the end. The dirty counter is bumped either way.
//
// Parameters:
//   - target: the state whose enablement changed
//   - enabled: the new enablement
func (set *AnimationStateSet) NotifyAnimationStateEnabled(target *AnimationState, enabled bool) {
	set.enabled, _ = common.RemoveValue(set.enabled, target)
	if enabled {
		set.enabled = append(set.enabled, target)
	}
	set.notifyDirty()
}

// CopyMatchingState copies every state of this set onto the state of the same name in target.
// States only present in one of the sets are ignored.
//
// Parameters:
//   - target: the set receiving the state
func (set *AnimationStateSet) CopyMatchingState(target *AnimationStateSet) {
	for _, src := range set.AnimationStates() {
		if dst, ok := target.states[src.name]; ok {
			dst.CopyStateFrom(src)
		}
	}
	target.notifyDirty()
}

// DirtyFrameNumber returns a counter bumped whenever enabled states change.
func (set *AnimationStateSet) DirtyFrameNumber() uint64 {
	return set.dirty
}

func (set *AnimationStateSet) notifyDirty() {
	set.dirty++
}
