package animator

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

// Target is what an Animator evaluates: a skeleton or skeleton instance that turns an animation
// state set into a skin matrix palette.
type Target interface {
	// InitAnimationState fills set with one disabled state per animation.
	InitAnimationState(set *animation.AnimationStateSet) error

	// RefreshAnimationState adds states for animations created since InitAnimationState.
	RefreshAnimationState(set *animation.AnimationStateSet) error

	// SetAnimationState poses the bones from the enabled states of set.
	SetAnimationState(set *animation.AnimationStateSet)

	// PrepareAnimationCaches builds the lazy caches of the animations so concurrent targets
	// sharing them only read.
	PrepareAnimationCaches()

	// BoneMatrices writes the skin matrix palette into out.
	BoneMatrices(out []mgl32.Mat4) error

	// PaletteSize returns the number of entries BoneMatrices writes.
	PaletteSize() int
}

var (
	_ Target = &skeleton.Skeleton{}
	_ Target = &skeleton.SkeletonInstance{}
)

// playbackState is the per-instance playback cursor, the state-set equivalent of a clip index,
// a time and an optional crossfade.
type playbackState struct {
	current *animation.AnimationState
	speed   float32
	loop    bool

	blending      bool
	blendTo       *animation.AnimationState
	blendDuration float32
	blendElapsed  float32
}

// instance is one registered target with its state set and last palette.
type instance struct {
	target  Target
	states  *animation.AnimationStateSet
	state   playbackState
	palette []mgl32.Mat4

	evaluated  bool
	lastDirty  uint64
	forceDirty bool
}

// needsEvaluation reports whether the pose may differ from the last evaluated palette.
func (in *instance) needsEvaluation() bool {
	return !in.evaluated || in.forceDirty || in.states.DirtyFrameNumber() != in.lastDirty
}

// advance moves the playback cursors by deltaTime and resolves a finished crossfade.
func (in *instance) advance(deltaTime float32) {
	st := &in.state
	step := deltaTime * st.speed
	if st.current != nil && step != 0 {
		st.current.AddTime(step)
	}
	if !st.blending {
		return
	}

	st.blendElapsed += deltaTime
	if step != 0 {
		st.blendTo.AddTime(step)
	}
	progress := st.blendElapsed / st.blendDuration
	if progress >= 1 {
		in.finishBlend()
		return
	}
	st.current.SetWeight(1 - progress)
	st.blendTo.SetWeight(progress)
}

// finishBlend makes the blend target the current animation.
func (in *instance) finishBlend() {
	st := &in.state
	if st.current != nil && st.current != st.blendTo {
		st.current.SetEnabled(false)
		st.current.SetWeight(1)
	}
	st.current = st.blendTo
	st.current.SetWeight(1)
	st.blending = false
	st.blendTo = nil
	st.blendElapsed = 0
	st.blendDuration = 0
}

// cancelBlend drops the blend target and restores the current animation to full weight.
func (in *instance) cancelBlend() {
	st := &in.state
	if !st.blending {
		return
	}
	if st.blendTo != st.current {
		st.blendTo.SetEnabled(false)
		st.blendTo.SetWeight(1)
	}
	if st.current != nil {
		st.current.SetWeight(1)
	}
	st.blending = false
	st.blendTo = nil
	st.blendElapsed = 0
	st.blendDuration = 0
}

// evaluate poses the target and writes its palette. It runs on a pool worker.
func (in *instance) evaluate() error {
	if size := in.target.PaletteSize(); len(in.palette) != size {
		in.palette = make([]mgl32.Mat4, size)
	}
	in.target.SetAnimationState(in.states)
	if err := in.target.BoneMatrices(in.palette); err != nil {
		return err
	}
	in.evaluated = true
	in.forceDirty = false
	in.lastDirty = in.states.DirtyFrameNumber()
	return nil
}
