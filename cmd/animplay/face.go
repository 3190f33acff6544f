package main

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/vertex"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// face is a four-vertex mouth animated by poses, evaluated in software and as hardware streams.
type face struct {
	software *vertex.Data
	hardware *vertex.Data
	poses    []*vertex.Pose
	talk     *animation.Animation
	states   *animation.AnimationStateSet
}

var (
	_ animation.VertexTarget    = &face{}
	_ animation.AnimationSource = &face{}
)

// newFace builds the mouth and its looping "talk" animation. A nil factory keeps hardware pose
// streams in memory.
func newFace(factory vertex.BufferFactory) (*face, error) {
	rest := []mgl32.Vec3{{-1, 0, 0}, {1, 0, 0}, {-1, 1, 0}, {1, 1, 0}}
	f := &face{
		software: vertex.NewData(len(rest), vertex.NewMemoryBuffer(rest)),
		hardware: vertex.NewData(len(rest), vertex.NewMemoryBuffer(rest)),
		states:   animation.NewAnimationStateSet(),
	}
	f.software.SetBase(vertex.NewMemoryBuffer(rest))
	f.hardware.AllocateHardwareAnimationElements(2, 1)

	open := vertex.NewPose(0, "open")
	open.AddVertex(0, mgl32.Vec3{0, -0.5, 0})
	open.AddVertex(1, mgl32.Vec3{0, -0.5, 0})
	smile := vertex.NewPose(0, "smile")
	smile.AddVertex(0, mgl32.Vec3{-0.2, 0.2, 0})
	smile.AddVertex(1, mgl32.Vec3{0.2, 0.2, 0})
	f.poses = []*vertex.Pose{open, smile}

	var options []animation.AnimationBuilderOption
	if factory != nil {
		options = append(options, animation.WithPoseBufferFactory(factory))
	}
	f.talk = animation.NewAnimation("talk", 1, options...)
	tr, err := f.talk.CreateVertexTrack(0, animation.VertexAnimationPose, nil)
	if err != nil {
		return nil, err
	}
	keys := []struct {
		time        float32
		open, smile float32
	}{
		{0, 0, 0.5},
		{0.25, 1, 0},
		{0.5, 0, 1},
		{0.75, 0.6, 0.2},
	}
	for _, k := range keys {
		kf, err := tr.CreateVertexPoseKeyFrame(k.time)
		if err != nil {
			return nil, err
		}
		if err := kf.AddPoseReference(0, k.open); err != nil {
			return nil, err
		}
		if err := kf.AddPoseReference(1, k.smile); err != nil {
			return nil, err
		}
	}

	if _, err := f.states.CreateAnimationState(f.talk.Name(), 0, f.talk.Length(), 1, true); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *face) SoftwareVertexData(handle uint16) (*vertex.Data, bool) {
	return f.software, handle == 0
}

func (f *face) HardwareVertexData(handle uint16) (*vertex.Data, bool) {
	return f.hardware, handle == 0
}

func (f *face) Poses() []*vertex.Pose {
	return f.poses
}

func (f *face) Animation(name string) (*animation.Animation, bool) {
	if name != f.talk.Name() {
		return nil, false
	}
	return f.talk, true
}

// update advances the talk state and re-poses both vertex paths.
func (f *face) update(dt float32) error {
	st, err := f.states.AnimationState(f.talk.Name())
	if err != nil {
		return err
	}
	st.AddTime(dt)
	return errors.Wrap(animation.ApplyVertexAnimationState(f, f.states, f, true, true), "face")
}

// positions returns the software-posed vertex positions.
func (f *face) positions() ([]mgl32.Vec3, error) {
	var out []mgl32.Vec3
	err := vertex.WithLock(f.software.Positions(), vertex.LockReadOnly, func(data []mgl32.Vec3) error {
		out = append(out, data...)
		return nil
	})
	return out, err
}

func (f *face) release() {
	for _, p := range f.poses {
		p.ReleaseHardwareBuffer()
	}
}
