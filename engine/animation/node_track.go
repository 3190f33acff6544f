package animation

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
)

// TransformTarget is anything a node track can drive, typically a bone.
type TransformTarget interface {
	// Translate moves the target by d expressed in the given space.
	Translate(d mgl32.Vec3, relativeTo common.TransformSpace)

	// Rotate rotates the target by q expressed in the given space.
	Rotate(q mgl32.Quat, relativeTo common.TransformSpace)

	// ScaleBy multiplies the target scale componentwise by s.
	ScaleBy(s mgl32.Vec3)

	// WeightedTransform folds a weighted offset from the initial state into a running weighted
	// average.
	WeightedTransform(weight float32, translate mgl32.Vec3, rotate mgl32.Quat, scale mgl32.Vec3)
}

// nodeSplines caches the curves used in spline interpolation mode.
type nodeSplines struct {
	position *SimpleSpline
	rotation *RotationalSpline
	scale    *SimpleSpline
}

// NodeTrack animates a TransformTarget with TransformKeyFrames.
type NodeTrack struct {
	trackBase[*TransformKeyFrame]
	target                  TransformTarget
	useShortestRotationPath bool

	splines           *nodeSplines
	splineBuildNeeded bool
}

func newNodeTrack(parent *Animation, handle uint16, target TransformTarget) *NodeTrack {
	tr := &NodeTrack{
		target:                  target,
		useShortestRotationPath: parent.useShortestRotationPath,
		splineBuildNeeded:       true,
	}
	tr.init(handle, parent, tr)
	return tr
}

// CreateKeyFrame inserts a new identity keyframe at time, after any keyframes with the same time.
func (tr *NodeTrack) CreateKeyFrame(time float32) *TransformKeyFrame {
	return tr.addKeyFrame(newTransformKeyFrame(time))
}

// AssociatedTarget returns the target driven by Apply.
func (tr *NodeTrack) AssociatedTarget() TransformTarget {
	return tr.target
}

// SetAssociatedTarget sets the target driven by Apply.
func (tr *NodeTrack) SetAssociatedTarget(target TransformTarget) {
	tr.target = target
}

// UseShortestRotationPath reports whether rotations take the shortest arc.
func (tr *NodeTrack) UseShortestRotationPath() bool {
	return tr.useShortestRotationPath
}

// SetUseShortestRotationPath toggles shortest arc rotation interpolation.
func (tr *NodeTrack) SetUseShortestRotationPath(use bool) {
	tr.useShortestRotationPath = use
}

// InterpolatedTransform returns the keyframe value at a time position.
//
// Parameters:
//   - timePos: the time position in seconds
//
// Returns:
//   - common.Transform: the interpolated offset, identity for an empty track
func (tr *NodeTrack) InterpolatedTransform(timePos float32) common.Transform {
	k1, k2, t, index := tr.KeyFramesAtTime(timePos)
	if index < 0 {
		return common.IdentityTransform()
	}
	if t == 0 {
		return k1.Transform()
	}

	if tr.parent.interpolationMode == InterpolationSpline {
		tr.buildSplines()
		return common.Transform{
			Translation: tr.splines.position.Interpolate(index, t),
			Rotation:    tr.splines.rotation.Interpolate(index, t, tr.useShortestRotationPath),
			Scale:       tr.splines.scale.Interpolate(index, t),
		}
	}

	var rot mgl32.Quat
	if tr.parent.rotationInterpolationMode == RotationSpherical {
		rot = common.Slerp(k1.rotation, k2.rotation, t, tr.useShortestRotationPath)
	} else {
		rot = common.Nlerp(k1.rotation, k2.rotation, t, tr.useShortestRotationPath)
	}
	return common.Transform{
		Translation: common.LerpVec3(k1.translate, k2.translate, t),
		Rotation:    rot,
		Scale:       common.LerpVec3(k1.scale, k2.scale, t),
	}
}

// Apply drives the associated target. Nothing happens without one.
//
// Parameters:
//   - timePos: the time position in seconds
//   - weight: the blend weight
//   - accumulate: true to add onto the target, false to fold into its weighted average
//   - scale: the scale factor applied to translation and scale
func (tr *NodeTrack) Apply(timePos, weight float32, accumulate bool, scale float32) {
	tr.ApplyToTarget(tr.target, timePos, weight, accumulate, scale)
}

// ApplyToTarget drives an explicit target with the track value at timePos.
//
// Parameters:
//   - target: the target to drive
//   - timePos: the time position in seconds
//   - weight: the blend weight; zero weight leaves the target untouched
//   - accumulate: true to add onto the target, false to fold into its weighted average
//   - scale: the scale factor applied to translation and scale
func (tr *NodeTrack) ApplyToTarget(target TransformTarget, timePos, weight float32, accumulate bool, scale float32) {
	if target == nil || tr.keys.len() == 0 || weight == 0 {
		return
	}
	kf := tr.InterpolatedTransform(timePos)

	if !accumulate {
		target.WeightedTransform(weight, kf.Translation.Mul(scale), kf.Rotation, kf.Scale)
		return
	}

	target.Translate(kf.Translation.Mul(weight*scale), common.TransformSpaceLocal)

	ident := mgl32.QuatIdent()
	var rot mgl32.Quat
	if tr.parent.rotationInterpolationMode == RotationSpherical {
		rot = common.Slerp(ident, kf.Rotation, weight, tr.useShortestRotationPath)
	} else {
		rot = common.Nlerp(ident, kf.Rotation, weight, tr.useShortestRotationPath)
	}
	target.Rotate(rot, common.TransformSpaceLocal)

	s := kf.Scale
	if s != common.UnitScale {
		if scale != 1 {
			s = common.UnitScale.Add(s.Sub(common.UnitScale).Mul(scale))
		} else if weight != 1 {
			s = common.UnitScale.Add(s.Sub(common.UnitScale).Mul(weight))
		}
	}
	target.ScaleBy(s)
}

// HasNonZeroKeyFrames reports whether any keyframe moves its target away from the bind pose.
func (tr *NodeTrack) HasNonZeroKeyFrames() bool {
	for _, k := range tr.keys.frames {
		if !common.Vec3Equal(k.translate, mgl32.Vec3{}, common.DefaultTolerance) ||
			!common.Vec3Equal(k.scale, common.UnitScale, common.DefaultTolerance) ||
			!common.QuatEqual(k.rotation, mgl32.QuatIdent(), common.DefaultTolerance) {
			return true
		}
	}
	return false
}

// Optimise removes redundant keyframes from runs of identical keyframes. A run is the keyframes
// equal to the one before them; its first two and last two are kept so spline tangents into and
// out of the run are preserved, everything between them is removed.
func (tr *NodeTrack) Optimise() {
	n := tr.keys.len()
	if n < 3 {
		return
	}
	tol := common.DefaultTolerance

	var remove []int
	last := tr.keys.frames[0]
	dupCount := 0
	for k := 1; k < n; k++ {
		cur := tr.keys.frames[k]
		if common.Vec3Equal(cur.translate, last.translate, tol) &&
			common.Vec3Equal(cur.scale, last.scale, tol) &&
			common.QuatEqual(cur.rotation, last.rotation, tol) {
			dupCount++
			// from the fifth duplicate on, the one two back is interior to the run
			if dupCount == 5 {
				remove = append(remove, k-2)
				dupCount--
			}
			continue
		}
		dupCount = 0
		last = cur
	}

	if len(remove) == 0 {
		return
	}
	for i := len(remove) - 1; i >= 0; i-- {
		_ = tr.keys.remove(remove[i])
	}
	tr.keyFrameDataChanged()
}

func (tr *NodeTrack) keyFrameDataChanged() {
	tr.splineBuildNeeded = true
}

// prepareCaches builds the time index and, in spline mode, the curves so later reads do not
// mutate the track.
func (tr *NodeTrack) prepareCaches() {
	tr.prepareIndex()
	if tr.parent.interpolationMode == InterpolationSpline {
		tr.buildSplines()
	}
}

func (tr *NodeTrack) buildSplines() {
	if !tr.splineBuildNeeded && tr.splines != nil {
		return
	}
	if tr.splines == nil {
		tr.splines = &nodeSplines{
			position: NewSimpleSpline(),
			rotation: NewRotationalSpline(),
			scale:    NewSimpleSpline(),
		}
	}
	sp := tr.splines
	sp.position.Clear()
	sp.rotation.Clear()
	sp.scale.Clear()
	sp.position.SetAutoCalculate(false)
	sp.rotation.SetAutoCalculate(false)
	sp.scale.SetAutoCalculate(false)

	for _, k := range tr.keys.frames {
		sp.position.AddPoint(k.translate)
		sp.rotation.AddPoint(k.rotation)
		sp.scale.AddPoint(k.scale)
	}
	sp.position.RecalcTangents()
	sp.rotation.RecalcTangents()
	sp.scale.RecalcTangents()
	tr.splineBuildNeeded = false
}

func (tr *NodeTrack) clone(parent *Animation) *NodeTrack {
	c := newNodeTrack(parent, tr.handle, tr.target)
	c.useShortestRotationPath = tr.useShortestRotationPath
	c.useTimeIndex = tr.useTimeIndex
	for _, k := range tr.keys.frames {
		nk := c.CreateKeyFrame(k.time)
		nk.translate, nk.rotation, nk.scale = k.translate, k.rotation, k.scale
	}
	return c
}
