package animation

import (
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTarget struct {
	translate mgl32.Vec3
	rotate    mgl32.Quat
	scale     mgl32.Vec3

	weights []float32
	space   common.TransformSpace
}

func newRecordingTarget() *recordingTarget {
	return &recordingTarget{rotate: mgl32.QuatIdent(), scale: common.UnitScale}
}

func (r *recordingTarget) Translate(d mgl32.Vec3, relativeTo common.TransformSpace) {
	r.translate = r.translate.Add(d)
	r.space = relativeTo
}

func (r *recordingTarget) Rotate(q mgl32.Quat, _ common.TransformSpace) {
	r.rotate = r.rotate.Mul(q)
}

func (r *recordingTarget) ScaleBy(s mgl32.Vec3) {
	r.scale = mgl32.Vec3{r.scale[0] * s[0], r.scale[1] * s[1], r.scale[2] * s[2]}
}

func (r *recordingTarget) WeightedTransform(weight float32, translate mgl32.Vec3, rotate mgl32.Quat, scale mgl32.Vec3) {
	r.weights = append(r.weights, weight)
	r.translate, r.rotate, r.scale = translate, rotate, scale
}

func rotZ(deg float32) mgl32.Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(deg), mgl32.Vec3{0, 0, 1})
}

func newNodeTrackFixture(t *testing.T, options ...AnimationBuilderOption) (*Animation, *NodeTrack) {
	t.Helper()
	anim := NewAnimation("walk", 2, options...)
	tr, err := anim.CreateNodeTrack(3, nil)
	require.NoError(t, err)

	k0 := tr.CreateKeyFrame(0)
	k1 := tr.CreateKeyFrame(1)
	k1.SetTranslate(mgl32.Vec3{2, 0, 0})
	k1.SetRotation(rotZ(90))
	k1.SetScale(mgl32.Vec3{3, 3, 3})
	k2 := tr.CreateKeyFrame(2)
	k2.SetTransform(k0.Transform())
	return anim, tr
}

func TestNodeTrackLinearInterpolation(t *testing.T) {
	_, tr := newNodeTrackFixture(t)

	kf := tr.InterpolatedTransform(0.5)
	assert.InDelta(t, 1, kf.Translation.X(), 1e-5)
	assert.InDelta(t, 2, kf.Scale.Y(), 1e-5)
	assert.InDelta(t, math.Pi/4, common.QuatAngle(kf.Rotation), 1e-3)

	kf = tr.InterpolatedTransform(1)
	assert.InDelta(t, 2, kf.Translation.X(), 1e-5)
	assert.InDelta(t, math.Pi/2, common.QuatAngle(kf.Rotation), 1e-4)
}

func TestNodeTrackSphericalRotation(t *testing.T) {
	_, tr := newNodeTrackFixture(t, WithRotationInterpolationMode(RotationSpherical))
	kf := tr.InterpolatedTransform(0.25)
	assert.InDelta(t, math.Pi/8, common.QuatAngle(kf.Rotation), 1e-4)
}

func TestNodeTrackShortestPath(t *testing.T) {
	anim := NewAnimation("spin", 1, WithRotationInterpolationMode(RotationSpherical))
	tr, err := anim.CreateNodeTrack(0, nil)
	require.NoError(t, err)
	tr.CreateKeyFrame(0)
	// the same rotation expressed in the opposite hemisphere
	far := rotZ(20).Scale(-1)
	tr.CreateKeyFrame(0.5).SetRotation(far)

	kf := tr.InterpolatedTransform(0.25)
	assert.InDelta(t, mgl32.DegToRad(10), common.QuatAngle(kf.Rotation), 1e-3)

	tr.SetUseShortestRotationPath(false)
	kf = tr.InterpolatedTransform(0.25)
	assert.Greater(t, common.QuatAngle(kf.Rotation), mgl32.DegToRad(90))
}

func TestNodeTrackSplinePassesThroughKeyFrames(t *testing.T) {
	anim, tr := newNodeTrackFixture(t, WithInterpolationMode(InterpolationSpline))
	require.Equal(t, InterpolationSpline, anim.InterpolationMode())

	kf := tr.InterpolatedTransform(1)
	assert.InDelta(t, 2, kf.Translation.X(), 1e-5)

	// closed curve with flat tangents: the midpoint sits halfway up
	mid := tr.InterpolatedTransform(0.5)
	assert.InDelta(t, 1, mid.Translation.X(), 1e-5)

	// editing a keyframe rebuilds the curve
	k1, err := tr.KeyFrame(1)
	require.NoError(t, err)
	k1.SetTranslate(mgl32.Vec3{4, 0, 0})
	mid = tr.InterpolatedTransform(0.5)
	assert.InDelta(t, 2, mid.Translation.X(), 1e-5)
}

func TestNodeTrackApplyAccumulate(t *testing.T) {
	_, tr := newNodeTrackFixture(t)
	target := newRecordingTarget()

	tr.ApplyToTarget(target, 1, 0.5, true, 1)

	assert.InDelta(t, 1, target.translate.X(), 1e-5)
	assert.Equal(t, common.TransformSpaceLocal, target.space)
	assert.InDelta(t, math.Pi/4, common.QuatAngle(target.rotate), 1e-3)
	// scale 3 at half weight blends to 2
	assert.InDelta(t, 2, target.scale.X(), 1e-5)
	assert.Empty(t, target.weights)
}

func TestNodeTrackApplyAverage(t *testing.T) {
	_, tr := newNodeTrackFixture(t)
	target := newRecordingTarget()

	tr.ApplyToTarget(target, 1, 0.25, false, 1)

	require.Equal(t, []float32{0.25}, target.weights)
	assert.InDelta(t, 2, target.translate.X(), 1e-5)
	assert.InDelta(t, 3, target.scale.Z(), 1e-5)
}

func TestNodeTrackApplyZeroWeightIsNoop(t *testing.T) {
	_, tr := newNodeTrackFixture(t)
	target := newRecordingTarget()
	tr.ApplyToTarget(target, 1, 0, true, 1)
	tr.Apply(1, 1, true, 1)

	assert.Equal(t, mgl32.Vec3{}, target.translate)
	assert.Empty(t, target.weights)
}

func TestNodeTrackOptimise(t *testing.T) {
	anim := NewAnimation("idle", 10)
	tr, err := anim.CreateNodeTrack(0, nil)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		tr.CreateKeyFrame(float32(i)).SetTranslate(mgl32.Vec3{1, 0, 0})
	}
	tr.Optimise()

	require.Equal(t, 5, tr.NumKeyFrames())
	assert.Equal(t, []float32{0, 1, 2, 4, 5}, nodeKeyTimes(tr))
}

func TestNodeTrackOptimiseLongRuns(t *testing.T) {
	tests := []struct {
		keys int
		want []float32
	}{
		{7, []float32{0, 1, 2, 5, 6}},
		{8, []float32{0, 1, 2, 6, 7}},
		{10, []float32{0, 1, 2, 8, 9}},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d keys", tc.keys), func(t *testing.T) {
			anim := NewAnimation("idle", float32(tc.keys))
			tr, err := anim.CreateNodeTrack(0, nil)
			require.NoError(t, err)
			for i := 0; i < tc.keys; i++ {
				tr.CreateKeyFrame(float32(i)).SetTranslate(mgl32.Vec3{1, 0, 0})
			}
			tr.Optimise()
			assert.Equal(t, tc.want, nodeKeyTimes(tr))
		})
	}
}

func TestNodeTrackOptimiseRunBetweenMotion(t *testing.T) {
	anim := NewAnimation("idle", 12)
	tr, err := anim.CreateNodeTrack(0, nil)
	require.NoError(t, err)
	tr.CreateKeyFrame(0)
	for i := 1; i <= 8; i++ {
		tr.CreateKeyFrame(float32(i)).SetTranslate(mgl32.Vec3{0, 2, 0})
	}
	tr.CreateKeyFrame(9)
	tr.Optimise()

	// key 1 anchors duplicates 2-8, of which 2, 3 and 7, 8 survive
	assert.Equal(t, []float32{0, 1, 2, 3, 7, 8, 9}, nodeKeyTimes(tr))
}

func nodeKeyTimes(tr *NodeTrack) []float32 {
	var times []float32
	for i := 0; i < tr.NumKeyFrames(); i++ {
		k, _ := tr.KeyFrame(i)
		times = append(times, k.Time())
	}
	return times
}

func TestNodeTrackOptimiseKeepsShortRuns(t *testing.T) {
	anim := NewAnimation("idle", 10)
	tr, err := anim.CreateNodeTrack(0, nil)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		tr.CreateKeyFrame(float32(i))
	}
	tr.CreateKeyFrame(4).SetTranslate(mgl32.Vec3{0, 1, 0})
	tr.Optimise()
	assert.Equal(t, 5, tr.NumKeyFrames())
}

func TestNodeTrackHasNonZeroKeyFrames(t *testing.T) {
	anim := NewAnimation("idle", 1)
	tr, err := anim.CreateNodeTrack(0, nil)
	require.NoError(t, err)

	k := tr.CreateKeyFrame(0)
	assert.False(t, tr.HasNonZeroKeyFrames())

	k.SetRotation(rotZ(0.01))
	assert.False(t, tr.HasNonZeroKeyFrames())

	// 0.07 degrees is just over the tolerance as a rotation angle
	k.SetRotation(rotZ(0.07))
	assert.True(t, tr.HasNonZeroKeyFrames())

	k.SetRotation(rotZ(5))
	assert.True(t, tr.HasNonZeroKeyFrames())

	k.SetRotation(mgl32.QuatIdent())
	k.SetScale(mgl32.Vec3{1, 1.5, 1})
	assert.True(t, tr.HasNonZeroKeyFrames())
}
