package asset

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-4

func rotZ(deg float32) [4]float32 {
	q := mgl32.QuatRotate(mgl32.DegToRad(deg), mgl32.Vec3{0, 0, 1})
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

func newArmData() *Skeleton {
	return &Skeleton{
		Name: "arm",
		Bones: []Bone{
			{Name: "shoulder", ParentIndex: -1, LocalTransform: Transform{Translation: [3]float32{0, 1, 0}}},
			{Name: "elbow", ParentIndex: 0, LocalTransform: Transform{
				Translation: [3]float32{0, 2, 0},
				Rotation:    rotZ(90),
				Scale:       [3]float32{1, 1, 1},
			}},
		},
	}
}

func newWaveClip() *AnimationClip {
	return &AnimationClip{
		Name:           "wave",
		Duration:       20,
		TicksPerSecond: 10,
		Channels: []AnimationChannel{{
			BoneIndex: 1,
			PositionKeys: []VectorKeyframe{
				{Time: 10, Value: [3]float32{1, 2, 0}},
				{Time: 0, Value: [3]float32{0, 2, 0}},
			},
			RotationKeys: []QuaternionKeyframe{
				{Time: 0, Value: rotZ(90)},
				{Time: 20, Value: rotZ(180)},
			},
		}},
	}
}

func TestBuildSkeletonHierarchy(t *testing.T) {
	skel, err := BuildSkeleton(newArmData(), nil, skeleton.WithBlendMode(skeleton.BlendCumulative))
	require.NoError(t, err)

	assert.Equal(t, "arm", skel.Name())
	assert.Equal(t, skeleton.BlendCumulative, skel.BlendMode())
	assert.Equal(t, 2, skel.NumBones())

	elbow, err := skel.BoneByName("elbow")
	require.NoError(t, err)
	assert.Equal(t, uint16(1), elbow.Handle())
	parent, ok := elbow.ParentBone()
	require.True(t, ok)
	assert.Equal(t, "shoulder", parent.Name())
	assert.True(t, mgl32.Vec3{0, 3, 0}.ApproxEqualThreshold(elbow.DerivedPosition(), tol))

	palette := make([]mgl32.Mat4, skel.PaletteSize())
	require.NoError(t, skel.BoneMatrices(palette))
	for i, m := range palette {
		assert.True(t, m.ApproxEqualThreshold(mgl32.Ident4(), tol), "matrix %d: %v", i, m)
	}
}

func TestBuildSkeletonRejectsBadHierarchy(t *testing.T) {
	_, err := BuildSkeleton(nil, nil)
	assert.Error(t, err)

	outOfRange := newArmData()
	outOfRange.Bones[1].ParentIndex = 7
	_, err = BuildSkeleton(outOfRange, nil)
	assert.Equal(t, common.ErrOutOfRange, errors.Cause(err))

	cycle := &Skeleton{Name: "loop", Bones: []Bone{
		{Name: "a", ParentIndex: 1},
		{Name: "b", ParentIndex: 0},
	}}
	_, err = BuildSkeleton(cycle, nil)
	assert.Error(t, err)

	dupe := &Skeleton{Name: "dupe", Bones: []Bone{
		{Name: "a", ParentIndex: -1},
		{Name: "a", ParentIndex: -1},
	}}
	_, err = BuildSkeleton(dupe, nil)
	assert.Equal(t, common.ErrDuplicate, errors.Cause(err))
}

func TestAddAnimationMergesChannelKeys(t *testing.T) {
	skel, err := BuildSkeleton(newArmData(), []*AnimationClip{newWaveClip()})
	require.NoError(t, err)

	anim, ok := skel.Animation("wave")
	require.True(t, ok)
	assert.InDelta(t, 2, anim.Length(), 1e-6)

	tr, ok := anim.NodeTrack(1)
	require.True(t, ok)
	require.Equal(t, 3, tr.NumKeyFrames())

	var times []float32
	for i := 0; i < tr.NumKeyFrames(); i++ {
		k, err := tr.KeyFrame(i)
		require.NoError(t, err)
		times = append(times, k.Time())
	}
	assert.InDeltaSlice(t, []float32{0, 1, 2}, times, 1e-6)

	first, err := tr.KeyFrame(0)
	require.NoError(t, err)
	assert.True(t, first.Translate().ApproxEqualThreshold(mgl32.Vec3{}, tol))
	assert.InDelta(t, 0, common.QuatAngle(first.Rotation()), 1e-3)

	// position keyed, rotation sampled halfway between 90 and 180 degrees
	mid, err := tr.KeyFrame(1)
	require.NoError(t, err)
	assert.True(t, mid.Translate().ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, tol))
	assert.InDelta(t, math.Pi/4, common.QuatAngle(mid.Rotation()), 1e-3)
	assert.True(t, mid.Scale().ApproxEqualThreshold(common.UnitScale, tol))

	// position held after its last key
	last, err := tr.KeyFrame(2)
	require.NoError(t, err)
	assert.True(t, last.Translate().ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, tol))
	assert.InDelta(t, math.Pi/2, common.QuatAngle(last.Rotation()), 1e-3)
}

func TestConvertedAnimationPosesSkeleton(t *testing.T) {
	skel, err := BuildSkeleton(newArmData(), []*AnimationClip{newWaveClip()})
	require.NoError(t, err)

	set := animation.NewAnimationStateSet()
	require.NoError(t, skel.InitAnimationState(set))
	st, err := set.AnimationState("wave")
	require.NoError(t, err)
	st.SetEnabled(true)
	st.SetTimePosition(1)

	skel.SetAnimationState(set)
	skel.UpdateTransforms()

	elbow, err := skel.BoneByName("elbow")
	require.NoError(t, err)
	assert.True(t, mgl32.Vec3{1, 3, 0}.ApproxEqualThreshold(elbow.DerivedPosition(), tol), "%v", elbow.DerivedPosition())
	assert.InDelta(t, mgl32.DegToRad(135), common.QuatAngle(elbow.DerivedOrientation()), 1e-3)
}

func TestAddAnimationInSecondsUsesLastKeyAsLength(t *testing.T) {
	skel, err := BuildSkeleton(newArmData(), nil)
	require.NoError(t, err)

	anim, err := AddAnimation(skel, &AnimationClip{
		Name: "grow",
		Channels: []AnimationChannel{{
			BoneIndex: 0,
			ScaleKeys: []VectorKeyframe{
				{Time: 0, Value: [3]float32{1, 1, 1}},
				{Time: 0.5, Value: [3]float32{2, 2, 2}},
				{Time: 0.5000001, Value: [3]float32{2, 2, 2}},
			},
		}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, anim.Length(), 1e-6)

	tr, ok := anim.NodeTrack(0)
	require.True(t, ok)
	assert.Equal(t, 2, tr.NumKeyFrames())
}

func TestAddAnimationErrors(t *testing.T) {
	skel, err := BuildSkeleton(newArmData(), nil)
	require.NoError(t, err)

	_, err = AddAnimation(skel, nil)
	assert.Error(t, err)

	_, err = AddAnimation(skel, &AnimationClip{Name: "bad", Duration: 1, Channels: []AnimationChannel{{BoneIndex: 9}}})
	assert.Equal(t, common.ErrOutOfRange, errors.Cause(err))
	assert.False(t, skel.HasAnimation("bad"))

	_, err = AddAnimation(skel, &AnimationClip{Name: "twice", Duration: 1, Channels: []AnimationChannel{{BoneIndex: 0}, {BoneIndex: 0}}})
	assert.Equal(t, common.ErrDuplicate, errors.Cause(err))

	_, err = AddAnimation(skel, newWaveClip())
	require.NoError(t, err)
	_, err = AddAnimation(skel, newWaveClip())
	assert.Equal(t, common.ErrDuplicate, errors.Cause(err))
}
