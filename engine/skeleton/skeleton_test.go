package skeleton

import (
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cos32(a float32) float32 { return float32(math.Cos(float64(a))) }
func sin32(a float32) float32 { return float32(math.Sin(float64(a))) }

func assertIdentityPalette(t *testing.T, palette []mgl32.Mat4) {
	t.Helper()
	for i, m := range palette {
		assert.True(t, m.ApproxEqualThreshold(mgl32.Ident4(), tol), "matrix %d: %v", i, m)
	}
}

// newArm builds shoulder -> elbow -> wrist with the bind pose captured.
func newArm(t *testing.T, options ...SkeletonBuilderOption) *Skeleton {
	t.Helper()
	s := NewSkeleton("arm", options...)
	shoulder, err := s.CreateBone("shoulder")
	require.NoError(t, err)
	shoulder.SetPosition(mgl32.Vec3{0, 1, 0})
	elbow, err := shoulder.CreateChild("elbow", mgl32.Vec3{0, 2, 0}, rotZ(30))
	require.NoError(t, err)
	_, err = elbow.CreateChild("wrist", mgl32.Vec3{0, 1.5, 0}, mgl32.QuatIdent())
	require.NoError(t, err)
	s.SetBindingPose()
	return s
}

func TestBindPosePaletteIsIdentity(t *testing.T) {
	s := newArm(t)
	palette := make([]mgl32.Mat4, s.PaletteSize())
	require.NoError(t, s.BoneMatrices(palette))
	assert.Len(t, palette, 3)
	assertIdentityPalette(t, palette)

	assert.Equal(t, common.ErrOutOfRange, errors.Cause(s.BoneMatrices(palette[:2])))
}

func TestPaletteFollowsMovedRoot(t *testing.T) {
	s := newArm(t)
	root, err := s.RootBone()
	require.NoError(t, err)
	root.Translate(mgl32.Vec3{1, 0, 0}, common.TransformSpaceParent)

	palette := make([]mgl32.Mat4, s.PaletteSize())
	require.NoError(t, s.BoneMatrices(palette))
	want := mgl32.Translate3D(1, 0, 0)
	for i, m := range palette {
		assert.True(t, m.ApproxEqualThreshold(want, tol), "matrix %d: %v", i, m)
	}

	s.Reset(true)
	require.NoError(t, s.BoneMatrices(palette))
	assertIdentityPalette(t, palette)
}

func TestBoneHandlesAndNames(t *testing.T) {
	s := NewSkeleton("gaps")
	b5, err := s.CreateBoneWithHandle(5, "five")
	require.NoError(t, err)
	assert.Equal(t, uint16(5), b5.Handle())
	assert.Equal(t, 6, s.PaletteSize())
	assert.Equal(t, 1, s.NumBones())

	_, err = s.Bone(2)
	assert.Equal(t, common.ErrNotFound, errors.Cause(err))
	_, err = s.Bone(10)
	assert.Equal(t, common.ErrOutOfRange, errors.Cause(err))

	b0, err := s.CreateBone("zero")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), b0.Handle())

	_, err = s.CreateBone("five")
	assert.Equal(t, common.ErrDuplicate, errors.Cause(err))
	_, err = s.CreateBoneWithHandle(5, "other")
	assert.Equal(t, common.ErrDuplicate, errors.Cause(err))

	named, err := s.BoneByName("five")
	require.NoError(t, err)
	assert.Same(t, b5, named)
	_, err = s.BoneByName("six")
	assert.Equal(t, common.ErrNotFound, errors.Cause(err))

	palette := make([]mgl32.Mat4, s.PaletteSize())
	require.NoError(t, s.BoneMatrices(palette))
	assert.Equal(t, mgl32.Ident4(), palette[3])
}

func TestBoneLimit(t *testing.T) {
	s := NewSkeleton("full")
	for i := 0; i < MaxBones; i++ {
		_, err := s.CreateBone(fmt.Sprintf("b%d", i))
		require.NoError(t, err)
	}
	_, err := s.CreateBone("overflow")
	assert.Equal(t, common.ErrBoneLimit, errors.Cause(err))
	_, err = s.CreateBoneWithHandle(MaxBones, "")
	assert.Equal(t, common.ErrBoneLimit, errors.Cause(err))
	assert.Equal(t, MaxBones, s.NumBones())
}

func TestRootBonesFollowHierarchyEdits(t *testing.T) {
	s := newArm(t)
	assert.Len(t, s.RootBones(), 1)

	elbow, err := s.BoneByName("elbow")
	require.NoError(t, err)
	shoulder, ok := elbow.ParentBone()
	require.True(t, ok)
	assert.Equal(t, "shoulder", shoulder.Name())
	assert.Len(t, shoulder.ChildBones(), 1)

	require.True(t, shoulder.RemoveChild(elbow))
	assert.Len(t, s.RootBones(), 2)

	other := NewSkeleton("other")
	stranger, err := other.CreateBone("stranger")
	require.NoError(t, err)
	assert.Error(t, shoulder.AddChild(stranger))
}

// newBlendFixture builds a one-bone skeleton with a rotation clip and a translation clip, both
// one second long, each enabled at time 0.5 with weight 0.5.
func newBlendFixture(t *testing.T, mode BlendMode) (*Skeleton, *Bone, *animation.AnimationStateSet) {
	t.Helper()
	s := NewSkeleton("blend", WithBlendMode(mode))
	bone, err := s.CreateBone("root")
	require.NoError(t, err)
	s.SetBindingPose()

	spin, err := s.CreateAnimation("spin", 1)
	require.NoError(t, err)
	tr, err := spin.CreateNodeTrack(bone.Handle(), nil)
	require.NoError(t, err)
	tr.CreateKeyFrame(0)
	tr.CreateKeyFrame(1).SetRotation(rotZ(90))

	slide, err := s.CreateAnimation("slide", 1)
	require.NoError(t, err)
	tr, err = slide.CreateNodeTrack(bone.Handle(), nil)
	require.NoError(t, err)
	tr.CreateKeyFrame(0)
	tr.CreateKeyFrame(1).SetTranslate(mgl32.Vec3{1, 0, 0})

	set := animation.NewAnimationStateSet()
	require.NoError(t, s.InitAnimationState(set))
	for _, name := range []string{"spin", "slide"} {
		st, err := set.AnimationState(name)
		require.NoError(t, err)
		st.SetTimePosition(0.5)
		st.SetWeight(0.5)
		st.SetEnabled(true)
	}
	return s, bone, set
}

func TestBlendModesDiffer(t *testing.T) {
	avg, avgBone, avgSet := newBlendFixture(t, BlendAverage)
	avg.SetAnimationState(avgSet)
	cum, cumBone, cumSet := newBlendFixture(t, BlendCumulative)
	cum.SetAnimationState(cumSet)

	// averaging halves both offsets a second time
	assertVec3(t, mgl32.Vec3{0.25, 0, 0}, avgBone.Position())
	assert.InDelta(t, mgl32.DegToRad(22.5), common.QuatAngle(avgBone.Orientation()), 1e-3)

	// accumulating translates along the already rotated local x axis
	a := mgl32.DegToRad(22.5)
	assertVec3(t, mgl32.Vec3{0.25 * cos32(a), 0.25 * sin32(a), 0}, cumBone.Position())
	assert.InDelta(t, a, common.QuatAngle(cumBone.Orientation()), 1e-3)

	assert.False(t, common.Vec3Equal(avgBone.Position(), cumBone.Position(), 1e-3))
}

func TestDisablingAllStatesRestoresBindPose(t *testing.T) {
	s, bone, set := newBlendFixture(t, BlendAverage)
	s.SetAnimationState(set)
	require.False(t, common.Vec3Equal(mgl32.Vec3{}, bone.Position(), tol))

	for _, st := range set.EnabledAnimationStates() {
		st.SetEnabled(false)
	}
	s.SetAnimationState(set)
	palette := make([]mgl32.Mat4, s.PaletteSize())
	require.NoError(t, s.BoneMatrices(palette))
	assertIdentityPalette(t, palette)
}

func TestManualBonesSurviveStateApplication(t *testing.T) {
	s, bone, set := newBlendFixture(t, BlendCumulative)
	for _, st := range set.EnabledAnimationStates() {
		st.SetEnabled(false)
	}
	bone.SetManuallyControlled(true)
	bone.SetPosition(mgl32.Vec3{0, 0, 4})

	s.SetAnimationState(set)
	assertVec3(t, mgl32.Vec3{0, 0, 4}, bone.Position())

	s.Reset(true)
	assertVec3(t, mgl32.Vec3{}, bone.Position())
}

func TestStatesWithoutAnimationAreSkipped(t *testing.T) {
	s, bone, set := newBlendFixture(t, BlendCumulative)
	require.NoError(t, s.RemoveAnimation("spin"))
	assert.Equal(t, common.ErrNotFound, errors.Cause(s.RemoveAnimation("spin")))

	s.SetAnimationState(set)
	assertVec3(t, mgl32.Vec3{0.25, 0, 0}, bone.Position())
}

func TestRefreshAnimationState(t *testing.T) {
	s, _, set := newBlendFixture(t, BlendAverage)
	_, err := s.CreateAnimation("wave", 3)
	require.NoError(t, err)
	_, err = s.CreateAnimation("wave", 3)
	assert.Equal(t, common.ErrDuplicate, errors.Cause(err))

	slide, ok := s.Animation("slide")
	require.True(t, ok)
	slide.SetLength(0.25)

	require.NoError(t, s.RefreshAnimationState(set))
	wave, err := set.AnimationState("wave")
	require.NoError(t, err)
	assert.Equal(t, float32(3), wave.Length())
	assert.False(t, wave.Enabled())

	st, err := set.AnimationState("slide")
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), st.Length())
	assert.LessOrEqual(t, st.TimePosition(), float32(0.25))

	assert.Equal(t, []string{"slide", "spin", "wave"}, s.AnimationNames())
}

func TestSkeletonAnimationOptions(t *testing.T) {
	s := NewSkeleton("opts", WithAnimationOptions(animation.WithInterpolationMode(animation.InterpolationSpline)))
	a, err := s.CreateAnimation("a", 1)
	require.NoError(t, err)
	assert.Equal(t, animation.InterpolationSpline, a.InterpolationMode())

	mode, err := ParseBlendMode("Cumulative")
	require.NoError(t, err)
	assert.Equal(t, BlendCumulative, mode)
	_, err = ParseBlendMode("additive")
	assert.Error(t, err)
}

func TestDebugDump(t *testing.T) {
	s := newArm(t)
	out := s.DebugDump()
	assert.Contains(t, out, "elbow")
	assert.Contains(t, out, "average")
}
