package animation

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolateValues(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Value
		t     float32
		check func(t *testing.T, v Value)
	}{
		{"int rounds", IntValue(0), IntValue(5), 0.5, func(t *testing.T, v Value) {
			assert.Equal(t, 3, v.Int())
		}},
		{"float", FloatValue(2), FloatValue(4), 0.25, func(t *testing.T, v Value) {
			assert.InDelta(t, 2.5, v.Float(), 1e-6)
		}},
		{"vector2", Vector2Value(mgl32.Vec2{0, 2}), Vector2Value(mgl32.Vec2{2, 0}), 0.5, func(t *testing.T, v Value) {
			assert.Equal(t, mgl32.Vec2{1, 1}, v.Vector2())
		}},
		{"vector3", Vector3Value(mgl32.Vec3{}), Vector3Value(mgl32.Vec3{4, 8, -4}), 0.75, func(t *testing.T, v Value) {
			assert.Equal(t, mgl32.Vec3{3, 6, -3}, v.Vector3())
		}},
		{"color", ColorValue(mgl32.Vec4{1, 0, 0, 1}), ColorValue(mgl32.Vec4{0, 0, 1, 1}), 0.5, func(t *testing.T, v Value) {
			assert.Equal(t, mgl32.Vec4{0.5, 0, 0.5, 1}, v.Color())
			assert.Equal(t, ValueColor, v.Type())
		}},
		{"quaternion", QuaternionValue(mgl32.QuatIdent()), QuaternionValue(rotZ(90)), 0.5, func(t *testing.T, v Value) {
			assert.InDelta(t, math.Pi/4, common.QuatAngle(v.Quaternion()), 1e-4)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := InterpolateValues(tc.a, tc.b, tc.t)
			require.NoError(t, err)
			assert.Equal(t, tc.a.Type(), v.Type())
			tc.check(t, v)
		})
	}
}

func TestValueTypeMismatch(t *testing.T) {
	_, err := InterpolateValues(FloatValue(1), IntValue(1), 0.5)
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))

	_, err = AddValues(Vector3Value(mgl32.Vec3{}), Vector4Value(mgl32.Vec4{}))
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))
}

func TestScaleAndAddValues(t *testing.T) {
	assert.InDelta(t, 1.5, ScaleValue(FloatValue(3), 0.5).Float(), 1e-6)
	assert.Equal(t, 4, ScaleValue(IntValue(7), 0.5).Int())

	half := ScaleValue(QuaternionValue(rotZ(90)), 0.5)
	assert.InDelta(t, math.Pi/4, common.QuatAngle(half.Quaternion()), 1e-4)

	sum, err := AddValues(QuaternionValue(rotZ(30)), QuaternionValue(rotZ(60)))
	require.NoError(t, err)
	assert.True(t, common.QuatEqual(rotZ(90), sum.Quaternion(), 1e-3))

	sum, err = AddValues(Vector3Value(mgl32.Vec3{1, 2, 3}), Vector3Value(mgl32.Vec3{1, 1, 1}))
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{2, 3, 4}, sum.Vector3())
}

func TestZeroValue(t *testing.T) {
	assert.Equal(t, mgl32.QuatIdent(), ZeroValue(ValueQuaternion).Quaternion())
	assert.Equal(t, float32(0), ZeroValue(ValueFloat).Float())
	assert.Equal(t, ValueVector2, ZeroValue(ValueVector2).Type())
	assert.Equal(t, "float(0.5)", FloatValue(0.5).String())
	assert.Equal(t, "unknown", ValueType(42).String())
}

func TestPropertyDeltaAndReset(t *testing.T) {
	var seen []float32
	p := NewProperty("alpha", FloatValue(1), func(v Value) { seen = append(seen, v.Float()) })

	require.NoError(t, p.ApplyDelta(FloatValue(0.5)))
	assert.InDelta(t, 1.5, p.Value().Float(), 1e-6)

	p.SetCurrentStateAsBaseValue()
	require.NoError(t, p.SetValue(FloatValue(9)))
	p.ResetToBaseValue()
	assert.InDelta(t, 1.5, p.Value().Float(), 1e-6)
	assert.Equal(t, []float32{1.5, 9, 1.5}, seen)

	err := p.SetValue(IntValue(1))
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))
	assert.Equal(t, ValueFloat, p.Type())
}
