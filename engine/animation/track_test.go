package animation

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFloatTrack(t *testing.T, length float32, times ...float32) *NumericTrack {
	t.Helper()
	anim := NewAnimation("test", length)
	tr, err := anim.CreateNumericTrack(0, ValueFloat)
	require.NoError(t, err)
	for _, k := range times {
		require.NoError(t, tr.CreateKeyFrame(k).SetValue(FloatValue(k)))
	}
	return tr
}

func keyTimes(tr *NumericTrack) []float32 {
	out := make([]float32, tr.NumKeyFrames())
	for i := range out {
		k, _ := tr.KeyFrame(i)
		out[i] = k.Time()
	}
	return out
}

func TestCreateKeyFrameKeepsTimeOrder(t *testing.T) {
	tr := newFloatTrack(t, 10, 0, 2, 5, 9)
	assert.Equal(t, []float32{0, 2, 5, 9}, keyTimes(tr))

	tr = newFloatTrack(t, 10, 9, 0, 5, 2)
	assert.Equal(t, []float32{0, 2, 5, 9}, keyTimes(tr))
	assert.Equal(t, float32(9), tr.MaxKeyFrameTime())
}

func TestCreateKeyFrameEqualTimesInsertAfter(t *testing.T) {
	tr := newFloatTrack(t, 10, 0, 5)
	second := tr.CreateKeyFrame(5)
	require.NoError(t, second.SetValue(FloatValue(42)))

	k, err := tr.KeyFrame(2)
	require.NoError(t, err)
	assert.Same(t, second, k)
}

func TestKeyFrameOutOfRange(t *testing.T) {
	tr := newFloatTrack(t, 10, 0, 1)
	_, err := tr.KeyFrame(2)
	assert.Equal(t, common.ErrOutOfRange, errors.Cause(err))
	assert.Equal(t, common.ErrOutOfRange, errors.Cause(tr.RemoveKeyFrame(-1)))
}

func TestKeyFramesAtTimeBrackets(t *testing.T) {
	tr := newFloatTrack(t, 10, 0, 2, 5, 9)

	tests := []struct {
		name       string
		time       float32
		wantBefore float32
		wantAfter  float32
		wantT      float32
	}{
		{"start", 0, 0, 2, 0},
		{"exact key uses it as before", 2, 2, 5, 0},
		{"between", 3.5, 2, 5, 0.5},
		{"last segment wraps to first key", 9.5, 9, 0, 0.5},
		{"time past length wraps", 13.5, 2, 5, 0.5},
		{"negative time wraps forward", -1, 9, 0, 0},
		{"negative between", -6.5, 2, 5, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			k1, k2, frac, index := tr.KeyFramesAtTime(tc.time)
			require.GreaterOrEqual(t, index, 0)
			assert.Equal(t, tc.wantBefore, k1.Time())
			assert.Equal(t, tc.wantAfter, k2.Time())
			assert.InDelta(t, tc.wantT, frac, 1e-5)
		})
	}
}

func TestKeyFramesAtTimeInvariants(t *testing.T) {
	const length = 10
	tr := newFloatTrack(t, length, 0, 1.5, 2, 2, 7, 9.75)

	for q := float32(-25); q < 25; q += 0.125 {
		k1, k2, frac, _ := tr.KeyFramesAtTime(q)
		wrapped := common.WrapTime(q, length)
		after := k2.Time()
		if after <= k1.Time() {
			after = length
		}
		assert.LessOrEqual(t, k1.Time(), wrapped, "time %v", q)
		assert.Less(t, wrapped, after, "time %v", q)
		assert.GreaterOrEqual(t, frac, float32(0), "time %v", q)
		assert.Less(t, frac, float32(1), "time %v", q)
	}
}

func TestKeyFramesAtTimeSingleKeyFrame(t *testing.T) {
	tr := newFloatTrack(t, 4, 0)
	for _, q := range []float32{0, 0.5, 3.99, 4, 17, -2} {
		k1, k2, frac, index := tr.KeyFramesAtTime(q)
		assert.Same(t, k1, k2)
		assert.Equal(t, float32(0), frac)
		assert.Equal(t, 0, index)
	}
}

func TestKeyFramesAtTimeEmptyTrack(t *testing.T) {
	tr := newFloatTrack(t, 4)
	k1, k2, frac, index := tr.KeyFramesAtTime(1)
	assert.Nil(t, k1)
	assert.Nil(t, k2)
	assert.Equal(t, float32(0), frac)
	assert.Equal(t, -1, index)
}

func TestTimeIndexMatchesLinearScan(t *testing.T) {
	indexed := newFloatTrack(t, 8, 0, 1, 1, 3, 4.5, 6)
	scanned := newFloatTrack(t, 8, 0, 1, 1, 3, 4.5, 6)
	scanned.SetUseTimeIndex(false)

	for q := float32(-9); q < 17; q += 0.25 {
		_, _, t1, i1 := indexed.KeyFramesAtTime(q)
		_, _, t2, i2 := scanned.KeyFramesAtTime(q)
		assert.Equal(t, i1, i2, "time %v", q)
		assert.InDelta(t, t1, t2, 1e-6, "time %v", q)
	}
}

func TestTimeIndexRebuiltAfterInsertAndRemove(t *testing.T) {
	tr := newFloatTrack(t, 10, 0, 4)
	_, _, _, index := tr.KeyFramesAtTime(3)
	assert.Equal(t, 0, index)

	tr.CreateKeyFrame(2)
	k1, _, _, index := tr.KeyFramesAtTime(3)
	assert.Equal(t, 1, index)
	assert.Equal(t, float32(2), k1.Time())

	require.NoError(t, tr.RemoveKeyFrame(1))
	k1, _, _, _ = tr.KeyFramesAtTime(3)
	assert.Equal(t, float32(0), k1.Time())
}
