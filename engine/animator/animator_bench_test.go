package animator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

// newBenchRig builds a chain of bones with one swinging animation per bone count.
func newBenchRig(b *testing.B, bones int) *skeleton.Skeleton {
	b.Helper()
	s := skeleton.NewSkeleton("bench")
	parent, err := s.CreateBone("b0")
	if err != nil {
		b.Fatal(err)
	}
	for i := 1; i < bones; i++ {
		child, err := parent.CreateChild(fmt.Sprintf("b%d", i), mgl32.Vec3{0, 1, 0}, mgl32.QuatIdent())
		if err != nil {
			b.Fatal(err)
		}
		parent = child
	}
	s.SetBindingPose()

	for _, name := range []string{"idle", "walk", "run"} {
		anim, err := s.CreateAnimation(name, 2)
		if err != nil {
			b.Fatal(err)
		}
		for h := 0; h < bones; h++ {
			tr, err := anim.CreateNodeTrack(uint16(h), nil)
			if err != nil {
				b.Fatal(err)
			}
			for k := 0; k <= 8; k++ {
				angle := mgl32.DegToRad(float32(k*45 + h))
				tr.CreateKeyFrame(float32(k)*0.25).SetRotation(mgl32.QuatRotate(angle, mgl32.Vec3{0, 0, 1}))
			}
		}
	}
	return s
}

// BenchmarkPrepareFrame evaluates growing crowds of instances sharing one master, each playing a
// random animation from a random start time.
func BenchmarkPrepareFrame(b *testing.B) {
	for _, count := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("instances=%d", count), func(b *testing.B) {
			master := newBenchRig(b, 24)
			a := NewAnimator()
			defer a.Release()

			rng := rand.New(rand.NewSource(1))
			names := master.AnimationNames()
			for i := 0; i < count; i++ {
				si, err := skeleton.NewSkeletonInstance(master)
				if err != nil {
					b.Fatal(err)
				}
				idx, err := a.AddInstance(si)
				if err != nil {
					b.Fatal(err)
				}
				if err := a.PlayAnimation(idx, names[rng.Intn(len(names))], true); err != nil {
					b.Fatal(err)
				}
				a.SetAnimationTime(idx, rng.Float32()*2)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := a.PrepareFrame(1.0 / 60); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
