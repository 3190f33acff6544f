package skeleton

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/sirupsen/logrus"
)

// SkeletonBuilderOption configures a Skeleton at construction.
type SkeletonBuilderOption func(*Skeleton)

// WithBlendMode sets how enabled animation states combine.
func WithBlendMode(mode BlendMode) SkeletonBuilderOption {
	return func(s *Skeleton) {
		s.blendMode = mode
	}
}

// WithAnimationOptions sets the options every animation created by the skeleton starts with,
// e.g. its interpolation modes.
func WithAnimationOptions(options ...animation.AnimationBuilderOption) SkeletonBuilderOption {
	return func(s *Skeleton) {
		s.animationOptions = append(s.animationOptions, options...)
	}
}

// WithLogger sets the logger entry the skeleton reports through.
func WithLogger(entry *logrus.Entry) SkeletonBuilderOption {
	return func(s *Skeleton) {
		s.log = entry
	}
}
