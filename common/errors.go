package common

import "github.com/pkg/errors"

// Sentinel errors shared by the engine packages. Wrapped errors are matched with errors.Cause.
var (
	// ErrNotFound is returned when a bone, track, keyframe, state or animation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a handle or name is already in use.
	ErrDuplicate = errors.New("already exists")

	// ErrOutOfRange is returned when an index falls outside its collection.
	ErrOutOfRange = errors.New("index out of range")

	// ErrBoneLimit is returned when a skeleton would exceed its maximum bone count.
	ErrBoneLimit = errors.New("bone limit exceeded")
)
