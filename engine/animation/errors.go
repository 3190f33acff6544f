package animation

import "github.com/pkg/errors"

// ErrTypeMismatch is returned when a numeric value does not match the value type of its track
// or animable target.
var ErrTypeMismatch = errors.New("value type mismatch")
