package skeleton

import (
	"strings"

	"github.com/pkg/errors"
)

// BlendMode selects how several enabled animation states combine on a skeleton.
type BlendMode int

const (
	// BlendAverage treats each animation as a weighted absolute pose and averages them in order.
	BlendAverage BlendMode = iota

	// BlendCumulative adds each animation as a weighted delta on top of the bind pose.
	BlendCumulative
)

// String returns the configuration name of the mode.
func (m BlendMode) String() string {
	switch m {
	case BlendAverage:
		return "average"
	case BlendCumulative:
		return "cumulative"
	default:
		return "unknown"
	}
}

// ParseBlendMode converts a configuration name ("average", "cumulative") into a BlendMode.
//
// Parameters:
//   - s: the mode name, case insensitive
//
// Returns:
//   - BlendMode: the parsed mode
//   - error: error if the name is unknown
func ParseBlendMode(s string) (BlendMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "average":
		return BlendAverage, nil
	case "cumulative":
		return BlendCumulative, nil
	default:
		return BlendAverage, errors.Errorf("unknown blend mode %q", s)
	}
}
