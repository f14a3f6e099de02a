package nodeid

import (
	"slices"
	"strings"
)

// String returns the canonical dotted form.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	return strings.Join(a.Segments, ".")
}

// Equal compares two addresses segment by segment.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return slices.Equal(a.Segments, other.Segments)
}

// MatchSuffix reports whether the canonical form ends with suffix. An empty
// suffix matches everything, which is how unfiltered listings behave.
func (a *Address) MatchSuffix(suffix string) bool {
	return strings.HasSuffix(a.String(), suffix)
}
