package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single segment of a path.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	return name != "-" && name != "_"
}

// Parse creates a new Address by parsing its canonical string representation.
func Parse(raw string) (*Address, error) {
	if raw == "" {
		return nil, fmt.Errorf("identifier cannot be empty")
	}

	addr := &Address{}
	for _, segment := range strings.Split(raw, ".") {
		if segment == "" {
			return nil, fmt.Errorf("identifier %q contains an empty segment", raw)
		}
		if !segmentRegex.MatchString(segment) {
			return nil, fmt.Errorf("invalid segment %q in identifier %q", segment, raw)
		}
		if !isValidSegmentName(segment) {
			return nil, fmt.Errorf("invalid segment name: %q", segment)
		}
		addr.Segments = append(addr.Segments, segment)
	}
	return addr, nil
}

// ParseKey parses a registry key, which needs at least a namespace and a name.
func ParseKey(raw string) (*Address, error) {
	addr, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if len(addr.Segments) < 2 {
		return nil, fmt.Errorf("key %q must be namespaced, e.g. %q", raw, "plugin."+raw)
	}
	return addr, nil
}

// ParseIdentity parses a block identity, which is a single segment.
func ParseIdentity(raw string) (*Address, error) {
	addr, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if !addr.IsSimple() {
		return nil, fmt.Errorf("block identity %q must not contain dots", raw)
	}
	return addr, nil
}

// MustParse is Parse that panics on error. It is meant for constants.
func MustParse(raw string) *Address {
	addr, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return addr
}
