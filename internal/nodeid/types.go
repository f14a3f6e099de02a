package nodeid

// Address is the structured representation of a dotted identifier.
type Address struct {
	Segments []string
}

// Name returns the last segment.
func (a *Address) Name() string {
	if a == nil || len(a.Segments) == 0 {
		return ""
	}
	return a.Segments[len(a.Segments)-1]
}

// Namespace returns every segment but the last, joined with dots.
func (a *Address) Namespace() string {
	if a == nil || len(a.Segments) < 2 {
		return ""
	}
	return (&Address{Segments: a.Segments[:len(a.Segments)-1]}).String()
}

// IsSimple reports whether the address has exactly one segment.
func (a *Address) IsSimple() bool {
	return a != nil && len(a.Segments) == 1
}
