package registry

import "strings"

// ListBlocks returns block registrations whose key ends with filter,
// grouped by origin. Within a group, registration order is kept.
func (r *Registry) ListBlocks(filter string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return list(r.blocks, filter)
}

// ListDags returns dag registrations whose key ends with filter, grouped by
// origin.
func (r *Registry) ListDags(filter string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return list(r.dags, filter)
}

func list(entries []*Entry, filter string) []Entry {
	var origins []string
	byOrigin := map[string][]Entry{}
	for _, e := range entries {
		if !strings.HasSuffix(e.Key, filter) {
			continue
		}
		if _, seen := byOrigin[e.Origin]; !seen {
			origins = append(origins, e.Origin)
		}
		byOrigin[e.Origin] = append(byOrigin[e.Origin], *e)
	}

	var out []Entry
	for _, o := range origins {
		out = append(out, byOrigin[o]...)
	}
	return out
}

// Group is a run of entries sharing an origin.
type Group struct {
	Origin  string
	Entries []Entry
}

// Groups splits a listing into consecutive origin groups.
func Groups(entries []Entry) []Group {
	var out []Group
	for _, e := range entries {
		if len(out) == 0 || out[len(out)-1].Origin != e.Origin {
			out = append(out, Group{Origin: e.Origin})
		}
		out[len(out)-1].Entries = append(out[len(out)-1].Entries, e)
	}
	return out
}
