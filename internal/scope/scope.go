// Package scope decides which source files a trace session records.
package scope

import "strings"

// Filter reports whether a call originating in a source file is recorded.
// Calls from files outside the filter are invisible to the tracer: they
// neither create records nor occupy a stack slot.
type Filter struct {
	fragments []string
}

// New returns a Filter matching any file whose path contains one of the
// fragments. Backslashes are normalised to forward slashes so the same
// fragments work on every platform. With no fragments every file is in scope.
func New(fragments ...string) Filter {
	f := Filter{fragments: make([]string, 0, len(fragments))}
	for _, fragment := range fragments {
		fragment = normalize(fragment)
		if fragment == "" {
			continue
		}
		f.fragments = append(f.fragments, fragment)
	}
	return f
}

// InScope is evaluated on every call and return event.
func (f Filter) InScope(file string) bool {
	if file == "" {
		return false
	}
	if len(f.fragments) == 0 {
		return true
	}
	file = normalize(file)
	for _, fragment := range f.fragments {
		if strings.Contains(file, fragment) {
			return true
		}
	}
	return false
}

// Fragments returns the normalised fragments of the filter.
func (f Filter) Fragments() []string {
	return append([]string(nil), f.fragments...)
}

func normalize(p string) string {
	if strings.IndexByte(p, '\\') < 0 {
		return p
	}
	return strings.ReplaceAll(p, "\\", "/")
}
