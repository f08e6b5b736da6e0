package calltree

import (
	"fmt"
	"regexp"

	"github.com/getsentry/calltrace/internal/errorutil"
)

// Matcher tests a record identity against an exclusion pattern. The pattern
// is searched in both the qualified name and the source file. A nil Matcher
// matches nothing.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher compiles pattern. An empty pattern disables exclusion and
// returns a nil Matcher.
func NewMatcher(pattern string) (*Matcher, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("calltree: %w: exclude pattern %q: %v", errorutil.ErrInvalidConfig, pattern, err)
	}
	return &Matcher{re: re}, nil
}

// MustMatcher is like NewMatcher but panics on an invalid pattern.
func MustMatcher(pattern string) *Matcher {
	m, err := NewMatcher(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Matcher) Match(name, file string) bool {
	if m == nil {
		return false
	}
	return m.re.MatchString(name) || (file != "" && m.re.MatchString(file))
}

func (m *Matcher) MatchRecord(r *CallRecord) bool {
	return m.Match(r.Name, r.File)
}

func (m *Matcher) String() string {
	if m == nil {
		return ""
	}
	return m.re.String()
}
