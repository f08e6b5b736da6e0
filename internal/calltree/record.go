package calltree

import (
	"time"
)

type (
	// CallRecord is one recorded activation of a function, or several adjacent
	// activations of the same function once collapsed by Filter.
	CallRecord struct {
		Name      string        `json:"name"`
		File      string        `json:"file,omitempty"`
		Line      int           `json:"line,omitempty"`
		StartedAt time.Time     `json:"started_at"`
		Duration  time.Duration `json:"duration_ns"`
		Count     int           `json:"count"`
		Children  []*CallRecord `json:"children,omitempty"`
	}

	// Forest is the ordered sequence of top-level records of one trace.
	Forest []*CallRecord
)

func NewCallRecord(name, file string, line int, startedAt time.Time) *CallRecord {
	return &CallRecord{
		Name:      name,
		File:      file,
		Line:      line,
		StartedAt: startedAt,
		Count:     1,
	}
}

// Finish accumulates the time elapsed between the record's start and t.
// A clock going backwards never yields a negative duration.
func (r *CallRecord) Finish(t time.Time) {
	if d := t.Sub(r.StartedAt); d > 0 {
		r.Duration += d
	}
}

// DurationMS returns the duration in milliseconds.
func (r *CallRecord) DurationMS() float64 {
	return float64(r.Duration) / float64(time.Millisecond)
}

// shallowCopy returns a copy of the record without its children.
func (r *CallRecord) shallowCopy() *CallRecord {
	return &CallRecord{
		Name:      r.Name,
		File:      r.File,
		Line:      r.Line,
		StartedAt: r.StartedAt,
		Duration:  r.Duration,
		Count:     r.Count,
	}
}

func (r *CallRecord) deepCopy() *CallRecord {
	clone := r.shallowCopy()
	if len(r.Children) == 0 {
		return clone
	}
	clone.Children = make([]*CallRecord, 0, len(r.Children))
	for _, child := range r.Children {
		clone.Children = append(clone.Children, child.deepCopy())
	}
	return clone
}

// merge folds other into r: durations and counts add up and the children
// are concatenated. The boundary between both child lists is collapsed again
// so merging two collapsed records yields a collapsed record.
func (r *CallRecord) merge(other *CallRecord) {
	r.Duration += other.Duration
	r.Count += other.Count
	if len(other.Children) == 0 {
		return
	}
	r.Children = collapse(append(r.Children, other.Children...))
}

// Clone returns a deep copy of the forest.
func (f Forest) Clone() Forest {
	if f == nil {
		return nil
	}
	clone := make(Forest, 0, len(f))
	for _, r := range f {
		clone = append(clone, r.deepCopy())
	}
	return clone
}

// Walk visits every record depth-first, in call order, with its depth.
func (f Forest) Walk(fn func(r *CallRecord, depth int)) {
	for _, r := range f {
		walk(r, 0, fn)
	}
}

func walk(r *CallRecord, depth int, fn func(r *CallRecord, depth int)) {
	fn(r, depth)
	for _, child := range r.Children {
		walk(child, depth+1, fn)
	}
}

// Len returns the number of records in the forest.
func (f Forest) Len() int {
	var n int
	f.Walk(func(*CallRecord, int) {
		n++
	})
	return n
}
