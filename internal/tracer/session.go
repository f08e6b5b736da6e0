package tracer

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/getsentry/calltrace/internal/calltree"
	"github.com/getsentry/calltrace/internal/scope"
)

type (
	// Event is a single call or return observed by an instrumentation source.
	Event struct {
		Name string
		File string
		Line int
		Call bool
		Time time.Time
	}

	// Session holds the stack, forest and edge table of one trace.
	Session struct {
		ID string

		scope  scope.Filter
		now    func() time.Time
		stack  []frame
		forest calltree.Forest
		edges  *calltree.Edges
		calls  uint64
		closed bool
	}

	// Trace is what a closed session hands over to its caller.
	Trace struct {
		ID     string
		Forest calltree.Forest
		Edges  *calltree.Edges
	}

	// Option configures a Session.
	Option func(*Session)

	frame struct {
		record *calltree.CallRecord
		order  uint64
	}
)

// WithClock replaces the clock used to timestamp events emitted by Enter.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func NewSession(filter scope.Filter, opts ...Option) *Session {
	s := &Session{
		ID:     uuid.New().String(),
		scope:  filter,
		now:    time.Now,
		forest: calltree.Forest{},
		edges:  calltree.NewEdges(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe applies one event to the session. Events originating outside the
// scope filter, and any event received after Close, are ignored.
func (s *Session) Observe(ev Event) {
	if s.closed || !s.scope.InScope(ev.File) {
		return
	}
	if ev.Call {
		s.push(ev)
	} else {
		s.pop(ev)
	}
}

func (s *Session) push(ev Event) {
	r := calltree.NewCallRecord(ev.Name, ev.File, ev.Line, ev.Time)
	if n := len(s.stack); n > 0 {
		parent := s.stack[n-1].record
		parent.Children = append(parent.Children, r)
	} else {
		s.forest = append(s.forest, r)
	}
	s.stack = append(s.stack, frame{record: r, order: s.calls})
	s.calls++
}

func (s *Session) pop(ev Event) {
	n := len(s.stack)
	if n == 0 {
		log.Debug().Str("session_id", s.ID).Str("function", ev.Name).Msg("return without a matching call")
		return
	}
	f := s.stack[n-1]
	s.stack = s.stack[:n-1]
	f.record.Finish(ev.Time)
	if n > 1 {
		caller := s.stack[n-2].record
		s.edges.Add(caller.Name, f.record.Name, f.record.Duration, f.order)
	}
}

// Depth returns the number of calls still waiting for their return.
func (s *Session) Depth() int {
	return len(s.stack)
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	return s.closed
}

// Close stops recording. Records still on the stack never received a
// return event and are removed from the forest. Close is idempotent and
// never fails.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if n := len(s.stack); n > 0 {
		for i := n - 1; i >= 0; i-- {
			if i > 0 {
				parent := s.stack[i-1].record
				parent.Children = detach(parent.Children, s.stack[i].record)
			} else {
				s.forest = detach(s.forest, s.stack[i].record)
			}
		}
		s.stack = nil
		log.Warn().Str("session_id", s.ID).Int("unfinished", n).Msg("discarded calls without a return")
	}
	log.Debug().Str("session_id", s.ID).Int("roots", len(s.forest)).Int("edges", s.edges.Len()).Msg("trace session closed")
}

// detach removes r from records. r is expected last, since it was the most
// recent call of its parent.
func detach(records []*calltree.CallRecord, r *calltree.CallRecord) []*calltree.CallRecord {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i] == r {
			return append(records[:i], records[i+1:]...)
		}
	}
	return records
}

// Trace returns the recorded data. It is meant to be called once the session
// is closed, after which the forest no longer changes.
func (s *Session) Trace() *Trace {
	return &Trace{
		ID:     s.ID,
		Forest: s.forest,
		Edges:  s.edges,
	}
}
