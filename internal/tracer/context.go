package tracer

import (
	"context"
	"runtime"
)

type sessionKey struct{}

func noop() {}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session carried by ctx, if any.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// Enter records a call of the function calling it on the session carried by
// ctx and returns the function recording its return. Without an active
// session both are no-ops.
func Enter(ctx context.Context) func() {
	s := FromContext(ctx)
	if s == nil || s.closed {
		return noop
	}
	var pcs [1]uintptr
	if runtime.Callers(2, pcs[:]) == 0 {
		return noop
	}
	fr, _ := runtime.CallersFrames(pcs[:]).Next()
	if !s.scope.InScope(fr.File) {
		return noop
	}
	ev := Event{
		Name: fr.Function,
		File: fr.File,
		Line: startLine(fr),
		Call: true,
		Time: s.now(),
	}
	s.Observe(ev)
	return func() {
		ev.Call = false
		ev.Time = s.now()
		s.Observe(ev)
	}
}

// startLine returns the line the function of fr starts at, or the line of
// the frame itself for inlined functions.
func startLine(fr runtime.Frame) int {
	if fr.Func == nil {
		return fr.Line
	}
	_, line := fr.Func.FileLine(fr.Entry)
	return line
}
