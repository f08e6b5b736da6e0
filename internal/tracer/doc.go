// Package tracer records the in-scope call/return events of one operation
// into a call forest and an edge table.
//
// Instrumented functions announce themselves with
//
//	defer tracer.Enter(ctx)()
//
// and Run executes an operation with a fresh Session installed in its
// context. Other event sources (another runtime's hooks, a replayed event log)
// feed a Session directly through Observe.
//
// A Session is not safe for concurrent use: at most one trace may be active
// for a given chain of calls, and nesting a Run inside another traced region,
// or calling Enter from several goroutines sharing one session, corrupts the
// recorded stack. Guarding against this is the caller's responsibility.
package tracer
