package tracer

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/getsentry/calltrace/internal/scope"
)

// Operation is the traced unit of work. It must pass ctx down to the
// functions it wants recorded.
type Operation[T any] func(ctx context.Context) (T, error)

// Run executes op with a new session installed in its context and returns
// op's result with the recorded trace. The session is closed however op
// terminates; a panic propagates once it is closed. When op fails its error
// is returned unchanged and the incomplete trace is discarded.
func Run[T any](ctx context.Context, filter scope.Filter, op Operation[T], opts ...Option) (T, *Trace, error) {
	s := NewSession(filter, opts...)
	result, err := runSession(ctx, s, op)
	if err != nil {
		var zero T
		return zero, nil, err
	}
	return result, s.Trace(), nil
}

func runSession[T any](ctx context.Context, s *Session, op Operation[T]) (T, error) {
	log.Debug().Str("session_id", s.ID).Strs("scope", s.scope.Fragments()).Msg("trace session installed")
	defer s.Close()
	return op(WithSession(ctx, s))
}
