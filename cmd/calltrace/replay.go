package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/getsentry/calltrace/internal/scope"
	"github.com/getsentry/calltrace/internal/timeutil"
	"github.com/getsentry/calltrace/internal/tracer"
)

const (
	eventCall   = "call"
	eventReturn = "return"
)

// logEvent is one line of a replayed event log.
type logEvent struct {
	Event     string        `json:"event"`
	Name      string        `json:"name"`
	File      string        `json:"file"`
	Line      int           `json:"line"`
	Timestamp timeutil.Time `json:"ts_ns"`
}

func newReplayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <events.jsonl>",
		Short: "Build the call tree of an external call/return event log",
		Long: "Build the call tree of an external call/return event log, one JSON object per line:\n" +
			`{"event":"call","name":"pkg.Func","file":"/src/pkg/file.go","line":12,"ts_ns":1700000000000000000}` + "\n" +
			"ts_ns also accepts an RFC 3339 string. Only events whose file matches --scope are kept.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := cmd.Context()
			trace, err := replay(ctx, f, a.cfg.ScopeFilter())
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return a.report(ctx, cmd.OutOrStdout(), trace)
		},
	}
}

// replay feeds every event of r to a new session and returns its trace.
func replay(ctx context.Context, r io.Reader, filter scope.Filter) (*tracer.Trace, error) {
	s := tracer.NewSession(filter)
	defer s.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var ev logEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var call bool
		switch ev.Event {
		case eventCall:
			call = true
		case eventReturn:
		default:
			return nil, fmt.Errorf("line %d: unknown event %q", line, ev.Event)
		}
		s.Observe(tracer.Event{
			Name: ev.Name,
			File: ev.File,
			Line: ev.Line,
			Call: call,
			Time: ev.Timestamp.Time(),
		})
	}
	if err := scanner.Err(); err != nil {
		// the failing line was never counted
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	log.Debug().Str("session_id", s.ID).Int("lines", line).Msg("event log replayed")
	s.Close()
	return s.Trace(), nil
}
