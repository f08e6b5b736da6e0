package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/getsentry/calltrace/internal/calltree"
	"github.com/getsentry/calltrace/internal/mermaid"
	"github.com/getsentry/calltrace/internal/metrics"
	"github.com/getsentry/calltrace/internal/otelexport"
	"github.com/getsentry/calltrace/internal/render"
	"github.com/getsentry/calltrace/internal/speedscope"
	"github.com/getsentry/calltrace/internal/tracer"
)

// report prints the filtered tree and the top edges of trace, then writes
// the configured exports.
func (a *app) report(ctx context.Context, out io.Writer, trace *tracer.Trace) error {
	opts, err := a.cfg.FilterOptions()
	if err != nil {
		return err
	}
	forest := calltree.Filter(trace.Forest, opts)
	log.Debug().
		Str("session_id", trace.ID).
		Int("records", trace.Forest.Len()).
		Int("kept", forest.Len()).
		Int("edges", trace.Edges.Len()).
		Msg("trace filtered")

	r := render.New(out, a.cfg.RenderOptions())
	fmt.Fprintln(out, r.RenderTree(forest))
	fmt.Fprintln(out)
	rows := render.TopEdgeRows(trace.Edges, opts.MinDuration, opts.Exclude, a.cfg.TopN)
	fmt.Fprintln(out, r.RenderTopEdges(rows))

	if a.cfg.TopFunctions > 0 {
		ma := metrics.NewAggregator(uint(trace.Forest.Len()))
		ma.AddForest(trace.Forest)
		functions := render.FunctionRows(ma.ToMetrics(), opts.MinDuration, opts.Exclude, a.cfg.TopFunctions)
		fmt.Fprintln(out, r.RenderFunctions(functions))
	}

	if a.cfg.GraphPath != "" {
		err := mermaid.Export(ctx, a.cfg.GraphPath, trace.Edges, mermaid.Options{
			MinDuration:    opts.MinDuration,
			Exclude:        opts.Exclude,
			LabelMaxLength: a.cfg.LabelMaxLength,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nMermaid call graph written to: %s\n", a.cfg.GraphPath)
	}
	if a.cfg.SpeedscopePath != "" {
		if err := speedscope.Export(ctx, a.cfg.SpeedscopePath, trace.ID, trace.Forest); err != nil {
			return err
		}
		fmt.Fprintf(out, "Speedscope profile written to: %s\n", a.cfg.SpeedscopePath)
	}
	if a.cfg.OTLPEndpoint != "" {
		tp, err := otelexport.NewProvider(ctx, a.cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
		otelexport.Replay(ctx, tp, trace.ID, trace.Forest)
		if err := tp.Shutdown(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "Spans replayed to: %s\n", a.cfg.OTLPEndpoint)
	}
	return nil
}
