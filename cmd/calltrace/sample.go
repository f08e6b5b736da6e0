package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getsentry/calltrace/internal/sampling"
	"github.com/getsentry/calltrace/internal/tracer"
)

func newSampleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample <dir|file>",
		Short: "Trace the sampling of a small text context from a directory or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			opts := a.samplingOptions()

			text, trace, err := tracer.Run(ctx, a.cfg.ScopeFilter(), func(ctx context.Context) (string, error) {
				return sampleWorkload(ctx, path, opts)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sampled %d bytes from %s\n\n", len(text), path)
			return a.report(ctx, cmd.OutOrStdout(), trace)
		},
	}
	f := cmd.Flags()
	f.IntVar(&a.flags.sampleFiles, "k", 3, "number of files to sample")
	f.IntVar(&a.flags.sampleBytes, "bytes", 24000, "bytes read from each file")
	f.BoolVar(&a.flags.sampleAll, "all", false, "sample files of any extension")
	f.Int64Var(&a.flags.seed, "seed", 0, "sampling seed, 0 for a random one")
	return cmd
}

func sampleWorkload(ctx context.Context, path string, opts sampling.Options) (string, error) {
	defer tracer.Enter(ctx)()
	return sampling.Sample(ctx, path, opts)
}
