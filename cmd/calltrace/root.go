package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/getsentry/calltrace/internal/config"
	"github.com/getsentry/calltrace/internal/envutil"
	"github.com/getsentry/calltrace/internal/logutil"
	"github.com/getsentry/calltrace/internal/sampling"
)

type (
	// app carries the configuration shared by every subcommand, populated
	// in PersistentPreRunE.
	app struct {
		cfg        *config.Config
		configPath string
		flags      flagValues
	}

	flagValues struct {
		minMS        float64
		maxDepth     int
		exclude      string
		top          int
		functions    int
		maxFanout    int
		labelMax     int
		mermaid      string
		speedscope   string
		otlpEndpoint string
		scope        []string
		plain        bool
		logLevel     string
		sampleFiles  int
		sampleBytes  int
		sampleAll    bool
		seed         int64
	}
)

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "calltrace",
		Short:         "Trace nested calls of an operation and render the call tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", envutil.ConfigFile(), "YAML config file")
	pf.Float64Var(&a.flags.minMS, "min-ms", 1, "hide nodes and edges under this duration (ms)")
	pf.IntVar(&a.flags.maxDepth, "max-depth", 3, "maximum depth to render in the tree, negative for no limit")
	pf.StringVar(&a.flags.exclude, "exclude", "", "regular expression of functions or files to exclude")
	pf.IntVar(&a.flags.top, "top", 8, "print the top-N heaviest edges")
	pf.IntVar(&a.flags.functions, "functions", 0, "print the top-N functions by self time, 0 to skip")
	pf.IntVar(&a.flags.maxFanout, "max-fanout", 8, "children shown per node, 0 for all")
	pf.IntVar(&a.flags.labelMax, "label-max", 40, "maximum Mermaid label length")
	pf.StringVar(&a.flags.mermaid, "mermaid", "artifacts/callgraph.mmd", "Mermaid call graph destination, empty to skip")
	pf.StringVar(&a.flags.speedscope, "speedscope", "", "speedscope profile destination, empty to skip")
	pf.StringVar(&a.flags.otlpEndpoint, "otlp-endpoint", "", "OTLP/HTTP collector URL to replay spans to")
	pf.StringSliceVar(&a.flags.scope, "scope", nil, "path fragments of traced source files")
	pf.BoolVar(&a.flags.plain, "plain", false, "plain text output even on a terminal")
	pf.StringVar(&a.flags.logLevel, "log-level", "info", "log level")

	root.AddCommand(newSampleCmd(a), newReplayCmd(a), newEnvCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logutil.ConfigureLogger(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     release,
		})
		if err != nil {
			return fmt.Errorf("can't initialize sentry: %w", err)
		}
	}
	a.cfg = cfg
	log.Debug().Str("config", a.configPath).Strs("scope", cfg.Scope).Msg("configuration loaded")
	return nil
}

// applyFlags overrides file and environment values with the flags set on
// the command line.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	f := a.flags
	if changed("min-ms") {
		cfg.MinDurationMS = f.minMS
	}
	if changed("max-depth") {
		cfg.MaxDepth = f.maxDepth
	}
	if changed("exclude") {
		cfg.Exclude = f.exclude
	}
	if changed("top") {
		cfg.TopN = f.top
	}
	if changed("functions") {
		cfg.TopFunctions = f.functions
	}
	if changed("max-fanout") {
		cfg.MaxFanout = f.maxFanout
	}
	if changed("label-max") {
		cfg.LabelMaxLength = f.labelMax
	}
	if changed("mermaid") {
		cfg.GraphPath = f.mermaid
	}
	if changed("speedscope") {
		cfg.SpeedscopePath = f.speedscope
	}
	if changed("otlp-endpoint") {
		cfg.OTLPEndpoint = f.otlpEndpoint
	}
	if changed("scope") {
		cfg.Scope = f.scope
	}
	if changed("plain") {
		cfg.Plain = f.plain
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("k") {
		cfg.SampleFiles = f.sampleFiles
	}
	if changed("bytes") {
		cfg.SampleBytes = f.sampleBytes
	}
	if changed("all") {
		cfg.SampleAll = f.sampleAll
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
}

func (a *app) samplingOptions() sampling.Options {
	opts := sampling.Options{
		Files: a.cfg.SampleFiles,
		Bytes: a.cfg.SampleBytes,
		All:   a.cfg.SampleAll,
	}
	if a.cfg.Seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(uint64(a.cfg.Seed), 0))
	}
	return opts
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables read by calltrace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := config.Description()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}
