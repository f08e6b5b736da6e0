// Package config holds the calltrace settings, read from an optional YAML
// file and CALLTRACE_* environment variables.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/getsentry/calltrace/internal/calltree"
	"github.com/getsentry/calltrace/internal/errorutil"
	"github.com/getsentry/calltrace/internal/render"
	"github.com/getsentry/calltrace/internal/scope"
)

type Config struct {
	MinDurationMS  float64 `yaml:"min_ms" env:"CALLTRACE_MIN_MS" env-default:"1" env-description:"hide nodes and edges under this duration (ms)"`
	MaxDepth       int     `yaml:"max_depth" env:"CALLTRACE_MAX_DEPTH" env-default:"3" env-description:"maximum tree depth, negative for no limit"`
	Exclude        string  `yaml:"exclude" env:"CALLTRACE_EXCLUDE" env-description:"regular expression of functions or files to hide"`
	TopN           int     `yaml:"top" env:"CALLTRACE_TOP" env-default:"8" env-description:"number of heaviest edges to print"`
	TopFunctions   int     `yaml:"top_functions" env:"CALLTRACE_TOP_FUNCTIONS" env-description:"number of functions by self time to print, 0 to skip"`
	MaxFanout      int     `yaml:"max_fanout" env:"CALLTRACE_MAX_FANOUT" env-default:"8" env-description:"children shown per node, 0 for all"`
	LabelMaxLength int     `yaml:"label_max" env:"CALLTRACE_LABEL_MAX" env-default:"40" env-description:"maximum Mermaid label length in runes"`

	GraphPath      string `yaml:"mermaid" env:"CALLTRACE_MERMAID" env-default:"artifacts/callgraph.mmd" env-description:"Mermaid output path or bucket URL, empty to skip"`
	SpeedscopePath string `yaml:"speedscope" env:"CALLTRACE_SPEEDSCOPE" env-description:"speedscope output path or bucket URL, empty to skip"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" env:"CALLTRACE_OTLP_ENDPOINT" env-description:"OTLP/HTTP collector URL for span replay, empty to skip"`

	Scope []string `yaml:"scope" env:"CALLTRACE_SCOPE" env-default:"/internal/sampling/,/cmd/calltrace/" env-description:"path fragments of traced source files"`

	SampleFiles int   `yaml:"sample_files" env:"CALLTRACE_SAMPLE_FILES" env-default:"3" env-description:"files picked by the sample workload"`
	SampleBytes int   `yaml:"sample_bytes" env:"CALLTRACE_SAMPLE_BYTES" env-default:"24000" env-description:"bytes read from each sampled file"`
	SampleAll   bool  `yaml:"sample_all" env:"CALLTRACE_SAMPLE_ALL" env-description:"sample every file, not only text files"`
	Seed        int64 `yaml:"seed" env:"CALLTRACE_SEED" env-description:"sampling seed, 0 for a random one"`

	Plain bool `yaml:"plain" env:"CALLTRACE_PLAIN" env-description:"force the plain renderer"`

	SentryDSN   string `yaml:"sentry_dsn" env:"SENTRY_DSN" env-description:"Sentry DSN for error reporting"`
	Environment string `yaml:"environment" env:"SENTRY_ENVIRONMENT" env-default:"development"`
	LogLevel    string `yaml:"log_level" env:"CALLTRACE_LOG_LEVEL" env-default:"info"`
}

// Load reads path, when given, then the environment. Environment values
// win over the file and defaults fill what is left unset.
func Load(path string) (*Config, error) {
	var (
		cfg Config
		err error
	)
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w: %v", errorutil.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// Description lists the environment variables Load understands.
func Description() (string, error) {
	return cleanenv.GetDescription(&Config{}, nil)
}

func (c *Config) Validate() error {
	switch {
	case c.MinDurationMS < 0:
		return invalid("min_ms must not be negative, got %v", c.MinDurationMS)
	case c.TopN < 0:
		return invalid("top must not be negative, got %d", c.TopN)
	case c.TopFunctions < 0:
		return invalid("top_functions must not be negative, got %d", c.TopFunctions)
	case c.MaxFanout < 0:
		return invalid("max_fanout must not be negative, got %d", c.MaxFanout)
	case c.LabelMaxLength <= 0:
		return invalid("label_max must be positive, got %d", c.LabelMaxLength)
	case c.SampleFiles <= 0:
		return invalid("sample_files must be positive, got %d", c.SampleFiles)
	case c.SampleBytes <= 0:
		return invalid("sample_bytes must be positive, got %d", c.SampleBytes)
	}
	_, err := c.Matcher()
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("config: %w: %s", errorutil.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (c *Config) Matcher() (*calltree.Matcher, error) {
	return calltree.NewMatcher(c.Exclude)
}

func (c *Config) ScopeFilter() scope.Filter {
	return scope.New(c.Scope...)
}

// FilterOptions maps the tree settings onto calltree.Options. A negative
// MaxDepth disables the depth bound.
func (c *Config) FilterOptions() (calltree.Options, error) {
	m, err := c.Matcher()
	if err != nil {
		return calltree.Options{}, err
	}
	depth := c.MaxDepth
	if depth < 0 {
		depth = calltree.NoDepthLimit
	}
	return calltree.Options{
		MinDuration: c.MinDurationMS,
		MaxDepth:    depth,
		Exclude:     m,
	}, nil
}

func (c *Config) RenderOptions() render.Options {
	return render.Options{
		MaxFanout: c.MaxFanout,
		Plain:     c.Plain,
	}
}
