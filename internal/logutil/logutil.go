package logutil

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cloud.google.com/go/compute/metadata"
)

// ConfigureLogger sets up the global logger. Events below level are
// dropped. On GCE the output stays JSON with a severity field, locally it
// goes through a console writer on stderr.
func ConfigureLogger(level string) error {
	return configure(os.Stderr, level, metadata.OnGCE())
}

func configure(w io.Writer, level string, onGCE bool) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("logutil: unknown log level %q: %w", level, err)
		}
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(w).With().Timestamp().Caller().Stack().Logger()
	if onGCE {
		logger = logger.Hook(ErrorHook{})
	} else {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w})
	}
	log.Logger = logger.Sample(LevelSampler{Level: lvl})
	return nil
}

type ErrorHook struct{}

func (h ErrorHook) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	e.Str("severity", level.String())
}
