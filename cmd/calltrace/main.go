package main

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
)

var release string

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		sentry.CaptureException(err)
		log.Error().Err(err).Msg("calltrace failed")
	}
	sentry.Flush(5 * time.Second)
	if err != nil {
		os.Exit(1)
	}
}
