package errorutil

import "errors"

// ErrInvalidConfig is returned when a configuration value is rejected before
// any recording starts.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrExport wraps failures to write an export artifact (graph, profile).
var ErrExport = errors.New("export failed")
