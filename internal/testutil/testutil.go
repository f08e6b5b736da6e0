package testutil

import (
	"math"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var (
	alwaysEqual       = cmp.Comparer(func(_, _ interface{}) bool { return true })
	defaultCmpOptions = []cmp.Option{
		// NaNs compare equal
		cmp.FilterValues(func(x, y float64) bool {
			return math.IsNaN(x) && math.IsNaN(y)
		}, alwaysEqual),
		cmpopts.EquateEmpty(),
	}

	// Epoch is the reference instant test traces start at.
	Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
)

func Diff(a, b interface{}, opts ...cmp.Option) string {
	opts = append(opts, defaultCmpOptions...)
	return cmp.Diff(a, b, opts...)
}

// MS converts fractional milliseconds to a duration.
func MS(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// At returns the instant ms milliseconds after Epoch.
func At(ms float64) time.Time {
	return Epoch.Add(MS(ms))
}
