package timeutil

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Time decodes either an RFC 3339 string or an integer count of
// nanoseconds since the Unix epoch.
type Time time.Time

func (t *Time) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == "{}" {
		return nil
	}
	if s[0] == '"' {
		tt, err := time.Parse(`"`+time.RFC3339Nano+`"`, s)
		if err != nil {
			return err
		}
		*t = Time(tt)
	} else {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*t = Time(time.Unix(0, i))
	}
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UnixNano())
}

func (t Time) Time() time.Time {
	return time.Time(t)
}
