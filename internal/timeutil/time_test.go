package timeutil

import (
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestParseInt64Timeutil(t *testing.T) {
	var tt Time
	b := []byte(`1675277158123456789`)
	err := json.Unmarshal(b, &tt)
	if err != nil {
		t.Fatalf("error while parsing: %+v\n", err)
	}
	if string(b) != strconv.FormatInt(tt.Time().UnixNano(), 10) {
		t.Fatalf("wanted: %+v, got: %+v\n", string(b), tt.Time().UnixNano())
	}
}

func TestParseStringTimeutil(t *testing.T) {
	var tt Time
	b := []byte(`"2023-01-01T12:00:00.5+00:00"`)
	err := json.Unmarshal(b, &tt)
	if err != nil {
		t.Fatalf("error while parsing: %+v\n", err)
	}
	if tt.Time().UnixNano() != 1672574400500000000 {
		t.Fatalf("got %d", tt.Time().UnixNano())
	}
}

func TestMarshalTimeutil(t *testing.T) {
	want := time.Unix(1, 42)
	b, err := json.Marshal(Time(want))
	if err != nil {
		t.Fatalf("error while marshaling: %+v\n", err)
	}
	if string(b) != "1000000042" {
		t.Fatalf("got %s", b)
	}
	var back Time
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("error while parsing: %+v\n", err)
	}
	if !back.Time().Equal(want) {
		t.Fatalf("round trip changed %s into %s", want, back.Time())
	}
}
