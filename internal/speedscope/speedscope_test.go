package speedscope

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/getsentry/calltrace/internal/calltree"
	"github.com/getsentry/calltrace/internal/testutil"
)

func rec(name string, startMS, durationMS float64, children ...*calltree.CallRecord) *calltree.CallRecord {
	r := calltree.NewCallRecord(name, "/src/app/"+name+".go", 3, testutil.At(startMS))
	r.Duration = testutil.MS(durationMS)
	r.Children = children
	return r
}

func TestFromForest(t *testing.T) {
	forest := calltree.Forest{
		rec("R", 0, 6,
			rec("A", 1, 2),
			rec("A", 3, 1),
		),
		rec("S", 7, 1),
	}

	got := FromForest("trace", forest)
	want := Output{
		Schema:   Schema,
		Exporter: "calltrace",
		Name:     "trace",
		Profiles: []EventedProfile{
			{
				Name:     "trace",
				Type:     ProfileTypeEvented,
				Unit:     ValueUnitNanoseconds,
				EndValue: uint64(testutil.MS(8)),
				Events: []Event{
					{Type: EventTypeOpenFrame, Frame: 0, At: 0},
					{Type: EventTypeOpenFrame, Frame: 1, At: uint64(testutil.MS(1))},
					{Type: EventTypeCloseFrame, Frame: 1, At: uint64(testutil.MS(3))},
					{Type: EventTypeOpenFrame, Frame: 1, At: uint64(testutil.MS(3))},
					{Type: EventTypeCloseFrame, Frame: 1, At: uint64(testutil.MS(4))},
					{Type: EventTypeCloseFrame, Frame: 0, At: uint64(testutil.MS(6))},
					{Type: EventTypeOpenFrame, Frame: 2, At: uint64(testutil.MS(7))},
					{Type: EventTypeCloseFrame, Frame: 2, At: uint64(testutil.MS(8))},
				},
			},
		},
		Shared: SharedData{
			Frames: []Frame{
				{Name: "R", File: "/src/app/R.go", Line: 3},
				{Name: "A", File: "/src/app/A.go", Line: 3},
				{Name: "S", File: "/src/app/S.go", Line: 3},
			},
		},
	}
	if diff := testutil.Diff(got, want); diff != "" {
		t.Fatalf("FromForest() mismatch: (-got +want)\n%s", diff)
	}
}

func TestFromForestKeepsEventsOrdered(t *testing.T) {
	// a child reported as ending after its parent
	forest := calltree.Forest{
		rec("R", 0, 2,
			rec("A", 1, 5),
		),
	}
	events := FromForest("trace", forest).Profiles[0].Events
	for i := 1; i < len(events); i++ {
		if events[i].At < events[i-1].At {
			t.Fatalf("event %d goes back in time: %+v", i, events)
		}
	}
}

func TestExport(t *testing.T) {
	forest := calltree.Forest{rec("R", 0, 1)}
	path := filepath.Join(t.TempDir(), "profiles", "trace.speedscope.json")
	if err := Export(context.Background(), path, "trace", forest); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var o Output
	if err := json.NewDecoder(bytes.NewReader(b)).Decode(&o); err != nil {
		t.Fatalf("exported profile is not valid JSON: %v", err)
	}
	if diff := testutil.Diff(o, FromForest("trace", forest)); diff != "" {
		t.Fatalf("exported profile mismatch: (-got +want)\n%s", diff)
	}
}

func TestFromEmptyForest(t *testing.T) {
	var b bytes.Buffer
	if err := Write(&b, FromForest("empty", nil)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !bytes.Contains(b.Bytes(), []byte(`"events":[]`)) {
		t.Fatalf("empty profile should carry an empty event list: %s", b.String())
	}
}
