package speedscope

import (
	"context"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/getsentry/calltrace/internal/calltree"
	"github.com/getsentry/calltrace/internal/storageutil"
)

const (
	Schema = "https://www.speedscope.app/file-format-schema.json"

	ValueUnitNanoseconds ValueUnit = "nanoseconds"

	EventTypeOpenFrame  EventType = "O"
	EventTypeCloseFrame EventType = "C"

	ProfileTypeEvented ProfileType = "evented"

	exporter = "calltrace"
)

type (
	Frame struct {
		File string `json:"file,omitempty"`
		Line int    `json:"line,omitempty"`
		Name string `json:"name"`
	}

	Event struct {
		Type  EventType `json:"type"`
		Frame int       `json:"frame"`
		At    uint64    `json:"at"`
	}

	EventedProfile struct {
		EndValue   uint64      `json:"endValue"`
		Events     []Event     `json:"events"`
		Name       string      `json:"name"`
		StartValue uint64      `json:"startValue"`
		Type       ProfileType `json:"type"`
		Unit       ValueUnit   `json:"unit"`
	}

	SharedData struct {
		Frames []Frame `json:"frames"`
	}

	EventType   string
	ProfileType string
	ValueUnit   string

	Output struct {
		Schema             string           `json:"$schema"`
		ActiveProfileIndex int              `json:"activeProfileIndex"`
		Exporter           string           `json:"exporter"`
		Name               string           `json:"name"`
		Profiles           []EventedProfile `json:"profiles"`
		Shared             SharedData       `json:"shared"`
	}
)

type builder struct {
	origin time.Time
	frames map[Frame]int
	shared []Frame
	events []Event
	last   uint64
}

// FromForest builds an evented profile of a raw forest. Times are relative
// to the start of the first root.
func FromForest(name string, forest calltree.Forest) Output {
	b := builder{frames: make(map[Frame]int)}
	if len(forest) > 0 {
		b.origin = forest[0].StartedAt
	}
	for _, r := range forest {
		b.add(r)
	}
	if b.shared == nil {
		b.shared = []Frame{}
	}
	if b.events == nil {
		b.events = []Event{}
	}
	return Output{
		Schema:   Schema,
		Exporter: exporter,
		Name:     name,
		Profiles: []EventedProfile{
			{
				EndValue:   b.last,
				Events:     b.events,
				Name:       name,
				StartValue: 0,
				Type:       ProfileTypeEvented,
				Unit:       ValueUnitNanoseconds,
			},
		},
		Shared: SharedData{Frames: b.shared},
	}
}

func (b *builder) frame(r *calltree.CallRecord) int {
	f := Frame{Name: r.Name, File: r.File, Line: r.Line}
	if i, ok := b.frames[f]; ok {
		return i
	}
	i := len(b.shared)
	b.frames[f] = i
	b.shared = append(b.shared, f)
	return i
}

// at converts t to an offset that never goes backwards, since speedscope
// rejects unordered events.
func (b *builder) at(t time.Time) uint64 {
	var v uint64
	if d := t.Sub(b.origin); d > 0 {
		v = uint64(d)
	}
	if v < b.last {
		v = b.last
	}
	b.last = v
	return v
}

func (b *builder) add(r *calltree.CallRecord) {
	i := b.frame(r)
	b.events = append(b.events, Event{Type: EventTypeOpenFrame, Frame: i, At: b.at(r.StartedAt)})
	for _, child := range r.Children {
		b.add(child)
	}
	b.events = append(b.events, Event{Type: EventTypeCloseFrame, Frame: i, At: b.at(r.StartedAt.Add(r.Duration))})
}

// Write encodes the profile as JSON.
func Write(w io.Writer, o Output) error {
	return json.NewEncoder(w).Encode(o)
}

// Export writes the evented profile of forest to dest, a local path or a
// bucket URL.
func Export(ctx context.Context, dest, name string, forest calltree.Forest) error {
	o := FromForest(name, forest)
	return storageutil.Write(ctx, dest, func(w io.Writer) error {
		return Write(w, o)
	})
}
