// Package render turns call forests and edge tables into console text.
package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"

	"github.com/getsentry/calltrace/internal/calltree"
	"github.com/getsentry/calltrace/internal/metrics"
)

const (
	treeTitle      = "Call Tree"
	edgesTitle     = "Top Edges"
	functionsTitle = "Top Functions"

	worstAtLayout = "15:04:05.000"
)

var (
	edgesHeader     = []string{"Total ms", "Count", "Caller", "Callee"}
	functionsHeader = []string{"Self ms", "Avg ms", "P75 ms", "P95 ms", "P99 ms", "Worst ms", "Count", "Worst at", "Function", "Location"}
)

type (
	// Renderer produces the tree view and the top-edges table. Every
	// implementation carries the same information; only the styling differs.
	Renderer interface {
		RenderTree(forest calltree.Forest) string
		RenderTopEdges(rows []EdgeRow) string
		RenderFunctions(rows []FunctionRow) string
	}

	Options struct {
		// MaxFanout caps the number of children shown under each record.
		// Zero shows them all.
		MaxFanout int
		// Plain disables styled output even on a terminal.
		Plain bool
	}

	// EdgeRow is one line of the top-edges table.
	EdgeRow struct {
		TotalMS float64
		Count   int
		Caller  string
		Callee  string
	}

	// FunctionRow is one line of the top-functions table.
	FunctionRow struct {
		SelfMS  float64
		AvgMS   float64
		P75MS   float64
		P95MS   float64
		P99MS   float64
		WorstMS float64
		Count   int
		// WorstAt is when the slowest call started.
		WorstAt  time.Time
		Name     string
		Location string
	}
)

// New selects the renderer for out once: styled output on a terminal,
// plain text anywhere else.
func New(out io.Writer, opts Options) Renderer {
	if !opts.Plain && isTerminal(out) {
		return NewRich(opts)
	}
	return NewPlain(opts)
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// TopEdgeRows filters the edge table like the tree (minimum duration in
// milliseconds, exclusion of caller or callee) and keeps the n heaviest edges.
func TopEdgeRows(edges *calltree.Edges, minMS float64, exclude *calltree.Matcher, n int) []EdgeRow {
	top := calltree.Top(edges.Select(minMS, exclude), n)
	rows := make([]EdgeRow, 0, len(top))
	for _, e := range top {
		rows = append(rows, EdgeRow{
			TotalMS: e.TotalMS(),
			Count:   e.Count,
			Caller:  calltree.ShortName(e.Caller),
			Callee:  calltree.ShortName(e.Callee),
		})
	}
	return rows
}

// FunctionRows drops functions whose self time is under minMS or whose name
// or file matches exclude, and keeps the first n.
func FunctionRows(functions []metrics.FunctionMetrics, minMS float64, exclude *calltree.Matcher, n int) []FunctionRow {
	rows := make([]FunctionRow, 0, len(functions))
	for _, f := range functions {
		if n > 0 && len(rows) == n {
			break
		}
		if ms(f.Sum) < minMS || exclude.Match(f.Name, f.File) {
			continue
		}
		rows = append(rows, FunctionRow{
			SelfMS:   ms(f.Sum),
			AvgMS:    ms(f.Avg),
			P75MS:    ms(f.P75),
			P95MS:    ms(f.P95),
			P99MS:    ms(f.P99),
			WorstMS:  ms(f.Worst),
			Count:    f.Count,
			WorstAt:  f.WorstAt,
			Name:     calltree.ShortName(f.Name),
			Location: fmt.Sprintf("%s:%d", calltree.FileBaseName(f.File), f.Line),
		})
	}
	return rows
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// FormatMS prints milliseconds with three significant figures from a
// millisecond up and two below.
func FormatMS(ms float64) string {
	switch {
	case ms >= 100:
		return fmt.Sprintf("%.0f", ms)
	case ms >= 10:
		return fmt.Sprintf("%.1f", ms)
	case ms >= 1 || ms <= 0:
		return fmt.Sprintf("%.2f", ms)
	default:
		decimals := 1 - int(math.Floor(math.Log10(ms)))
		return strconv.FormatFloat(ms, 'f', decimals, 64)
	}
}

type label struct {
	location string
	name     string
	duration string
	count    string
}

func newLabel(r *calltree.CallRecord) label {
	l := label{
		location: fmt.Sprintf("%s:%d", calltree.FileBaseName(r.File), r.Line),
		name:     calltree.ShortName(r.Name),
		duration: FormatMS(r.DurationMS()) + "ms",
	}
	if r.Count > 1 {
		l.count = fmt.Sprintf("×%d", r.Count)
	}
	return l
}

func (l label) String() string {
	var b strings.Builder
	b.WriteString(l.location)
	b.WriteString(" • ")
	b.WriteString(l.name)
	b.WriteString(" (")
	b.WriteString(l.duration)
	if l.count != "" {
		b.WriteString(" ")
		b.WriteString(l.count)
	}
	b.WriteString(")")
	return b.String()
}

// NodeLabel returns the plain label of a record:
// file.go:12 • name (1.23ms ×2).
func NodeLabel(r *calltree.CallRecord) string {
	return newLabel(r).String()
}

func visibleChildren(r *calltree.CallRecord, maxFanout int) []*calltree.CallRecord {
	if maxFanout > 0 && len(r.Children) > maxFanout {
		return r.Children[:maxFanout]
	}
	return r.Children
}

func (row EdgeRow) cells() []string {
	return []string{
		fmt.Sprintf("%.1f", row.TotalMS),
		fmt.Sprintf("%d", row.Count),
		row.Caller,
		row.Callee,
	}
}

func (row FunctionRow) cells() []string {
	return []string{
		FormatMS(row.SelfMS),
		FormatMS(row.AvgMS),
		FormatMS(row.P75MS),
		FormatMS(row.P95MS),
		FormatMS(row.P99MS),
		FormatMS(row.WorstMS),
		fmt.Sprintf("%d", row.Count),
		row.WorstAt.UTC().Format(worstAtLayout),
		row.Name,
		row.Location,
	}
}
