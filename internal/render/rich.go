package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/getsentry/calltrace/internal/calltree"
)

const slowThresholdMS = 100.0

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	locationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	nameStyle     = lipgloss.NewStyle().Bold(true)
	fastStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	slowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	countStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	enumStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginRight(1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	numericStyle  = cellStyle.Align(lipgloss.Right)
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Rich renders with lipgloss trees and tables.
type Rich struct {
	maxFanout int
}

func NewRich(opts Options) *Rich {
	return &Rich{maxFanout: opts.MaxFanout}
}

func (r *Rich) RenderTree(forest calltree.Forest) string {
	t := tree.Root(titleStyle.Render(treeTitle)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumStyle)
	for _, rec := range forest {
		t.Child(r.node(rec))
	}
	return t.String() + "\n"
}

func (r *Rich) node(rec *calltree.CallRecord) any {
	l := r.styledLabel(rec)
	children := visibleChildren(rec, r.maxFanout)
	if len(children) == 0 {
		return l
	}
	t := tree.Root(l).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumStyle)
	for _, child := range children {
		t.Child(r.node(child))
	}
	return t
}

func (r *Rich) styledLabel(rec *calltree.CallRecord) string {
	l := newLabel(rec)
	durationStyle := fastStyle
	if rec.DurationMS() >= slowThresholdMS {
		durationStyle = slowStyle
	}
	var b strings.Builder
	b.WriteString(locationStyle.Render(l.location))
	b.WriteString(" • ")
	b.WriteString(nameStyle.Render(l.name))
	b.WriteString(" (")
	b.WriteString(durationStyle.Render(l.duration))
	if l.count != "" {
		b.WriteString(" ")
		b.WriteString(countStyle.Render(l.count))
	}
	b.WriteString(")")
	return b.String()
}

func (r *Rich) RenderTopEdges(rows []EdgeRow) string {
	t := richTable(edgesHeader, 2)
	for _, row := range rows {
		t.Row(row.cells()...)
	}
	return titleStyle.Render(edgesTitle) + "\n" + t.String() + "\n"
}

func (r *Rich) RenderFunctions(rows []FunctionRow) string {
	t := richTable(functionsHeader, 7)
	for _, row := range rows {
		t.Row(row.cells()...)
	}
	return titleStyle.Render(functionsTitle) + "\n" + t.String() + "\n"
}

func richTable(header []string, numeric int) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(header...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col < numeric:
				return numericStyle
			default:
				return cellStyle
			}
		})
}
