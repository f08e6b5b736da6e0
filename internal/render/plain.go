package render

import (
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/getsentry/calltrace/internal/calltree"
)

// Plain renders unstyled text.
type Plain struct {
	maxFanout int
}

func NewPlain(opts Options) *Plain {
	return &Plain{maxFanout: opts.MaxFanout}
}

func (p *Plain) RenderTree(forest calltree.Forest) string {
	var b strings.Builder
	b.WriteString(treeTitle)
	b.WriteString("\n")
	for _, r := range forest {
		p.writeRecord(&b, r, 1)
	}
	return b.String()
}

func (p *Plain) writeRecord(b *strings.Builder, r *calltree.CallRecord, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(NodeLabel(r))
	b.WriteString("\n")
	for _, child := range visibleChildren(r, p.maxFanout) {
		p.writeRecord(b, child, depth+1)
	}
}

func (p *Plain) RenderTopEdges(rows []EdgeRow) string {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, row.cells())
	}
	return plainTable(edgesTitle, edgesHeader, 2, cells)
}

func (p *Plain) RenderFunctions(rows []FunctionRow) string {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, row.cells())
	}
	return plainTable(functionsTitle, functionsHeader, 7, cells)
}

// plainTable right-aligns the first numeric columns and left-aligns the rest.
func plainTable(title string, header []string, numeric int, rows [][]string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	tbl := tablewriter.NewWriter(&b)
	tbl.SetHeader(header)
	tbl.SetAutoFormatHeaders(false)
	alignment := make([]int, len(header))
	for i := range alignment {
		alignment[i] = tablewriter.ALIGN_LEFT
		if i < numeric {
			alignment[i] = tablewriter.ALIGN_RIGHT
		}
	}
	tbl.SetColumnAlignment(alignment)
	tbl.AppendBulk(rows)
	tbl.Render()
	return b.String()
}
