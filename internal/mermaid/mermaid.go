// Package mermaid exports an edge table as a Mermaid flowchart.
package mermaid

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/getsentry/calltrace/internal/calltree"
	"github.com/getsentry/calltrace/internal/storageutil"
)

const ellipsis = "…"

type Options struct {
	// MinDuration drops edges whose cumulative duration, in milliseconds,
	// is lower.
	MinDuration float64
	// Exclude drops edges whose caller or callee matches.
	Exclude *calltree.Matcher
	// LabelMaxLength is the maximum number of runes of a node label. Zero
	// disables truncation.
	LabelMaxLength int
}

// labelReplacer substitutes characters terminating a node label or an edge
// label in the flowchart syntax.
var labelReplacer = strings.NewReplacer(
	"\r", " ",
	"\n", " ",
	"[", "(",
	"]", ")",
	`"`, "'",
	"|", "/",
)

// Label keeps the last two dotted segments of a qualified name, truncates
// them to maxLength runes and makes them safe to embed in brackets.
func Label(name string, maxLength int) string {
	l := calltree.LabelName(name)
	if maxLength > 0 && utf8.RuneCountInString(l) > maxLength {
		runes := []rune(l)
		l = string(runes[:maxLength-1]) + ellipsis
	}
	return labelReplacer.Replace(l)
}

// Write renders the selected edges, in first-seen order, as one flowchart.
// Node identifiers are assigned in first-seen order and only hold within
// one call.
func Write(w io.Writer, edges *calltree.Edges, opts Options) error {
	ids := make(map[string]string)
	id := func(name string) string {
		if v, ok := ids[name]; ok {
			return v
		}
		v := fmt.Sprintf("n%d", len(ids))
		ids[name] = v
		return v
	}

	if _, err := io.WriteString(w, "graph TD\n"); err != nil {
		return err
	}
	for _, e := range edges.Select(opts.MinDuration, opts.Exclude) {
		caller, callee := id(e.Caller), id(e.Callee)
		_, err := fmt.Fprintf(w, "  %s[%s] -->|%dx / %.0fms| %s[%s]\n",
			caller, Label(e.Caller, opts.LabelMaxLength),
			e.Count, e.TotalMS(),
			callee, Label(e.Callee, opts.LabelMaxLength),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Export writes the flowchart to dest, a local path or a bucket URL,
// replacing any previous export.
func Export(ctx context.Context, dest string, edges *calltree.Edges, opts Options) error {
	return storageutil.Write(ctx, dest, func(w io.Writer) error {
		return Write(w, edges, opts)
	})
}
