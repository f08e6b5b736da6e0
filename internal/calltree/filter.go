package calltree

import "math"

// NoDepthLimit disables depth pruning.
const NoDepthLimit = math.MaxInt

// Options controls Filter.
type Options struct {
	// MinDuration is a threshold in milliseconds. Records without children
	// running for less than this are pruned.
	MinDuration float64
	// MaxDepth prunes every record at depth MaxDepth or deeper, roots being
	// at depth 0.
	MaxDepth int
	// Exclude removes matching records and splices their children in their
	// place.
	Exclude *Matcher
}

// Filter returns a display-ready copy of the forest. Each root is
// transformed independently and the input is never modified.
//
// Durations are only judged once splicing and collapsing are done, so a run
// of short calls merged into one record is kept when its total reaches
// MinDuration.
func Filter(forest Forest, opts Options) Forest {
	filtered := make(Forest, 0, len(forest))
	for _, root := range forest {
		filtered = append(filtered, transform(root, 0, opts)...)
	}
	return prune(filtered, opts.MinDuration)
}

// transform returns the records taking the place of r: none when r is too
// deep, r's transformed children when r is excluded, a copy of r otherwise.
// depth is the depth r would have in the filtered forest, so excluded
// ancestors don't count.
func transform(r *CallRecord, depth int, opts Options) []*CallRecord {
	excluded := opts.Exclude.MatchRecord(r)
	if !excluded && depth >= opts.MaxDepth {
		return nil
	}

	childDepth := depth + 1
	if excluded {
		childDepth = depth
	}
	// always transform the children first, since splicing changes which
	// siblings end up adjacent
	children := make([]*CallRecord, 0, len(r.Children))
	for _, child := range r.Children {
		children = append(children, transform(child, childDepth, opts)...)
	}
	children = collapse(children)

	if excluded {
		return children
	}
	n := r.shallowCopy()
	if len(children) > 0 {
		n.Children = children
	}
	return []*CallRecord{n}
}

// prune drops records left without children that ran for less than minMS,
// deepest first. Dropping a record can make its siblings adjacent, so
// children are collapsed again. records is not collapsed, roots stay apart.
func prune(records []*CallRecord, minMS float64) []*CallRecord {
	kept := records[:0]
	for _, r := range records {
		if len(r.Children) > 0 {
			r.Children = collapse(prune(r.Children, minMS))
		}
		if len(r.Children) == 0 {
			r.Children = nil
			if r.DurationMS() < minMS {
				continue
			}
		}
		kept = append(kept, r)
	}
	return kept
}

// collapse merges runs of adjacent records sharing the same name. It reuses
// the backing array of records, which must be owned by the caller.
func collapse(records []*CallRecord) []*CallRecord {
	collapsed := records[:0]
	for _, r := range records {
		if n := len(collapsed); n > 0 && collapsed[n-1].Name == r.Name {
			collapsed[n-1].merge(r)
			continue
		}
		collapsed = append(collapsed, r)
	}
	return collapsed
}
