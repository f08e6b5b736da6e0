package calltree

import (
	"sort"
	"time"
)

type (
	// EdgeKey identifies a direct caller to callee relationship.
	EdgeKey struct {
		Caller string `json:"caller"`
		Callee string `json:"callee"`
	}

	// Edge aggregates every return of Callee observed while Caller was the
	// nearest in-scope ancestor on the raw stack.
	Edge struct {
		EdgeKey
		Count int           `json:"count"`
		Total time.Duration `json:"total_ns"`

		order uint64
	}

	// Edges is the edge table of one trace. It is fed from return events and
	// never derived from a filtered forest.
	Edges struct {
		index map[EdgeKey]int
		edges []Edge
	}
)

func NewEdges() *Edges {
	return &Edges{index: make(map[EdgeKey]int)}
}

// TotalMS returns the cumulative duration in milliseconds.
func (e Edge) TotalMS() float64 {
	return float64(e.Total) / float64(time.Millisecond)
}

// Add records one return of callee under caller. order is the call sequence
// number of the callee activation; the smallest order seen for an edge
// decides its position in List.
func (t *Edges) Add(caller, callee string, d time.Duration, order uint64) {
	if t.index == nil {
		t.index = make(map[EdgeKey]int)
	}
	key := EdgeKey{Caller: caller, Callee: callee}
	if i, ok := t.index[key]; ok {
		e := &t.edges[i]
		e.Count++
		e.Total += d
		if order < e.order {
			e.order = order
		}
		return
	}
	t.index[key] = len(t.edges)
	t.edges = append(t.edges, Edge{EdgeKey: key, Count: 1, Total: d, order: order})
}

// Get returns the aggregate for (caller, callee).
func (t *Edges) Get(caller, callee string) (Edge, bool) {
	if t == nil {
		return Edge{}, false
	}
	i, ok := t.index[EdgeKey{Caller: caller, Callee: callee}]
	if !ok {
		return Edge{}, false
	}
	return t.edges[i], true
}

func (t *Edges) Len() int {
	if t == nil {
		return 0
	}
	return len(t.edges)
}

// List returns a copy of the edges in first-seen order.
func (t *Edges) List() []Edge {
	if t == nil {
		return nil
	}
	edges := make([]Edge, len(t.edges))
	copy(edges, t.edges)
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].order < edges[j].order
	})
	return edges
}

// Select returns, in first-seen order, the edges whose cumulative duration is
// at least minMS and whose caller and callee are not excluded.
func (t *Edges) Select(minMS float64, exclude *Matcher) []Edge {
	all := t.List()
	selected := all[:0]
	for _, e := range all {
		if e.TotalMS() < minMS {
			continue
		}
		if exclude.Match(e.Caller, "") || exclude.Match(e.Callee, "") {
			continue
		}
		selected = append(selected, e)
	}
	return selected
}

// Top sorts edges by cumulative duration, heaviest first, and keeps at most
// n of them. A non-positive n keeps every edge.
func Top(edges []Edge, n int) []Edge {
	sorted := make([]Edge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Caller != b.Caller {
			return a.Caller < b.Caller
		}
		return a.Callee < b.Callee
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
