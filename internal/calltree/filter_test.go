package calltree

import (
	"testing"

	"github.com/getsentry/calltrace/internal/testutil"
)

func rec(name string, ms float64, children ...*CallRecord) *CallRecord {
	r := NewCallRecord(name, name+".go", 1, testutil.Epoch)
	r.Duration = testutil.MS(ms)
	if len(children) > 0 {
		r.Children = children
	}
	return r
}

func collapsed(r *CallRecord, count int) *CallRecord {
	r.Count = count
	return r
}

func TestFilter(t *testing.T) {
	noLimits := Options{MaxDepth: NoDepthLimit}
	tests := []struct {
		name   string
		forest Forest
		opts   Options
		want   Forest
	}{
		{
			name: "prune short leaves and deep records",
			forest: Forest{
				rec("R", 6,
					rec("A", 5.6,
						rec("B", 0.3),
						rec("B", 0.2),
						rec("C", 5.0,
							rec("D", 0.05),
						),
					),
				),
			},
			opts: Options{MinDuration: 1, MaxDepth: 3},
			want: Forest{
				rec("R", 6,
					rec("A", 5.6,
						rec("C", 5.0),
					),
				),
			},
		},
		{
			name: "collapsed run is evaluated as a unit",
			forest: Forest{
				rec("A", 2,
					rec("B", 0.6),
					rec("B", 0.6),
				),
			},
			opts: Options{MinDuration: 1, MaxDepth: 3},
			want: Forest{
				rec("A", 2,
					collapsed(rec("B", 1.2), 2),
				),
			},
		},
		{
			name: "runs formed by merging parents are evaluated as a unit",
			forest: Forest{
				rec("A", 5,
					rec("B", 1, rec("C", 0.6)),
					rec("B", 1, rec("C", 0.6)),
				),
			},
			opts: Options{MinDuration: 1, MaxDepth: 3},
			want: Forest{
				rec("A", 5,
					collapsed(rec("B", 2,
						collapsed(rec("C", 1.2), 2),
					), 2),
				),
			},
		},
		{
			name: "pruned sibling lets its neighbours collapse",
			forest: Forest{
				rec("A", 10,
					rec("B", 2),
					rec("C", 0.1),
					rec("B", 2),
				),
			},
			opts: Options{MinDuration: 1, MaxDepth: 3},
			want: Forest{
				rec("A", 10,
					collapsed(rec("B", 4), 2),
				),
			},
		},
		{
			name: "no thresholds only collapses adjacent siblings",
			forest: Forest{
				rec("A", 10,
					rec("B", 1, rec("X", 0.5)),
					rec("B", 2, rec("Y", 0.5)),
					rec("C", 3),
					rec("B", 4),
				),
			},
			opts: noLimits,
			want: Forest{
				rec("A", 10,
					collapsed(rec("B", 3, rec("X", 0.5), rec("Y", 0.5)), 2),
					rec("C", 3),
					rec("B", 4),
				),
			},
		},
		{
			name: "merged children are collapsed across the boundary",
			forest: Forest{
				rec("A", 10,
					rec("B", 2, rec("D", 1)),
					rec("B", 2, rec("D", 1)),
				),
			},
			opts: noLimits,
			want: Forest{
				rec("A", 10,
					collapsed(rec("B", 4, collapsed(rec("D", 2), 2)), 2),
				),
			},
		},
		{
			name: "excluded record splices its children",
			forest: Forest{
				rec("A", 10,
					rec("B", 8,
						rec("C", 7),
					),
				),
			},
			opts: Options{MaxDepth: NoDepthLimit, Exclude: MustMatcher("^B$")},
			want: Forest{
				rec("A", 10,
					rec("C", 7),
				),
			},
		},
		{
			name: "excluded leaf is dropped",
			forest: Forest{
				rec("A", 10,
					rec("B", 8),
					rec("C", 1),
				),
			},
			opts: Options{MaxDepth: NoDepthLimit, Exclude: MustMatcher("^B$")},
			want: Forest{
				rec("A", 10,
					rec("C", 1),
				),
			},
		},
		{
			name: "excluded root promotes its children to roots",
			forest: Forest{
				rec("R", 10,
					rec("A", 4),
					rec("B", 5),
				),
				rec("S", 1),
			},
			opts: Options{MaxDepth: NoDepthLimit, Exclude: MustMatcher("^R$")},
			want: Forest{
				rec("A", 4),
				rec("B", 5),
				rec("S", 1),
			},
		},
		{
			name: "exclusion matches the source file",
			forest: Forest{
				rec("A", 10,
					rec("B", 8, rec("C", 7)),
				),
			},
			opts: Options{MaxDepth: NoDepthLimit, Exclude: MustMatcher(`B\.go$`)},
			want: Forest{
				rec("A", 10,
					rec("C", 7),
				),
			},
		},
		{
			name: "spliced siblings collapse with their new neighbours",
			forest: Forest{
				rec("A", 10,
					rec("C", 1),
					rec("B", 3, rec("C", 2)),
				),
			},
			opts: Options{MaxDepth: NoDepthLimit, Exclude: MustMatcher("^B$")},
			want: Forest{
				rec("A", 10,
					collapsed(rec("C", 3), 2),
				),
			},
		},
		{
			name: "depth is measured after splicing",
			forest: Forest{
				rec("R", 10,
					rec("X", 9,
						rec("C", 8,
							rec("D", 7),
						),
					),
				),
			},
			opts: Options{MaxDepth: 2, Exclude: MustMatcher("^X$")},
			want: Forest{
				rec("R", 10,
					rec("C", 8),
				),
			},
		},
		{
			name: "max depth prunes regardless of children",
			forest: Forest{
				rec("R", 10,
					rec("A", 9,
						rec("B", 8),
					),
				),
			},
			opts: Options{MaxDepth: 1},
			want: Forest{
				rec("R", 10),
			},
		},
		{
			name: "short record with children is kept",
			forest: Forest{
				rec("R", 0.1,
					rec("A", 5),
				),
			},
			opts: Options{MinDuration: 1, MaxDepth: 3},
			want: Forest{
				rec("R", 0.1,
					rec("A", 5),
				),
			},
		},
		{
			name: "short record losing every child is pruned",
			forest: Forest{
				rec("R", 0.5,
					rec("A", 0.1),
				),
				rec("S", 2),
			},
			opts: Options{MinDuration: 1, MaxDepth: 3},
			want: Forest{
				rec("S", 2),
			},
		},
		{
			name: "roots are not collapsed together",
			forest: Forest{
				rec("R", 2),
				rec("R", 3),
			},
			opts: noLimits,
			want: Forest{
				rec("R", 2),
				rec("R", 3),
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Filter(test.forest, test.opts)
			if diff := testutil.Diff(got, test.want); diff != "" {
				t.Fatalf("Filter() mismatch: (-got +want)\n%s", diff)
			}
			again := Filter(got, test.opts)
			if diff := testutil.Diff(again, got); diff != "" {
				t.Fatalf("Filter() is not idempotent: (-got +want)\n%s", diff)
			}
		})
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	forest := Forest{
		rec("A", 10,
			rec("B", 1, rec("D", 1)),
			rec("B", 1, rec("D", 1)),
			rec("X", 3, rec("C", 2)),
		),
	}
	before := forest.Clone()

	_ = Filter(forest, Options{MinDuration: 0.5, MaxDepth: NoDepthLimit, Exclude: MustMatcher("X")})

	if diff := testutil.Diff(forest, before); diff != "" {
		t.Fatalf("Filter() modified its input: (-got +want)\n%s", diff)
	}
}

func TestNewMatcher(t *testing.T) {
	m, err := NewMatcher("")
	if err != nil || m != nil {
		t.Fatalf("NewMatcher(\"\") = %v, %v, want nil, nil", m, err)
	}
	if m.Match("anything", "anywhere.go") {
		t.Fatal("nil matcher should match nothing")
	}

	if _, err := NewMatcher("(unclosed"); err == nil {
		t.Fatal("NewMatcher() with an invalid pattern should fail")
	}

	m = MustMatcher(`logger|_capture`)
	if !m.Match("rlm.logger.log", "") {
		t.Fatal("expected a match on the name")
	}
	if !m.Match("x.y", "/src/_capture.go") {
		t.Fatal("expected a match on the file")
	}
	if m.Match("x.y", "/src/y.go") {
		t.Fatal("unexpected match")
	}
}
