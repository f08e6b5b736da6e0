// Package metrics aggregates the self time of every function of a trace.
package metrics

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/getsentry/calltrace/internal/calltree"
)

type function struct {
	name      string
	file      string
	line      int
	count     int
	selfTimes []time.Duration
	sum       time.Duration
	worst     time.Duration
	worstAt   time.Time
}

// Aggregator collects self times per qualified function name.
type Aggregator struct {
	MaxUniqueFunctions uint
	functions          map[string]*function
}

type FunctionMetrics struct {
	Name  string        `json:"name"`
	File  string        `json:"file"`
	Line  int           `json:"line"`
	P75   time.Duration `json:"p75"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Avg   time.Duration `json:"avg"`
	Sum   time.Duration `json:"sum"`
	Count int           `json:"count"`
	// Worst is the largest self time of a single record and WorstAt the
	// instant that record started.
	Worst   time.Duration `json:"worst"`
	WorstAt time.Time     `json:"worst_at"`
}

func NewAggregator(maxUniqueFunctions uint) Aggregator {
	return Aggregator{
		MaxUniqueFunctions: maxUniqueFunctions,
		functions:          make(map[string]*function),
	}
}

// SelfTime is the part of r's duration not spent in its children.
func SelfTime(r *calltree.CallRecord) time.Duration {
	self := r.Duration
	for _, c := range r.Children {
		self -= c.Duration
	}
	return max(self, 0)
}

// AddForest adds the self time of every record of forest.
func (ma *Aggregator) AddForest(forest calltree.Forest) {
	forest.Walk(func(r *calltree.CallRecord, _ int) {
		ma.add(r)
	})
}

func (ma *Aggregator) add(r *calltree.CallRecord) {
	self := SelfTime(r)
	fn, ok := ma.functions[r.Name]
	if !ok {
		fn = &function{name: r.Name, file: r.File, line: r.Line, worst: -1}
		ma.functions[r.Name] = fn
	}
	fn.count += r.Count
	fn.selfTimes = append(fn.selfTimes, self)
	fn.sum += self
	if self > fn.worst {
		fn.worst = self
		fn.worstAt = r.StartedAt
	}
}

// ToMetrics returns the functions by decreasing self time, ties broken by
// name, capped at MaxUniqueFunctions.
func (ma *Aggregator) ToMetrics() []FunctionMetrics {
	metrics := make([]FunctionMetrics, 0, len(ma.functions))

	for _, f := range ma.functions {
		sort.Slice(f.selfTimes, func(i, j int) bool {
			return f.selfTimes[i] < f.selfTimes[j]
		})
		p75, _ := quantile(f.selfTimes, 0.75)
		p95, _ := quantile(f.selfTimes, 0.95)
		p99, _ := quantile(f.selfTimes, 0.99)
		metrics = append(metrics, FunctionMetrics{
			Name:    f.name,
			File:    f.file,
			Line:    f.line,
			P75:     p75,
			P95:     p95,
			P99:     p99,
			Avg:     f.sum / time.Duration(len(f.selfTimes)),
			Sum:     f.sum,
			Count:   f.count,
			Worst:   f.worst,
			WorstAt: f.worstAt,
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].Sum != metrics[j].Sum {
			return metrics[i].Sum > metrics[j].Sum
		}
		return metrics[i].Name < metrics[j].Name
	})
	if len(metrics) > int(ma.MaxUniqueFunctions) {
		metrics = metrics[:ma.MaxUniqueFunctions]
	}
	return metrics
}

// quantile returns the nearest-rank q-quantile of sorted values.
func quantile(values []time.Duration, q float64) (time.Duration, error) {
	if len(values) == 0 {
		return 0, errors.New("cannot compute percentile from empty list")
	}
	if q <= 0 || q > 1 {
		return 0, errors.New("q must be a value between 0 and 1.0")
	}
	index := int(math.Ceil(float64(len(values))*q)) - 1
	return values[index], nil
}
