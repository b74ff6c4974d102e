package engine

import (
	"fmt"
	"sort"

	"datachat_llm/internal/dataset"
)

// Agg is a supported aggregation function.
type Agg string

const (
	AggSum   Agg = "sum"
	AggMean  Agg = "mean"
	AggCount Agg = "count"
)

// ParseAgg validates a user-supplied aggregation name.
func ParseAgg(s string) (Agg, error) {
	switch Agg(s) {
	case AggSum, AggMean, AggCount:
		return Agg(s), nil
	case "":
		return AggSum, nil
	default:
		return "", fmt.Errorf("unsupported aggregation %q, use sum, mean or count", s)
	}
}

// Group is one row of an aggregation result.
type Group struct {
	Key   string
	Value float64
	Count int
}

// GroupAggregate groups rows by one column and aggregates a metric
// column over each group. The metric column is ignored for count.
// Rows with a missing group key are skipped. A nil rows slice means
// no restriction; an empty one means zero rows.
func GroupAggregate(f *dataset.Frame, rows []int, groupBy, metric string, agg Agg) ([]Group, error) {
	gc := f.Column(groupBy)
	if gc == nil {
		return nil, fmt.Errorf("unknown column %q", groupBy)
	}

	var mc *dataset.Column
	if agg != AggCount {
		mc = f.Column(metric)
		if mc == nil {
			return nil, fmt.Errorf("unknown column %q", metric)
		}
		if mc.Kind != dataset.KindNumeric {
			return nil, fmt.Errorf("column %q is not numeric", metric)
		}
	}

	if rows == nil {
		rows = allRows(f)
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	metricCounts := make(map[string]int)
	var order []string

	for _, i := range rows {
		if !gc.IsValid(i) {
			continue
		}
		key := gc.Display(i)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
		if mc != nil && mc.IsValid(i) {
			sums[key] += mc.Float(i)
			metricCounts[key]++
		}
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		g := Group{Key: key, Count: counts[key]}
		switch agg {
		case AggSum:
			g.Value = sums[key]
		case AggMean:
			// missing metric cells do not dilute the mean
			if metricCounts[key] > 0 {
				g.Value = sums[key] / float64(metricCounts[key])
			}
		case AggCount:
			g.Value = float64(counts[key])
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// TopK sorts groups by value descending, breaking ties by key, and
// keeps the first k. k <= 0 keeps everything.
func TopK(groups []Group, k int) []Group {
	sorted := make([]Group, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Value != sorted[j].Value {
			return sorted[i].Value > sorted[j].Value
		}
		return sorted[i].Key < sorted[j].Key
	})
	if k > 0 && len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

func allRows(f *dataset.Frame) []int {
	rows := make([]int, f.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return rows
}
