package engine

import (
	"fmt"
	"sort"

	"datachat_llm/internal/dataset"
	"datachat_llm/pkg"
)

const chartTableLimit = 50

// ChartResult bundles everything a chart answer needs: the renderable
// config, a preview table capped at a readable size, and a textual
// description the model can fold into its reply.
type ChartResult struct {
	Config      *pkg.ChartConfig
	Table       *pkg.Table
	Description string
}

// BuildChart aggregates a metric over an x-axis column and shapes the
// result as a single-series chart. Datetime axes are sorted
// chronologically and drawn as lines; everything else is sorted by
// value descending and drawn as bars. A non-empty kind (line, bar or
// area) overrides the inferred chart type.
func BuildChart(f *dataset.Frame, rows []int, x, y, kind string, agg Agg) (*ChartResult, error) {
	xc := f.Column(x)
	if xc == nil {
		return nil, fmt.Errorf("unknown column %q", x)
	}

	switch kind {
	case "", "line", "bar", "area":
	default:
		return nil, fmt.Errorf("unsupported chart kind %q, use line, bar or area", kind)
	}

	groups, err := GroupAggregate(f, rows, x, y, agg)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("nothing to plot, no rows matched")
	}

	if xc.Kind == dataset.KindDatetime {
		if kind == "" {
			kind = "line"
		}
		// group keys are ISO dates, lexical order is chronological
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	} else {
		if kind == "" {
			kind = "bar"
		}
		groups = TopK(groups, 0)
	}

	seriesName := fmt.Sprintf("%s of %s", agg, y)
	if agg == AggCount {
		seriesName = "count"
	}

	points := make([]pkg.ChartPoint, len(groups))
	for i, g := range groups {
		points[i] = pkg.ChartPoint{Label: g.Key, Value: g.Value}
	}

	config := &pkg.ChartConfig{
		Kind:   kind,
		Title:  fmt.Sprintf("%s by %s", seriesName, x),
		XAxis:  x,
		YAxis:  seriesName,
		Series: []pkg.ChartSeries{{Name: seriesName, Data: points}},
	}

	table := &pkg.Table{Columns: []string{x, seriesName}}
	for i, g := range groups {
		if i >= chartTableLimit {
			break
		}
		table.Rows = append(table.Rows, map[string]any{x: g.Key, seriesName: g.Value})
	}

	desc := describeChart(groups, kind, seriesName, x)
	return &ChartResult{Config: config, Table: table, Description: desc}, nil
}

func describeChart(groups []Group, kind, seriesName, x string) string {
	lo, hi := groups[0], groups[0]
	for _, g := range groups[1:] {
		if g.Value < lo.Value {
			lo = g
		}
		if g.Value > hi.Value {
			hi = g
		}
	}
	return fmt.Sprintf("%s chart of %s by %s with %d points. Highest: %s (%.2f). Lowest: %s (%.2f).",
		kind, seriesName, x, len(groups), hi.Key, hi.Value, lo.Key, lo.Value)
}
