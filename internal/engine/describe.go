package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"datachat_llm/internal/dataset"
	"datachat_llm/pkg"
)

// Describe computes summary statistics per column. Numeric columns get
// count/mean/std/min/max; string and datetime columns get count/unique
// plus the most frequent value and its frequency. A non-empty columns
// list restricts the output to those columns.
func Describe(f *dataset.Frame, columns []string) (*pkg.Table, error) {
	selected := f.Columns()
	if len(columns) > 0 {
		selected = selected[:0:0]
		for _, name := range columns {
			col := f.Column(name)
			if col == nil {
				return nil, fmt.Errorf("unknown column %q", name)
			}
			selected = append(selected, col)
		}
	}

	table := &pkg.Table{
		Columns: []string{"column", "kind", "count", "unique", "mean", "std", "min", "max", "top", "freq"},
	}

	for _, col := range selected {
		row := map[string]any{
			"column": col.Name,
			"kind":   col.Kind.String(),
		}

		switch col.Kind {
		case dataset.KindNumeric:
			stats := numericStats(col)
			row["count"] = stats.count
			row["unique"] = nil
			row["mean"] = round4(stats.mean)
			row["std"] = round4(stats.std)
			row["min"] = stats.min
			row["max"] = stats.max
			row["top"] = nil
			row["freq"] = nil
		default:
			count, top, freq := frequency(col)
			row["count"] = count
			row["unique"] = col.Distinct()
			row["mean"] = nil
			row["std"] = nil
			if col.Kind == dataset.KindDatetime {
				mn, mx := dateRange(col)
				row["min"] = mn
				row["max"] = mx
			} else {
				row["min"] = nil
				row["max"] = nil
			}
			row["top"] = top
			row["freq"] = freq
		}

		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

type stats struct {
	count     int
	mean, std float64
	min, max  float64
}

func numericStats(col *dataset.Column) stats {
	var s stats
	s.min = math.Inf(1)
	s.max = math.Inf(-1)

	var sum float64
	for i := 0; i < col.Len(); i++ {
		if !col.IsValid(i) {
			continue
		}
		v := col.Float(i)
		s.count++
		sum += v
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}
	if s.count == 0 {
		return stats{}
	}
	s.mean = sum / float64(s.count)

	var sq float64
	for i := 0; i < col.Len(); i++ {
		if col.IsValid(i) {
			d := col.Float(i) - s.mean
			sq += d * d
		}
	}
	if s.count > 1 {
		s.std = math.Sqrt(sq / float64(s.count-1))
	}
	return s
}

func frequency(col *dataset.Column) (count int, top string, freq int) {
	counts := make(map[string]int)
	for i := 0; i < col.Len(); i++ {
		if !col.IsValid(i) {
			continue
		}
		count++
		counts[col.Display(i)]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > freq {
			top = k
			freq = counts[k]
		}
	}
	return count, top, freq
}

func dateRange(col *dataset.Column) (string, string) {
	first := true
	var mn, mx int
	for i := 0; i < col.Len(); i++ {
		if !col.IsValid(i) {
			continue
		}
		if first {
			mn, mx = i, i
			first = false
			continue
		}
		if col.Time(i).Before(col.Time(mn)) {
			mn = i
		}
		if col.Time(i).After(col.Time(mx)) {
			mx = i
		}
	}
	if first {
		return "", ""
	}
	return col.Display(mn), col.Display(mx)
}

func round4(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 4, 64), 64)
	return f
}
