package dataset

import (
	"datachat_llm/pkg"
)

// InferSchema buckets the frame's columns into numeric, datetime and
// categorical groups for generic behavior across any uploaded file.
// Low-cardinality string columns count as categorical: distinct values
// must not exceed max(50, 20% of rows).
func InferSchema(f *Frame) *pkg.Schema {
	schema := &pkg.Schema{
		Numeric:     []string{},
		Datetime:    []string{},
		Categorical: []string{},
	}

	limit := f.NumRows() / 5
	if limit < 50 {
		limit = 50
	}

	for _, col := range f.Columns() {
		switch col.Kind {
		case KindNumeric:
			schema.Numeric = append(schema.Numeric, col.Name)
		case KindDatetime:
			schema.Datetime = append(schema.Datetime, col.Name)
		default:
			if col.Distinct() <= limit {
				schema.Categorical = append(schema.Categorical, col.Name)
			}
		}
	}

	return schema
}
