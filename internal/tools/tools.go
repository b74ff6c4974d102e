// Package tools exposes the analysis operations as function-calling
// tools. Each toolset is bound to one session so the model always
// works against that conversation's datasets and preferences.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"datachat_llm/internal/dataset"
	"datachat_llm/internal/engine"
	"datachat_llm/internal/logger"
	"datachat_llm/internal/plot"
	"datachat_llm/internal/session"
)

const previewLimit = 20

// Toolset binds the analysis tools to one session.
type Toolset struct {
	session *session.Session
	plots   *plot.Saver
}

func NewToolset(s *session.Session, plots *plot.Saver) *Toolset {
	return &Toolset{session: s, plots: plots}
}

// All returns every tool the agent can call.
func (t *Toolset) All() []tool.BaseTool {
	return []tool.BaseTool{
		t.LoadDatasetTool(),
		t.SmartExploreTool(),
		t.DescribeTool(),
		t.TopKTool(),
		t.FilterPreviewTool(),
		t.PlotTool(),
		t.SuggestAnalysisTool(),
		t.FallbackHelpTool(),
	}
}

// errorResult is returned as tool output instead of a Go error so the
// model can read the problem and retry with a suggested column.
type errorResult struct {
	Error      string   `json:"error"`
	Candidates []string `json:"candidates,omitempty"`
}

func columnError(f *dataset.Frame, term string) errorResult {
	return errorResult{
		Error:      fmt.Sprintf("no column matching %q", term),
		Candidates: dataset.Closest(f, term, 5),
	}
}

// frame fetches a dataset by name, or the active one for "".
func (t *Toolset) frame(name string) (*dataset.Frame, error) {
	return t.session.Registry.Get(name)
}

// ====================== load_dataset ======================

type loadDatasetArgs struct {
	Name string `json:"name" jsonschema:"description=Dataset name to switch to. Leave empty to list loaded datasets."`
}

type loadDatasetResult struct {
	Active   string      `json:"active,omitempty"`
	Datasets []string    `json:"datasets"`
	Rows     int         `json:"rows,omitempty"`
	Cols     int         `json:"cols,omitempty"`
	Schema   *schemaInfo `json:"schema,omitempty"`
	Message  string      `json:"message,omitempty"`
}

type schemaInfo struct {
	Numeric     []string `json:"numeric"`
	Datetime    []string `json:"datetime"`
	Categorical []string `json:"categorical"`
}

func (t *Toolset) LoadDatasetTool() tool.BaseTool {
	tl, _ := utils.InferTool("load_dataset", "Switch the active dataset or list the datasets loaded in this session",
		func(ctx context.Context, args loadDatasetArgs) (any, error) {
			names := t.session.Registry.Names()
			if len(names) == 0 {
				return loadDatasetResult{Message: "no datasets loaded yet, ask the user to upload a CSV or Excel file"}, nil
			}

			if args.Name != "" {
				if err := t.session.Registry.SetActive(args.Name); err != nil {
					return errorResult{Error: err.Error()}, nil
				}
			}

			f, err := t.frame("")
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}
			s := dataset.InferSchema(f)
			return loadDatasetResult{
				Active:   f.Name,
				Datasets: names,
				Rows:     f.NumRows(),
				Cols:     f.NumCols(),
				Schema:   &schemaInfo{Numeric: s.Numeric, Datetime: s.Datetime, Categorical: s.Categorical},
			}, nil
		})
	return tl
}

// ====================== smart_explore ======================

type smartExploreArgs struct {
	Dataset string `json:"dataset,omitempty" jsonschema:"description=Dataset name. Empty means the active dataset."`
}

type smartExploreResult struct {
	Dataset    string            `json:"dataset"`
	Rows       int               `json:"rows"`
	Cols       int               `json:"cols"`
	Schema     schemaInfo        `json:"schema"`
	KeyColumns map[string]string `json:"key_columns"`
	SampleRows []map[string]any  `json:"sample_rows"`
}

func (t *Toolset) SmartExploreTool() tool.BaseTool {
	tl, _ := utils.InferTool("smart_explore", "Explore the dataset: shape, column types and the key business columns, with a few sample rows",
		func(ctx context.Context, args smartExploreArgs) (any, error) {
			f, err := t.frame(args.Dataset)
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}

			s := dataset.InferSchema(f)
			sample := make([]map[string]any, 0, 5)
			for i := 0; i < f.NumRows() && i < 5; i++ {
				sample = append(sample, f.Row(i))
			}

			return smartExploreResult{
				Dataset:    f.Name,
				Rows:       f.NumRows(),
				Cols:       f.NumCols(),
				Schema:     schemaInfo{Numeric: s.Numeric, Datetime: s.Datetime, Categorical: s.Categorical},
				KeyColumns: dataset.SmartColumns(f),
				SampleRows: sample,
			}, nil
		})
	return tl
}

// ====================== describe ======================

type describeArgs struct {
	Dataset string   `json:"dataset,omitempty" jsonschema:"description=Dataset name. Empty means the active dataset."`
	Columns []string `json:"columns,omitempty" jsonschema:"description=Restrict the stats to these columns. Empty means all."`
}

func (t *Toolset) DescribeTool() tool.BaseTool {
	tl, _ := utils.InferTool("describe", "Summary statistics per column: count / mean / std / min / max for numbers and unique / top / freq for text",
		func(ctx context.Context, args describeArgs) (any, error) {
			f, err := t.frame(args.Dataset)
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}

			columns := make([]string, 0, len(args.Columns))
			for _, term := range args.Columns {
				col := dataset.Resolve(f, term)
				if col == "" {
					return columnError(f, term), nil
				}
				columns = append(columns, col)
			}

			table, err := engine.Describe(f, columns)
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}
			return table, nil
		})
	return tl
}

// ====================== top_k ======================

type topKArgs struct {
	GroupBy string `json:"group_by" jsonschema:"description=Column to group rows by. Business terms like customer or region are understood."`
	Metric  string `json:"metric,omitempty" jsonschema:"description=Numeric column to aggregate such as sales. Not needed for count."`
	K       int    `json:"k,omitempty" jsonschema:"description=How many groups to return. Default 5."`
	Agg     string `json:"agg,omitempty" jsonschema:"description=Aggregation: sum (default) or mean or count"`
}

type topKResult struct {
	GroupBy string         `json:"group_by"`
	Metric  string         `json:"metric,omitempty"`
	Agg     string         `json:"agg"`
	Groups  []engine.Group `json:"groups"`
}

func (t *Toolset) TopKTool() tool.BaseTool {
	tl, _ := utils.InferTool("top_k", "Rank groups by an aggregated metric and return the top K, e.g. top 5 customers by sales",
		func(ctx context.Context, args topKArgs) (any, error) {
			f, err := t.frame("")
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}

			agg, err := engine.ParseAgg(args.Agg)
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}

			groupBy := dataset.Resolve(f, args.GroupBy)
			if groupBy == "" {
				return columnError(f, args.GroupBy), nil
			}

			metric := ""
			if agg != engine.AggCount {
				metric = dataset.Resolve(f, args.Metric)
				if metric == "" {
					return columnError(f, args.Metric), nil
				}
			}

			groups, err := engine.GroupAggregate(f, nil, groupBy, metric, agg)
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}

			k := args.K
			if k <= 0 {
				k = 5
			}
			return topKResult{
				GroupBy: groupBy,
				Metric:  metric,
				Agg:     string(agg),
				Groups:  engine.TopK(groups, k),
			}, nil
		})
	return tl
}

// ====================== filter_preview ======================

type filterArgs struct {
	Query string `json:"query" jsonschema:"description=Filter expression such as region == North & sales > 1000. Operators: == != > >= < <= contains. Combine with & and | and parentheses. Quote multi-word values with single quotes."`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max preview rows. Default 20."`
}

type filterResult struct {
	Query    string           `json:"query"`
	Matched  int              `json:"matched"`
	Returned int              `json:"returned"`
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
}

func (t *Toolset) FilterPreviewTool() tool.BaseTool {
	tl, _ := utils.InferTool("filter_preview", "Filter rows with a simple expression and preview the matches",
		func(ctx context.Context, args filterArgs) (any, error) {
			f, err := t.frame("")
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}

			rows, err := engine.Filter(f, args.Query)
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}

			limit := args.Limit
			if limit <= 0 {
				limit = previewLimit
			}
			preview := rows
			if len(preview) > limit {
				preview = preview[:limit]
			}

			return filterResult{
				Query:    args.Query,
				Matched:  len(rows),
				Returned: len(preview),
				Columns:  f.ColumnNames(),
				Rows:     f.Rows(preview),
			}, nil
		})
	return tl
}

// ====================== plot ======================

type plotArgs struct {
	X     string `json:"x,omitempty" jsonschema:"description=X-axis column. Empty picks the remembered preference or the date column."`
	Y     string `json:"y" jsonschema:"description=Numeric column to plot such as sales. Not needed for count."`
	Kind  string `json:"kind,omitempty" jsonschema:"description=Chart kind: line or bar or area. Empty infers from the x-axis type."`
	Agg   string `json:"agg,omitempty" jsonschema:"description=Aggregation: sum (default) or mean or count"`
	Query string `json:"query,omitempty" jsonschema:"description=Optional filter expression applied before plotting"`
}

type plotResult struct {
	Description string           `json:"description"`
	PlotPath    string           `json:"plot_path,omitempty"`
	Columns     []string         `json:"columns"`
	Rows        []map[string]any `json:"rows"`
}

func (t *Toolset) PlotTool() tool.BaseTool {
	tl, _ := utils.InferTool("plot", "Aggregate a metric over an x-axis column and build a chart, line for dates and bar otherwise",
		func(ctx context.Context, args plotArgs) (any, error) {
			f, err := t.frame("")
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}

			agg, err := engine.ParseAgg(args.Agg)
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}

			x := t.resolveX(f, args.X)
			if x == "" {
				if args.X != "" {
					return columnError(f, args.X), nil
				}
				return errorResult{Error: "no x-axis column given and the dataset has no date column, ask the user which column to use"}, nil
			}

			y := ""
			if agg != engine.AggCount {
				y = dataset.Resolve(f, args.Y)
				if y == "" {
					return columnError(f, args.Y), nil
				}
			}

			var rows []int
			if args.Query != "" {
				rows, err = engine.Filter(f, args.Query)
				if err != nil {
					return errorResult{Error: err.Error()}, nil
				}
			}

			res, err := engine.BuildChart(f, rows, x, y, args.Kind, agg)
			if err != nil {
				return errorResult{Error: err.Error()}, nil
			}

			t.session.SetLastChart(res.Config)

			path := ""
			if t.plots != nil {
				path, err = t.plots.Save(res.Config)
				if err != nil {
					logger.Warn().Err(err).Msg("Failed to persist chart")
				}
			}

			return plotResult{
				Description: res.Description,
				PlotPath:    path,
				Columns:     res.Table.Columns,
				Rows:        res.Table.Rows,
			}, nil
		})
	return tl
}

// resolveX picks the x-axis: explicit term, then the remembered
// preference, then the first datetime column.
func (t *Toolset) resolveX(f *dataset.Frame, term string) string {
	if term != "" {
		return dataset.Resolve(f, term)
	}
	if pref := t.session.Pref("date_col"); pref != "" {
		if resolved := dataset.Resolve(f, pref); resolved != "" {
			return resolved
		}
	}
	for _, col := range f.Columns() {
		if col.Kind == dataset.KindDatetime {
			return col.Name
		}
	}
	return ""
}

// ====================== suggest_analysis ======================

type suggestArgs struct {
	Dataset string `json:"dataset,omitempty" jsonschema:"description=Dataset name. Empty means the active dataset."`
}

func (t *Toolset) SuggestAnalysisTool() tool.BaseTool {
	tl, _ := utils.InferTool("suggest_analysis", "Suggest analyses that fit the columns of the loaded dataset",
		func(ctx context.Context, args suggestArgs) (string, error) {
			f, err := t.frame(args.Dataset)
			if err != nil {
				return "No dataset is loaded yet. Ask the user to upload a CSV or Excel file first.", nil
			}

			key := dataset.SmartColumns(f)
			var lines []string
			if c, ok := key["customer"]; ok {
				if m, ok := key["sales"]; ok {
					lines = append(lines, fmt.Sprintf("- Top customers: \"top 5 %s by %s\"", c, m))
				}
			}
			if r, ok := key["region"]; ok {
				if m, ok := key["sales"]; ok {
					lines = append(lines, fmt.Sprintf("- Regional breakdown: \"%s by %s\"", m, r))
				}
			}
			if d, ok := key["date"]; ok {
				if m, ok := key["sales"]; ok {
					lines = append(lines, fmt.Sprintf("- Trend over time: \"plot %s by %s\"", m, d))
				}
			}
			if cat, ok := key["category"]; ok {
				lines = append(lines, fmt.Sprintf("- Category mix: \"count by %s\"", cat))
			}
			lines = append(lines, "- Column statistics: \"describe the data\"")
			lines = append(lines, "- Row filtering: \"filter where <column> > <value>\"")

			return "Here are some analyses that fit this dataset:\n" + strings.Join(lines, "\n"), nil
		})
	return tl
}

// ====================== fallback_help ======================

type helpArgs struct {
	Topic string `json:"topic,omitempty" jsonschema:"description=Optional topic the user asked about"`
}

func (t *Toolset) FallbackHelpTool() tool.BaseTool {
	tl, _ := utils.InferTool("fallback_help", "Explain what this assistant can do when a request does not match any analysis",
		func(ctx context.Context, args helpArgs) (string, error) {
			help := "I analyze tabular data you upload. I can:\n" +
				"- describe datasets (summary statistics per column)\n" +
				"- rank groups, e.g. \"top 5 customers by sales\"\n" +
				"- filter rows, e.g. \"filter where region == North\"\n" +
				"- plot trends and breakdowns as line or bar charts\n" +
				"- suggest analyses that fit your columns"

			f, err := t.frame("")
			if err != nil {
				return help + "\nUpload a CSV or Excel file to get started.", nil
			}

			help += "\nAvailable columns: " + strings.Join(f.ColumnNames(), ", ")
			if key := dataset.SmartColumns(f); len(key) > 0 {
				pairs := make([]string, 0, len(key))
				for _, concept := range []string{"customer", "sales", "quantity", "region", "category", "date"} {
					if col, ok := key[concept]; ok {
						pairs = append(pairs, concept+"="+col)
					}
				}
				help += "\nKey business columns: " + strings.Join(pairs, ", ")
			}
			return help, nil
		})
	return tl
}
