package tools

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datachat_llm/internal/dataset"
	"datachat_llm/internal/session"
)

func fixtureToolset(t *testing.T) (*Toolset, *session.Session) {
	t.Helper()

	csv := "order_date,customer,sales,region\n" +
		"2024-01-05,Alice,100,North\n" +
		"2024-01-06,Bob,200,South\n" +
		"2024-01-07,Alice,300,North\n"
	f, err := dataset.ParseCSV([]byte(csv), "orders")
	require.NoError(t, err)

	s := session.NewStore(time.Hour).GetOrCreate("test")
	s.Registry.Put(f)
	return NewToolset(s, nil), s
}

func run(t *testing.T, tl tool.BaseTool, args string) map[string]any {
	t.Helper()

	inv, ok := tl.(tool.InvokableTool)
	require.True(t, ok)

	out, err := inv.InvokableRun(context.Background(), args)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, sonic.UnmarshalString(out, &result))
	return result
}

func TestToolsetAll(t *testing.T) {
	ts, _ := fixtureToolset(t)

	tls := ts.All()
	assert.Len(t, tls, 8)

	seen := map[string]bool{}
	for _, tl := range tls {
		info, err := tl.Info(context.Background())
		require.NoError(t, err)
		seen[info.Name] = true
	}
	for _, name := range []string{"load_dataset", "smart_explore", "describe", "top_k", "filter_preview", "plot", "suggest_analysis", "fallback_help"} {
		assert.True(t, seen[name], "missing tool %s", name)
	}
}

func TestLoadDatasetTool(t *testing.T) {
	ts, _ := fixtureToolset(t)

	result := run(t, ts.LoadDatasetTool(), `{}`)
	assert.Equal(t, "orders", result["active"])
	assert.EqualValues(t, 3, result["rows"])

	result = run(t, ts.LoadDatasetTool(), `{"name":"missing"}`)
	assert.Contains(t, result["error"], "missing")
}

func TestLoadDatasetToolEmptySession(t *testing.T) {
	s := session.NewStore(time.Hour).GetOrCreate("empty")
	ts := NewToolset(s, nil)

	result := run(t, ts.LoadDatasetTool(), `{}`)
	assert.Contains(t, result["message"], "upload")
}

func TestSmartExploreTool(t *testing.T) {
	ts, _ := fixtureToolset(t)

	result := run(t, ts.SmartExploreTool(), `{}`)
	assert.EqualValues(t, 3, result["rows"])

	key := result["key_columns"].(map[string]any)
	assert.Equal(t, "customer", key["customer"])
	assert.Equal(t, "sales", key["sales"])
	assert.Equal(t, "order_date", key["date"])

	assert.Len(t, result["sample_rows"], 3)
}

func TestTopKTool(t *testing.T) {
	ts, _ := fixtureToolset(t)

	result := run(t, ts.TopKTool(), `{"group_by":"customer","metric":"revenue","k":2}`)
	groups := result["groups"].([]any)
	require.Len(t, groups, 2)

	first := groups[0].(map[string]any)
	assert.Equal(t, "Alice", first["Key"])
	assert.EqualValues(t, 400, first["Value"])
}

func TestTopKToolBadColumn(t *testing.T) {
	ts, _ := fixtureToolset(t)

	result := run(t, ts.TopKTool(), `{"group_by":"custmr","metric":"zzzz"}`)
	if _, hasErr := result["error"]; hasErr {
		assert.NotEmpty(t, result["error"])
	} else {
		t.Fatalf("expected error payload, got %v", result)
	}
}

func TestFilterPreviewTool(t *testing.T) {
	ts, _ := fixtureToolset(t)

	result := run(t, ts.FilterPreviewTool(), `{"query":"region == North"}`)
	assert.EqualValues(t, 2, result["matched"])
	assert.Len(t, result["rows"], 2)

	result = run(t, ts.FilterPreviewTool(), `{"query":"sales >"}`)
	assert.NotEmpty(t, result["error"])
}

func TestPlotTool(t *testing.T) {
	ts, s := fixtureToolset(t)

	result := run(t, ts.PlotTool(), `{"y":"sales"}`)
	require.NotContains(t, result, "error")
	assert.Contains(t, result["description"], "line")

	chart := s.TakeLastChart()
	require.NotNil(t, chart)
	assert.Equal(t, "line", chart.Kind)
	assert.Equal(t, "order_date", chart.XAxis)
}

func TestPlotToolExplicitAxis(t *testing.T) {
	ts, s := fixtureToolset(t)

	result := run(t, ts.PlotTool(), `{"x":"region","y":"sales"}`)
	require.NotContains(t, result, "error")

	chart := s.TakeLastChart()
	require.NotNil(t, chart)
	assert.Equal(t, "bar", chart.Kind)
}

func TestPlotToolZeroMatchFilter(t *testing.T) {
	ts, s := fixtureToolset(t)

	result := run(t, ts.PlotTool(), `{"x":"region","y":"sales","query":"region == West"}`)
	assert.Contains(t, result["error"], "no rows matched")
	assert.Nil(t, s.TakeLastChart())
}

func TestPlotToolPreferredAxis(t *testing.T) {
	ts, s := fixtureToolset(t)
	s.SetPref("date_col", "region")

	run(t, ts.PlotTool(), `{"y":"sales"}`)
	chart := s.TakeLastChart()
	require.NotNil(t, chart)
	assert.Equal(t, "region", chart.XAxis)
}

func TestSuggestAnalysisTool(t *testing.T) {
	ts, _ := fixtureToolset(t)

	inv := ts.SuggestAnalysisTool().(tool.InvokableTool)
	out, err := inv.InvokableRun(context.Background(), `{}`)
	require.NoError(t, err)
	assert.Contains(t, out, "top 5")
	assert.Contains(t, out, "describe")
}

func TestFallbackHelpTool(t *testing.T) {
	ts, _ := fixtureToolset(t)

	inv := ts.FallbackHelpTool().(tool.InvokableTool)
	out, err := inv.InvokableRun(context.Background(), `{}`)
	require.NoError(t, err)
	assert.Contains(t, out, "upload")
}
