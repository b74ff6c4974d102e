package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datachat_llm/internal/dataset"
)

func ordersFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	csv := "order_date,customer,sales,qty,region\n" +
		"2024-01-05,Alice,100,1,North\n" +
		"2024-01-06,Bob,200,2,South\n" +
		"2024-01-07,Alice,300,3,North\n" +
		"2024-01-08,Carol,50,1,East\n"
	f, err := dataset.ParseCSV([]byte(csv), "orders")
	require.NoError(t, err)
	return f
}

func TestGroupAggregateSum(t *testing.T) {
	f := ordersFrame(t)

	groups, err := GroupAggregate(f, nil, "customer", "sales", AggSum)
	require.NoError(t, err)

	byKey := map[string]float64{}
	for _, g := range groups {
		byKey[g.Key] = g.Value
	}
	assert.Equal(t, 400.0, byKey["Alice"])
	assert.Equal(t, 200.0, byKey["Bob"])
	assert.Equal(t, 50.0, byKey["Carol"])
}

func TestGroupAggregateMeanAndCount(t *testing.T) {
	f := ordersFrame(t)

	groups, err := GroupAggregate(f, nil, "region", "sales", AggMean)
	require.NoError(t, err)
	byKey := map[string]float64{}
	for _, g := range groups {
		byKey[g.Key] = g.Value
	}
	assert.Equal(t, 200.0, byKey["North"])

	groups, err = GroupAggregate(f, nil, "region", "", AggCount)
	require.NoError(t, err)
	byKey = map[string]float64{}
	for _, g := range groups {
		byKey[g.Key] = g.Value
	}
	assert.Equal(t, 2.0, byKey["North"])
	assert.Equal(t, 1.0, byKey["East"])
}

func TestGroupAggregateErrors(t *testing.T) {
	f := ordersFrame(t)

	_, err := GroupAggregate(f, nil, "nope", "sales", AggSum)
	assert.Error(t, err)

	_, err = GroupAggregate(f, nil, "region", "customer", AggSum)
	assert.Error(t, err)
}

func TestTopK(t *testing.T) {
	groups := []Group{
		{Key: "b", Value: 10},
		{Key: "a", Value: 30},
		{Key: "c", Value: 20},
		{Key: "d", Value: 20},
	}

	top := TopK(groups, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].Key)
	assert.Equal(t, "c", top[1].Key) // value tie broken by key

	assert.Len(t, TopK(groups, 0), 4)
}

func TestFilterComparisons(t *testing.T) {
	f := ordersFrame(t)

	rows, err := Filter(f, `sales > 100`)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, rows)

	rows, err = Filter(f, `region == "North"`)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, rows)

	rows, err = Filter(f, `customer contains ali`)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, rows)

	rows, err = Filter(f, `order_date >= 2024-01-07`)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, rows)
}

func TestFilterCombinators(t *testing.T) {
	f := ordersFrame(t)

	rows, err := Filter(f, `region == North & sales > 100`)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, rows)

	rows, err = Filter(f, `region == East | sales >= 300`)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, rows)

	// & binds tighter than |
	rows, err = Filter(f, `region == East | region == North & qty > 1`)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, rows)

	rows, err = Filter(f, `(region == East | region == North) & qty == 1`)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, rows)
}

func TestFilterNoMatches(t *testing.T) {
	f := ordersFrame(t)

	rows, err := Filter(f, `region == West`)
	require.NoError(t, err)
	require.NotNil(t, rows, "empty result must stay distinguishable from no restriction")
	assert.Empty(t, rows)

	// zero matching rows aggregate to zero groups, not to the full frame
	groups, err := GroupAggregate(f, rows, "region", "sales", AggSum)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupAggregateMeanSkipsMissingMetric(t *testing.T) {
	csv := "region,sales\nNorth,100\nNorth,\nNorth,200\n"
	f, err := dataset.ParseCSV([]byte(csv), "gaps")
	require.NoError(t, err)

	groups, err := GroupAggregate(f, nil, "region", "sales", AggMean)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 150.0, groups[0].Value)
	assert.Equal(t, 3, groups[0].Count)
}

func TestFilterErrors(t *testing.T) {
	f := ordersFrame(t)

	_, err := Filter(f, `bogus_col > 5`)
	assert.Error(t, err)

	_, err = Filter(f, `sales >`)
	assert.Error(t, err)

	_, err = Filter(f, `sales > abc`)
	assert.Error(t, err)

	_, err = Filter(f, `customer > "a"`)
	assert.Error(t, err)

	_, err = Filter(f, `(sales > 5`)
	assert.Error(t, err)

	_, err = Filter(f, `sales = 5`)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	f := ordersFrame(t)

	table, err := Describe(f, nil)
	require.NoError(t, err)
	require.Len(t, table.Rows, 5)

	byCol := map[string]map[string]any{}
	for _, row := range table.Rows {
		byCol[row["column"].(string)] = row
	}

	sales := byCol["sales"]
	assert.Equal(t, 4, sales["count"])
	assert.Equal(t, 162.5, sales["mean"])
	assert.Equal(t, 50.0, sales["min"])
	assert.Equal(t, 300.0, sales["max"])

	region := byCol["region"]
	assert.Equal(t, 3, region["unique"])
	assert.Equal(t, "North", region["top"])
	assert.Equal(t, 2, region["freq"])

	date := byCol["order_date"]
	assert.Equal(t, "2024-01-05", date["min"])
	assert.Equal(t, "2024-01-08", date["max"])
}

func TestDescribeSelectedColumns(t *testing.T) {
	f := ordersFrame(t)

	table, err := Describe(f, []string{"sales"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "sales", table.Rows[0]["column"])

	_, err = Describe(f, []string{"nope"})
	assert.Error(t, err)
}

func TestBuildChartZeroMatchedRows(t *testing.T) {
	f := ordersFrame(t)

	rows, err := Filter(f, `region == West`)
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = BuildChart(f, rows, "region", "sales", "", AggSum)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows matched")
}

func TestBuildChartKindOverride(t *testing.T) {
	f := ordersFrame(t)

	res, err := BuildChart(f, nil, "order_date", "sales", "area", AggSum)
	require.NoError(t, err)
	assert.Equal(t, "area", res.Config.Kind)

	_, err = BuildChart(f, nil, "region", "sales", "pie", AggSum)
	assert.Error(t, err)
}

func TestBuildChartBar(t *testing.T) {
	f := ordersFrame(t)

	res, err := BuildChart(f, nil, "region", "sales", "", AggSum)
	require.NoError(t, err)

	assert.Equal(t, "bar", res.Config.Kind)
	require.Len(t, res.Config.Series, 1)
	data := res.Config.Series[0].Data
	require.Len(t, data, 3)
	assert.Equal(t, "North", data[0].Label) // sorted by value descending
	assert.Equal(t, 400.0, data[0].Value)
	assert.NotEmpty(t, res.Description)
	assert.Len(t, res.Table.Rows, 3)
}

func TestBuildChartLine(t *testing.T) {
	f := ordersFrame(t)

	res, err := BuildChart(f, nil, "order_date", "sales", "", AggSum)
	require.NoError(t, err)

	assert.Equal(t, "line", res.Config.Kind)
	data := res.Config.Series[0].Data
	require.Len(t, data, 4)
	assert.Equal(t, "2024-01-05", data[0].Label)
	assert.Equal(t, "2024-01-08", data[3].Label)
}

func TestBuildChartFilteredRows(t *testing.T) {
	f := ordersFrame(t)

	rows, err := Filter(f, `region == North`)
	require.NoError(t, err)

	res, err := BuildChart(f, rows, "customer", "sales", "", AggSum)
	require.NoError(t, err)
	require.Len(t, res.Config.Series[0].Data, 1)
	assert.Equal(t, "Alice", res.Config.Series[0].Data[0].Label)
	assert.Equal(t, 400.0, res.Config.Series[0].Data[0].Value)
}
