package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesFrame(t *testing.T) *Frame {
	t.Helper()
	csv := "order_date,customer_name,total_revenue,qty,region\n" +
		"2024-01-05,Alice,100,1,North\n" +
		"2024-01-06,Bob,200,2,South\n"
	f, err := ParseCSV([]byte(csv), "orders")
	require.NoError(t, err)
	return f
}

func TestSmartColumns(t *testing.T) {
	f := salesFrame(t)

	cols := SmartColumns(f)
	assert.Equal(t, "customer_name", cols["customer"])
	assert.Equal(t, "total_revenue", cols["sales"])
	assert.Equal(t, "qty", cols["quantity"])
	assert.Equal(t, "region", cols["region"])
	assert.Equal(t, "order_date", cols["date"])
}

func TestResolve(t *testing.T) {
	f := salesFrame(t)

	// exact, case-insensitive
	assert.Equal(t, "region", Resolve(f, "Region"))

	// concept alias
	assert.Equal(t, "total_revenue", Resolve(f, "revenue"))
	assert.Equal(t, "customer_name", Resolve(f, "customers"))

	// fuzzy
	assert.Equal(t, "customer_name", Resolve(f, "customer_nam"))

	// hopeless
	assert.Equal(t, "", Resolve(f, "zzzzzz"))
	assert.Equal(t, "", Resolve(f, ""))
}

func TestClosest(t *testing.T) {
	f := salesFrame(t)

	got := Closest(f, "regio", 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "region", got[0])

	assert.Empty(t, Closest(f, "xqzw", 5))
}
