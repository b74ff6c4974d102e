package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datachat_llm/internal/dataset"
	"datachat_llm/internal/session"
)

func TestDetect(t *testing.T) {
	cases := map[string]Intent{
		"I want to upload a file":         IntentUpload,
		"here is my csv":                  IntentUpload,
		"top 5 customers":                 IntentTopK,
		"sales by region":                 IntentTopK,
		"plot sales over time":            IntentPlot,
		"show me a chart":                 IntentPlot,
		"describe the data":               IntentDescribe,
		"give me summary statistics":      IntentDescribe,
		"filter to the north region":      IntentFilter,
		"rows where sales > 100":          IntentFilter,
		"hello there":                     IntentChat,
		"what can you do with this tool?": IntentChat,
	}
	for msg, want := range cases {
		assert.Equal(t, want, Detect(msg), "message %q", msg)
	}
}

func TestClarifyPlot(t *testing.T) {
	st := session.NewStore(time.Hour)

	// no dataset yet, let the tools explain
	s := st.GetOrCreate("a")
	assert.Empty(t, ClarifyPlot(s, IntentPlot))

	// dataset without a date column needs clarification
	f, err := dataset.ParseCSV([]byte("region,sales\nNorth,1\nSouth,2\n"), "d")
	require.NoError(t, err)
	s.Registry.Put(f)
	assert.NotEmpty(t, ClarifyPlot(s, IntentPlot))
	assert.Empty(t, ClarifyPlot(s, IntentChat))

	// remembered preference suppresses the question
	s.SetPref("date_col", "region")
	assert.Empty(t, ClarifyPlot(s, IntentPlot))

	// dataset with a date column never asks
	s2 := st.GetOrCreate("b")
	f2, err := dataset.ParseCSV([]byte("order_date,sales\n2024-01-05,1\n2024-01-06,2\n"), "d2")
	require.NoError(t, err)
	s2.Registry.Put(f2)
	assert.Empty(t, ClarifyPlot(s2, IntentPlot))
}
