package session

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datachat_llm/pkg"
)

func TestStoreGetOrCreate(t *testing.T) {
	st := NewStore(time.Hour)

	s1 := st.GetOrCreate("abc")
	s2 := st.GetOrCreate("abc")
	assert.Same(t, s1, s2)

	assert.Nil(t, st.Get("missing"))

	st.Delete("abc")
	assert.Nil(t, st.Get("abc"))
}

func TestStoreExpiry(t *testing.T) {
	st := NewStore(10 * time.Millisecond)

	s1 := st.GetOrCreate("abc")
	time.Sleep(25 * time.Millisecond)

	assert.Nil(t, st.Get("abc"))
	s2 := st.GetOrCreate("abc")
	assert.NotSame(t, s1, s2)

	st.GetOrCreate("other")
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, 2, st.Sweep())
}

func TestSessionPrefsAndChart(t *testing.T) {
	st := NewStore(0)
	s := st.GetOrCreate("abc")

	assert.Empty(t, s.Pref("date_col"))
	s.SetPref("date_col", "order_date")
	assert.Equal(t, "order_date", s.Pref("date_col"))

	assert.Nil(t, s.TakeLastChart())
	s.SetLastChart(&pkg.ChartConfig{Kind: "bar"})
	assert.NotNil(t, s.TakeLastChart())
	assert.Nil(t, s.TakeLastChart(), "chart is delivered once")
}

func TestMemoryHistoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryHistoryRepository()

	h, err := repo.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)

	require.NoError(t, repo.AddMessage(ctx, "abc", schema.UserMessage("hello")))
	require.NoError(t, repo.AddMessage(ctx, "abc", schema.AssistantMessage("hi there", nil)))

	h, err = repo.Load(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "hello", h.Messages[0].Content)

	require.NoError(t, repo.Clear(ctx, "abc"))
	h, err = repo.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)
}

func TestBuildContext(t *testing.T) {
	msgs := []*schema.Message{
		schema.UserMessage("one"),
		schema.AssistantMessage("two", nil),
		schema.UserMessage("three"),
	}

	got := BuildContext(msgs, 2)
	assert.NotContains(t, got, "one")
	assert.Contains(t, got, "AssistantMessage(two)")
	assert.Contains(t, got, "UserMessage(three)")
	assert.Contains(t, got, "<conversation_context>")

	assert.Contains(t, BuildContext(msgs, 0), "UserMessage(one)")
}
