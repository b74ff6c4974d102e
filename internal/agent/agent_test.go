package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datachat_llm/internal/session"
	"datachat_llm/internal/tools"
)

// scriptedModel replays canned responses, simulating a model that
// first calls a tool and then answers.
type scriptedModel struct {
	responses []*schema.Message
	calls     int
	bound     []*schema.ToolInfo
}

func (m *scriptedModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.calls >= len(m.responses) {
		return nil, errors.New("no scripted response left")
	}
	out := m.responses[m.calls]
	m.calls++
	return out, nil
}

func (m *scriptedModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (m *scriptedModel) WithTools(ts []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.bound = ts
	return m, nil
}

func toolCallMessage(name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "call-1", Function: schema.FunctionCall{Name: name, Arguments: args}},
		},
	}
}

func TestRunDirectAnswer(t *testing.T) {
	m := &scriptedModel{responses: []*schema.Message{
		schema.AssistantMessage("hello!", nil),
	}}

	s := session.NewStore(time.Hour).GetOrCreate("t")
	ts := tools.NewToolset(s, nil)

	a := New(m, 3)
	reply, err := a.Run(context.Background(), "", "hi", ts.All())
	require.NoError(t, err)
	assert.Equal(t, "hello!", reply)
	assert.Len(t, m.bound, 8)
}

func TestRunWithToolCall(t *testing.T) {
	m := &scriptedModel{responses: []*schema.Message{
		toolCallMessage("fallback_help", `{}`),
		schema.AssistantMessage("you can upload a CSV", nil),
	}}

	s := session.NewStore(time.Hour).GetOrCreate("t")
	ts := tools.NewToolset(s, nil)

	a := New(m, 3)
	reply, err := a.Run(context.Background(), "", "what can you do?", ts.All())
	require.NoError(t, err)
	assert.Equal(t, "you can upload a CSV", reply)
	assert.Equal(t, 2, m.calls)
}

func TestRunUnknownTool(t *testing.T) {
	m := &scriptedModel{responses: []*schema.Message{
		toolCallMessage("bogus", `{}`),
		schema.AssistantMessage("sorry", nil),
	}}

	s := session.NewStore(time.Hour).GetOrCreate("t")
	ts := tools.NewToolset(s, nil)

	a := New(m, 3)
	reply, err := a.Run(context.Background(), "", "hi", ts.All())
	require.NoError(t, err)
	assert.Equal(t, "sorry", reply)
}

func TestRunIterationBound(t *testing.T) {
	loop := toolCallMessage("fallback_help", `{}`)
	m := &scriptedModel{responses: []*schema.Message{loop, loop, loop}}

	s := session.NewStore(time.Hour).GetOrCreate("t")
	ts := tools.NewToolset(s, nil)

	a := New(m, 3)
	_, err := a.Run(context.Background(), "", "hi", ts.All())
	assert.Error(t, err)
}
