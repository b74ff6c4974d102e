// Package agent runs the function-calling loop: the chat model picks
// tools, the loop executes them and feeds results back until the model
// produces a plain answer.
package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"datachat_llm/internal/logger"
)

// Agent answers one user turn with a bounded number of tool rounds.
type Agent struct {
	model         model.ToolCallingChatModel
	maxIterations int
}

func New(m model.ToolCallingChatModel, maxIterations int) *Agent {
	if maxIterations <= 0 {
		maxIterations = 6
	}
	return &Agent{model: m, maxIterations: maxIterations}
}

// Run executes the conversation turn. History is the prior transcript,
// contextBlock a rendered summary of it, and tools the session-bound
// toolset. The returned string is the assistant's final reply.
func (a *Agent) Run(ctx context.Context, contextBlock, userMessage string, tools []tool.BaseTool) (string, error) {
	toolInfos := make([]*schema.ToolInfo, 0, len(tools))
	byName := make(map[string]tool.InvokableTool, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to get tool info: %w", err)
		}
		inv, ok := t.(tool.InvokableTool)
		if !ok {
			return "", fmt.Errorf("tool %s is not invokable", info.Name)
		}
		toolInfos = append(toolInfos, info)
		byName[info.Name] = inv
	}

	tcm, err := a.model.WithTools(toolInfos)
	if err != nil {
		return "", fmt.Errorf("failed to bind tools: %w", err)
	}

	msgs := []*schema.Message{schema.SystemMessage(systemPrompt)}
	if contextBlock != "" {
		msgs = append(msgs, schema.SystemMessage(contextBlock))
	}
	msgs = append(msgs, schema.UserMessage(userMessage))

	for i := 0; i < a.maxIterations; i++ {
		out, err := tcm.Generate(ctx, msgs)
		if err != nil {
			return "", fmt.Errorf("model generation failed: %w", err)
		}

		if len(out.ToolCalls) == 0 {
			return out.Content, nil
		}

		msgs = append(msgs, out)
		for _, call := range out.ToolCalls {
			inv, ok := byName[call.Function.Name]
			if !ok {
				msgs = append(msgs, schema.ToolMessage(
					fmt.Sprintf(`{"error":"unknown tool %s"}`, call.Function.Name), call.ID))
				continue
			}

			logger.Debug().
				Str("tool", call.Function.Name).
				Str("arguments", call.Function.Arguments).
				Msg("Executing tool call")

			result, err := inv.InvokableRun(ctx, call.Function.Arguments)
			if err != nil {
				result = fmt.Sprintf(`{"error":%q}`, err.Error())
			}
			msgs = append(msgs, schema.ToolMessage(result, call.ID))
		}
	}

	return "", fmt.Errorf("tool loop did not converge after %d iterations", a.maxIterations)
}
