package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	domchat "github.com/AitoDotAI/aito-demo/internal/domain/chat"
)

// Complete returns the next assistant message for msgs, offering tools when present.
func (c *Client) Complete(
	ctx context.Context, msgs []domchat.Message, tools []domchat.ToolDefinition,
) (domchat.Message, error) {
	req := openai.ChatCompletionRequest{
		Messages:    toWireMessages(msgs),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if len(tools) > 0 {
		req.Tools = toWireTools(tools)
		req.ToolChoice = "auto"
	}

	resp, err := c.create(ctx, req)
	if err != nil {
		return domchat.Message{}, err
	}
	if len(resp.Choices) == 0 {
		return domchat.Message{}, fmt.Errorf("empty chat completion response: %w", domain.ErrLLMProvider)
	}
	return fromWireMessage(resp.Choices[0].Message), nil
}

func toWireMessages(msgs []domchat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		wm := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		if m.Role == domchat.RoleTool {
			wm.Name = m.Name
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out = append(out, wm)
	}
	return out
}

func toWireTools(defs []domchat.ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, len(defs))
	for i, d := range defs {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		}
	}
	return out
}

func fromWireMessage(m openai.ChatCompletionMessage) domchat.Message {
	calls := make([]domchat.ToolCall, 0, len(m.ToolCalls))
	for _, tc := range m.ToolCalls {
		calls = append(calls, domchat.ToolCall{
			ID:   tc.ID,
			Type: domchat.ToolTypeFunction,
			Function: domchat.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return domchat.NewAssistantMessage(m.Content, calls...)
}
