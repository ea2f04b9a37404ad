package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AitoDotAI/aito-demo/internal/domain"
)

// Proxy defaults.
const (
	ProxyTemperature = 0.7
	ProxyMaxTokens   = 1000
)

// ProxyRequest is a browser chat completion request.
type ProxyRequest struct {
	Messages    []openai.ChatCompletionMessage `json:"messages"`
	Tools       []openai.Tool                  `json:"tools,omitempty"`
	Temperature *float32                       `json:"temperature,omitempty"`
	MaxTokens   *int                           `json:"max_tokens,omitempty"`
}

// Proxy forwards a completion request to the deployment and returns the raw provider response.
func (c *Client) Proxy(ctx context.Context, pr ProxyRequest) (openai.ChatCompletionResponse, error) {
	if c.initErr != nil {
		return openai.ChatCompletionResponse{}, c.initErr
	}
	if pr.Messages == nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf(
			"%w: messages array is required", domain.ErrInvalidRequest)
	}

	req := openai.ChatCompletionRequest{
		Messages:    pr.Messages,
		Temperature: ProxyTemperature,
		MaxTokens:   ProxyMaxTokens,
	}
	if pr.Temperature != nil {
		req.Temperature = *pr.Temperature
	}
	if pr.MaxTokens != nil {
		req.MaxTokens = *pr.MaxTokens
	}
	if len(pr.Tools) > 0 {
		req.Tools = pr.Tools
		req.ToolChoice = "auto"
	}
	return c.create(ctx, req)
}
