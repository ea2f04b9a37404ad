// Package openai talks to an Azure OpenAI chat deployment.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/metrics"
)

// Defaults for an Azure deployment.
const (
	DefaultDeployment  = "gpt-4"
	DefaultAPIVersion  = "2024-02-15-preview"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Config holds the Azure OpenAI settings.
type Config struct {
	APIKey string
	// Endpoint is the full resource URL. It wins over ResourceName.
	Endpoint     string
	ResourceName string
	Deployment   string
	APIVersion   string
	Temperature  float32
	MaxTokens    int
	Logger       *zap.Logger
}

// BaseURL resolves the resource URL from Endpoint or ResourceName.
func (c *Config) BaseURL() (string, error) {
	switch {
	case c.Endpoint != "":
		return strings.TrimSuffix(c.Endpoint, "/"), nil
	case c.ResourceName != "":
		return fmt.Sprintf("https://%s.openai.azure.com", c.ResourceName), nil
	default:
		return "", fmt.Errorf("%w: either model url or resource name must be provided", domain.ErrLLMNotConfigured)
	}
}

// Client is an Azure OpenAI chat client. A client built from an incomplete
// config is usable but every call returns domain.ErrLLMNotConfigured.
type Client struct {
	client      *openai.Client
	deployment  string
	temperature float32
	maxTokens   int
	initErr     error
	logger      *zap.Logger
}

// New creates a client and logs which settings are present.
func New(cfg *Config) *Client {
	c := &Client{
		deployment:  cfg.Deployment,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.deployment == "" {
		c.deployment = DefaultDeployment
	}
	if c.temperature == 0 {
		c.temperature = DefaultTemperature
	}
	if c.maxTokens == 0 {
		c.maxTokens = DefaultMaxTokens
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	baseURL, err := cfg.BaseURL()
	if err == nil && cfg.APIKey == "" {
		err = fmt.Errorf("%w: api key is missing", domain.ErrLLMNotConfigured)
	}

	c.logger.Info("azure openai configuration",
		zap.String("deployment", c.deployment),
		zap.String("api_version", apiVersion),
		zap.String("model_url", configured(cfg.Endpoint)),
		zap.String("resource_name", configured(cfg.ResourceName)),
		zap.String("api_key", configured(cfg.APIKey)),
		zap.Bool("ready", err == nil),
	)
	if err != nil {
		c.initErr = err
		return c
	}

	clientCfg := openai.DefaultAzureConfig(cfg.APIKey, baseURL)
	clientCfg.APIVersion = apiVersion
	deployment := c.deployment
	clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
	c.client = openai.NewClientWithConfig(clientCfg)
	return c
}

// Configured reports whether the client can reach a deployment.
func (c *Client) Configured() bool {
	return c.initErr == nil
}

// Deployment returns the deployment name.
func (c *Client) Deployment() string {
	return c.deployment
}

// ListModels lists the models visible to the resource.
func (c *Client) ListModels(ctx context.Context) (openai.ModelsList, error) {
	if c.initErr != nil {
		return openai.ModelsList{}, c.initErr
	}
	models, err := c.client.ListModels(ctx)
	if err != nil {
		return openai.ModelsList{}, parseAPIError(err)
	}
	return models, nil
}

// create runs one chat completion with metrics and request logging.
func (c *Client) create(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if c.initErr != nil {
		return openai.ChatCompletionResponse{}, c.initErr
	}
	req.Model = c.deployment

	c.logger.Debug("chat completion request",
		zap.Int("messages", len(req.Messages)),
		zap.Int("tools", len(req.Tools)),
		zap.Float32("temperature", req.Temperature),
		zap.Int("max_tokens", req.MaxTokens),
	)

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	metrics.LLMRequestDuration.WithLabelValues(c.deployment).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.deployment, "error").Inc()
		return openai.ChatCompletionResponse{}, parseAPIError(err)
	}
	metrics.LLMRequestsTotal.WithLabelValues(c.deployment, "success").Inc()
	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(c.deployment, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(c.deployment, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	finish := ""
	if len(resp.Choices) > 0 {
		finish = string(resp.Choices[0].FinishReason)
	}
	c.logger.Debug("chat completion response",
		zap.String("id", resp.ID),
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.String("finish_reason", finish),
	)
	return resp, nil
}

func configured(v string) string {
	if v == "" {
		return "missing"
	}
	return "configured"
}
