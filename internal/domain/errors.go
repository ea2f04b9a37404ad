package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a request the predictive database or this service rejected.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrTimeout signals an upstream timeout.
	ErrTimeout = errors.New("upstream timeout")
	// ErrUpstreamAuth signals rejected credentials at an upstream service.
	ErrUpstreamAuth = errors.New("upstream authentication failed")
	// ErrUpstreamUnavailable signals a network or server failure at an upstream service.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrLLMNotConfigured signals a missing LLM deployment configuration.
	ErrLLMNotConfigured = errors.New("llm client not configured")
	// ErrLLMProvider signals an LLM provider failure.
	ErrLLMProvider = errors.New("llm provider error")

	// ErrCartFull signals that the cart reached its item cap.
	ErrCartFull = errors.New("cart is full")
	// ErrUnknownPersona signals an unsupported demo persona.
	ErrUnknownPersona = errors.New("unknown persona")
	// ErrUnknownTool signals a tool name outside the session's toolset.
	ErrUnknownTool = errors.New("unknown tool")
)
