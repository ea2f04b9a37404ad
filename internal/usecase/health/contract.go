package health

import "context"

// AitoChecker checks predictive database availability.
type AitoChecker interface {
	Health(ctx context.Context) error
}

// CachePinger checks the response cache.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// LLMChecker reports whether the chat provider is usable.
type LLMChecker interface {
	Configured() bool
}
