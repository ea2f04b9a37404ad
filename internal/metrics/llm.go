package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM and chat metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "llm_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"deployment", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "grocery",
			Name:      "llm_request_duration_seconds",
			Help:      "Chat completion duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"deployment"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "llm_tokens_total",
			Help:      "Total chat completion tokens consumed",
		},
		[]string{"deployment", "type"}, // "prompt" / "completion"
	)

	ChatToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "chat_tool_calls_total",
			Help:      "Total chat tool executions",
		},
		[]string{"kind", "tool", "status"},
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers LLM and chat metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	prometheus.MustRegister(ChatToolCallsTotal)
	llmMetricsRegistered = true
}
