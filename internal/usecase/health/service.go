// Package health aggregates component checks for the /health endpoint.
package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the predictive database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckNotConfigured marks an optional component that is switched off.
	CheckNotConfigured CheckResult = "not_configured"
)

// Component names.
const (
	CheckAito  = "aito"
	CheckLLM   = "llm"
	CheckCache = "cache"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Timestamp time.Time
	Checks    map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	aito  AitoChecker
	llm   LLMChecker
	cache CachePinger
	now   func() time.Time
}

// New creates a Service. llm and cache can be nil.
func New(aito AitoChecker, llm LLMChecker, cache CachePinger) *Service {
	return &Service{aito: aito, llm: llm, cache: cache, now: time.Now}
}

// Check runs health checks against all components.
// An unconfigured LLM does not degrade the report; a failing cache does.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)

	if err := s.aito.Health(ctx); err != nil {
		checks[CheckAito] = CheckError
	} else {
		checks[CheckAito] = CheckOK
	}

	switch {
	case s.llm == nil || !s.llm.Configured():
		checks[CheckLLM] = CheckNotConfigured
	default:
		checks[CheckLLM] = CheckOK
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks[CheckCache] = CheckError
		} else {
			checks[CheckCache] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[CheckAito] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Timestamp: s.now().UTC(), Checks: checks}
}
