package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockAito struct {
	err error
}

func (m *mockAito) Health(_ context.Context) error { return m.err }

type mockCache struct {
	err error
}

func (m *mockCache) Ping(_ context.Context) error { return m.err }

type mockLLM struct {
	configured bool
}

func (m *mockLLM) Configured() bool { return m.configured }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockAito{}, &mockLLM{configured: true}, &mockCache{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{CheckAito, CheckLLM, CheckCache} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
	if r.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestCheck_AitoError(t *testing.T) {
	svc := New(&mockAito{err: errors.New("conn refused")}, &mockLLM{configured: true}, nil)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[CheckAito] != CheckError {
		t.Errorf("expected aito %q, got %q", CheckError, r.Checks[CheckAito])
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockAito{}, &mockLLM{configured: true}, &mockCache{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckCache] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks[CheckCache])
	}
}

func TestCheck_OptionalComponentsAbsent(t *testing.T) {
	svc := New(&mockAito{}, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("EET", 7200)) }
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[CheckLLM] != CheckNotConfigured {
		t.Errorf("expected llm %q, got %q", CheckNotConfigured, r.Checks[CheckLLM])
	}
	if _, ok := r.Checks[CheckCache]; ok {
		t.Error("expected no cache check without a cache")
	}
	if r.Timestamp.Location() != time.UTC || r.Timestamp.Hour() != 10 {
		t.Errorf("expected UTC timestamp, got %v", r.Timestamp)
	}
}

func TestCheck_LLMNotConfigured(t *testing.T) {
	svc := New(&mockAito{}, &mockLLM{}, &mockCache{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[CheckLLM] != CheckNotConfigured {
		t.Errorf("expected llm %q, got %q", CheckNotConfigured, r.Checks[CheckLLM])
	}
}
