package aito

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/AitoDotAI/aito-demo/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status    int
		kind      Kind
		retryable bool
		sentinel  error
	}{
		{401, KindAuth, false, domain.ErrUpstreamAuth},
		{403, KindAuth, false, domain.ErrUpstreamAuth},
		{429, KindRateLimit, true, domain.ErrRateLimited},
		{400, KindInvalidRequest, false, domain.ErrInvalidRequest},
		{408, KindTimeout, true, domain.ErrTimeout},
		{504, KindTimeout, true, domain.ErrTimeout},
		{500, KindServer, true, domain.ErrUpstreamUnavailable},
		{502, KindServer, true, domain.ErrUpstreamUnavailable},
		{503, KindServer, true, domain.ErrUpstreamUnavailable},
		{507, KindServer, true, domain.ErrUpstreamUnavailable},
		{418, KindServer, false, domain.ErrUpstreamUnavailable},
	}

	for _, tc := range tests {
		err := Classify(tc.status, http.Header{}, nil)
		if err.Kind != tc.kind {
			t.Errorf("%d: expected kind %s, got %s", tc.status, tc.kind, err.Kind)
		}
		if err.Retryable != tc.retryable {
			t.Errorf("%d: expected retryable=%v", tc.status, tc.retryable)
		}
		if err.StatusCode != tc.status {
			t.Errorf("%d: status not kept, got %d", tc.status, err.StatusCode)
		}
		if !errors.Is(err, tc.sentinel) {
			t.Errorf("%d: expected to unwrap to %v", tc.status, tc.sentinel)
		}
	}
}

func TestClassify_BadRequestMessage(t *testing.T) {
	body := []byte(`{"status":400,"message":"field 'nme' not found in table products"}`)
	err := Classify(400, http.Header{}, body)
	if err.Message != "field 'nme' not found in table products" {
		t.Errorf("expected upstream message, got %q", err.Message)
	}
	if string(err.Details) != string(body) {
		t.Errorf("expected details to keep body, got %s", err.Details)
	}

	err = Classify(400, http.Header{}, []byte("not json"))
	if err.Message != "Invalid request parameters." {
		t.Errorf("expected default message, got %q", err.Message)
	}
	if err.Details != nil {
		t.Errorf("expected no details for non-JSON body, got %s", err.Details)
	}
}

func TestClassify_UnexpectedStatusMessage(t *testing.T) {
	err := Classify(418, http.Header{}, nil)
	if err.Message != "Unexpected error (418). Please try again." {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestClassify_RetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")
	err := Classify(429, h, nil)
	if err.RetryAfter != 7*time.Second {
		t.Errorf("expected 7s, got %v", err.RetryAfter)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter(""); d != 0 {
		t.Errorf("empty: got %v", d)
	}
	if d := parseRetryAfter("garbage"); d != 0 {
		t.Errorf("garbage: got %v", d)
	}
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if d := parseRetryAfter(future); d <= 30*time.Minute {
		t.Errorf("http date: expected about an hour, got %v", d)
	}
}

func TestAPIError_Message(t *testing.T) {
	err := networkError(errors.New("dial tcp: connection refused"))
	if err.Error() != "aito NETWORK_ERROR: Network connection failed. Please check your internet connection." {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Error("network error should unwrap to ErrUpstreamUnavailable")
	}
}

func TestParseEndpoint(t *testing.T) {
	if _, err := ParseEndpoint("_predict"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseEndpoint("_search"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}
