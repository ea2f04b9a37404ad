package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Mocks ---

type mockEngine struct {
	mu       sync.Mutex
	predicts map[string]hit.Hit // by predicted field
	queries  map[string]hit.Hit // by get ("" for the $nn lookup)
	seen     []aito.Query
	err      error
}

func (m *mockEngine) record(q aito.Query) {
	m.mu.Lock()
	m.seen = append(m.seen, q)
	m.mu.Unlock()
}

func (m *mockEngine) Predict(_ context.Context, q aito.Query) (*aito.Response, error) {
	m.record(q)
	if m.err != nil && q.Predict != "type" {
		return nil, m.err
	}
	if h, ok := m.predicts[q.Predict]; ok {
		return &aito.Response{Hits: []hit.Hit{h}}, nil
	}
	return &aito.Response{Hits: []hit.Hit{}}, nil
}

func (m *mockEngine) Query(_ context.Context, q aito.Query) (*aito.Response, error) {
	m.record(q)
	if m.err != nil {
		return nil, m.err
	}
	if h, ok := m.queries[q.Get]; ok {
		return &aito.Response{Hits: []hit.Hit{h}}, nil
	}
	return &aito.Response{Hits: []hit.Hit{}}, nil
}

func (m *mockEngine) find(predict string) (aito.Query, bool) {
	for _, q := range m.seen {
		if q.Predict == predict {
			return q, true
		}
	}
	return aito.Query{}, false
}

func str(s string) *string { return &s }

// --- Tests ---

func TestAnalyze_LowConfidenceType(t *testing.T) {
	e := &mockEngine{predicts: map[string]hit.Hit{"type": {"feature": "question", "$p": 0.5}}}
	got, err := New(e).Analyze(context.Background(), "hmm")
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != nil {
		t.Errorf("expected null type, got %q", *got.Type)
	}
	data, _ := json.Marshal(got)
	if string(data) != `{"type":null}` {
		t.Errorf("unexpected json %s", data)
	}
	if len(e.seen) != 1 {
		t.Errorf("expected only the classification call, got %d", len(e.seen))
	}
}

func TestAnalyze_NoHits(t *testing.T) {
	got, err := New(&mockEngine{}).Analyze(context.Background(), "???")
	if err != nil || got.Type != nil {
		t.Errorf("expected null type, got %+v, %v", got, err)
	}
}

func TestAnalyze_Question(t *testing.T) {
	e := &mockEngine{
		predicts: map[string]hit.Hit{"type": {"feature": "question", "$p": 0.9}},
		queries: map[string]hit.Hit{"": {
			"prompt": "when do you open?", "type": "question",
			"answer": map[string]any{"answer": "We open at 8."},
		}},
	}
	got, err := New(e).Analyze(context.Background(), "opening time?")
	if err != nil {
		t.Fatal(err)
	}
	want := Analysis{Type: str("question"), Prompt: "when do you open?", Answer: "We open at 8."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("analysis mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_Feedback(t *testing.T) {
	e := &mockEngine{predicts: map[string]hit.Hit{
		"type":                {"feature": "feedback", "$p": 0.8},
		"sentiment":           {"feature": "positive", "$p": 0.5},
		"categories.$feature": {"feature": "service", "$p": 0.7},
		"tags":                {"feature": "staff", "$p": 0.49},
	}}
	got, err := New(e).Analyze(context.Background(), "Great staff at the checkout")
	if err != nil {
		t.Fatal(err)
	}
	want := Analysis{Type: str("feedback"), Sentiment: "positive", Categories: "service"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("analysis mismatch (-want +got):\n%s", diff)
	}

	q, ok := e.find("sentiment")
	if !ok {
		t.Fatal("sentiment not predicted")
	}
	if diff := cmp.Diff(aito.M{"prompt": "Great staff at the checkout", "type": "feedback"}, q.Where); diff != "" {
		t.Errorf("where mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_Request(t *testing.T) {
	e := &mockEngine{
		predicts: map[string]hit.Hit{
			"type":       {"feature": "request", "$p": 0.9},
			"categories": {"feature": "delivery", "$p": 0.25},
			"urgency":    {"feature": "high", "$p": 0.2},
		},
		queries: map[string]hit.Hit{"assignee": {"$p": 0.6, "Name": "Maria", "Role": "Logistics"}},
	}
	got, err := New(e).Analyze(context.Background(), "My delivery is late")
	if err != nil {
		t.Fatal(err)
	}
	want := Analysis{Type: str("request"), Assignee: "Maria (Logistics)", Categories: "delivery"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("analysis mismatch (-want +got):\n%s", diff)
	}

	q, _ := e.find("categories")
	nested, ok := q.From.(aito.Query)
	if !ok || nested.From != aito.TablePrompts {
		t.Errorf("expected nested from over prompts, got %#v", q.From)
	}
	if q.Exclusiveness == nil || *q.Exclusiveness {
		t.Error("expected exclusiveness false for categories")
	}
}

func TestAnalyze_SubqueryFailure(t *testing.T) {
	e := &mockEngine{
		predicts: map[string]hit.Hit{"type": {"feature": "request", "$p": 0.9}},
		err:      domain.ErrTimeout,
	}
	_, err := New(e).Analyze(context.Background(), "help")
	if !errors.Is(err, domain.ErrTimeout) {
		t.Errorf("expected timeout, got %v", err)
	}
}

func TestAnalyze_EmptyText(t *testing.T) {
	_, err := New(&mockEngine{}).Analyze(context.Background(), " ")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}
