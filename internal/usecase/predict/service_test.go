package predict

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

type mockPredictor struct {
	mu      sync.Mutex
	queries []aito.Query
	byField map[string][]hit.Hit
	failOn  string
}

func (m *mockPredictor) Predict(_ context.Context, q aito.Query) (*aito.Response, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()
	if q.Predict == m.failOn {
		return nil, domain.ErrUpstreamUnavailable
	}
	return &aito.Response{Hits: m.byField[q.Predict]}, nil
}

// --- Tests ---

func TestTagSuggestions_KeepsConfidentLabels(t *testing.T) {
	p := &mockPredictor{byField: map[string][]hit.Hit{
		"tags": {{"id": "a", "$p": 0.6}, {"id": "b", "$p": 0.3}},
	}}
	got, err := New(p).TagSuggestions(context.Background(), "Valio milk")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a"}, got); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	q := p.queries[0]
	if q.From != aito.TableProducts || q.Limit != 10 || q.Exclusiveness == nil || *q.Exclusiveness {
		t.Errorf("unexpected query %+v", q)
	}
}

func TestTagSuggestions_ThresholdIsExclusive(t *testing.T) {
	p := &mockPredictor{byField: map[string][]hit.Hit{
		"tags": {{"feature": "dairy", "$p": 0.5}, {"feature": "lactose-free", "$p": 0.51}},
	}}
	got, _ := New(p).TagSuggestions(context.Background(), "Valio milk")
	if diff := cmp.Diff([]string{"lactose-free"}, got); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestInvoice_PredictsAllOutputs(t *testing.T) {
	p := &mockPredictor{byField: map[string][]hit.Hit{
		"Processor": {{"$p": 0.8, "Name": "Anna"}},
		"Acceptor":  {{"$p": 0.7, "Name": "Ben"}},
		"GLCode":    {{"$p": 0.9, "GLCode": "4000"}},
	}}
	input := map[string]any{"Item_Description": "Office chairs", "Vendor_Code": "VENDOR-1676"}

	got, err := New(p).Invoice(context.Background(), input, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got["GLCode"][0].String("GLCode") != "4000" {
		t.Errorf("unexpected result %+v", got)
	}
	if len(p.queries) != 3 {
		t.Errorf("expected 3 predictions, got %d", len(p.queries))
	}
}

func TestInvoice_SelectsFieldsWithHighlight(t *testing.T) {
	p := &mockPredictor{}
	_, _ = New(p).Invoice(context.Background(), map[string]any{"Vendor_Code": "V1"}, []string{"GLCode"})

	data, _ := json.Marshal(p.queries[0])
	var got map[string]any
	_ = json.Unmarshal(data, &got)

	var want map[string]any
	_ = json.Unmarshal([]byte(`{
		"from": "invoices",
		"where": {"Vendor_Code": "V1"},
		"predict": "GLCode",
		"select": ["$p", {"$why": {"highlight": {"posPreTag": "<b>", "posPostTag": "</b>"}}}, "Name", "GLCode", "Department"],
		"limit": 10
	}`), &want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("invoice body mismatch (-want +got):\n%s", diff)
	}
}

func TestInvoice_UnknownOutput(t *testing.T) {
	p := &mockPredictor{}
	_, err := New(p).Invoice(context.Background(), map[string]any{}, []string{"Approver"})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
	if len(p.queries) != 0 {
		t.Error("expected no remote calls")
	}
}

func TestInvoice_FailureFailsWhole(t *testing.T) {
	p := &mockPredictor{failOn: "Acceptor"}
	_, err := New(p).Invoice(context.Background(), map[string]any{}, nil)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected upstream error, got %v", err)
	}
}
