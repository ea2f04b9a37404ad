package persona

import (
	"errors"
	"testing"

	"github.com/AitoDotAI/aito-demo/internal/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Persona
	}{
		{"larry", Larry},
		{" Veronica ", Veronica},
		{"ALICE", Alice},
		{"", Default},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("mallory")
	if !errors.Is(err, domain.ErrUnknownPersona) {
		t.Errorf("expected ErrUnknownPersona, got %v", err)
	}
}

func TestIDs_Order(t *testing.T) {
	ids := IDs()
	want := []string{"larry", "veronica", "alice"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestName(t *testing.T) {
	if Alice.Name() != "All-goes Alice" {
		t.Errorf("unexpected name %q", Alice.Name())
	}
	if Persona("x").Name() != "x" {
		t.Error("unknown persona should fall back to its id")
	}
}
