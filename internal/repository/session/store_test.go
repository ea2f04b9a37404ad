package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/chat"
	"github.com/AitoDotAI/aito-demo/internal/domain/persona"
	"github.com/AitoDotAI/aito-demo/internal/domain/product"
	"github.com/AitoDotAI/aito-demo/internal/domain/session"
)

type store interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
	Close() error
}

func stores(t *testing.T) map[string]store {
	t.Helper()
	sq, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]store{"memory": NewMemory(), "sqlite": sq}
}

func sampleSession() *session.Session {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := session.New("s-1", session.KindCustomer, persona.Veronica, now)
	_, _ = s.Cart.Add(product.Product{ID: "6410405082657", Name: "Pirkka bananas", Price: 1.95})
	s.Append(
		chat.Message{Role: chat.RoleSystem, Content: "sys", Timestamp: now},
		chat.Message{Role: chat.RoleUser, Content: "bananas?", Timestamp: now},
		chat.Message{
			Role:      chat.RoleAssistant,
			ToolCalls: []chat.ToolCall{{ID: "c1", Type: chat.ToolTypeFunction, Function: chat.FunctionCall{Name: "search_products", Arguments: `{"query":"banana"}`}}},
			Timestamp: now,
		},
	)
	return s
}

func TestStore_SaveGet(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := sampleSession()
			if err := st.Save(ctx, in); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := st.Get(ctx, "s-1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Persona != persona.Veronica || got.Kind != session.KindCustomer {
				t.Errorf("unexpected identity %s/%s", got.Kind, got.Persona)
			}
			if got.Cart.Len() != 1 || !got.Cart.Contains("6410405082657") {
				t.Errorf("cart not restored: %v", got.Cart.IDs())
			}
			if len(got.Messages) != 3 || got.Messages[2].ToolCalls[0].Function.Name != "search_products" {
				t.Errorf("messages not restored: %+v", got.Messages)
			}
			if !got.CreatedAt.Equal(in.CreatedAt) {
				t.Errorf("expected createdAt %v, got %v", in.CreatedAt, got.CreatedAt)
			}
		})
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = st.Save(ctx, sampleSession())

			a, _ := st.Get(ctx, "s-1")
			a.Cart.Clear()
			a.Append(chat.NewUserMessage("unsaved"))

			b, _ := st.Get(ctx, "s-1")
			if b.Cart.Len() != 1 || len(b.Messages) != 3 {
				t.Error("mutating a loaded session must not change the store")
			}
		})
	}
}

func TestStore_Upsert(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := sampleSession()
			_ = st.Save(ctx, s)

			s.Persona = persona.Alice
			s.Cart.Clear()
			if err := st.Save(ctx, s); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, _ := st.Get(ctx, "s-1")
			if got.Persona != persona.Alice || got.Cart.Len() != 0 {
				t.Errorf("update not applied: %s, %d items", got.Persona, got.Cart.Len())
			}
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get(context.Background(), "missing")
			if !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = st.Save(ctx, sampleSession())
			if err := st.Delete(ctx, "s-1"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := st.Get(ctx, "s-1"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
			if err := st.Delete(ctx, "s-1"); err != nil {
				t.Errorf("deleting a missing session should succeed, got %v", err)
			}
		})
	}
}

func TestStore_ConcurrentSaves(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					s := sampleSession()
					if err := st.Save(ctx, s); err != nil {
						t.Errorf("Save: %v", err)
					}
				}()
			}
			wg.Wait()
			if _, err := st.Get(ctx, "s-1"); err != nil {
				t.Errorf("Get: %v", err)
			}
		})
	}
}

func TestSQLite_CleanupExpired(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	ctx := context.Background()

	old := sampleSession()
	old.UpdatedAt = time.Now().Add(-48 * time.Hour)
	fresh := sampleSession()
	fresh.ID = "s-2"
	fresh.UpdatedAt = time.Now()
	_ = st.Save(ctx, old)
	_ = st.Save(ctx, fresh)

	n, err := st.CleanupExpired(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}
	if _, err := st.Get(ctx, "s-2"); err != nil {
		t.Errorf("fresh session should remain: %v", err)
	}
}
