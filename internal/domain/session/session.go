// Package session holds per-visitor state: persona, cart and chat history.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/cart"
	"github.com/AitoDotAI/aito-demo/internal/domain/chat"
	"github.com/AitoDotAI/aito-demo/internal/domain/persona"
)

// Kind selects the assistant and its toolset.
type Kind string

// Session kinds.
const (
	KindCustomer Kind = "customer"
	KindAdmin    Kind = "admin"
)

// ParseKind validates a kind. Empty input yields KindCustomer.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindCustomer:
		return KindCustomer, nil
	case KindAdmin:
		return KindAdmin, nil
	default:
		return "", fmt.Errorf("%w: unknown session kind %q", domain.ErrInvalidRequest, s)
	}
}

// Session is one visitor's state.
type Session struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Persona   persona.Persona `json:"persona"`
	Cart      *cart.Cart      `json:"cart"`
	Messages  []chat.Message  `json:"messages"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// New creates an empty session.
func New(id string, kind Kind, p persona.Persona, now time.Time) *Session {
	return &Session{
		ID:        id,
		Kind:      kind,
		Persona:   p,
		Cart:      cart.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds messages to the history.
func (s *Session) Append(msgs ...chat.Message) {
	s.Messages = append(s.Messages, msgs...)
}

// Touch marks the session as updated.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}
