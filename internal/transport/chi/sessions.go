package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domchat "github.com/AitoDotAI/aito-demo/internal/domain/chat"
	"github.com/AitoDotAI/aito-demo/internal/domain/cart"
	"github.com/AitoDotAI/aito-demo/internal/domain/persona"
	"github.com/AitoDotAI/aito-demo/internal/domain/session"
)

// sessionView is a session as the browser sees it: tool traffic and the system prompt are hidden.
type sessionView struct {
	ID        string            `json:"id"`
	Kind      session.Kind      `json:"kind"`
	Persona   persona.Persona   `json:"persona"`
	Cart      *cart.Cart        `json:"cart"`
	Messages  []domchat.Message `json:"messages"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func sessionToView(s *session.Session) sessionView {
	return sessionView{
		ID:        s.ID,
		Kind:      s.Kind,
		Persona:   s.Persona,
		Cart:      s.Cart,
		Messages:  domchat.DisplayMessages(s.Messages),
		UpdatedAt: s.UpdatedAt,
	}
}

type createSessionRequest struct {
	Kind    string `json:"kind"`
	Persona string `json:"persona"`
}

// CreateSession handles POST /api/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kind, err := session.ParseKind(req.Kind)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	p, err := persona.Parse(req.Persona)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	sess, err := s.svc.Chat.Start(r.Context(), kind, p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionToView(sess))
}

// GetSession handles GET /api/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Chat.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToView(sess))
}

// DeleteSession handles DELETE /api/sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Chat.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type switchPersonaRequest struct {
	Persona string `json:"persona"`
}

// SwitchPersona handles PUT /api/sessions/{id}/persona.
func (s *Server) SwitchPersona(w http.ResponseWriter, r *http.Request) {
	var req switchPersonaRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := persona.Parse(req.Persona)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	sess, err := s.svc.Chat.SwitchPersona(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToView(sess))
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
}

// AddToCart handles POST /api/sessions/{id}/cart.
func (s *Server) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.svc.Chat.AddToCart(r.Context(), chi.URLParam(r, "id"), req.ProductID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToView(sess))
}

// RemoveFromCart handles DELETE /api/sessions/{id}/cart/{productID}.
func (s *Server) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Chat.RemoveFromCart(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productID"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToView(sess))
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Messages []domchat.Message `json:"messages"`
}

// SendMessage handles POST /api/sessions/{id}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	msgs, err := s.svc.Chat.Send(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sendMessageResponse{Messages: msgs})
}

// ClearMessages handles DELETE /api/sessions/{id}/messages.
func (s *Server) ClearMessages(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Chat.Clear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToView(sess))
}
