// Package chat runs assistant conversations: session seeding, the tool loop and cart actions.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	domchat "github.com/AitoDotAI/aito-demo/internal/domain/chat"
	"github.com/AitoDotAI/aito-demo/internal/domain/persona"
	"github.com/AitoDotAI/aito-demo/internal/domain/session"
	logpkg "github.com/AitoDotAI/aito-demo/internal/logger"
	"github.com/AitoDotAI/aito-demo/internal/metrics"
)

// Tool call outcomes recorded in metrics.
const (
	toolStatusOK      = "ok"
	toolStatusError   = "error"
	toolStatusUnknown = "unknown"
)

// Service runs chat sessions.
type Service struct {
	llm    Completer
	store  SessionStore
	deps   Deps
	tools  map[session.Kind]*toolset
	limit  int
	logger *zap.Logger

	locks sessionLocks

	newID func() string
	now   func() time.Time
}

// New creates a chat service.
func New(llm Completer, store SessionStore, deps Deps, logger *zap.Logger) *Service {
	return &Service{
		llm:   llm,
		store: store,
		deps:  deps,
		tools: map[session.Kind]*toolset{
			session.KindCustomer: newToolset(customerTools{deps: deps}.tools()...),
			session.KindAdmin:    newToolset(adminTools{deps: deps}.tools()...),
		},
		limit:  domchat.DefaultContextLimit,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Tools returns the tool definitions offered to kind.
func (s *Service) Tools(kind session.Kind) []domchat.ToolDefinition {
	ts, ok := s.tools[kind]
	if !ok {
		return nil
	}
	out := make([]domchat.ToolDefinition, len(ts.defs))
	copy(out, ts.defs)
	return out
}

// Start creates a seeded session.
func (s *Service) Start(ctx context.Context, kind session.Kind, p persona.Persona) (*session.Session, error) {
	if _, ok := s.tools[kind]; !ok {
		return nil, fmt.Errorf("%w: unknown session kind %q", domain.ErrInvalidRequest, kind)
	}
	sess := session.New(s.newID(), kind, p, s.now())
	seed(sess)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Get loads a session.
func (s *Service) Get(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Send runs one chat turn and returns the visible history.
// When the reply requests tools they run in order, then the model is asked once more.
// The user message is kept even when the provider fails.
func (s *Service) Send(ctx context.Context, id, text string) ([]domchat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidRequest)
	}

	unlock := s.lock(id)
	defer unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ts := s.tools[sess.Kind]
	log := logpkg.FromContextOr(ctx, s.logger).With(
		logpkg.SessionFields(sess.ID, string(sess.Kind), string(sess.Persona))...)

	sess.Append(domchat.NewUserMessage(text))

	reply, err := s.complete(ctx, log, sess, ts)
	if err != nil {
		return nil, s.persistAfter(ctx, sess, err)
	}
	sess.Append(reply)

	if reply.HasToolCalls() {
		for _, call := range reply.ToolCalls {
			sess.Append(s.runTool(ctx, log, sess, ts, call))
		}
		final, err := s.complete(ctx, log, sess, ts)
		if err != nil {
			return nil, s.persistAfter(ctx, sess, err)
		}
		sess.Append(final)
	}

	sess.Touch(s.now())
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return domchat.DisplayMessages(sess.Messages), nil
}

// SwitchPersona changes the shopper, empties the cart and restarts the chat.
func (s *Service) SwitchPersona(ctx context.Context, id string, p persona.Persona) (*session.Session, error) {
	return s.update(ctx, id, func(sess *session.Session) error {
		sess.Persona = p
		sess.Cart.Clear()
		seed(sess)
		return nil
	})
}

// Clear restarts the chat. The cart is kept.
func (s *Service) Clear(ctx context.Context, id string) (*session.Session, error) {
	return s.update(ctx, id, func(sess *session.Session) error {
		seed(sess)
		return nil
	})
}

// AddToCart adds a catalog product to the session cart. Adding a product already present is a no-op.
func (s *Service) AddToCart(ctx context.Context, id, productID string) (*session.Session, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidRequest)
	}
	return s.update(ctx, id, func(sess *session.Session) error {
		if sess.Cart.Contains(productID) {
			return nil
		}
		products, err := s.deps.Catalog.ProductsByIDs(ctx, []string{productID})
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		_, err = sess.Cart.Add(products[0])
		return err
	})
}

// RemoveFromCart removes a product from the session cart. Removing a missing id is a no-op.
func (s *Service) RemoveFromCart(ctx context.Context, id, productID string) (*session.Session, error) {
	return s.update(ctx, id, func(sess *session.Session) error {
		sess.Cart.Remove(productID)
		return nil
	})
}

func (s *Service) update(ctx context.Context, id string, fn func(*session.Session) error) (*session.Session, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.Touch(s.now())
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (s *Service) complete(
	ctx context.Context, log *zap.Logger, sess *session.Session, ts *toolset,
) (domchat.Message, error) {
	built := domchat.BuildContext(sess.Messages, s.limit)
	if len(built.MissingToolResponses) > 0 {
		log.Warn("missing tool responses", zap.Strings("tool_call_ids", built.MissingToolResponses))
	}
	reply, err := s.llm.Complete(ctx, built.Messages, ts.defs)
	if err != nil {
		return domchat.Message{}, fmt.Errorf("chat completion: %w", err)
	}
	reply.Role = domchat.RoleAssistant
	if reply.Timestamp.IsZero() {
		reply.Timestamp = s.now()
	}
	return reply, nil
}

func (s *Service) runTool(
	ctx context.Context, log *zap.Logger, sess *session.Session, ts *toolset, call domchat.ToolCall,
) domchat.Message {
	name := call.Function.Name
	run, ok := ts.handlers[name]
	if !ok {
		metrics.ChatToolCallsTotal.WithLabelValues(string(sess.Kind), "unknown", toolStatusUnknown).Inc()
		log.Warn("unknown tool requested", zap.String("tool", name))
		return domchat.NewToolMessage(call.ID, name, failure("Unknown tool: "+name))
	}

	res, err := run(ctx, sess, []byte(call.Function.Arguments))
	if err != nil {
		metrics.ChatToolCallsTotal.WithLabelValues(string(sess.Kind), name, toolStatusError).Inc()
		log.Warn("tool execution failed", zap.String("tool", name), zap.Error(err))
		res = failure(fmt.Sprintf("Error executing %s: %v", name, err))
	} else {
		metrics.ChatToolCallsTotal.WithLabelValues(string(sess.Kind), name, toolStatusOK).Inc()
	}
	return domchat.NewToolMessage(call.ID, name, res)
}

// persistAfter saves the session after a failed completion and returns cause.
func (s *Service) persistAfter(ctx context.Context, sess *session.Session, cause error) error {
	sess.Touch(s.now())
	if err := s.store.Save(ctx, sess); err != nil {
		return errors.Join(cause, fmt.Errorf("save session: %w", err))
	}
	return cause
}

func (s *Service) lock(id string) func() {
	return s.locks.lock(id)
}

// seed replaces the history with the kind's system prompt and welcome message.
func seed(sess *session.Session) {
	sess.Messages = []domchat.Message{
		domchat.NewSystemMessage(SystemPrompt(sess.Kind)),
		domchat.NewAssistantMessage(WelcomeMessage(sess.Kind)),
	}
}
