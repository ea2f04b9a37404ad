package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domchat "github.com/AitoDotAI/aito-demo/internal/domain/chat"
	"github.com/AitoDotAI/aito-demo/internal/domain/session"
)

// handler runs one tool against the session. Arguments are the raw JSON the model sent.
type handler func(ctx context.Context, s *session.Session, args json.RawMessage) (any, error)

type tool struct {
	def domchat.ToolDefinition
	run handler
}

// toolset is the ordered tool list offered to one session kind.
type toolset struct {
	defs     []domchat.ToolDefinition
	handlers map[string]handler
}

func newToolset(tools ...tool) *toolset {
	ts := &toolset{
		defs:     make([]domchat.ToolDefinition, 0, len(tools)),
		handlers: make(map[string]handler, len(tools)),
	}
	for _, t := range tools {
		ts.defs = append(ts.defs, t.def)
		ts.handlers[t.def.Name] = t.run
	}
	return ts
}

// result is the JSON object returned to the model.
type result map[string]any

func failure(msg string) result {
	return result{"success": false, "message": msg}
}

// decodeArgs unmarshals tool arguments. Blank arguments leave v untouched.
func decodeArgs(raw json.RawMessage, v any) error {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func define(name, description string, params map[string]any) domchat.ToolDefinition {
	return domchat.ToolDefinition{Name: name, Description: description, Parameters: params}
}

func object(props map[string]any, required ...string) map[string]any {
	if required == nil {
		required = []string{}
	}
	if props == nil {
		props = map[string]any{}
	}
	return map[string]any{"type": "object", "properties": props, "required": required}
}

func param(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func withDefault(p map[string]any, v any) map[string]any {
	p["default"] = v
	return p
}

func withEnum(p map[string]any, values ...string) map[string]any {
	p["enum"] = values
	return p
}
