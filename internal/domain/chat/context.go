package chat

// DefaultContextLimit is how many non-system messages are sent to the provider.
const DefaultContextLimit = 14

// Context is the reconciled history sent to the provider.
type Context struct {
	Messages []Message
	// MissingToolResponses lists tool call ids that had no matching tool message.
	MissingToolResponses []string
}

// BuildContext keeps system, user and assistant messages, attaches to each
// assistant tool call the tool messages directly following it, drops orphan tool
// messages and truncates to the first system message plus the last limit
// non-system messages. A tool message never precedes its assistant call.
func BuildContext(msgs []Message, limit int) Context {
	if limit <= 0 {
		limit = DefaultContextLimit
	}

	var (
		valid   = make([]Message, 0, len(msgs))
		missing []string
	)

	for i, m := range msgs {
		switch m.Role {
		case RoleSystem, RoleUser:
			valid = append(valid, m)
		case RoleAssistant:
			valid = append(valid, m)
			if len(m.ToolCalls) == 0 {
				continue
			}
			expected := make(map[string]struct{}, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				expected[tc.ID] = struct{}{}
			}
			for j := i + 1; j < len(msgs) && msgs[j].Role == RoleTool; j++ {
				if _, ok := expected[msgs[j].ToolCallID]; ok {
					valid = append(valid, msgs[j])
					delete(expected, msgs[j].ToolCallID)
				}
			}
			for _, tc := range m.ToolCalls {
				if _, ok := expected[tc.ID]; ok {
					missing = append(missing, tc.ID)
				}
			}
		case RoleTool:
			// attached by the preceding assistant, otherwise orphaned
		}
	}

	var (
		system    *Message
		nonSystem = make([]Message, 0, len(valid))
	)
	for i := range valid {
		if valid[i].Role == RoleSystem {
			if system == nil {
				system = &valid[i]
			}
			continue
		}
		nonSystem = append(nonSystem, valid[i])
	}

	if len(nonSystem) > limit {
		nonSystem = nonSystem[len(nonSystem)-limit:]
	}
	for len(nonSystem) > 0 && nonSystem[0].Role == RoleTool {
		nonSystem = nonSystem[1:]
	}

	out := make([]Message, 0, len(nonSystem)+1)
	if system != nil {
		out = append(out, *system)
	}
	out = append(out, nonSystem...)

	return Context{Messages: out, MissingToolResponses: missing}
}
