// Package persona lists the demo shoppers whose history lives in the predictive database.
package persona

import (
	"fmt"
	"strings"

	"github.com/AitoDotAI/aito-demo/internal/domain"
)

// Persona is a demo user id.
type Persona string

// Known personas.
const (
	Larry    Persona = "larry"
	Veronica Persona = "veronica"
	Alice    Persona = "alice"
)

// Default is selected when no persona is given.
const Default = Larry

// Info describes a persona for display.
type Info struct {
	ID    Persona `json:"id"`
	Name  string  `json:"name"`
	Badge string  `json:"badge"`
}

var infos = []Info{
	{ID: Larry, Name: "Lactose-free Larry", Badge: "Lactose-Free"},
	{ID: Veronica, Name: "Vegetarian Veronica", Badge: "Health-Conscious"},
	{ID: Alice, Name: "All-goes Alice", Badge: "General Shopper"},
}

// All returns the personas in display order.
func All() []Info {
	out := make([]Info, len(infos))
	copy(out, infos)
	return out
}

// IDs returns persona ids in display order.
func IDs() []string {
	out := make([]string, len(infos))
	for i, p := range infos {
		out[i] = string(p.ID)
	}
	return out
}

// Parse validates a persona id. Empty input yields Default.
func Parse(s string) (Persona, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Default, nil
	}
	for _, p := range infos {
		if string(p.ID) == s {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownPersona, s)
}

// Name returns the display name.
func (p Persona) Name() string {
	for _, i := range infos {
		if i.ID == p {
			return i.Name
		}
	}
	return string(p)
}
