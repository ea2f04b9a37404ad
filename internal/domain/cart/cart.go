// Package cart holds the shopping cart kept per session.
package cart

import (
	"encoding/json"
	"fmt"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/product"
)

// MaxItems caps the number of distinct products in a cart.
const MaxItems = 50

// Cart is an ordered list of distinct products. The zero value is empty and ready to use.
type Cart struct {
	items []product.Product
}

// New builds a cart from items, keeping the first occurrence of each id.
func New(items ...product.Product) *Cart {
	c := &Cart{}
	for _, p := range items {
		if c.Contains(p.ID) || len(c.items) >= MaxItems {
			continue
		}
		c.items = append(c.items, p)
	}
	return c
}

// Add appends p unless its id is already present. Returns true when added.
func (c *Cart) Add(p product.Product) (bool, error) {
	if c.Contains(p.ID) {
		return false, nil
	}
	if len(c.items) >= MaxItems {
		return false, fmt.Errorf("%w: max %d items", domain.ErrCartFull, MaxItems)
	}
	c.items = append(c.items, p)
	return true, nil
}

// Remove drops the product with the given id. Returns false if it was absent.
func (c *Cart) Remove(id string) bool {
	for i, p := range c.items {
		if p.ID == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether a product with the id is in the cart.
func (c *Cart) Contains(id string) bool {
	_, ok := c.Find(id)
	return ok
}

// Find returns the product with the id.
func (c *Cart) Find(id string) (product.Product, bool) {
	for _, p := range c.items {
		if p.ID == id {
			return p, true
		}
	}
	return product.Product{}, false
}

// FindByName returns the first product whose name contains s (case-insensitive).
func (c *Cart) FindByName(s string) (product.Product, bool) {
	for _, p := range c.items {
		if p.NameContains(s) {
			return p, true
		}
	}
	return product.Product{}, false
}

// Items returns a copy of the cart contents.
func (c *Cart) Items() []product.Product {
	out := make([]product.Product, len(c.items))
	copy(out, c.items)
	return out
}

// IDs returns product ids in cart order.
func (c *Cart) IDs() []string {
	ids := make([]string, len(c.items))
	for i, p := range c.items {
		ids[i] = p.ID
	}
	return ids
}

// Len returns the number of items.
func (c *Cart) Len() int { return len(c.items) }

// Total returns the sum of item prices.
func (c *Cart) Total() float64 {
	var t float64
	for _, p := range c.items {
		t += p.Price
	}
	return t
}

// Clear empties the cart.
func (c *Cart) Clear() { c.items = nil }

// MarshalJSON encodes the cart as its item list.
func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []product.Product{}
	}
	return json.Marshal(items)
}

// UnmarshalJSON decodes an item list, applying the same dedupe as New.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var items []product.Product
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decode cart: %w", err)
	}
	*c = *New(items...)
	return nil
}
