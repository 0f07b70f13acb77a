package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartItem is a product snapshot held in a client cart.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Cart is the client-owned shopping cart. Items can only change through its
// methods; the total is derived from the snapshot prices and is advisory,
// checkout reprices everything from the catalog.
type Cart struct {
	items []CartItem
}

type cartJSON struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Add puts one unit of p in the cart, incrementing the quantity when the
// product is already present.
func (c *Cart) Add(p Product) {
	for i := range c.items {
		if c.items[i].ID == p.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, CartItem{Product: p, Quantity: 1})
}

// Remove drops the product from the cart.
func (c *Cart) Remove(productID int64) {
	kept := c.items[:0]
	for _, it := range c.items {
		if it.ID != productID {
			kept = append(kept, it)
		}
	}
	c.items = kept
}

// SetQuantity sets the quantity of a product already in the cart. A
// quantity of zero or less removes it.
func (c *Cart) SetQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.items {
		if c.items[i].ID == productID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the cart contents.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int { return len(c.items) }

// Total is the sum of snapshot price * quantity.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Lines converts the cart into the checkout wire format.
func (c *Cart) Lines() []CartLine {
	lines := make([]CartLine, 0, len(c.items))
	for _, it := range c.items {
		lines = append(lines, CartLine{
			ID:          it.ID,
			Quantity:    it.Quantity,
			ClientPrice: it.Price,
			DisplayName: it.Name,
			ImageURL:    it.ImageURL,
		})
	}
	return lines
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []CartItem{}
	}
	return json.Marshal(cartJSON{Items: items, Total: c.Total()})
}

// UnmarshalJSON restores a persisted cart. The stored total is ignored and
// recomputed; lines with a non-positive quantity are dropped.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw cartJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.items = nil
	for _, it := range raw.Items {
		if it.Quantity > 0 {
			c.items = append(c.items, it)
		}
	}
	return nil
}
