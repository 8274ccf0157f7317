// Package checkout drives a customer from cart to paid order against the
// storefront REST API.
package checkout

import (
	"sync"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/pricing"
)

// Cart holds the lines a customer intends to buy. Subscribers are notified
// with a snapshot after every change.
type Cart struct {
	mu      sync.Mutex
	lines   []orderitem.OrderItem
	version uint64

	subs   map[int]func([]orderitem.OrderItem)
	nextID int
}

func NewCart() *Cart {
	return &Cart{subs: make(map[int]func([]orderitem.OrderItem))}
}

// AddItem adds item, merging it into an existing line with the same
// product and specs.
func (c *Cart) AddItem(item orderitem.OrderItem) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	c.update(func() bool {
		if i := c.find(item.ProductID, item.Specs); i >= 0 {
			c.lines[i].Quantity += item.Quantity

			return true
		}
		c.lines = append(c.lines, item)

		return true
	})
}

// RemoveItem drops the line of productID with specs.
func (c *Cart) RemoveItem(productID, specs string) {
	c.update(func() bool {
		i := c.find(productID, specs)
		if i < 0 {
			return false
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)

		return true
	})
}

// SetQuantity sets the quantity of a line. Zero or less removes it.
func (c *Cart) SetQuantity(productID, specs string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID, specs)

		return
	}

	c.update(func() bool {
		i := c.find(productID, specs)
		if i < 0 || c.lines[i].Quantity == quantity {
			return false
		}
		c.lines[i].Quantity = quantity

		return true
	})
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.update(func() bool {
		if len(c.lines) == 0 {
			return false
		}
		c.lines = nil

		return true
	})
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []orderitem.OrderItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

// Items returns the number of units in the cart.
func (c *Cart) Items() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}

	return n
}

func (c *Cart) Totals(calc *pricing.Calculator) order.Totals {
	return calc.Compute(c.Lines())
}

// Version changes whenever the cart contents change.
func (c *Cart) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.version
}

// Subscribe registers fn and returns a function that unregisters it.
func (c *Cart) Subscribe(fn func([]orderitem.OrderItem)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// update applies change under the lock and notifies subscribers outside it
// when change reports a modification.
func (c *Cart) update(change func() bool) {
	c.mu.Lock()
	if !change() {
		c.mu.Unlock()

		return
	}
	c.version++
	snapshot := c.snapshot()
	subs := make([]func([]orderitem.OrderItem), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (c *Cart) find(productID, specs string) int {
	for i, l := range c.lines {
		if l.ProductID == productID && l.Specs == specs {
			return i
		}
	}

	return -1
}

func (c *Cart) snapshot() []orderitem.OrderItem {
	out := make([]orderitem.OrderItem, len(c.lines))
	copy(out, c.lines)

	return out
}
