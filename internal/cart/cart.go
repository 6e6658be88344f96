// Path: internal/cart/cart.go
package cart

import (
	"sync"
	"time"

	"food-explorer/internal/domain"
	"food-explorer/internal/events"
)

// Item is a cart line: one product and its quantity. Lines are keyed by the
// product code, so a product appears at most once.
type Item struct {
	Product domain.Product `json:"product"`
	Qty     int            `json:"qty"`
}

// State is a snapshot of the cart, safe to hand to a renderer.
type State struct {
	Items      []Item `json:"items"`
	IsOpen     bool   `json:"is_open"`
	CheckedOut bool   `json:"checked_out"`
	TotalItems int    `json:"total_items"`
}

// Controller owns the in-memory cart for one session. All operations are
// synchronous and never touch the network.
type Controller struct {
	delay  time.Duration
	broker *events.Broker

	mu         sync.Mutex
	items      []Item
	isOpen     bool
	checkedOut bool
}

// NewController creates a cart controller. delay is how long the checkout
// confirmation stays up before the cart clears itself.
func NewController(delay time.Duration, broker *events.Broker) *Controller {
	return &Controller{delay: delay, broker: broker}
}

// Snapshot returns a copy of the cart state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	items := make([]Item, len(c.items))
	copy(items, c.items)
	return State{
		Items:      items,
		IsOpen:     c.isOpen,
		CheckedOut: c.checkedOut,
		TotalItems: totalItems(c.items),
	}
}

// Add puts a product in the cart, incrementing the quantity if its code is
// already present, and opens the drawer.
func (c *Controller) Add(product domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	for i := range c.items {
		if c.items[i].Product.Code == product.Code {
			c.items[i].Qty++
			found = true
			break
		}
	}
	if !found {
		c.items = append(c.items, Item{Product: product, Qty: 1})
	}
	c.isOpen = true
	c.publish(events.TopicCartUpdated, totalItems(c.items))
}

// Remove deletes the line with the given product code. No-op if absent.
func (c *Controller) Remove(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(code)
	c.publish(events.TopicCartUpdated, totalItems(c.items))
}

func (c *Controller) removeLocked(code string) {
	for i := range c.items {
		if c.items[i].Product.Code == code {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// UpdateQty sets the quantity for a line. A quantity of zero or less removes
// the line. No-op if the code is absent.
func (c *Controller) UpdateQty(code string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if qty <= 0 {
		c.removeLocked(code)
	} else {
		for i := range c.items {
			if c.items[i].Product.Code == code {
				c.items[i].Qty = qty
				break
			}
		}
	}
	c.publish(events.TopicCartUpdated, totalItems(c.items))
}

// Clear empties the cart.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.publish(events.TopicCartUpdated, 0)
}

// Open opens the cart drawer.
func (c *Controller) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isOpen = true
}

// Close closes the cart drawer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isOpen = false
}

// TotalItems returns the sum of quantities across all lines.
func (c *Controller) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalItems(c.items)
}

// Checkout simulates placing an order: it snapshots the current lines, marks
// the cart as checked out, and after the configured delay clears the cart,
// drops the checked-out flag and closes the drawer. There is no server round
// trip and no error path. Returns the ordered lines, or nil if the cart was
// empty or already checking out.
func (c *Controller) Checkout() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 || c.checkedOut {
		return nil
	}

	ordered := make([]Item, len(c.items))
	copy(ordered, c.items)
	c.checkedOut = true

	time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.items = nil
		c.checkedOut = false
		c.isOpen = false
		c.publish(events.TopicCartUpdated, 0)
	})

	c.publish(events.TopicCheckoutPlaced, totalItems(ordered))
	return ordered
}

func (c *Controller) publish(topic string, data any) {
	if c.broker != nil {
		c.broker.Publish(topic, data)
	}
}

func totalItems(items []Item) int {
	sum := 0
	for _, item := range items {
		sum += item.Qty
	}
	return sum
}
