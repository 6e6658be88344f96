// Path: internal/cart/cart_test.go
package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-explorer/internal/domain"
)

func newTestCart() *Controller {
	return NewController(20*time.Millisecond, nil)
}

func product(code, name string) domain.Product {
	return domain.Product{Code: code, ProductName: name}
}

func TestAddIncrementsExistingLine(t *testing.T) {
	c := newTestCart()

	c.Add(product("1", "Milk"))
	c.Add(product("1", "Milk"))

	state := c.Snapshot()
	require.Len(t, state.Items, 1, "same code must not create a second line")
	assert.Equal(t, 2, state.Items[0].Qty)
	assert.Equal(t, 2, state.TotalItems)
	assert.True(t, state.IsOpen, "adding opens the drawer")
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	c := newTestCart()
	c.Add(product("2", "Bread"))
	c.Add(product("1", "Milk"))
	c.Add(product("2", "Bread"))

	state := c.Snapshot()
	require.Len(t, state.Items, 2)
	assert.Equal(t, "2", state.Items[0].Product.Code)
	assert.Equal(t, "1", state.Items[1].Product.Code)
}

func TestRemove(t *testing.T) {
	c := newTestCart()
	c.Add(product("1", "Milk"))
	c.Add(product("2", "Bread"))

	c.Remove("1")
	state := c.Snapshot()
	require.Len(t, state.Items, 1)
	assert.Equal(t, "2", state.Items[0].Product.Code)

	// Removing an absent code is a no-op.
	c.Remove("missing")
	assert.Len(t, c.Snapshot().Items, 1)
}

func TestUpdateQty(t *testing.T) {
	c := newTestCart()
	c.Add(product("1", "Milk"))
	c.Add(product("2", "Bread"))
	c.Add(product("2", "Bread"))

	c.UpdateQty("1", 5)
	state := c.Snapshot()
	assert.Equal(t, 5, state.Items[0].Qty)
	assert.Equal(t, 7, state.TotalItems)

	// Zero removes the line, like an explicit remove.
	c.UpdateQty("1", 0)
	state = c.Snapshot()
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.TotalItems)

	// Unknown code is a no-op.
	c.UpdateQty("missing", 3)
	assert.Equal(t, 2, c.Snapshot().TotalItems)
}

func TestClear(t *testing.T) {
	c := newTestCart()
	c.Add(product("1", "Milk"))
	c.Clear()

	state := c.Snapshot()
	assert.Empty(t, state.Items)
	assert.Zero(t, state.TotalItems)
}

func TestOpenClose(t *testing.T) {
	c := newTestCart()
	assert.False(t, c.Snapshot().IsOpen)
	c.Open()
	assert.True(t, c.Snapshot().IsOpen)
	c.Close()
	assert.False(t, c.Snapshot().IsOpen)
}

func TestCheckoutClearsAfterDelay(t *testing.T) {
	c := newTestCart()
	c.Add(product("1", "Milk"))
	c.Add(product("1", "Milk"))
	c.Add(product("2", "Bread"))

	ordered := c.Checkout()
	require.Len(t, ordered, 2)
	assert.Equal(t, 2, ordered[0].Qty)

	// Immediately after checkout the lines are still there, flagged as
	// checked out.
	state := c.Snapshot()
	assert.True(t, state.CheckedOut)
	assert.Len(t, state.Items, 2)

	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return len(s.Items) == 0 && !s.CheckedOut && !s.IsOpen
	}, time.Second, 5*time.Millisecond, "checkout must clear the cart and close the drawer after the delay")
}

func TestCheckoutEmptyCartIsNoOp(t *testing.T) {
	c := newTestCart()
	assert.Nil(t, c.Checkout())
}

func TestCheckoutWhileCheckingOutIsNoOp(t *testing.T) {
	c := newTestCart()
	c.Add(product("1", "Milk"))

	require.NotNil(t, c.Checkout())
	assert.Nil(t, c.Checkout(), "second checkout during the confirmation window")
}
