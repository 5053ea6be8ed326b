package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrLineNotFound is returned when a cart operation targets an item that is
// not in the cart.
var ErrLineNotFound = errors.New("cart line not found")

// Line is a single cart position. Name and UnitPrice are snapshotted from the
// menu when the item is added, so later menu edits do not affect open carts.
type Line struct {
	ItemID    string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// LineTotal returns UnitPrice multiplied by Quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the snapshot of a session's selected items.
type Cart struct {
	SessionID string
	Lines     []Line
}

// Subtotal returns the tax-inclusive sum of all line totals. No intermediate
// rounding is applied; unit prices carry two decimals so the sum is exact.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Store owns cart lifecycle. Carts are scoped to a session: only the owning
// session's requests read or mutate a given cart.
type Store interface {
	// Get returns the cart for the session. A session with no lines yields an
	// empty cart, not an error.
	Get(ctx context.Context, sessionID string) (*Cart, error)
	// AddLine inserts the line, merging quantities when the item is already in
	// the cart.
	AddLine(ctx context.Context, sessionID string, line Line) error
	// SetQuantity updates a line's quantity. A quantity of zero removes the
	// line. Returns ErrLineNotFound when the item is not in the cart.
	SetQuantity(ctx context.Context, sessionID, itemID string, quantity int) error
	// RemoveLine deletes a line from the cart.
	RemoveLine(ctx context.Context, sessionID, itemID string) error
	// Clear removes every line of the session's cart.
	Clear(ctx context.Context, sessionID string) error
}
