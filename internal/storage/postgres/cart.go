package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lepetitbistro/ordering-api/internal/domain/cart"
)

const (
	getCartSQL = `SELECT item_id, name, unit_price, quantity
		FROM cart_items WHERE session_id = $1 ORDER BY added_at`

	addCartLineSQL = `INSERT INTO cart_items (session_id, item_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, item_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			name = EXCLUDED.name, unit_price = EXCLUDED.unit_price`

	setCartQuantitySQL = `UPDATE cart_items SET quantity = $3
		WHERE session_id = $1 AND item_id = $2`

	removeCartLineSQL = `DELETE FROM cart_items WHERE session_id = $1 AND item_id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE session_id = $1`
)

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store backed by PostgreSQL. Carts are rows keyed
// by (session_id, item_id); a session with no rows is an empty cart.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore that uses the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Get loads the session's cart snapshot.
func (s *CartStore) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	rows, err := s.pool.Query(ctx, getCartSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading cart for session %q: %w", sessionID, err)
	}

	lines, err := pgx.CollectRows(rows, scanCartLine)
	if err != nil {
		return nil, fmt.Errorf("loading cart for session %q: %w", sessionID, err)
	}
	return &cart.Cart{SessionID: sessionID, Lines: lines}, nil
}

// AddLine inserts the line, merging quantities on conflict.
func (s *CartStore) AddLine(ctx context.Context, sessionID string, line cart.Line) error {
	_, err := s.pool.Exec(ctx, addCartLineSQL,
		sessionID, line.ItemID, line.Name, line.UnitPrice, line.Quantity,
	)
	if err != nil {
		return fmt.Errorf("adding cart line %q: %w", line.ItemID, err)
	}
	return nil
}

// SetQuantity updates a line's quantity; zero removes the line.
func (s *CartStore) SetQuantity(ctx context.Context, sessionID, itemID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveLine(ctx, sessionID, itemID)
	}

	tag, err := s.pool.Exec(ctx, setCartQuantitySQL, sessionID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("updating cart line %q: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

// RemoveLine deletes a line from the cart.
func (s *CartStore) RemoveLine(ctx context.Context, sessionID, itemID string) error {
	tag, err := s.pool.Exec(ctx, removeCartLineSQL, sessionID, itemID)
	if err != nil {
		return fmt.Errorf("removing cart line %q: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

// Clear removes every line of the session's cart.
func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, clearCartSQL, sessionID)
	if err != nil {
		return fmt.Errorf("clearing cart for session %q: %w", sessionID, err)
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var (
		line  cart.Line
		price decimal.Decimal
	)
	err := row.Scan(&line.ItemID, &line.Name, &price, &line.Quantity)
	line.UnitPrice = price
	return line, err
}
