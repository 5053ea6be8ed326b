package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lepetitbistro/ordering-api/internal/domain/menu"
)

const (
	listMenuSQL = `SELECT id, name, description, price, category, available
		FROM menu_items WHERE available ORDER BY category, name`

	getMenuItemSQL = `SELECT id, name, description, price, category, available
		FROM menu_items WHERE id = $1`

	upsertMenuItemSQL = `INSERT INTO menu_items (id, name, description, price, category, available)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			price = EXCLUDED.price, category = EXCLUDED.category,
			available = EXCLUDED.available`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns all available menu items grouped by category.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// GetByID returns a single menu item by its identifier.
func (r *MenuRepository) GetByID(ctx context.Context, id string) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	return &item, nil
}

// Upsert inserts or updates a menu item. Used by the seed tool.
func (r *MenuRepository) Upsert(ctx context.Context, item menu.Item) error {
	_, err := r.pool.Exec(ctx, upsertMenuItemSQL,
		item.ID, item.Name, item.Description, item.Price, item.Category, item.Available,
	)
	if err != nil {
		return fmt.Errorf("upserting menu item %q: %w", item.ID, err)
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var (
		item  menu.Item
		price decimal.Decimal
	)
	err := row.Scan(&item.ID, &item.Name, &item.Description, &price, &item.Category, &item.Available)
	item.Price = price
	return item, err
}
