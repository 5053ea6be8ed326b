package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/lepetitbistro/ordering-api/db"
	"github.com/lepetitbistro/ordering-api/internal/domain/coupon"
	"github.com/lepetitbistro/ordering-api/internal/domain/menu"
	"github.com/lepetitbistro/ordering-api/internal/storage/postgres"
)

type menuItemJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Available   bool            `json:"available"`
}

type couponJSON struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	DiscountType   string          `json:"discount_type"`
	Value          decimal.Decimal `json:"value"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	ValidFrom      *time.Time      `json:"valid_from"`
	ValidUntil     *time.Time      `json:"valid_until"`
	Active         bool            `json:"active"`
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// The two tables are independent, load them in parallel.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(seedMenu(gctx, postgres.NewMenuRepository(pool)), "seed menu")
	})
	g.Go(func() error {
		return errors.Wrap(seedCoupons(gctx, postgres.NewCouponRepository(pool)), "seed coupons")
	})
	return g.Wait()
}

func seedMenu(ctx context.Context, repo *postgres.MenuRepository) error {
	var items []menuItemJSON
	if err := json.Unmarshal(db.SeedMenu, &items); err != nil {
		return errors.Wrap(err, "parse menu JSON")
	}

	slog.Info("upserting menu items", slog.Int("count", len(items)))

	for _, it := range items {
		if err := repo.Upsert(ctx, menu.Item{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			Category:    it.Category,
			Available:   it.Available,
		}); err != nil {
			return errors.Wrapf(err, "upsert menu item %s", it.ID)
		}

		slog.Info("upserted menu item", slog.String("id", it.ID), slog.String("name", it.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *postgres.CouponRepository) error {
	var coupons []couponJSON
	if err := json.Unmarshal(db.SeedCoupons, &coupons); err != nil {
		return errors.Wrap(err, "parse coupons JSON")
	}

	slog.Info("upserting coupons", slog.Int("count", len(coupons)))

	for _, c := range coupons {
		if err := repo.Upsert(ctx, coupon.Coupon{
			ID:             c.ID,
			Code:           coupon.NormalizeCode(c.Code),
			DiscountType:   coupon.DiscountType(c.DiscountType),
			Value:          c.Value,
			MinOrderAmount: c.MinOrderAmount,
			ValidFrom:      c.ValidFrom,
			ValidUntil:     c.ValidUntil,
			Active:         c.Active,
		}); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}

		slog.Info("upserted coupon", slog.String("code", c.Code))
	}

	return nil
}
