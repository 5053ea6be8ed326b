// Command coupon-import loads a gzip-compressed JSONL coupon file into the
// coupons table. Each line is one coupon object:
//
//	{"id":"c-1","code":"NOEL2026","discount_type":"percentage","value":"20",
//	 "min_order_amount":"0","valid_until":"2026-12-31T23:59:59Z","active":true}
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/lepetitbistro/ordering-api/internal/domain/coupon"
	"github.com/lepetitbistro/ordering-api/internal/storage/postgres"
)

const defaultBatchSize = 500

func main() {
	var (
		file        string
		databaseURL string
		batchSize   int
	)

	flag.StringVar(&file, "file", "", "path to a gzip-compressed JSONL coupon file")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&batchSize, "batch-size", defaultBatchSize, "coupons per database round trip")
	flag.Parse()

	if file == "" {
		slog.Error("input file is required: set --file")
		os.Exit(1)
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, file, databaseURL, batchSize); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, file, databaseURL string, batchSize int) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewCouponRepository(pool)

	f, err := os.Open(file)
	if err != nil {
		return errors.Wrapf(err, "open %s", file)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", file)
	}
	defer func() { _ = gz.Close() }()

	var (
		batch    []coupon.Coupon
		imported int
		lineNo   int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := repo.UpsertBatch(ctx, batch); err != nil {
			return err
		}
		imported += len(batch)
		slog.Info("import progress", slog.Int("imported", imported))
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		c, err := decodeCoupon([]byte(line))
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNo)
		}

		batch = append(batch, c)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", file)
	}
	if err := flush(); err != nil {
		return err
	}

	slog.Info("import finished", slog.Int("coupons", imported), slog.Int("lines", lineNo))
	return nil
}

// decodeCoupon parses one JSONL line. Decimal and timestamp fields arrive as
// strings.
func decodeCoupon(line []byte) (coupon.Coupon, error) {
	var c coupon.Coupon

	d := jx.DecodeBytes(line)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			c.ID = v
			return err
		case "code":
			v, err := d.Str()
			c.Code = coupon.NormalizeCode(v)
			return err
		case "discount_type":
			v, err := d.Str()
			c.DiscountType = coupon.DiscountType(v)
			return err
		case "value":
			v, err := decodeDecimal(d)
			c.Value = v
			return err
		case "min_order_amount":
			v, err := decodeDecimal(d)
			c.MinOrderAmount = v
			return err
		case "valid_from":
			v, err := decodeTime(d)
			c.ValidFrom = v
			return err
		case "valid_until":
			v, err := decodeTime(d)
			c.ValidUntil = v
			return err
		case "active":
			v, err := d.Bool()
			c.Active = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return coupon.Coupon{}, errors.Wrap(err, "decode coupon")
	}

	if c.ID == "" || c.Code == "" {
		return coupon.Coupon{}, errors.New("coupon id and code are required")
	}
	switch c.DiscountType {
	case coupon.DiscountPercentage, coupon.DiscountFixed:
	default:
		return coupon.Coupon{}, errors.Errorf("unknown discount type %q", c.DiscountType)
	}
	return c, nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	s, err := d.Str()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}

func decodeTime(d *jx.Decoder) (*time.Time, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
