package health

import (
	"context"
	"runtime"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GoroutineCountCheck flags a goroutine leak once the live count crosses the
// threshold.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// DatabasePingCheck verifies the Postgres pool can reach the server within
// the probe timeout.
func DatabasePingCheck(pool *pgxpool.Pool) CheckFunc {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping database")
		}
		return nil
	}
}

// UptimeGraceCheck reports unhealthy during the first grace period after
// process start. Used as a readiness probe so traffic arrives only after the
// pool and coupon filter have warmed.
func UptimeGraceCheck(start time.Time, grace time.Duration) CheckFunc {
	return func(_ context.Context) error {
		if since := time.Since(start); since < grace {
			return errors.Errorf("warming up, %s of %s elapsed", since.Round(time.Millisecond), grace)
		}
		return nil
	}
}
