// Package apply replays a migration chain against a connected database,
// bookkeeping what has already run in a meta-table so reruns are idempotent.
package apply

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cloudflare/backoff"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"weldorm/dialect"
)

const (
	maxConnectBackoff  = 30 * time.Second
	connectBackoffUnit = 500 * time.Millisecond
	maxConnectAttempts = 8
)

// Connect opens a pool against dsn through d's registered database/sql
// driver, retrying with exponential backoff while the database is refusing
// connections (e.g. still starting up), and pings once before returning.
func Connect(ctx context.Context, d dialect.Dialect, dsn string) (*sql.DB, error) {
	b := backoff.New(maxConnectBackoff, connectBackoffUnit)

	var lastErr error
	for attempt := 0; attempt < maxConnectAttempts; attempt++ {
		db, err := sql.Open(d.DriverName(), dsn)
		if err == nil {
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				_ = db.Close()
				lastErr = pingErr
			}
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("apply: connecting to database: %w (last error: %v)", ctx.Err(), lastErr)
		case <-time.After(b.Duration()):
		}
	}
	return nil, fmt.Errorf("apply: connecting to database after %d attempts: %w", maxConnectAttempts, lastErr)
}
