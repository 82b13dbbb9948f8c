package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// New opens and pings a database. driver is "postgres" or "sqlite".
func New(driver, addr string, maxOpenConns, maxIdleConns int, maxIdleTime string) (*sqlx.DB, error) {
	if driver == "" {
		driver = "postgres"
	}

	db, err := sqlx.Open(driver, addr)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open %s database", driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "failed to reach %s database", driver)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	duration, err := time.ParseDuration(maxIdleTime)
	if err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "invalid max idle time %q", maxIdleTime)
	}
	db.SetConnMaxIdleTime(duration)

	return db, nil
}
