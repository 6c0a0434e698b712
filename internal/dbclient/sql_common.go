package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const pingTimeout = 10 * time.Second

// pingSQL opens a database/sql handle, runs SELECT 1 and closes it.
// A query is used instead of PingContext because the sqlite driver
// defers opening the file until the first statement.
func pingSQL(ctx context.Context, driverName, dsn string) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", driverName, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping %s: %w", driverName, err)
	}
	return nil
}
