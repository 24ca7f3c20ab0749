package logging

import (
	"context"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore persists cycle records to PostgreSQL through pgx.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore connects to dsn, checks the connection and ensures schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	schema := `CREATE TABLE IF NOT EXISTS dispatch_cycles (
        id BIGSERIAL PRIMARY KEY,
        cycle_id TEXT NOT NULL,
        ts BIGINT NOT NULL,
        served INTEGER NOT NULL,
        rejected INTEGER NOT NULL,
        record TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS dispatch_cycles_ts ON dispatch_cycles (ts);`
	s, err := openSQL("pgx", dsn, schema, func(n int) string { return "$" + strconv.Itoa(n) })
	if err != nil {
		return nil, err
	}
	return &PostgresStore{s}, nil
}

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}
