package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// sqlStore holds the statements shared by the database backends. bind
// renders the n-th (1-based) placeholder of the driver.
type sqlStore struct {
	db   *sql.DB
	bind func(n int) string
}

func openSQL(driver, dsn, schema string, bind func(int) string) (sqlStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return sqlStore{}, err
	}
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return sqlStore{}, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return sqlStore{}, err
	}
	return sqlStore{db: db, bind: bind}, nil
}

// Append writes the record to the database.
func (s sqlStore) Append(ctx context.Context, rec CycleRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO dispatch_cycles (cycle_id, ts, served, rejected, record) VALUES (%s, %s, %s, %s, %s)`,
			s.bind(1), s.bind(2), s.bind(3), s.bind(4), s.bind(5)),
		rec.CycleID, rec.Timestamp.UnixNano(), len(rec.Served), len(rec.Rejected), string(b))
	return err
}

// Query returns records matching q. Time bounds are applied in SQL, the
// vehicle and request filters on the decoded records.
func (s sqlStore) Query(ctx context.Context, q LogQuery) ([]CycleRecord, error) {
	var args []any
	query := `SELECT record FROM dispatch_cycles WHERE 1=1`
	if !q.Start.IsZero() {
		args = append(args, q.Start.UnixNano())
		query += ` AND ts >= ` + s.bind(len(args))
	}
	if !q.End.IsZero() {
		args = append(args, q.End.UnixNano())
		query += ` AND ts <= ` + s.bind(len(args))
	}
	query += ` ORDER BY ts, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []CycleRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r CycleRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		if q.matches(r) {
			res = append(res, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s sqlStore) Close() error { return s.db.Close() }
