package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"crpstore/internal/crp/models"
	"crpstore/internal/platform/database"
)

const (
	insertCRPQuery       = `INSERT INTO crp ("user", challenge, response) VALUES (?, ?, ?)`
	selectCRPByUserQuery = `SELECT "user", challenge, response FROM crp WHERE "user" = ?`
)

// SQLStore persists records in the crp table of a Postgres or SQLite database.
type SQLStore struct {
	db          *sql.DB
	driver      database.Driver
	insertQuery string
	selectQuery string
}

// NewSQL constructs a store over an open pool.
func NewSQL(pool *database.Pool) *SQLStore {
	return newSQL(pool.DB(), pool.Driver())
}

func newSQL(db *sql.DB, driver database.Driver) *SQLStore {
	return &SQLStore{
		db:          db,
		driver:      driver,
		insertQuery: database.Rebind(driver, insertCRPQuery),
		selectQuery: database.Rebind(driver, selectCRPByUserQuery),
	}
}

func (s *SQLStore) InsertAll(ctx context.Context, records []models.CRP) error {
	if len(records) == 0 {
		return nil
	}
	return database.RunInScope(ctx, s.db, nil, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.insertQuery)
		if err != nil {
			return fmt.Errorf("prepare crp insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.User, r.Challenge, r.Response); err != nil {
				if database.IsUniqueViolation(err) {
					return uniquenessViolation(r.User, r.Challenge)
				}
				return fmt.Errorf("insert crp %s: %w", r.Key(), err)
			}
		}
		return nil
	})
}

func (s *SQLStore) QueryByUser(ctx context.Context, user string) ([]models.CRP, error) {
	records := make([]models.CRP, 0)
	err := database.RunInScope(ctx, s.db, s.readOptions(), func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.selectQuery, user)
		if err != nil {
			return fmt.Errorf("query crp by user: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var r models.CRP
			if err := rows.Scan(&r.User, &r.Challenge, &r.Response); err != nil {
				return fmt.Errorf("scan crp: %w", err)
			}
			records = append(records, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	// Byte order, independent of the database collation.
	sort.Slice(records, func(i, j int) bool { return records[i].Challenge < records[j].Challenge })
	return records, nil
}

// readOptions returns a read-only scope where the driver supports one.
func (s *SQLStore) readOptions() *sql.TxOptions {
	if s.driver == database.DriverPostgres {
		return &sql.TxOptions{ReadOnly: true}
	}
	return nil
}

// Health pings the database.
func (s *SQLStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
