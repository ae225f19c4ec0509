package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrScopeClosed is returned when a committed or released scope is reused.
var ErrScopeClosed = errors.New("scope already closed")

// Scope is a transactional resource handle. Callers defer Release right after
// Begin; Release rolls back unless Commit already succeeded, so every exit path
// (return, error, panic) leaves the transaction closed.
type Scope struct {
	tx     *sql.Tx
	closed bool
}

// Begin opens a scope on db.
func Begin(ctx context.Context, db *sql.DB, opts *sql.TxOptions) (*Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("begin scope: %w", err)
	}
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin scope: %w", err)
	}
	return &Scope{tx: tx}, nil
}

// Tx exposes the transaction for statements issued inside the scope.
func (s *Scope) Tx() *sql.Tx {
	return s.tx
}

// Commit makes the scope's work durable and closes it.
func (s *Scope) Commit() error {
	if s.closed {
		return ErrScopeClosed
	}
	s.closed = true
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit scope: %w", err)
	}
	return nil
}

// Release rolls back an open scope. It is a no-op once the scope is closed.
func (s *Scope) Release() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback scope: %w", err)
	}
	return nil
}

// RunInScope runs fn inside a scope: commit when fn returns nil, roll back otherwise.
func RunInScope(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	scope, err := Begin(ctx, db, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = scope.Release() //nolint:errcheck // release after commit is a no-op; fn's error wins
	}()

	if err := fn(scope.Tx()); err != nil {
		return err
	}
	return scope.Commit()
}
