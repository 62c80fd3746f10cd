package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by the repositories, so the
// same repository code runs inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repos bundles every repository bound to one DBTX.
type Repos struct {
	Users  UserRepository
	Stores StoreRepository
	Items  ItemRepository
	Tags   TagRepository
	Links  ItemTagRepository
}

// New binds all repositories to q.
func New(q DBTX) *Repos {
	return &Repos{
		Users:  NewUserRepo(q),
		Stores: NewStoreRepo(q),
		Items:  NewItemRepo(q),
		Tags:   NewTagRepo(q),
		Links:  NewItemTagRepo(q),
	}
}

// WithTx runs fn inside a single transaction. The transaction is committed
// when fn returns nil and rolled back otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(r *Repos) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()
	return fn(New(tx))
}
