package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/stores-rest-api/internal/model"
)

// StoreRepository is the capability set for stores.
type StoreRepository interface {
	Create(ctx context.Context, s *model.Store) error
	GetByID(ctx context.Context, id uint64) (model.Store, error)
	List(ctx context.Context) ([]model.Store, error)
	DeleteCascade(ctx context.Context, id uint64) error
}

// StoreRepo encapsulates all queries against `stores`.
type StoreRepo struct {
	db DBTX
}

// NewStoreRepo constructs a StoreRepo with the provided handle.
func NewStoreRepo(db DBTX) *StoreRepo {
	return &StoreRepo{db: db}
}

var _ StoreRepository = (*StoreRepo)(nil)

// Create inserts a store and sets its ID. A taken name yields ErrDuplicate.
func (r *StoreRepo) Create(ctx context.Context, s *model.Store) error {
	s.Name = strings.TrimSpace(s.Name)
	res, err := r.db.ExecContext(ctx, "INSERT INTO stores (name) VALUES (?)", s.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID fetches a store. It returns ErrStoreNotFound if no row is found.
func (r *StoreRepo) GetByID(ctx context.Context, id uint64) (model.Store, error) {
	var s model.Store
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM stores WHERE id = ?", id).Scan(&s.ID, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Store{}, ErrStoreNotFound
	}
	return s, err
}

// List returns all stores ordered by id.
func (r *StoreRepo) List(ctx context.Context) ([]model.Store, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM stores ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Store
	for rows.Next() {
		var s model.Store
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteCascade removes a store together with its items, its tags and every
// item-tag link touching them. It must run inside a transaction (see
// WithTx). ErrStoreNotFound is returned when the store does not exist.
func (r *StoreRepo) DeleteCascade(ctx context.Context, id uint64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	// Links first: they reference both items and tags of this store.
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM items_tags
		 WHERE item_id IN (SELECT id FROM items WHERE store_id = ?)
		    OR tag_id IN (SELECT id FROM tags WHERE store_id = ?)`, id, id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE store_id = ?", id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tags WHERE store_id = ?", id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM stores WHERE id = ?", id); err != nil {
		return err
	}
	return nil
}
