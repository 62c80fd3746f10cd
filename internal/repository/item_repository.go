package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/stores-rest-api/internal/model"
)

// ItemRepository is the capability set for items.
type ItemRepository interface {
	Create(ctx context.Context, it *model.Item) error
	GetByID(ctx context.Context, id uint64) (model.Item, error)
	List(ctx context.Context) ([]model.Item, error)
	ListByStore(ctx context.Context, storeID uint64) ([]model.Item, error)
	ListByTag(ctx context.Context, tagID uint64) ([]model.Item, error)
	Update(ctx context.Context, it model.Item) error
	Delete(ctx context.Context, id uint64) error
}

// ItemRepo encapsulates all queries against `items`.
type ItemRepo struct {
	db DBTX
}

// NewItemRepo constructs an ItemRepo with the provided handle.
func NewItemRepo(db DBTX) *ItemRepo {
	return &ItemRepo{db: db}
}

var _ ItemRepository = (*ItemRepo)(nil)

const itemColumns = "i.id, i.name, i.price, i.store_id"

// Create inserts an item and sets its ID. The caller verifies the store.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
	it.Name = strings.TrimSpace(it.Name)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO items (name, price, store_id) VALUES (?, ?, ?)",
		it.Name, it.Price, it.StoreID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

// GetByID fetches an item. It returns ErrItemNotFound if no row is found.
func (r *ItemRepo) GetByID(ctx context.Context, id uint64) (model.Item, error) {
	var it model.Item
	err := r.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items i WHERE i.id = ?", id).
		Scan(&it.ID, &it.Name, &it.Price, &it.StoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, ErrItemNotFound
	}
	return it, err
}

// List returns every item ordered by id.
func (r *ItemRepo) List(ctx context.Context) ([]model.Item, error) {
	return r.query(ctx, "SELECT "+itemColumns+" FROM items i ORDER BY i.id")
}

// ListByStore returns the items of one store.
func (r *ItemRepo) ListByStore(ctx context.Context, storeID uint64) ([]model.Item, error) {
	return r.query(ctx, "SELECT "+itemColumns+" FROM items i WHERE i.store_id = ? ORDER BY i.id", storeID)
}

// ListByTag returns the items linked to a tag.
func (r *ItemRepo) ListByTag(ctx context.Context, tagID uint64) ([]model.Item, error) {
	return r.query(ctx,
		`SELECT `+itemColumns+`
		 FROM items i JOIN items_tags it ON it.item_id = i.id
		 WHERE it.tag_id = ? ORDER BY i.id`, tagID)
}

// Update overwrites name, price and store_id. It returns ErrItemNotFound
// when the item does not exist.
func (r *ItemRepo) Update(ctx context.Context, it model.Item) error {
	if _, err := r.GetByID(ctx, it.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE items SET name = ?, price = ?, store_id = ? WHERE id = ?",
		strings.TrimSpace(it.Name), it.Price, it.StoreID, it.ID)
	return err
}

// Delete removes an item and its tag links. Run it inside a transaction.
func (r *ItemRepo) Delete(ctx context.Context, id uint64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM items_tags WHERE item_id = ?", id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	return err
}

func (r *ItemRepo) query(ctx context.Context, q string, args ...any) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.StoreID); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
