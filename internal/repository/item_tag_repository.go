package repository

import (
	"context"

	"github.com/iliyamo/stores-rest-api/internal/model"
)

// ItemTagRepository manages the explicit item-tag link entity.
type ItemTagRepository interface {
	Link(ctx context.Context, itemID, tagID uint64) (model.ItemTag, error)
	Unlink(ctx context.Context, itemID, tagID uint64) error
	Exists(ctx context.Context, itemID, tagID uint64) (bool, error)
	DeleteByItem(ctx context.Context, itemID uint64) error
}

// ItemTagRepo stores links in `items_tags`.
type ItemTagRepo struct{ db DBTX }

func NewItemTagRepo(db DBTX) *ItemTagRepo { return &ItemTagRepo{db: db} }

var _ ItemTagRepository = (*ItemTagRepo)(nil)

// Link inserts the (item, tag) pair. An existing pair yields ErrDuplicate.
// Same-store checks are the caller's job.
func (r *ItemTagRepo) Link(ctx context.Context, itemID, tagID uint64) (model.ItemTag, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO items_tags (item_id, tag_id) VALUES (?, ?)", itemID, tagID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ItemTag{}, ErrDuplicate
		}
		return model.ItemTag{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ItemTag{}, err
	}
	return model.ItemTag{ID: uint64(id), ItemID: itemID, TagID: tagID}, nil
}

// Unlink removes the pair. It returns ErrLinkNotFound when the pair was not
// linked, so unlinking twice fails the second time.
func (r *ItemTagRepo) Unlink(ctx context.Context, itemID, tagID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM items_tags WHERE item_id = ? AND tag_id = ?", itemID, tagID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// Exists reports whether the pair is linked.
func (r *ItemTagRepo) Exists(ctx context.Context, itemID, tagID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items_tags WHERE item_id = ? AND tag_id = ?", itemID, tagID).Scan(&n)
	return n > 0, err
}

// DeleteByItem drops every link of an item.
func (r *ItemTagRepo) DeleteByItem(ctx context.Context, itemID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM items_tags WHERE item_id = ?", itemID)
	return err
}
