package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/stores-rest-api/internal/model"
)

// TagRepository is the capability set for tags.
type TagRepository interface {
	Create(ctx context.Context, t *model.Tag) error
	GetByID(ctx context.Context, id uint64) (model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
	ListByStore(ctx context.Context, storeID uint64) ([]model.Tag, error)
	ListByItem(ctx context.Context, itemID uint64) ([]model.Tag, error)
	Delete(ctx context.Context, id uint64) error
}

// TagRepo encapsulates all queries against `tags`.
type TagRepo struct {
	db DBTX
}

// NewTagRepo constructs a TagRepo with the provided handle.
func NewTagRepo(db DBTX) *TagRepo {
	return &TagRepo{db: db}
}

var _ TagRepository = (*TagRepo)(nil)

const tagColumns = "t.id, t.name, t.store_id"

// Create inserts a tag and sets its ID. A name already used in the same
// store yields ErrDuplicate.
func (r *TagRepo) Create(ctx context.Context, t *model.Tag) error {
	t.Name = strings.TrimSpace(t.Name)
	res, err := r.db.ExecContext(ctx, "INSERT INTO tags (name, store_id) VALUES (?, ?)", t.Name, t.StoreID)
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
	t.ID = uint64(id)
	return nil
}

// GetByID fetches a tag. It returns ErrTagNotFound if no row is found.
func (r *TagRepo) GetByID(ctx context.Context, id uint64) (model.Tag, error) {
	var t model.Tag
	err := r.db.QueryRowContext(ctx, "SELECT "+tagColumns+" FROM tags t WHERE t.id = ?", id).
		Scan(&t.ID, &t.Name, &t.StoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tag{}, ErrTagNotFound
	}
	return t, err
}

// List returns every tag ordered by id.
func (r *TagRepo) List(ctx context.Context) ([]model.Tag, error) {
	return r.query(ctx, "SELECT "+tagColumns+" FROM tags t ORDER BY t.id")
}

// ListByStore returns the tags of one store.
func (r *TagRepo) ListByStore(ctx context.Context, storeID uint64) ([]model.Tag, error) {
	return r.query(ctx, "SELECT "+tagColumns+" FROM tags t WHERE t.store_id = ? ORDER BY t.id", storeID)
}

// ListByItem returns the tags linked to an item.
func (r *TagRepo) ListByItem(ctx context.Context, itemID uint64) ([]model.Tag, error) {
	return r.query(ctx,
		`SELECT `+tagColumns+`
		 FROM tags t JOIN items_tags it ON it.tag_id = t.id
		 WHERE it.item_id = ? ORDER BY t.id`, itemID)
}

// Delete removes a tag. It returns ErrTagNotFound when the tag does not
// exist and ErrConflict while the tag is still linked to any item.
func (r *TagRepo) Delete(ctx context.Context, id uint64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	var linked int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items_tags WHERE tag_id = ?", id).Scan(&linked); err != nil {
		return err
	}
	if linked > 0 {
		return ErrConflict
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	return err
}

func (r *TagRepo) query(ctx context.Context, q string, args ...any) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.StoreID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
