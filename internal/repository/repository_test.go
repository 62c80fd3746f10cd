package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stores-rest-api/internal/database"
	"github.com/iliyamo/stores-rest-api/internal/model"
)

// testDB opens a migrated SQLite database in a temp directory.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repo-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, "sqlite3"))
	return db
}

func seedStore(t *testing.T, r *Repos, name string) model.Store {
	t.Helper()
	s := model.Store{Name: name}
	require.NoError(t, r.Stores.Create(context.Background(), &s))
	return s
}

func TestUserRepo_CreateAndLookup(t *testing.T) {
	r := New(testDB(t))
	ctx := context.Background()

	u := model.User{Username: "  alice ", PasswordHash: "hash"}
	require.NoError(t, r.Users.Create(ctx, &u))
	assert.NotZero(t, u.ID)

	got, err := r.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	byID, err := r.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	dup := model.User{Username: "alice", PasswordHash: "other"}
	assert.ErrorIs(t, r.Users.Create(ctx, &dup), ErrDuplicate)

	_, err = r.Users.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStoreRepo_DuplicateName(t *testing.T) {
	r := New(testDB(t))
	ctx := context.Background()

	seedStore(t, r, "Greenhouse")
	dup := model.Store{Name: "Greenhouse"}
	assert.ErrorIs(t, r.Stores.Create(ctx, &dup), ErrDuplicate)

	stores, err := r.Stores.List(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "Greenhouse", stores[0].Name)
}

func TestStoreRepo_DeleteCascadeLeavesNoOrphans(t *testing.T) {
	db := testDB(t)
	r := New(db)
	ctx := context.Background()

	doomed := seedStore(t, r, "Doomed")
	kept := seedStore(t, r, "Kept")

	item := model.Item{Name: "chair", Price: 10, StoreID: doomed.ID}
	require.NoError(t, r.Items.Create(ctx, &item))
	tag := model.Tag{Name: "furniture", StoreID: doomed.ID}
	require.NoError(t, r.Tags.Create(ctx, &tag))
	_, err := r.Links.Link(ctx, item.ID, tag.ID)
	require.NoError(t, err)

	keptItem := model.Item{Name: "lamp", Price: 5, StoreID: kept.ID}
	require.NoError(t, r.Items.Create(ctx, &keptItem))

	require.NoError(t, WithTx(ctx, db, func(tx *Repos) error {
		return tx.Stores.DeleteCascade(ctx, doomed.ID)
	}))

	_, err = r.Stores.GetByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, ErrStoreNotFound)

	var orphans int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items WHERE store_id NOT IN (SELECT id FROM stores)").Scan(&orphans))
	assert.Zero(t, orphans)
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tags WHERE store_id NOT IN (SELECT id FROM stores)").Scan(&orphans))
	assert.Zero(t, orphans)
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items_tags").Scan(&orphans))
	assert.Zero(t, orphans)

	items, err := r.Items.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, keptItem.ID, items[0].ID)

	err = WithTx(ctx, db, func(tx *Repos) error { return tx.Stores.DeleteCascade(ctx, doomed.ID) })
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestItemRepo_UpdateAndDelete(t *testing.T) {
	r := New(testDB(t))
	ctx := context.Background()
	s := seedStore(t, r, "S")

	it := model.Item{Name: "pen", Price: 1.25, StoreID: s.ID}
	require.NoError(t, r.Items.Create(ctx, &it))

	it.Name = "fountain pen"
	it.Price = 30.5
	require.NoError(t, r.Items.Update(ctx, it))

	got, err := r.Items.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "fountain pen", got.Name)
	assert.InDelta(t, 30.5, got.Price, 0.001)

	assert.ErrorIs(t, r.Items.Update(ctx, model.Item{ID: 999, Name: "x", StoreID: s.ID}), ErrItemNotFound)

	require.NoError(t, r.Items.Delete(ctx, it.ID))
	assert.ErrorIs(t, r.Items.Delete(ctx, it.ID), ErrItemNotFound)
}

func TestTagRepo_DuplicateNamePerStore(t *testing.T) {
	r := New(testDB(t))
	ctx := context.Background()
	a := seedStore(t, r, "A")
	b := seedStore(t, r, "B")

	require.NoError(t, r.Tags.Create(ctx, &model.Tag{Name: "sale", StoreID: a.ID}))
	assert.ErrorIs(t, r.Tags.Create(ctx, &model.Tag{Name: "sale", StoreID: a.ID}), ErrDuplicate)
	assert.NoError(t, r.Tags.Create(ctx, &model.Tag{Name: "sale", StoreID: b.ID}))

	tags, err := r.Tags.ListByStore(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestTagRepo_DeleteRejectedWhileLinked(t *testing.T) {
	r := New(testDB(t))
	ctx := context.Background()
	s := seedStore(t, r, "S")

	it := model.Item{Name: "pen", Price: 1, StoreID: s.ID}
	require.NoError(t, r.Items.Create(ctx, &it))
	tag := model.Tag{Name: "office", StoreID: s.ID}
	require.NoError(t, r.Tags.Create(ctx, &tag))
	_, err := r.Links.Link(ctx, it.ID, tag.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Tags.Delete(ctx, tag.ID), ErrConflict)

	require.NoError(t, r.Links.Unlink(ctx, it.ID, tag.ID))
	assert.NoError(t, r.Tags.Delete(ctx, tag.ID))
	assert.ErrorIs(t, r.Tags.Delete(ctx, tag.ID), ErrTagNotFound)
}

func TestItemTagRepo_LinkUnlink(t *testing.T) {
	r := New(testDB(t))
	ctx := context.Background()
	s := seedStore(t, r, "S")

	it := model.Item{Name: "pen", Price: 1, StoreID: s.ID}
	require.NoError(t, r.Items.Create(ctx, &it))
	tag := model.Tag{Name: "office", StoreID: s.ID}
	require.NoError(t, r.Tags.Create(ctx, &tag))

	link, err := r.Links.Link(ctx, it.ID, tag.ID)
	require.NoError(t, err)
	assert.NotZero(t, link.ID)

	_, err = r.Links.Link(ctx, it.ID, tag.ID)
	assert.ErrorIs(t, err, ErrDuplicate)

	ok, err := r.Links.Exists(ctx, it.ID, tag.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	tags, err := r.Tags.ListByItem(ctx, it.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	items, err := r.Items.ListByTag(ctx, tag.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, r.Links.Unlink(ctx, it.ID, tag.ID))
	assert.ErrorIs(t, r.Links.Unlink(ctx, it.ID, tag.ID), ErrLinkNotFound)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithTx(ctx, db, func(r *Repos) error {
		if err := r.Stores.Create(ctx, &model.Store{Name: "Ghost"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stores, err := New(db).Stores.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestTokenRepo_RevokeAndPurge(t *testing.T) {
	repo := NewTokenRepo(testDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Revoke(ctx, "live", now.Add(time.Hour)))
	require.NoError(t, repo.Revoke(ctx, "live", now.Add(time.Hour)), "revoking twice is a no-op")
	require.NoError(t, repo.Revoke(ctx, "old", now.Add(-time.Minute)))

	ok, err := repo.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = repo.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)
}
