package service

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stores-rest-api/internal/apperr"
	"github.com/iliyamo/stores-rest-api/internal/logger"
	"github.com/iliyamo/stores-rest-api/internal/queue"
)

func ptr[T any](v T) *T { return &v }

func TestStore_CreateGetList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.stores.Create(ctx, " Main St ")
	require.NoError(t, err)
	assert.Equal(t, "Main St", st.Name)
	assert.NotNil(t, st.Items)
	assert.NotNil(t, st.Tags)

	_, err = f.stores.Create(ctx, "Main St")
	assertCode(t, err, apperr.CodeConflict)
	_, err = f.stores.Create(ctx, "")
	assertCode(t, err, apperr.CodeValidation)

	got, err := f.stores.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)

	_, err = f.stores.Get(ctx, 999)
	assertCode(t, err, apperr.CodeNotFound)

	all, err := f.stores.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// Names are compared byte for byte.
	_, err = f.stores.Create(ctx, "main st")
	require.NoError(t, err)
}

func TestStore_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.stores.Create(ctx, "Main St")
	require.NoError(t, err)
	other, err := f.stores.Create(ctx, "Other")
	require.NoError(t, err)

	it, err := f.items.Create(ctx, ItemInput{Name: "Chair", Price: 10, StoreID: st.ID})
	require.NoError(t, err)
	tag, err := f.tags.Create(ctx, st.ID, "furniture")
	require.NoError(t, err)
	_, err = f.tags.Link(ctx, it.ID, tag.ID)
	require.NoError(t, err)
	keep, err := f.items.Create(ctx, ItemInput{Name: "Lamp", Price: 5, StoreID: other.ID})
	require.NoError(t, err)

	require.NoError(t, f.stores.Delete(ctx, st.ID))

	_, err = f.items.Get(ctx, it.ID)
	assertCode(t, err, apperr.CodeNotFound)
	_, err = f.tags.Get(ctx, tag.ID)
	assertCode(t, err, apperr.CodeNotFound)
	_, err = f.items.Get(ctx, keep.ID)
	require.NoError(t, err)

	var links int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM items_tags").Scan(&links))
	assert.Zero(t, links)

	err = f.stores.Delete(ctx, st.ID)
	assertCode(t, err, apperr.CodeNotFound)
}

func TestItem_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, err := f.stores.Create(ctx, "Main St")
	require.NoError(t, err)

	_, err = f.items.Create(ctx, ItemInput{Name: "Chair", Price: 1, StoreID: 999})
	assertCode(t, err, apperr.CodeNotFound)
	_, err = f.items.Create(ctx, ItemInput{Name: "Chair", Price: -1, StoreID: st.ID})
	assertCode(t, err, apperr.CodeValidation)
	_, err = f.items.Create(ctx, ItemInput{Price: 1, StoreID: st.ID})
	assertCode(t, err, apperr.CodeValidation)
	_, err = f.items.Create(ctx, ItemInput{Name: "Yacht", Price: 1e9, StoreID: st.ID})
	assertCode(t, err, apperr.CodeValidation)
	_, err = f.items.Create(ctx, ItemInput{Name: "Yacht", Price: MaxPrice, StoreID: st.ID})
	require.NoError(t, err)

	it, err := f.items.Create(ctx, ItemInput{Name: "Chair", Price: 12.346, StoreID: st.ID})
	require.NoError(t, err)
	assert.Equal(t, 12.35, it.Price)
	assert.Equal(t, st.ID, it.Store.ID)
	assert.Empty(t, it.Tags)

	view, err := f.stores.Get(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Chair", view.Items[0].Name)
}

func TestItem_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, err := f.stores.Create(ctx, "Main St")
	require.NoError(t, err)
	it, err := f.items.Create(ctx, ItemInput{Name: "Chair", Price: 10, StoreID: st.ID})
	require.NoError(t, err)

	up, err := f.items.Update(ctx, it.ID, ItemPatch{Price: ptr(20.0)})
	require.NoError(t, err)
	assert.Equal(t, "Chair", up.Name)
	assert.Equal(t, 20.0, up.Price)

	_, err = f.items.Update(ctx, 999, ItemPatch{Name: ptr("x")})
	assertCode(t, err, apperr.CodeNotFound)
	_, err = f.items.Update(ctx, it.ID, ItemPatch{StoreID: ptr(uint64(999))})
	assertCode(t, err, apperr.CodeNotFound)
	_, err = f.items.Update(ctx, it.ID, ItemPatch{Price: ptr(-2.0)})
	assertCode(t, err, apperr.CodeValidation)
	_, err = f.items.Update(ctx, it.ID, ItemPatch{Price: ptr(1e9)})
	assertCode(t, err, apperr.CodeValidation)

	got, err := f.items.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.Price, "failed updates are rolled back")
}

func TestItem_MoveDropsLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.stores.Create(ctx, "A")
	require.NoError(t, err)
	b, err := f.stores.Create(ctx, "B")
	require.NoError(t, err)
	it, err := f.items.Create(ctx, ItemInput{Name: "Chair", Price: 10, StoreID: a.ID})
	require.NoError(t, err)
	tag, err := f.tags.Create(ctx, a.ID, "sale")
	require.NoError(t, err)
	_, err = f.tags.Link(ctx, it.ID, tag.ID)
	require.NoError(t, err)

	moved, err := f.items.Update(ctx, it.ID, ItemPatch{StoreID: ptr(b.ID)})
	require.NoError(t, err)
	assert.Equal(t, b.ID, moved.Store.ID)
	assert.Empty(t, moved.Tags)

	tv, err := f.tags.Get(ctx, tag.ID)
	require.NoError(t, err)
	assert.Empty(t, tv.Items)
}

func TestItem_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, err := f.stores.Create(ctx, "Main St")
	require.NoError(t, err)
	it, err := f.items.Create(ctx, ItemInput{Name: "Chair", Price: 10, StoreID: st.ID})
	require.NoError(t, err)
	tag, err := f.tags.Create(ctx, st.ID, "sale")
	require.NoError(t, err)
	_, err = f.tags.Link(ctx, it.ID, tag.ID)
	require.NoError(t, err)

	require.NoError(t, f.items.Delete(ctx, it.ID))
	assertCode(t, f.items.Delete(ctx, it.ID), apperr.CodeNotFound)

	// The tag is free again.
	require.NoError(t, f.tags.Delete(ctx, tag.ID))
}

func TestTag_CreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.stores.Create(ctx, "A")
	require.NoError(t, err)
	b, err := f.stores.Create(ctx, "B")
	require.NoError(t, err)

	_, err = f.tags.Create(ctx, a.ID, "sale")
	require.NoError(t, err)
	_, err = f.tags.Create(ctx, a.ID, "sale")
	assertCode(t, err, apperr.CodeConflict)
	_, err = f.tags.Create(ctx, b.ID, "sale")
	require.NoError(t, err, "names are unique per store only")
	_, err = f.tags.Create(ctx, 999, "sale")
	assertCode(t, err, apperr.CodeNotFound)

	byStore, err := f.tags.ListByStore(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, byStore, 1)
	assert.Equal(t, a.ID, byStore[0].Store.ID)

	_, err = f.tags.ListByStore(ctx, 999)
	assertCode(t, err, apperr.CodeNotFound)

	all, err := f.tags.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTag_DeleteRejectedWhileLinked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, err := f.stores.Create(ctx, "Main St")
	require.NoError(t, err)
	it, err := f.items.Create(ctx, ItemInput{Name: "Chair", Price: 10, StoreID: st.ID})
	require.NoError(t, err)
	tag, err := f.tags.Create(ctx, st.ID, "sale")
	require.NoError(t, err)
	_, err = f.tags.Link(ctx, it.ID, tag.ID)
	require.NoError(t, err)

	assertCode(t, f.tags.Delete(ctx, tag.ID), apperr.CodeConflict)

	_, err = f.tags.Unlink(ctx, it.ID, tag.ID)
	require.NoError(t, err)
	require.NoError(t, f.tags.Delete(ctx, tag.ID))
	assertCode(t, f.tags.Delete(ctx, tag.ID), apperr.CodeNotFound)
}

func TestLinkUnlink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.stores.Create(ctx, "A")
	require.NoError(t, err)
	b, err := f.stores.Create(ctx, "B")
	require.NoError(t, err)
	it, err := f.items.Create(ctx, ItemInput{Name: "Chair", Price: 10, StoreID: a.ID})
	require.NoError(t, err)
	tag, err := f.tags.Create(ctx, a.ID, "sale")
	require.NoError(t, err)
	foreign, err := f.tags.Create(ctx, b.ID, "sale")
	require.NoError(t, err)

	lv, err := f.tags.Link(ctx, it.ID, tag.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, lv.Message)
	require.Len(t, lv.Item.Tags, 1)
	assert.Equal(t, tag.ID, lv.Item.Tags[0].ID)
	require.Len(t, lv.Tag.Items, 1)
	assert.Equal(t, it.ID, lv.Tag.Items[0].ID)

	_, err = f.tags.Link(ctx, it.ID, tag.ID)
	assertCode(t, err, apperr.CodeConflict)
	_, err = f.tags.Link(ctx, it.ID, foreign.ID)
	assertCode(t, err, apperr.CodeCrossStore)
	_, err = f.tags.Link(ctx, 999, tag.ID)
	assertCode(t, err, apperr.CodeNotFound)
	_, err = f.tags.Link(ctx, it.ID, 999)
	assertCode(t, err, apperr.CodeNotFound)

	lv, err = f.tags.Unlink(ctx, it.ID, tag.ID)
	require.NoError(t, err)
	assert.Empty(t, lv.Item.Tags)
	assert.Empty(t, lv.Tag.Items)

	_, err = f.tags.Unlink(ctx, it.ID, tag.ID)
	assertCode(t, err, apperr.CodeConflict)
}

func TestEvents_PublishedAfterCommitOnly(t *testing.T) {
	f := newFixture(t)
	ctx := WithActor(context.Background(), 7)

	st, err := f.stores.Create(ctx, "A")
	require.NoError(t, err)
	_, err = f.stores.Create(ctx, "A")
	require.Error(t, err)
	it, err := f.items.Create(ctx, ItemInput{Name: "Chair", Price: 1, StoreID: st.ID})
	require.NoError(t, err)
	tag, err := f.tags.Create(ctx, st.ID, "sale")
	require.NoError(t, err)
	_, err = f.tags.Link(ctx, it.ID, tag.ID)
	require.NoError(t, err)
	_, err = f.tags.Unlink(ctx, it.ID, tag.ID)
	require.NoError(t, err)
	_, err = f.items.Update(ctx, it.ID, ItemPatch{Name: ptr("Stool")})
	require.NoError(t, err)
	require.NoError(t, f.items.Delete(ctx, it.ID))
	require.NoError(t, f.tags.Delete(ctx, tag.ID))
	require.NoError(t, f.stores.Delete(ctx, st.ID))

	assert.Equal(t, []string{
		queue.StoreCreated, queue.ItemCreated, queue.TagCreated,
		queue.TagLinked, queue.TagUnlinked, queue.ItemUpdated,
		queue.ItemDeleted, queue.TagDeleted, queue.StoreDeleted,
	}, f.pub.types())
	for _, ev := range f.pub.events {
		assert.Equal(t, uint64(7), ev.UserID)
	}
}

func TestEvents_StalledBrokerDoesNotDelayWrites(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		var held []net.Conn
		defer func() {
			for _, c := range held {
				c.Close()
			}
		}()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			held = append(held, conn)
		}
	}()

	f := newFixture(t)
	pub := queue.NewAMQPPublisher("amqp://guest:guest@"+ln.Addr().String()+"/", logger.Discard())
	t.Cleanup(func() { pub.Close() })
	stores := NewStoreService(f.db, pub, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	_, err = stores.Create(ctx, "Main St")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
