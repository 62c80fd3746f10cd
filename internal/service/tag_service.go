package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/stores-rest-api/internal/apperr"
	"github.com/iliyamo/stores-rest-api/internal/logger"
	"github.com/iliyamo/stores-rest-api/internal/model"
	"github.com/iliyamo/stores-rest-api/internal/queue"
	"github.com/iliyamo/stores-rest-api/internal/repository"
)

// TagService manages tags and their links to items.
type TagService struct {
	db     *sql.DB
	events events
}

func NewTagService(db *sql.DB, pub queue.Publisher, log *logger.Logger) *TagService {
	return &TagService{db: db, events: events{pub: pub, log: log}}
}

func (s *TagService) List(ctx context.Context) ([]model.TagView, error) {
	r := repository.New(s.db)
	tags, err := r.Tags.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return s.views(ctx, r, tags)
}

// ListByStore returns the tags of one store.
func (s *TagService) ListByStore(ctx context.Context, storeID uint64) ([]model.TagView, error) {
	r := repository.New(s.db)
	if _, err := r.Stores.GetByID(ctx, storeID); err != nil {
		return nil, translate(err)
	}
	tags, err := r.Tags.ListByStore(ctx, storeID)
	if err != nil {
		return nil, translate(err)
	}
	return s.views(ctx, r, tags)
}

func (s *TagService) views(ctx context.Context, r *repository.Repos, tags []model.Tag) ([]model.TagView, error) {
	out := make([]model.TagView, 0, len(tags))
	for _, t := range tags {
		v, err := tagView(ctx, r, t)
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *TagService) Get(ctx context.Context, id uint64) (model.TagView, error) {
	r := repository.New(s.db)
	t, err := r.Tags.GetByID(ctx, id)
	if err != nil {
		return model.TagView{}, translate(err)
	}
	v, err := tagView(ctx, r, t)
	return v, translate(err)
}

// Create inserts a tag into an existing store.  Names are unique per store.
func (s *TagService) Create(ctx context.Context, storeID uint64, name string) (model.TagView, error) {
	t := model.Tag{Name: strings.TrimSpace(name), StoreID: storeID}
	if t.Name == "" {
		return model.TagView{}, apperr.Validation("Tag name is required.")
	}
	if t.StoreID == 0 {
		return model.TagView{}, apperr.Validation("store_id is required.")
	}

	var view model.TagView
	err := repository.WithTx(ctx, s.db, func(r *repository.Repos) error {
		if _, err := r.Stores.GetByID(ctx, t.StoreID); err != nil {
			return err
		}
		if err := r.Tags.Create(ctx, &t); err != nil {
			return err
		}
		var err error
		view, err = tagView(ctx, r, t)
		return err
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return model.TagView{}, apperr.Conflict("A tag with that name already exists in that store.")
	}
	if err != nil {
		return model.TagView{}, translate(err)
	}

	ev := queue.NewEvent(queue.TagCreated, "tag", t.ID)
	ev.Name = t.Name
	ev.StoreID = t.StoreID
	s.events.publish(ctx, ev)
	return view, nil
}

// Delete removes a tag that is no longer linked to any item.
func (s *TagService) Delete(ctx context.Context, id uint64) error {
	var t model.Tag
	err := repository.WithTx(ctx, s.db, func(r *repository.Repos) error {
		var err error
		if t, err = r.Tags.GetByID(ctx, id); err != nil {
			return err
		}
		return r.Tags.Delete(ctx, id)
	})
	if errors.Is(err, repository.ErrConflict) {
		return apperr.Conflict("Tag is still linked to items; unlink them first.")
	}
	if err != nil {
		return translate(err)
	}

	ev := queue.NewEvent(queue.TagDeleted, "tag", t.ID)
	ev.Name = t.Name
	ev.StoreID = t.StoreID
	s.events.publish(ctx, ev)
	return nil
}

// Link attaches a tag to an item of the same store.
func (s *TagService) Link(ctx context.Context, itemID, tagID uint64) (model.LinkView, error) {
	view, storeID, err := s.changeLink(ctx, itemID, tagID, func(r *repository.Repos) error {
		_, err := r.Links.Link(ctx, itemID, tagID)
		return err
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return model.LinkView{}, apperr.Conflict("Item is already linked to tag.")
	}
	if err != nil {
		return model.LinkView{}, translate(err)
	}
	view.Message = "Item linked to tag."
	s.events.publish(ctx, linkEvent(queue.TagLinked, itemID, tagID, storeID))
	return view, nil
}

// Unlink detaches a tag from an item.  Unlinking a pair that is not linked
// fails.
func (s *TagService) Unlink(ctx context.Context, itemID, tagID uint64) (model.LinkView, error) {
	view, storeID, err := s.changeLink(ctx, itemID, tagID, func(r *repository.Repos) error {
		return r.Links.Unlink(ctx, itemID, tagID)
	})
	if err != nil {
		return model.LinkView{}, translate(err)
	}
	view.Message = "Item removed from tag."
	s.events.publish(ctx, linkEvent(queue.TagUnlinked, itemID, tagID, storeID))
	return view, nil
}

// changeLink loads both ends, enforces the same-store rule, runs op and
// renders the resulting item and tag, all in one transaction.
func (s *TagService) changeLink(ctx context.Context, itemID, tagID uint64, op func(r *repository.Repos) error) (model.LinkView, uint64, error) {
	var (
		view    model.LinkView
		storeID uint64
	)
	err := repository.WithTx(ctx, s.db, func(r *repository.Repos) error {
		it, err := r.Items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		t, err := r.Tags.GetByID(ctx, tagID)
		if err != nil {
			return err
		}
		if it.StoreID != t.StoreID {
			return apperr.CrossStore("Item and tag belong to different stores.")
		}
		storeID = it.StoreID
		if err := op(r); err != nil {
			return err
		}
		if view.Item, err = itemView(ctx, r, it); err != nil {
			return err
		}
		view.Tag, err = tagView(ctx, r, t)
		return err
	})
	return view, storeID, err
}

func linkEvent(typ string, itemID, tagID, storeID uint64) queue.Event {
	ev := queue.NewEvent(typ, "item", itemID)
	ev.RelatedID = tagID
	ev.StoreID = storeID
	return ev
}
