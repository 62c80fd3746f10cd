package service

import (
	"context"

	"github.com/iliyamo/stores-rest-api/internal/model"
	"github.com/iliyamo/stores-rest-api/internal/repository"
)

// The view builders load the relations of one entity through r.  Inside a
// transaction r must be the transactional bundle.

func storeView(ctx context.Context, r *repository.Repos, s model.Store) (model.StoreView, error) {
	items, err := r.Items.ListByStore(ctx, s.ID)
	if err != nil {
		return model.StoreView{}, err
	}
	tags, err := r.Tags.ListByStore(ctx, s.ID)
	if err != nil {
		return model.StoreView{}, err
	}
	return model.StoreView{
		ID:    s.ID,
		Name:  s.Name,
		Items: model.PlainItems(items),
		Tags:  model.PlainTags(tags),
	}, nil
}

func itemView(ctx context.Context, r *repository.Repos, it model.Item) (model.ItemView, error) {
	store, err := r.Stores.GetByID(ctx, it.StoreID)
	if err != nil {
		return model.ItemView{}, err
	}
	tags, err := r.Tags.ListByItem(ctx, it.ID)
	if err != nil {
		return model.ItemView{}, err
	}
	return model.ItemView{
		ID:    it.ID,
		Name:  it.Name,
		Price: it.Price,
		Store: store.Plain(),
		Tags:  model.PlainTags(tags),
	}, nil
}

func tagView(ctx context.Context, r *repository.Repos, t model.Tag) (model.TagView, error) {
	store, err := r.Stores.GetByID(ctx, t.StoreID)
	if err != nil {
		return model.TagView{}, err
	}
	items, err := r.Items.ListByTag(ctx, t.ID)
	if err != nil {
		return model.TagView{}, err
	}
	return model.TagView{
		ID:    t.ID,
		Name:  t.Name,
		Store: store.Plain(),
		Items: model.PlainItems(items),
	}, nil
}
