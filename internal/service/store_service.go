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

// StoreService manages stores.  Deleting a store cascades to its items, tags
// and their links.
type StoreService struct {
	db     *sql.DB
	events events
}

func NewStoreService(db *sql.DB, pub queue.Publisher, log *logger.Logger) *StoreService {
	return &StoreService{db: db, events: events{pub: pub, log: log}}
}

func (s *StoreService) List(ctx context.Context) ([]model.StoreView, error) {
	r := repository.New(s.db)
	stores, err := r.Stores.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]model.StoreView, 0, len(stores))
	for _, st := range stores {
		v, err := storeView(ctx, r, st)
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *StoreService) Get(ctx context.Context, id uint64) (model.StoreView, error) {
	r := repository.New(s.db)
	st, err := r.Stores.GetByID(ctx, id)
	if err != nil {
		return model.StoreView{}, translate(err)
	}
	v, err := storeView(ctx, r, st)
	return v, translate(err)
}

// Create inserts a store.  Names are unique across stores.
func (s *StoreService) Create(ctx context.Context, name string) (model.StoreView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.StoreView{}, apperr.Validation("Store name is required.")
	}

	st := model.Store{Name: name}
	err := repository.WithTx(ctx, s.db, func(r *repository.Repos) error {
		return r.Stores.Create(ctx, &st)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return model.StoreView{}, apperr.Conflict("A store with that name already exists.")
	}
	if err != nil {
		return model.StoreView{}, translate(err)
	}

	ev := queue.NewEvent(queue.StoreCreated, "store", st.ID)
	ev.Name = st.Name
	s.events.publish(ctx, ev)
	return model.StoreView{ID: st.ID, Name: st.Name, Items: []model.PlainItem{}, Tags: []model.PlainTag{}}, nil
}

// Delete removes the store together with its items, tags and links in one
// transaction.
func (s *StoreService) Delete(ctx context.Context, id uint64) error {
	var name string
	err := repository.WithTx(ctx, s.db, func(r *repository.Repos) error {
		st, err := r.Stores.GetByID(ctx, id)
		if err != nil {
			return err
		}
		name = st.Name
		return r.Stores.DeleteCascade(ctx, id)
	})
	if err != nil {
		return translate(err)
	}

	ev := queue.NewEvent(queue.StoreDeleted, "store", id)
	ev.Name = name
	s.events.publish(ctx, ev)
	return nil
}
