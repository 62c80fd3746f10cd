package service

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"github.com/iliyamo/stores-rest-api/internal/apperr"
	"github.com/iliyamo/stores-rest-api/internal/logger"
	"github.com/iliyamo/stores-rest-api/internal/model"
	"github.com/iliyamo/stores-rest-api/internal/queue"
	"github.com/iliyamo/stores-rest-api/internal/repository"
)

// MaxPrice is the largest price a DECIMAL(10,2) column holds.
const MaxPrice = 99999999.99

// ItemInput holds the fields of a new item.
type ItemInput struct {
	Name    string
	Price   float64
	StoreID uint64
}

// ItemPatch holds the fields to change on an item.  Nil fields keep their
// current value.
type ItemPatch struct {
	Name    *string
	Price   *float64
	StoreID *uint64
}

type ItemService struct {
	db     *sql.DB
	events events
}

func NewItemService(db *sql.DB, pub queue.Publisher, log *logger.Logger) *ItemService {
	return &ItemService{db: db, events: events{pub: pub, log: log}}
}

func (s *ItemService) List(ctx context.Context) ([]model.ItemView, error) {
	r := repository.New(s.db)
	items, err := r.Items.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]model.ItemView, 0, len(items))
	for _, it := range items {
		v, err := itemView(ctx, r, it)
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *ItemService) Get(ctx context.Context, id uint64) (model.ItemView, error) {
	r := repository.New(s.db)
	it, err := r.Items.GetByID(ctx, id)
	if err != nil {
		return model.ItemView{}, translate(err)
	}
	v, err := itemView(ctx, r, it)
	return v, translate(err)
}

// Create inserts an item into an existing store.
func (s *ItemService) Create(ctx context.Context, in ItemInput) (model.ItemView, error) {
	it := model.Item{Name: strings.TrimSpace(in.Name), Price: roundPrice(in.Price), StoreID: in.StoreID}
	if err := validateItem(it); err != nil {
		return model.ItemView{}, err
	}

	var view model.ItemView
	err := repository.WithTx(ctx, s.db, func(r *repository.Repos) error {
		if _, err := r.Stores.GetByID(ctx, it.StoreID); err != nil {
			return err
		}
		if err := r.Items.Create(ctx, &it); err != nil {
			return err
		}
		var err error
		view, err = itemView(ctx, r, it)
		return err
	})
	if err != nil {
		return model.ItemView{}, translate(err)
	}

	s.events.publish(ctx, itemEvent(queue.ItemCreated, it))
	return view, nil
}

// Update applies patch to an existing item.  Moving the item to another
// store drops its tag links since tags never span stores.
func (s *ItemService) Update(ctx context.Context, id uint64, patch ItemPatch) (model.ItemView, error) {
	var (
		view model.ItemView
		it   model.Item
	)
	err := repository.WithTx(ctx, s.db, func(r *repository.Repos) error {
		var err error
		it, err = r.Items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			it.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Price != nil {
			it.Price = roundPrice(*patch.Price)
		}
		moved := patch.StoreID != nil && *patch.StoreID != it.StoreID
		if moved {
			it.StoreID = *patch.StoreID
		}
		if err := validateItem(it); err != nil {
			return err
		}
		if moved {
			if _, err := r.Stores.GetByID(ctx, it.StoreID); err != nil {
				return err
			}
			if err := r.Links.DeleteByItem(ctx, it.ID); err != nil {
				return err
			}
		}
		if err := r.Items.Update(ctx, it); err != nil {
			return err
		}
		view, err = itemView(ctx, r, it)
		return err
	})
	if err != nil {
		return model.ItemView{}, translate(err)
	}

	s.events.publish(ctx, itemEvent(queue.ItemUpdated, it))
	return view, nil
}

// Delete removes the item and its tag links.
func (s *ItemService) Delete(ctx context.Context, id uint64) error {
	var it model.Item
	err := repository.WithTx(ctx, s.db, func(r *repository.Repos) error {
		var err error
		if it, err = r.Items.GetByID(ctx, id); err != nil {
			return err
		}
		return r.Items.Delete(ctx, id)
	})
	if err != nil {
		return translate(err)
	}

	s.events.publish(ctx, itemEvent(queue.ItemDeleted, it))
	return nil
}

func validateItem(it model.Item) error {
	switch {
	case it.Name == "":
		return apperr.Validation("Item name is required.")
	case it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0):
		return apperr.Validation("Price must be a non-negative number.")
	case it.Price > MaxPrice:
		return apperr.Validation("Price must not exceed 99999999.99.")
	case it.StoreID == 0:
		return apperr.Validation("store_id is required.")
	}
	return nil
}

// roundPrice keeps two decimal places, matching the DECIMAL(10,2) column.
func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}

func itemEvent(typ string, it model.Item) queue.Event {
	ev := queue.NewEvent(typ, "item", it.ID)
	ev.Name = it.Name
	ev.StoreID = it.StoreID
	return ev
}
