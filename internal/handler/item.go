package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stores-rest-api/internal/model"
	"github.com/iliyamo/stores-rest-api/internal/service"
)

// ItemHandler serves /item.
type ItemHandler struct {
	Items *service.ItemService
}

func NewItemHandler(s *service.ItemService) *ItemHandler {
	return &ItemHandler{Items: s}
}

type itemReq struct {
	Name    string   `json:"name" validate:"required,notblank,max=80"`
	Price   *float64 `json:"price" validate:"required,gte=0,lte=99999999.99"` // pointer so a missing price differs from 0
	StoreID uint64   `json:"store_id" validate:"required,gt=0,lte=9223372036854775807"`
}

// itemUpdateReq fields are all optional; absent fields stay unchanged.
type itemUpdateReq struct {
	Name    *string  `json:"name" validate:"omitempty,notblank,max=80"`
	Price   *float64 `json:"price" validate:"omitempty,gte=0,lte=99999999.99"`
	StoreID *uint64  `json:"store_id" validate:"omitempty,gt=0,lte=9223372036854775807"`
}

func (h *ItemHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Items.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	it, err := h.Items.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, it)
}

func (h *ItemHandler) Create(c echo.Context) error {
	var req itemReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	it, err := h.Items.Create(ctx, service.ItemInput{Name: req.Name, Price: *req.Price, StoreID: req.StoreID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, it)
}

// Update: PUT /item/:id.  Updating a missing item is a 404, not an insert.
func (h *ItemHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req itemUpdateReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	it, err := h.Items.Update(ctx, id, service.ItemPatch{Name: req.Name, Price: req.Price, StoreID: req.StoreID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, it)
}

func (h *ItemHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Items.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, model.Message{Message: "Item deleted."})
}
