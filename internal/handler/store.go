package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stores-rest-api/internal/model"
	"github.com/iliyamo/stores-rest-api/internal/service"
)

// StoreHandler serves /store and the store scoped tag routes.
type StoreHandler struct {
	Stores *service.StoreService
	Tags   *service.TagService
}

func NewStoreHandler(s *service.StoreService, t *service.TagService) *StoreHandler {
	return &StoreHandler{Stores: s, Tags: t}
}

// nameReq is the body of store creation and of tag creation under a store.
type nameReq struct {
	Name string `json:"name" validate:"required,notblank,max=80"`
}

func (h *StoreHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	stores, err := h.Stores.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stores)
}

func (h *StoreHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Stores.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (h *StoreHandler) Create(c echo.Context) error {
	var req nameReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Stores.Create(ctx, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *StoreHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Stores.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, model.Message{Message: "Store deleted."})
}

// ListTags: GET /store/:id/tag.
func (h *StoreHandler) ListTags(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	tags, err := h.Tags.ListByStore(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

// CreateTag: POST /store/:id/tag.
func (h *StoreHandler) CreateTag(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req nameReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tags.Create(ctx, id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}
