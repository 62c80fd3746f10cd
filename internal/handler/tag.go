package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stores-rest-api/internal/model"
	"github.com/iliyamo/stores-rest-api/internal/service"
)

// TagHandler serves /tag and the item-tag link routes.
type TagHandler struct {
	Tags *service.TagService
}

func NewTagHandler(s *service.TagService) *TagHandler {
	return &TagHandler{Tags: s}
}

type tagReq struct {
	Name    string `json:"name" validate:"required,notblank,max=80"`
	StoreID uint64 `json:"store_id" validate:"required,gt=0,lte=9223372036854775807"`
}

func (h *TagHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tags, err := h.Tags.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tags.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TagHandler) Create(c echo.Context) error {
	var req tagReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tags.Create(ctx, req.StoreID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TagHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tags.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, model.Message{Message: "Tag deleted."})
}

// Link: POST /item/:id/tag/:tag_id.
func (h *TagHandler) Link(c echo.Context) error {
	itemID, tagID, err := linkIDs(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Tags.Link(ctx, itemID, tagID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

// Unlink: DELETE /item/:id/tag/:tag_id.
func (h *TagHandler) Unlink(c echo.Context) error {
	itemID, tagID, err := linkIDs(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Tags.Unlink(ctx, itemID, tagID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func linkIDs(c echo.Context) (itemID, tagID uint64, err error) {
	if itemID, err = parseID(c, "id"); err != nil {
		return 0, 0, err
	}
	if tagID, err = parseID(c, "tag_id"); err != nil {
		return 0, 0, err
	}
	return itemID, tagID, nil
}
