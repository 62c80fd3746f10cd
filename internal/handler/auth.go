package handler

import (
	"net/http" // HTTP status codes and primitives

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/stores-rest-api/internal/apperr"
	"github.com/iliyamo/stores-rest-api/internal/middleware"
	"github.com/iliyamo/stores-rest-api/internal/model"
	"github.com/iliyamo/stores-rest-api/internal/service"
)

// AuthHandler bundles dependencies for auth and user endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

// logoutReq optionally carries the refresh token of the session.
type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
}

type credentialsReq struct {
	Username string `json:"username" validate:"required,notblank,max=80"`
	Password string `json:"password" validate:"required,max=72"`
}

// Register: create user, 201 with the user.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

// Login: verify and return a fresh access token plus a refresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh: exchange the bearer refresh token for a non-fresh access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	tok, err := h.Auth.Refresh(ctx, middleware.BearerToken(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tok)
}

// Logout: revoke the bearer access token and, when the body names it, the
// refresh token of the same session.  Runs behind the Required middleware so
// the bearer token is known to be valid here.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if req.RefreshToken != "" {
		id, _ := middleware.IdentityFrom(c)
		if err := h.Auth.RevokeRefresh(ctx, id.UserID, req.RefreshToken); err != nil {
			return err
		}
	}
	if err := h.Auth.Logout(ctx, middleware.BearerToken(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, model.Message{Message: "Successfully logged out."})
}

// GetUser: GET /user/:id.
func (h *AuthHandler) GetUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.GetUser(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
