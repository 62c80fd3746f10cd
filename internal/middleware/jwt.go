package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"strings" // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/stores-rest-api/internal/model"
	"github.com/iliyamo/stores-rest-api/internal/service"
)

// Authenticator is the part of the auth service the middleware needs.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.Identity, error)
	RequireFresh(ctx context.Context, raw string) (model.Identity, error)
}

// JWT builds the token middlewares for one authenticator.
type JWT struct {
	auth Authenticator
}

func NewJWT(auth Authenticator) *JWT {
	return &JWT{auth: auth}
}

// Required rejects requests without a valid, unrevoked access token.
func (j *JWT) Required() echo.MiddlewareFunc {
	return j.check(j.auth.Authenticate, false)
}

// Fresh additionally requires the access token to be fresh, i.e. issued by
// a password login rather than a refresh.
func (j *JWT) Fresh() echo.MiddlewareFunc {
	return j.check(j.auth.RequireFresh, false)
}

// Optional validates a bearer token when one is sent and lets anonymous
// requests through.  A bad token is still rejected.
func (j *JWT) Optional() echo.MiddlewareFunc {
	return j.check(j.auth.Authenticate, true)
}

func (j *JWT) check(verify func(context.Context, string) (model.Identity, error), optional bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := BearerToken(c)
			if raw == "" && optional {
				return next(c)
			}
			id, err := verify(c.Request().Context(), raw)
			if err != nil {
				// Rendered by the central error handler.
				return err
			}
			setIdentity(c, id)
			return next(c)
		}
	}
}

// BearerToken returns the token from an "Authorization: Bearer <token>"
// header, or "" when the header is missing or uses another scheme.
func BearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, raw, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(raw)
}

// setIdentity stores the identity on the echo context and attributes the
// request context to the user so services can tag their events.
func setIdentity(c echo.Context, id model.Identity) {
	c.Set(identityKey, id)
	req := c.Request()
	c.SetRequest(req.WithContext(service.WithActor(req.Context(), id.UserID)))
}
