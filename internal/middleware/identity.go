package middleware

// identity.go holds the helpers that hand the authenticated principal from
// the JWT middleware to handlers and to the request logger.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stores-rest-api/internal/model"
)

const identityKey = "identity"

// IdentityFrom returns the identity set by the JWT middleware.  ok is false
// on anonymous requests.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok
}

// userID returns the authenticated user id as a string, or "guest".
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "guest"
}
