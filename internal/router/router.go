package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/stores-rest-api/internal/handler"    // import the handlers that implement each endpoint
	"github.com/iliyamo/stores-rest-api/internal/middleware" // import middleware for JWT authentication
)

// Handlers groups every handler the router mounts.
type Handlers struct {
	Auth   *handler.AuthHandler
	Stores *handler.StoreHandler
	Items  *handler.ItemHandler
	Tags   *handler.TagHandler
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the session endpoints.  Register and login are
// open, refresh takes the refresh token as bearer, logout and user lookup
// need an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwt *middleware.JWT) {
	e.POST("/register", a.Register)
	e.POST("/login", a.Login)
	// The refresh handler validates the refresh token itself; the access
	// token middlewares would reject it by type.
	e.POST("/refresh", a.Refresh)
	e.POST("/logout", a.Logout, jwt.Required())
	e.GET("/user/:id", a.GetUser, jwt.Required())
}

// RegisterResources registers the store, item and tag endpoints.  Reads are
// open to guests (a bearer token is still checked when sent); writes need a
// fresh access token.
func RegisterResources(e *echo.Echo, h Handlers, jwt *middleware.JWT) {
	read := jwt.Optional()
	write := jwt.Fresh()

	// ---- Stores ----
	e.GET("/store", h.Stores.List, read)
	e.POST("/store", h.Stores.Create, write)
	e.GET("/store/:id", h.Stores.Get, read)
	e.DELETE("/store/:id", h.Stores.Delete, write)
	e.GET("/store/:id/tag", h.Stores.ListTags, read)
	e.POST("/store/:id/tag", h.Stores.CreateTag, write)

	// ---- Items ----
	e.GET("/item", h.Items.List, read)
	e.POST("/item", h.Items.Create, write)
	e.GET("/item/:id", h.Items.Get, read)
	e.PUT("/item/:id", h.Items.Update, write)
	e.DELETE("/item/:id", h.Items.Delete, write)

	// ---- Tags ----
	e.GET("/tag", h.Tags.List, read)
	e.POST("/tag", h.Tags.Create, write)
	e.GET("/tag/:id", h.Tags.Get, read)
	e.DELETE("/tag/:id", h.Tags.Delete, write)

	// ---- Links ----
	e.POST("/item/:id/tag/:tag_id", h.Tags.Link, write)
	e.DELETE("/item/:id/tag/:tag_id", h.Tags.Unlink, write)
}

// Register mounts every route.
func Register(e *echo.Echo, db *sql.DB, h Handlers, jwt *middleware.JWT) {
	RegisterRoutes(e, db)
	RegisterAuth(e, h.Auth, jwt)
	RegisterResources(e, h, jwt)
}
