package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/stores-rest-api/internal/handler"
	"github.com/iliyamo/stores-rest-api/internal/logger"
	"github.com/iliyamo/stores-rest-api/internal/middleware"
	"github.com/iliyamo/stores-rest-api/internal/validation"
)

// New returns an Echo instance with the validator, the JSON error handler and
// the global middleware chain installed.  Routes are added by Register.
func New(log *logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	return e
}
