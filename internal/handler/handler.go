package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stores-rest-api/internal/apperr"
	"github.com/iliyamo/stores-rest-api/internal/logger"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	// 63 bits: both drivers bind ids as int64.
	id, err := strconv.ParseUint(c.Param(name), 10, 63)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return id, nil
}

// bind decodes the body into dst and runs the registered validator.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return c.Validate(dst)
}

// ErrorHandler renders every error returned by handlers and middleware as
// {"error": code, "message": text}.  Internal causes are logged, never sent.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var body *apperr.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &body):
		case errors.As(err, &he):
			body = fromHTTPError(he)
		default:
			body = apperr.From(err)
		}

		status := body.HTTPStatus()
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write error response", "error", err)
		}
	}
}

// fromHTTPError maps echo's own errors (unknown route, method not allowed,
// bad bind) onto the error codes clients already know.
func fromHTTPError(he *echo.HTTPError) *apperr.Error {
	msg := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		msg = m
	}
	switch {
	case he.Code == http.StatusNotFound:
		return apperr.NotFound(msg)
	case he.Code == http.StatusMethodNotAllowed:
		return &apperr.Error{Code: apperr.CodeMethodNotAllowed, Message: msg}
	case he.Code == http.StatusUnauthorized:
		return apperr.ErrMissingToken
	case he.Code >= http.StatusInternalServerError:
		return apperr.Internal(msg, he)
	default:
		return apperr.Validation(msg)
	}
}
