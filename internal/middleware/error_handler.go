package middleware

import (
	"errors"
	"fmt"
	"myStyleFit/domain"
	"myStyleFit/internal/rest"
	"myStyleFit/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every unhandled error as a rest.ResponseError.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := rest.StatusFor(err)
	res := rest.NewResponseError(err)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		res = rest.ResponseError{Message: fmt.Sprint(he.Message)}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("request_failed",
			"trace_id", domain.TraceIDFromContext(c.Request().Context()),
			"method", c.Request().Method,
			"path", c.Path(),
			"status", code,
			"error", err,
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, res)
	}
	if err != nil {
		logger.Error("failed to write error response", "error", err)
	}
}
