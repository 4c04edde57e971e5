package rest

import (
	"context"
	"errors"
	"myStyleFit/domain"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ResponseError struct {
	Message   string `json:"message"`
	Positions []int  `json:"positions,omitempty"`
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	var seedErr *domain.InvalidSeedError
	switch {
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &seedErr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func NewResponseError(err error) ResponseError {
	res := ResponseError{Message: err.Error()}

	var seedErr *domain.InvalidSeedError
	if errors.As(err, &seedErr) {
		res.Positions = seedErr.Positions
	}
	return res
}

func writeError(c echo.Context, err error) error {
	return c.JSON(StatusFor(err), NewResponseError(err))
}
