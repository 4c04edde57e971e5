package rest

import (
	"context"
	"myStyleFit/business/catalog"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type CatalogAdminService interface {
	RefreshCatalog(ctx context.Context) (catalog.Stats, error)
}

type AdminHandler struct {
	service CatalogAdminService
	timeout time.Duration
}

func NewAdminHandler(service CatalogAdminService) *AdminHandler {
	return &AdminHandler{
		service: service,
		timeout: 2 * time.Minute,
	}
}

// POST /api/v1/admin/catalog/refresh
func (h *AdminHandler) RefreshCatalog(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	stats, err := h.service.RefreshCatalog(ctx)
	if err != nil {
		// the previous snapshot is still serving
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(stats))
}
