package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/restaurantpro/internal/middleware"
	"github.com/suteetoe/restaurantpro/internal/model"
	"github.com/suteetoe/restaurantpro/pkg/logger"
	"go.uber.org/zap"
)

// StatusRequest is the body of a status change
type StatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// DashboardAPI returns the dashboard view as JSON
func (h *Handler) DashboardAPI(c echo.Context) error {
	id, _ := middleware.Identity(c)
	view, err := h.dashboard.Load(c.Request().Context(), id)
	if err != nil {
		return c.JSON(apiStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, view)
}

// AdvanceOrderAPI moves an order to the requested status and returns the
// refreshed view
func (h *Handler) AdvanceOrderAPI(c echo.Context) error {
	log := logger.FromEcho(c)
	id, _ := middleware.Identity(c)
	orderID := c.Param("id")

	var req StatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	view, err := h.dashboard.Advance(c.Request().Context(), id, orderID, req.Status)
	if err != nil {
		log.Warn("Order status change refused",
			zap.String("order_id", orderID),
			zap.String("to", string(req.Status)),
			zap.Error(err))
		return c.JSON(apiStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, view)
}
