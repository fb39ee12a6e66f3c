package handlers

import (
	"net/http"

	"opensox/internal/services"

	"github.com/labstack/echo/v4"
)

// PlanHandlers handles HTTP requests for plans
type PlanHandlers struct {
	orderService services.OrderService
}

func NewPlanHandlers(orderService services.OrderService) *PlanHandlers {
	return &PlanHandlers{orderService: orderService}
}

// ListPlans handles GET /v1/plans
func (h *PlanHandlers) ListPlans(c echo.Context) error {
	plans, err := h.orderService.AvailablePlans(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"plans": plans,
	})
}
