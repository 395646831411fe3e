package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"go-retail-ws/internal/service"
	"go-retail-ws/pkg/apperror"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil {
		return apperror.Validation("days must be a number")
	}

	data, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return err
	}

	return ok(c, "", fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "", stats)
}

// GetLowStock returns inventory at or below its reorder level
func (h *DashboardHandler) GetLowStock(c *fiber.Ctx) error {
	items, err := h.service.GetLowStock(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "", items)
}
