package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-retail-ws/internal/service"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// AddBatch receives a new batch of stock
// POST /api/inventory/batch
func (h *InventoryHandler) AddBatch(c *fiber.Ctx) error {
	var req service.AddBatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.service.AddBatch(c.UserContext(), &req, actor(c))
	if err != nil {
		return err
	}
	return created(c, "batch added", result)
}

// AdjustInventory applies a signed stock correction
// POST /api/inventory/adjust
func (h *InventoryHandler) AdjustInventory(c *fiber.Ctx) error {
	var req service.AdjustInventoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.service.AdjustInventory(c.UserContext(), &req, actor(c))
	if err != nil {
		return err
	}
	return ok(c, "inventory adjusted", result)
}

// GetInventory lists inventory records
// Query params: category, location, warehouse, page, page_size
func (h *InventoryHandler) GetInventory(c *fiber.Ctx) error {
	params := service.InventoryListParams{
		Category:  c.Query("category"),
		Location:  c.Query("location"),
		Warehouse: c.Query("warehouse"),
		Page:      pageOf(c),
	}
	items, total, err := h.service.ListInventory(c.UserContext(), params)
	if err != nil {
		return err
	}
	return paged(c, items, params.Page, total)
}

// GET /api/inventory/low-stock
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	items, err := h.service.LowStock(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

// GET /api/inventory/:productId/batches
func (h *InventoryHandler) GetBatches(c *fiber.Ctx) error {
	productID, err := paramUUID(c, "productId")
	if err != nil {
		return err
	}
	batches, err := h.service.ListBatches(c.UserContext(), productID)
	if err != nil {
		return err
	}
	return ok(c, "", batches)
}

// GET /api/inventory/:productId/audit
func (h *InventoryHandler) GetAudit(c *fiber.Ctx) error {
	productID, err := paramUUID(c, "productId")
	if err != nil {
		return err
	}
	page := pageOf(c)
	rows, total, err := h.service.ListAudit(c.UserContext(), productID, page)
	if err != nil {
		return err
	}
	return paged(c, rows, page, total)
}
