package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-retail-ws/internal/service"
)

type ReturnHandler struct {
	service service.ReturnService
}

func NewReturnHandler(s service.ReturnService) *ReturnHandler {
	return &ReturnHandler{service: s}
}

// POST /api/returns
func (h *ReturnHandler) CreateReturn(c *fiber.Ctx) error {
	var req service.CreateReturnRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ret, err := h.service.CreateReturn(c.UserContext(), &req, actor(c))
	if err != nil {
		return err
	}
	return created(c, "return request created", ret)
}

// ProcessReturn approves or rejects a pending return
// PATCH /api/returns/:id/process
func (h *ReturnHandler) ProcessReturn(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.ProcessReturnRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ret, err := h.service.ProcessReturn(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return err
	}
	return ok(c, "return "+string(ret.Status), ret)
}

// CompleteReturn books the refund of an approved return
// PATCH /api/returns/:id/complete
func (h *ReturnHandler) CompleteReturn(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.CompleteReturnRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ret, err := h.service.CompleteReturn(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return err
	}
	return ok(c, "return completed", ret)
}

// GET /api/returns/:id
func (h *ReturnHandler) GetReturn(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	ret, err := h.service.GetReturn(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "", ret)
}

// GetReturns lists returns
// Query params: status, customer_id, order_id, page, page_size
func (h *ReturnHandler) GetReturns(c *fiber.Ctx) error {
	customerID, err := queryUUID(c, "customer_id")
	if err != nil {
		return err
	}
	orderID, err := queryUUID(c, "order_id")
	if err != nil {
		return err
	}
	params := service.ReturnListParams{
		Status:     c.Query("status"),
		CustomerID: customerID,
		OrderID:    orderID,
		Page:       pageOf(c),
	}
	rows, total, err := h.service.ListReturns(c.UserContext(), params)
	if err != nil {
		return err
	}
	return paged(c, rows, params.Page, total)
}
