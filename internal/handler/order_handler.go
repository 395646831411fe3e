package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/service"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// CreateOrder places an order and takes its items out of stock
// POST /api/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.service.CreateOrder(c.UserContext(), &req, actor(c))
	if err != nil {
		return err
	}
	return created(c, "order created", order)
}

// GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.GetOrder(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "", order)
}

// GetOrders lists orders
// Query params: customer_id, payment_status, delivery_status, startDate, endDate, page, page_size
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	customerID, err := queryUUID(c, "customer_id")
	if err != nil {
		return err
	}
	params := service.OrderListParams{
		CustomerID:     customerID,
		PaymentStatus:  c.Query("payment_status"),
		DeliveryStatus: c.Query("delivery_status"),
		StartDate:      c.Query("startDate"),
		EndDate:        c.Query("endDate"),
		Page:           pageOf(c),
	}
	orders, total, err := h.service.ListOrders(c.UserContext(), params)
	if err != nil {
		return err
	}
	return paged(c, orders, params.Page, total)
}

type deliveryRequest struct {
	Status model.DeliveryStatus `json:"status"`
}

// PATCH /api/orders/:id/delivery
func (h *OrderHandler) UpdateDeliveryStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req deliveryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.service.UpdateDeliveryStatus(c.UserContext(), id, req.Status, actor(c))
	if err != nil {
		return err
	}
	return ok(c, "delivery status updated", order)
}

// POST /api/orders/:id/payment-status/refresh
func (h *OrderHandler) RefreshPaymentStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.RefreshPaymentStatus(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "payment status refreshed", order)
}
