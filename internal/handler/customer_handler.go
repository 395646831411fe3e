package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-retail-ws/internal/service"
)

type CustomerHandler struct {
	service service.CustomerService
}

func NewCustomerHandler(s service.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: s}
}

// POST /api/customers
func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var req service.CreateCustomerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	customer, err := h.service.CreateCustomer(c.UserContext(), &req, actor(c))
	if err != nil {
		return err
	}
	return created(c, "customer created", customer)
}

// GET /api/customers/:id
func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	customer, err := h.service.GetCustomer(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "", customer)
}

// GET /api/customers?search=
func (h *CustomerHandler) GetCustomers(c *fiber.Ctx) error {
	page := pageOf(c)
	customers, total, err := h.service.ListCustomers(c.UserContext(), c.Query("search"), page)
	if err != nil {
		return err
	}
	return paged(c, customers, page, total)
}
