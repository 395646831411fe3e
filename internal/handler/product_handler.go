package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-retail-ws/internal/service"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

// POST /api/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), &req, actor(c))
	if err != nil {
		return err
	}
	return created(c, "product created", product)
}

// PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return err
	}
	return ok(c, "product updated", product)
}

// GET /api/products/:id
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "", product)
}

// GetProducts lists products
// Query params: category, search, low_stock, page, page_size
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	params := service.ProductListParams{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		LowStock: queryBool(c, "low_stock"),
		Page:     pageOf(c),
	}
	products, total, err := h.service.ListProducts(c.UserContext(), params)
	if err != nil {
		return err
	}
	return paged(c, products, params.Page, total)
}

// DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteProduct(c.UserContext(), id, actor(c)); err != nil {
		return err
	}
	return ok(c, "product deleted", nil)
}
