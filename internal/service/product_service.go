package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/repository"
	"go-retail-ws/internal/ws"
	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/database"
	"go-retail-ws/pkg/query"
	"go-retail-ws/pkg/validator"
)

type CreateProductRequest struct {
	SKU             string                `json:"sku" validate:"required,max=64"`
	Name            string                `json:"name" validate:"required,max=255"`
	Category        string                `json:"category" validate:"required,max=100"`
	Subcategory     string                `json:"subcategory" validate:"max=100"`
	Description     string                `json:"description"`
	Price           decimal.Decimal       `json:"price"`
	CostPrice       decimal.Decimal       `json:"cost_price"`
	Weight          decimal.Decimal       `json:"weight"`
	Length          decimal.Decimal       `json:"length"`
	Width           decimal.Decimal       `json:"width"`
	Height          decimal.Decimal       `json:"height"`
	SupplierID      *uuid.UUID            `json:"supplier_id"`
	InitialStock    int                   `json:"initial_stock" validate:"gte=0"`
	ReorderLevel    *int                  `json:"reorder_level" validate:"omitempty,gte=0"`
	ValuationMethod model.ValuationMethod `json:"valuation_method"`
	Location        string                `json:"location" validate:"max=100"`
	Warehouse       string                `json:"warehouse" validate:"max=100"`
}

// UpdateProductRequest changes only the fields that are present. Stock is
// not editable here.
type UpdateProductRequest struct {
	Name            *string                `json:"name" validate:"omitempty,min=1,max=255"`
	Category        *string                `json:"category" validate:"omitempty,min=1,max=100"`
	Subcategory     *string                `json:"subcategory" validate:"omitempty,max=100"`
	Description     *string                `json:"description"`
	Price           *decimal.Decimal       `json:"price"`
	CostPrice       *decimal.Decimal       `json:"cost_price"`
	Weight          *decimal.Decimal       `json:"weight"`
	Length          *decimal.Decimal       `json:"length"`
	Width           *decimal.Decimal       `json:"width"`
	Height          *decimal.Decimal       `json:"height"`
	SupplierID      *uuid.UUID             `json:"supplier_id"`
	ReorderLevel    *int                   `json:"reorder_level" validate:"omitempty,gte=0"`
	ValuationMethod *model.ValuationMethod `json:"valuation_method"`
	Location        *string                `json:"location" validate:"omitempty,max=100"`
	Warehouse       *string                `json:"warehouse" validate:"omitempty,max=100"`
}

type ProductListParams struct {
	Category string
	Search   string
	LowStock bool
	Page     query.Page
}

// ProductDetail is a product with its inventory record.
type ProductDetail struct {
	*model.Product
	Inventory *model.Inventory `json:"inventory,omitempty"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, req *CreateProductRequest, actor Actor) (*ProductDetail, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor Actor) (*ProductDetail, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	ListProducts(ctx context.Context, params ProductListParams) ([]model.Product, int64, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error
}

type productService struct {
	db                  *database.Client
	productRepo         repository.ProductRepository
	inventoryRepo       repository.InventoryRepository
	defaultReorderLevel int
	hooks               Hooks
}

func NewProductService(db *database.Client, pRepo repository.ProductRepository, iRepo repository.InventoryRepository, defaultReorderLevel int, hooks Hooks) ProductService {
	return &productService{
		db:                  db,
		productRepo:         pRepo,
		inventoryRepo:       iRepo,
		defaultReorderLevel: defaultReorderLevel,
		hooks:               hooks,
	}
}

func (s *productService) CreateProduct(ctx context.Context, req *CreateProductRequest, actor Actor) (detail *ProductDetail, err error) {
	defer s.hooks.track(ctx, "product.create")(&err)

	// 1. Validate struct and money fields
	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err = nonNegative(map[string]decimal.Decimal{
		"price": req.Price, "cost_price": req.CostPrice,
		"weight": req.Weight, "length": req.Length, "width": req.Width, "height": req.Height,
	}); err != nil {
		return nil, err
	}
	method := req.ValuationMethod
	if method == "" {
		method = model.ValuationFIFO
	}
	if !method.Valid() {
		return nil, apperror.Validation("valuation_method must be one of FIFO, LIFO, AVERAGE")
	}
	reorder := s.defaultReorderLevel
	if req.ReorderLevel != nil {
		reorder = *req.ReorderLevel
	}

	product := &model.Product{
		SKU:         strings.TrimSpace(req.SKU),
		Name:        strings.TrimSpace(req.Name),
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Description: req.Description,
		Price:       req.Price,
		CostPrice:   req.CostPrice,
		Weight:      req.Weight,
		Length:      req.Length,
		Width:       req.Width,
		Height:      req.Height,
		SupplierID:  req.SupplierID,
		Auditable:   model.Auditable{CreatedBy: actor.ID, UpdatedBy: actor.ID},
	}
	inv := &model.Inventory{
		ReorderLevel:    reorder,
		Location:        req.Location,
		Warehouse:       req.Warehouse,
		ValuationMethod: method,
	}

	// 2. Product, inventory row and opening stock land together
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		inventory := s.inventoryRepo.WithTx(tx)

		if err := products.Create(ctx, product); err != nil {
			if isDuplicate(err) {
				return apperror.Conflict(fmt.Sprintf("SKU %s already exists", product.SKU))
			}
			return internalErr(err, "create product")
		}
		inv.ProductID = product.ID
		if err := inventory.Create(ctx, inv); err != nil {
			return internalErr(err, "create inventory record")
		}

		if req.InitialStock > 0 {
			_, err := stockWriter{products: products, inventory: inventory}.apply(ctx, stockChange{
				ProductID:     product.ID,
				Delta:         req.InitialStock,
				Kind:          model.AuditInitial,
				Reason:        "Initial stock",
				ReferenceType: "product",
				ReferenceID:   &product.ID,
				Actor:         actor,
			})
			if err != nil {
				return err
			}
			product.StockLevel = req.InitialStock
			inv.StockLevel = req.InitialStock
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.InitialStock > 0 {
		s.hooks.Metrics.StockMoved(string(model.AuditInitial), req.InitialStock)
	}
	s.hooks.publish(ws.Event{
		Type:    ws.EventProductChanged,
		Action:  "created",
		Actor:   actor.label(),
		Message: fmt.Sprintf("product %s (%s) created", product.Name, product.SKU),
		Payload: product,
	})
	return &ProductDetail{Product: product, Inventory: inv}, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor Actor) (detail *ProductDetail, err error) {
	defer s.hooks.track(ctx, "product.update")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	money := map[string]decimal.Decimal{}
	for field, v := range map[string]*decimal.Decimal{
		"price": req.Price, "cost_price": req.CostPrice,
		"weight": req.Weight, "length": req.Length, "width": req.Width, "height": req.Height,
	} {
		if v != nil {
			money[field] = *v
		}
	}
	if err = nonNegative(money); err != nil {
		return nil, err
	}
	if req.ValuationMethod != nil && !req.ValuationMethod.Valid() {
		return nil, apperror.Validation("valuation_method must be one of FIFO, LIFO, AVERAGE")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		inventory := s.inventoryRepo.WithTx(tx)

		product, err := products.FindByID(ctx, id)
		if err != nil {
			return lookupErr(err, "product")
		}
		applyProductUpdate(product, req)
		product.UpdatedBy = actor.ID
		if err := products.UpdateCatalog(ctx, product); err != nil {
			return lookupErr(err, "product")
		}

		settings := map[string]any{}
		if req.ReorderLevel != nil {
			settings["reorder_level"] = *req.ReorderLevel
		}
		if req.ValuationMethod != nil {
			settings["valuation_method"] = *req.ValuationMethod
		}
		if req.Location != nil {
			settings["location"] = *req.Location
		}
		if req.Warehouse != nil {
			settings["warehouse"] = *req.Warehouse
		}
		if err := inventory.UpdateSettings(ctx, id, settings); err != nil {
			return lookupErr(err, "inventory record")
		}

		inv, err := inventory.FindByProductID(ctx, id)
		if err != nil {
			return lookupErr(err, "inventory record")
		}
		detail = &ProductDetail{Product: product, Inventory: inv}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hooks.publish(ws.Event{Type: ws.EventProductChanged, Action: "updated", Actor: actor.label(), Payload: detail.Product})
	return detail, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "product")
	}
	inv, err := s.inventoryRepo.FindByProductID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "inventory record")
	}
	return &ProductDetail{Product: product, Inventory: inv}, nil
}

func (s *productService) ListProducts(ctx context.Context, params ProductListParams) ([]model.Product, int64, error) {
	filter := query.NewFilter(repository.ProductFilterColumns...).
		WhereIf(params.Category != "", "category", query.Eq, params.Category).
		WhereAnyIf(strings.TrimSpace(params.Search) != "", []string{"name", "sku"}, query.Like, query.Contains(params.Search))

	if params.LowStock {
		low, err := s.inventoryRepo.LowStock(ctx)
		if err != nil {
			return nil, 0, internalErr(err, "list low stock")
		}
		ids := make([]uuid.UUID, 0, len(low))
		for _, inv := range low {
			ids = append(ids, inv.ProductID)
		}
		filter.Where("id", query.In, ids)
	}
	if err := filter.Err(); err != nil {
		return nil, 0, filterErr(err)
	}

	products, total, err := s.productRepo.List(ctx, filter, params.Page)
	if err != nil {
		return nil, 0, internalErr(err, "list products")
	}
	return products, total, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) (err error) {
	defer s.hooks.track(ctx, "product.delete")(&err)

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return lookupErr(s.productRepo.WithTx(tx).Delete(ctx, id, actor.ID), "product")
	})
	if err != nil {
		return err
	}
	s.hooks.publish(ws.Event{Type: ws.EventProductChanged, Action: "deleted", Actor: actor.label(), Payload: map[string]any{"id": id}})
	return nil
}

func applyProductUpdate(p *model.Product, req *UpdateProductRequest) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Subcategory != nil {
		p.Subcategory = *req.Subcategory
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.CostPrice != nil {
		p.CostPrice = *req.CostPrice
	}
	if req.Weight != nil {
		p.Weight = *req.Weight
	}
	if req.Length != nil {
		p.Length = *req.Length
	}
	if req.Width != nil {
		p.Width = *req.Width
	}
	if req.Height != nil {
		p.Height = *req.Height
	}
	if req.SupplierID != nil {
		p.SupplierID = req.SupplierID
	}
}

// nonNegative rejects the first negative amount, in field name order.
func nonNegative(fields map[string]decimal.Decimal) error {
	var bad []string
	for name, v := range fields {
		if v.IsNegative() {
			bad = append(bad, name)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return apperror.Validation(bad[0] + " must not be negative")
}
