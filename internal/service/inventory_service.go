package service

import (
	"context"
	"fmt"
	"strings"
	"time"

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

type AddBatchRequest struct {
	ProductID        uuid.UUID       `json:"product_id" validate:"uuid_required"`
	BatchNumber      string          `json:"batch_number" validate:"required,max=64"`
	Quantity         int             `json:"quantity" validate:"required,gt=0"`
	CostPerUnit      decimal.Decimal `json:"cost_per_unit"`
	ReceivedDate     string          `json:"received_date"`
	ManufacturedDate string          `json:"manufactured_date"`
	ExpiryDate       string          `json:"expiry_date"`
	SupplierID       *uuid.UUID      `json:"supplier_id"`
	Notes            string          `json:"notes" validate:"max=1000"`
}

type AdjustInventoryRequest struct {
	ProductID        uuid.UUID  `json:"product_id" validate:"uuid_required"`
	BatchID          *uuid.UUID `json:"batch_id"`
	QuantityChange   int        `json:"quantity_change" validate:"required"`
	AdjustmentReason string     `json:"adjustment_reason" validate:"required,max=255"`
}

// InventoryListParams are the optional filters of ListInventory.
type InventoryListParams struct {
	Category  string
	Location  string
	Warehouse string
	Page      query.Page
}

// StockResult is what a stock mutation returns to the caller.
type StockResult struct {
	ProductID  uuid.UUID             `json:"product_id"`
	StockLevel int                   `json:"stock_level"`
	LowStock   bool                  `json:"low_stock"`
	Batch      *model.InventoryBatch `json:"batch,omitempty"`
	Audit      *model.InventoryAudit `json:"audit"`
}

type InventoryService interface {
	AddBatch(ctx context.Context, req *AddBatchRequest, actor Actor) (*StockResult, error)
	AdjustInventory(ctx context.Context, req *AdjustInventoryRequest, actor Actor) (*StockResult, error)
	ListInventory(ctx context.Context, params InventoryListParams) ([]model.Inventory, int64, error)
	LowStock(ctx context.Context) ([]model.Inventory, error)
	ListBatches(ctx context.Context, productID uuid.UUID) ([]model.InventoryBatch, error)
	ListAudit(ctx context.Context, productID uuid.UUID, page query.Page) ([]model.InventoryAudit, int64, error)
}

type inventoryService struct {
	db            *database.Client
	productRepo   repository.ProductRepository
	inventoryRepo repository.InventoryRepository
	hooks         Hooks
}

func NewInventoryService(db *database.Client, pRepo repository.ProductRepository, iRepo repository.InventoryRepository, hooks Hooks) InventoryService {
	return &inventoryService{
		db:            db,
		productRepo:   pRepo,
		inventoryRepo: iRepo,
		hooks:         hooks,
	}
}

func (s *inventoryService) AddBatch(ctx context.Context, req *AddBatchRequest, actor Actor) (result *StockResult, err error) {
	defer s.hooks.track(ctx, "inventory.add_batch")(&err)

	// 1. Validate input
	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !req.CostPerUnit.IsPositive() {
		return nil, apperror.Validation("cost_per_unit must be greater than 0")
	}
	received, err := parseDate("received_date", req.ReceivedDate)
	if err != nil {
		return nil, err
	}
	if received == nil {
		now := time.Now().UTC()
		received = &now
	}
	manufactured, err := parseDate("manufactured_date", req.ManufacturedDate)
	if err != nil {
		return nil, err
	}
	expiry, err := parseDate("expiry_date", req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	if manufactured != nil && expiry != nil && expiry.Before(*manufactured) {
		return nil, apperror.Validation("expiry_date must not be before manufactured_date")
	}

	batch := &model.InventoryBatch{
		ProductID:        req.ProductID,
		BatchNumber:      strings.TrimSpace(req.BatchNumber),
		Quantity:         req.Quantity,
		InitialQuantity:  req.Quantity,
		CostPerUnit:      req.CostPerUnit,
		ReceivedDate:     *received,
		ManufacturedDate: manufactured,
		ExpiryDate:       expiry,
		SupplierID:       req.SupplierID,
		Notes:            req.Notes,
		CreatedBy:        actor.ID,
	}

	// 2. Insert batch and move stock in one transaction
	var inv *model.Inventory
	var audit *model.InventoryAudit
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		inventory := s.inventoryRepo.WithTx(tx)

		if _, err := products.FindByID(ctx, req.ProductID); err != nil {
			return lookupErr(err, "product")
		}
		if err := inventory.CreateBatch(ctx, batch); err != nil {
			if isDuplicate(err) {
				return apperror.Conflict(fmt.Sprintf("batch %s already exists for this product", batch.BatchNumber))
			}
			return internalErr(err, "create batch")
		}

		a, err := stockWriter{products: products, inventory: inventory}.apply(ctx, stockChange{
			ProductID:     req.ProductID,
			Delta:         req.Quantity,
			Kind:          model.AuditBatchReceipt,
			Reason:        "New batch received",
			BatchID:       &batch.ID,
			ReferenceType: "inventory_batch",
			ReferenceID:   &batch.ID,
			Actor:         actor,
		})
		if err != nil {
			return err
		}
		audit = a

		inv, err = inventory.FindByProductID(ctx, req.ProductID)
		return lookupErr(err, "inventory record")
	})
	if err != nil {
		return nil, err
	}

	// 3. Notify after commit
	s.hooks.Metrics.StockMoved(string(model.AuditBatchReceipt), req.Quantity)
	s.publishStock(inv, "batch_received", actor)

	return &StockResult{
		ProductID:  req.ProductID,
		StockLevel: inv.StockLevel,
		LowStock:   inv.IsLowStock(),
		Batch:      batch,
		Audit:      audit,
	}, nil
}

func (s *inventoryService) AdjustInventory(ctx context.Context, req *AdjustInventoryRequest, actor Actor) (result *StockResult, err error) {
	defer s.hooks.track(ctx, "inventory.adjust")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	var inv *model.Inventory
	var audit *model.InventoryAudit
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		inventory := s.inventoryRepo.WithTx(tx)

		a, err := stockWriter{products: products, inventory: inventory}.apply(ctx, stockChange{
			ProductID:    req.ProductID,
			Delta:        req.QuantityChange,
			Kind:         model.AuditAdjustment,
			Reason:       strings.TrimSpace(req.AdjustmentReason),
			BatchID:      req.BatchID,
			ApplyToBatch: req.BatchID != nil,
			Actor:        actor,
		})
		if err != nil {
			return err
		}
		audit = a

		inv, err = inventory.FindByProductID(ctx, req.ProductID)
		return lookupErr(err, "inventory record")
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Metrics.StockMoved(string(model.AuditAdjustment), req.QuantityChange)
	s.publishStock(inv, "adjusted", actor)

	return &StockResult{
		ProductID:  req.ProductID,
		StockLevel: inv.StockLevel,
		LowStock:   inv.IsLowStock(),
		Audit:      audit,
	}, nil
}

func (s *inventoryService) ListInventory(ctx context.Context, params InventoryListParams) ([]model.Inventory, int64, error) {
	filter := query.NewFilter(repository.InventoryFilterColumns...).
		WhereIf(params.Category != "", "product.category", query.Eq, params.Category).
		WhereIf(params.Location != "", "inventory.location", query.Eq, params.Location).
		WhereIf(params.Warehouse != "", "inventory.warehouse", query.Eq, params.Warehouse)
	if err := filter.Err(); err != nil {
		return nil, 0, filterErr(err)
	}
	items, total, err := s.inventoryRepo.List(ctx, filter, params.Page)
	if err != nil {
		return nil, 0, internalErr(err, "list inventory")
	}
	return items, total, nil
}

func (s *inventoryService) LowStock(ctx context.Context) ([]model.Inventory, error) {
	items, err := s.inventoryRepo.LowStock(ctx)
	if err != nil {
		return nil, internalErr(err, "list low stock")
	}
	return items, nil
}

func (s *inventoryService) ListBatches(ctx context.Context, productID uuid.UUID) ([]model.InventoryBatch, error) {
	if _, err := s.inventoryRepo.FindByProductID(ctx, productID); err != nil {
		return nil, lookupErr(err, "inventory record")
	}
	batches, err := s.inventoryRepo.ListBatches(ctx, productID, false)
	if err != nil {
		return nil, internalErr(err, "list batches")
	}
	return batches, nil
}

func (s *inventoryService) ListAudit(ctx context.Context, productID uuid.UUID, page query.Page) ([]model.InventoryAudit, int64, error) {
	filter := query.NewFilter(repository.AuditFilterColumns...).Where("product_id", query.Eq, productID)
	rows, total, err := s.inventoryRepo.ListAudit(ctx, filter, page)
	if err != nil {
		return nil, 0, internalErr(err, "list inventory audit")
	}
	return rows, total, nil
}

func (s *inventoryService) publishStock(inv *model.Inventory, action string, actor Actor) {
	payload := map[string]any{
		"product_id":    inv.ProductID,
		"stock_level":   inv.StockLevel,
		"reorder_level": inv.ReorderLevel,
	}
	s.hooks.publish(ws.Event{Type: ws.EventStockChanged, Action: action, Actor: actor.label(), Payload: payload})
	if inv.IsLowStock() {
		s.hooks.publish(ws.Event{
			Type:    ws.EventLowStock,
			Message: fmt.Sprintf("stock for product %s is at %d (reorder level %d)", inv.ProductID, inv.StockLevel, inv.ReorderLevel),
			Payload: payload,
		})
	}
}
