package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-retail-ws/internal/model"
	"go-retail-ws/pkg/query"
)

type InventoryRepository interface {
	WithTx(tx *gorm.DB) InventoryRepository
	Create(ctx context.Context, inv *model.Inventory) error
	FindByProductID(ctx context.Context, productID uuid.UUID) (*model.Inventory, error)
	UpdateSettings(ctx context.Context, productID uuid.UUID, fields map[string]any) error
	ApplyDelta(ctx context.Context, productID uuid.UUID, delta int) (int, error)
	List(ctx context.Context, filter *query.Filter, page query.Page) ([]model.Inventory, int64, error)
	LowStock(ctx context.Context) ([]model.Inventory, error)

	CreateBatch(ctx context.Context, batch *model.InventoryBatch) error
	FindBatch(ctx context.Context, id uuid.UUID, lock bool) (*model.InventoryBatch, error)
	ApplyBatchDelta(ctx context.Context, batchID uuid.UUID, delta int) error
	ListBatches(ctx context.Context, productID uuid.UUID, onlyAvailable bool) ([]model.InventoryBatch, error)

	CreateAudit(ctx context.Context, audit *model.InventoryAudit) error
	ListAudit(ctx context.Context, filter *query.Filter, page query.Page) ([]model.InventoryAudit, int64, error)
}

var (
	InventoryFilterColumns = []string{"inventory.location", "inventory.warehouse", "inventory.valuation_method", "product.category"}
	AuditFilterColumns     = []string{"product_id", "batch_id", "kind", "reference_type", "reference_id", "performed_by", "created_at"}
)

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

func (r *inventoryRepo) WithTx(tx *gorm.DB) InventoryRepository {
	return &inventoryRepo{tx}
}

func (r *inventoryRepo) Create(ctx context.Context, inv *model.Inventory) error {
	return translate(r.db.WithContext(ctx).Create(inv).Error, "create inventory")
}

func (r *inventoryRepo) FindByProductID(ctx context.Context, productID uuid.UUID) (*model.Inventory, error) {
	var inv model.Inventory
	if err := r.db.WithContext(ctx).First(&inv, "product_id = ?", productID).Error; err != nil {
		return nil, translate(err, "find inventory")
	}
	return &inv, nil
}

func (r *inventoryRepo) UpdateSettings(ctx context.Context, productID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&model.Inventory{}).Where("product_id = ?", productID).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "update inventory settings")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyDelta adds delta to the stock level in one conditional UPDATE and
// returns the new level. The guard makes read-modify-write races impossible:
// a change that would take stock below zero matches no row.
func (r *inventoryRepo) ApplyDelta(ctx context.Context, productID uuid.UUID, delta int) (int, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&model.Inventory{}).
		Where("product_id = ? AND stock_level + ? >= 0", productID, delta).
		Updates(map[string]any{
			"stock_level": gorm.Expr("stock_level + ?", delta),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, translate(res.Error, "apply stock delta")
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByProductID(ctx, productID); err != nil {
			return 0, err
		}
		return 0, ErrInsufficientStock
	}

	inv, err := r.FindByProductID(ctx, productID)
	if err != nil {
		return 0, err
	}
	return inv.StockLevel, nil
}

func (r *inventoryRepo) List(ctx context.Context, filter *query.Filter, page query.Page) ([]model.Inventory, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.Inventory{}).
		Joins("JOIN product ON product.id = inventory.product_id AND product.deleted_at IS NULL")
	q, err := filter.Apply(base)
	if err != nil {
		return nil, 0, err
	}

	items, total, err := findPage[model.Inventory](q, page, "product.name ASC", "Product")
	return items, total, translate(err, "list inventory")
}

func (r *inventoryRepo) LowStock(ctx context.Context) ([]model.Inventory, error) {
	var items []model.Inventory
	err := r.db.WithContext(ctx).
		Joins("JOIN product ON product.id = inventory.product_id AND product.deleted_at IS NULL").
		Where("inventory.stock_level <= inventory.reorder_level").
		Preload("Product").
		Order("inventory.stock_level ASC").
		Find(&items).Error
	return items, translate(err, "list low stock")
}

func (r *inventoryRepo) CreateBatch(ctx context.Context, batch *model.InventoryBatch) error {
	return translate(r.db.WithContext(ctx).Create(batch).Error, "create batch")
}

func (r *inventoryRepo) FindBatch(ctx context.Context, id uuid.UUID, lock bool) (*model.InventoryBatch, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var batch model.InventoryBatch
	if err := q.First(&batch, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find batch")
	}
	return &batch, nil
}

func (r *inventoryRepo) ApplyBatchDelta(ctx context.Context, batchID uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).Model(&model.InventoryBatch{}).
		Where("id = ? AND quantity + ? >= 0", batchID, delta).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return translate(res.Error, "apply batch delta")
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindBatch(ctx, batchID, false); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *inventoryRepo) ListBatches(ctx context.Context, productID uuid.UUID, onlyAvailable bool) ([]model.InventoryBatch, error) {
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if onlyAvailable {
		q = q.Where("quantity > 0")
	}
	var batches []model.InventoryBatch
	err := q.Order("received_date ASC, created_at ASC").Find(&batches).Error
	return batches, translate(err, "list batches")
}

func (r *inventoryRepo) CreateAudit(ctx context.Context, audit *model.InventoryAudit) error {
	return translate(r.db.WithContext(ctx).Create(audit).Error, "create audit")
}

func (r *inventoryRepo) ListAudit(ctx context.Context, filter *query.Filter, page query.Page) ([]model.InventoryAudit, int64, error) {
	q, err := filter.Apply(r.db.WithContext(ctx).Model(&model.InventoryAudit{}))
	if err != nil {
		return nil, 0, err
	}

	rows, total, err := findPage[model.InventoryAudit](q, page, "created_at DESC")
	return rows, total, translate(err, "list audit")
}
