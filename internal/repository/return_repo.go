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

type ReturnRepository interface {
	WithTx(tx *gorm.DB) ReturnRepository
	Create(ctx context.Context, ret *model.ReturnRequest) error
	FindByID(ctx context.Context, id uuid.UUID, lock bool) (*model.ReturnRequest, error)
	List(ctx context.Context, filter *query.Filter, page query.Page) ([]model.ReturnRequest, int64, error)
	ReturnedQuantity(ctx context.Context, orderItemID uuid.UUID) (int, error)
	Transition(ctx context.Context, id uuid.UUID, from, to model.ReturnStatus, fields map[string]any) error
}

var ReturnFilterColumns = []string{"order_id", "customer_id", "status", "created_at"}

type returnRepo struct {
	db *gorm.DB
}

func NewReturnRepo(db *gorm.DB) ReturnRepository {
	return &returnRepo{db}
}

func (r *returnRepo) WithTx(tx *gorm.DB) ReturnRepository {
	return &returnRepo{tx}
}

func (r *returnRepo) Create(ctx context.Context, ret *model.ReturnRequest) error {
	return translate(r.db.WithContext(ctx).Create(ret).Error, "create return")
}

func (r *returnRepo) FindByID(ctx context.Context, id uuid.UUID, lock bool) (*model.ReturnRequest, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ret model.ReturnRequest
	if err := q.Preload("Items").First(&ret, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find return")
	}
	return &ret, nil
}

func (r *returnRepo) List(ctx context.Context, filter *query.Filter, page query.Page) ([]model.ReturnRequest, int64, error) {
	q, err := filter.Apply(r.db.WithContext(ctx).Model(&model.ReturnRequest{}))
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := findPage[model.ReturnRequest](q, page, "created_at DESC", "Items")
	return rows, total, translate(err, "list returns")
}

// ReturnedQuantity sums the quantity already claimed against an order item
// by returns that were not rejected.
func (r *returnRepo) ReturnedQuantity(ctx context.Context, orderItemID uuid.UUID) (int, error) {
	var qty int
	err := r.db.WithContext(ctx).Model(&model.ReturnItem{}).
		Select("COALESCE(SUM(return_item.quantity), 0)").
		Joins("JOIN return_request ON return_request.id = return_item.return_id").
		Where("return_item.order_item_id = ? AND return_request.status <> ?", orderItemID, model.ReturnRejected).
		Row().Scan(&qty)
	if err != nil {
		return 0, translate(err, "sum returned quantity")
	}
	return qty, nil
}

// Transition moves a return from one status to another with a conditional
// update, so two concurrent transitions cannot both succeed.
func (r *returnRepo) Transition(ctx context.Context, id uuid.UUID, from, to model.ReturnStatus, fields map[string]any) error {
	updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range fields {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).Model(&model.ReturnRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return translate(res.Error, "transition return")
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}
