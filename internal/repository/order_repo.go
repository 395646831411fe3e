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

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *model.CustomerOrder) error
	FindByID(ctx context.Context, id uuid.UUID, lock bool) (*model.CustomerOrder, error)
	List(ctx context.Context, filter *query.Filter, page query.Page) ([]model.CustomerOrder, int64, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status model.DeliveryStatus) error
}

var OrderFilterColumns = []string{"customer_id", "payment_status", "delivery_status", "order_number", "created_at"}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepo{tx}
}

// Create inserts the order and its items in one call.
func (r *orderRepo) Create(ctx context.Context, order *model.CustomerOrder) error {
	return translate(r.db.WithContext(ctx).Create(order).Error, "create order")
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID, lock bool) (*model.CustomerOrder, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order model.CustomerOrder
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "find order")
	}
	return &order, nil
}

func (r *orderRepo) List(ctx context.Context, filter *query.Filter, page query.Page) ([]model.CustomerOrder, int64, error) {
	q, err := filter.Apply(r.db.WithContext(ctx).Model(&model.CustomerOrder{}))
	if err != nil {
		return nil, 0, err
	}
	orders, total, err := findPage[model.CustomerOrder](q, page, "created_at DESC", "Customer")
	return orders, total, translate(err, "list orders")
}

func (r *orderRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error {
	return r.updateColumn(ctx, id, "payment_status", status)
}

func (r *orderRepo) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status model.DeliveryStatus) error {
	return r.updateColumn(ctx, id, "delivery_status", status)
}

func (r *orderRepo) updateColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&model.CustomerOrder{}).
		Where("id = ?", id).
		Updates(map[string]any{column: value, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error, "update order "+column)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
