package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-retail-ws/internal/model"
	"go-retail-ws/pkg/query"
)

type CustomerRepository interface {
	WithTx(tx *gorm.DB) CustomerRepository
	Create(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, filter *query.Filter, page query.Page) ([]model.Customer, int64, error)
}

var CustomerFilterColumns = []string{"name", "email", "phone"}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) WithTx(tx *gorm.DB) CustomerRepository {
	return &customerRepo{tx}
}

func (r *customerRepo) Create(ctx context.Context, customer *model.Customer) error {
	return translate(r.db.WithContext(ctx).Create(customer).Error, "create customer")
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find customer")
	}
	return &customer, nil
}

func (r *customerRepo) List(ctx context.Context, filter *query.Filter, page query.Page) ([]model.Customer, int64, error) {
	q, err := filter.Apply(r.db.WithContext(ctx).Model(&model.Customer{}))
	if err != nil {
		return nil, 0, err
	}
	customers, total, err := findPage[model.Customer](q, page, "name ASC")
	return customers, total, translate(err, "list customers")
}
