package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-retail-ws/internal/model"
	"go-retail-ws/pkg/query"
)

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, filter *query.Filter, page query.Page) ([]model.Product, int64, error)
	UpdateCatalog(ctx context.Context, product *model.Product) error
	SetStock(ctx context.Context, id uuid.UUID, stock int) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
}

// ProductFilterColumns are the columns List accepts predicates on.
var ProductFilterColumns = []string{"id", "category", "subcategory", "sku", "name", "supplier_id", "stock_level", "price"}

// catalogColumns are the columns UpdateCatalog writes. stock_level is
// absent: stock only changes through SetStock inside a stock transaction.
var catalogColumns = []string{
	"name", "category", "subcategory", "description", "price", "cost_price",
	"weight", "length", "width", "height", "supplier_id", "updated_by", "updated_at",
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error, "create product")
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find product")
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, translate(err, "find product by sku")
	}
	return &product, nil
}

func (r *productRepo) List(ctx context.Context, filter *query.Filter, page query.Page) ([]model.Product, int64, error) {
	q, err := filter.Apply(r.db.WithContext(ctx).Model(&model.Product{}))
	if err != nil {
		return nil, 0, err
	}

	products, total, err := findPage[model.Product](q, page, "name ASC")
	return products, total, translate(err, "list products")
}

func (r *productRepo) UpdateCatalog(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).Model(product).Select(catalogColumns).Updates(product)
	if res.Error != nil {
		return translate(res.Error, "update product")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock_level", stock)
	if res.Error != nil {
		return translate(res.Error, "set product stock")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes the product. Callers run it inside a transaction so
// the deleted_by stamp and the delete land together.
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&model.Product{}).Where("id = ?", id).Update("deleted_by", deletedBy)
	if res.Error != nil {
		return translate(res.Error, "mark product deleted")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return translate(db.Delete(&model.Product{}, "id = ?", id).Error, "delete product")
}
