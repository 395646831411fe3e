package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-retail-ws/internal/model"
	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/query"
)

func newProductRequest(sku string, stock int) *CreateProductRequest {
	return &CreateProductRequest{
		SKU:          sku,
		Name:         "Widget " + sku,
		Category:     "hardware",
		Price:        decimal.RequireFromString("12.50"),
		CostPrice:    decimal.RequireFromString("7.00"),
		InitialStock: stock,
	}
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allowEvents()
	svc := f.productService()

	detail, err := svc.CreateProduct(ctx, newProductRequest("W-1", 25), tester)
	require.NoError(t, err)
	assert.Equal(t, 25, detail.StockLevel)
	require.NotNil(t, detail.Inventory)
	assert.Equal(t, 10, detail.Inventory.ReorderLevel)
	assert.Equal(t, model.ValuationFIFO, detail.Inventory.ValuationMethod)

	inv, prod := f.stock(t, detail.ID)
	assert.Equal(t, 25, inv)
	assert.Equal(t, 25, prod)

	audits := f.audits(t, detail.ID)
	require.Len(t, audits, 1)
	assert.Equal(t, model.AuditInitial, audits[0].Kind)
	assert.Equal(t, 0, audits[0].PreviousQuantity)
	assert.Equal(t, 25, audits[0].NewQuantity)

	_, err = svc.CreateProduct(ctx, newProductRequest("W-1", 0), tester)
	assertCode(t, apperror.CodeConflict, err)

	empty, err := svc.CreateProduct(ctx, newProductRequest("W-2", 0), tester)
	require.NoError(t, err)
	assert.Empty(t, f.audits(t, empty.ID))
}

func TestCreateProductValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.productService()

	req := newProductRequest("W-1", 0)
	req.Price = decimal.NewFromInt(-1)
	_, err := svc.CreateProduct(ctx, req, tester)
	assertCode(t, apperror.CodeValidation, err)

	req = newProductRequest("W-1", -3)
	_, err = svc.CreateProduct(ctx, req, tester)
	assertCode(t, apperror.CodeValidation, err)

	req = newProductRequest("W-1", 0)
	req.ValuationMethod = "HIFO"
	_, err = svc.CreateProduct(ctx, req, tester)
	assertCode(t, apperror.CodeValidation, err)

	req = newProductRequest("", 0)
	_, err = svc.CreateProduct(ctx, req, tester)
	assertCode(t, apperror.CodeValidation, err)

	assert.Zero(t, f.count(t, &model.Product{}))
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allowEvents()
	svc := f.productService()

	created, err := svc.CreateProduct(ctx, newProductRequest("W-1", 5), tester)
	require.NoError(t, err)

	name := "Renamed"
	newPrice := decimal.RequireFromString("15.00")
	reorder := 8
	method := model.ValuationAverage
	updated, err := svc.UpdateProduct(ctx, created.ID, &UpdateProductRequest{
		Name:            &name,
		Price:           &newPrice,
		ReorderLevel:    &reorder,
		ValuationMethod: &method,
	}, tester)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assertMoney(t, "15.00", updated.Price)
	assert.Equal(t, 8, updated.Inventory.ReorderLevel)
	assert.Equal(t, model.ValuationAverage, updated.Inventory.ValuationMethod)
	assert.Equal(t, 5, updated.StockLevel)

	got, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.Inventory.IsLowStock())

	negative := decimal.NewFromInt(-2)
	_, err = svc.UpdateProduct(ctx, created.ID, &UpdateProductRequest{CostPrice: &negative}, tester)
	assertCode(t, apperror.CodeValidation, err)

	_, err = svc.UpdateProduct(ctx, uuid.New(), &UpdateProductRequest{Name: &name}, tester)
	assertCode(t, apperror.CodeNotFound, err)
}

func TestListAndDeleteProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allowEvents()
	svc := f.productService()

	low := f.seedProduct(t, "LOW", 2, 5, "3.00")
	f.seedProduct(t, "OK", 50, 5, "3.00")

	rows, total, err := svc.ListProducts(ctx, ProductListParams{Page: query.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)

	rows, total, err = svc.ListProducts(ctx, ProductListParams{LowStock: true, Page: query.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, low.ID, rows[0].ID)

	_, total, err = svc.ListProducts(ctx, ProductListParams{Search: "ok", Page: query.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, svc.DeleteProduct(ctx, low.ID, tester))
	_, err = svc.GetProduct(ctx, low.ID)
	assertCode(t, apperror.CodeNotFound, err)
	assertCode(t, apperror.CodeNotFound, svc.DeleteProduct(ctx, low.ID, tester))

	_, total, err = svc.ListProducts(ctx, ProductListParams{Page: query.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCustomers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allowEvents()
	svc := NewCustomerService(f.customers, f.hooks)

	c, err := svc.CreateCustomer(ctx, &CreateCustomerRequest{Name: "Ada Lovelace", Email: "Ada@Example.com"}, tester)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", c.Email)

	_, err = svc.CreateCustomer(ctx, &CreateCustomerRequest{Name: "No Mail"}, tester)
	assertCode(t, apperror.CodeValidation, err)

	got, err := svc.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)

	_, err = svc.GetCustomer(ctx, uuid.New())
	assertCode(t, apperror.CodeNotFound, err)

	rows, total, err := svc.ListCustomers(ctx, "love", query.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, rows, 1)

	_, err = svc.CreateCustomer(ctx, &CreateCustomerRequest{Name: "Grace Hopper", Email: "navy@example.com"}, tester)
	require.NoError(t, err)
	rows, total, err = svc.ListCustomers(ctx, "navy@", query.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Grace Hopper", rows[0].Name)
}

func TestSearchProductsByNameOrSKU(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.productService()

	names := map[string]string{
		"DRL-100": "Cordless drill",
		"SAW-200": "Hand saw",
		"CLR-1":   "Clearance 50% bundle",
		"PCK-2":   "Pack of 500",
	}
	for sku, name := range names {
		p := f.seedProduct(t, sku, 5, 1, "3.00")
		require.NoError(t, f.conn.Model(&model.Product{}).Where("id = ?", p.ID).Update("name", name).Error)
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"DRL-1", []string{"Cordless drill"}},
		{"saw", []string{"Hand saw"}},
		{"50%", []string{"Clearance 50% bundle"}},
		{"%", []string{"Clearance 50% bundle"}},
		{"_", nil},
		{"50", []string{"Clearance 50% bundle", "Pack of 500"}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			rows, total, err := svc.ListProducts(ctx, ProductListParams{Search: tt.search, Page: query.NewPage(1, 10)})
			require.NoError(t, err)
			got := make([]string, 0, len(rows))
			for _, r := range rows {
				got = append(got, r.Name)
			}
			assert.Equal(t, int64(len(tt.want)), total)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}
