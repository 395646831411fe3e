package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/ws"
	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/query"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func itemFor(order *model.CustomerOrder, productID uuid.UUID) model.OrderItem {
	for _, it := range order.Items {
		if it.ProductID == productID {
			return it
		}
	}
	return model.OrderItem{}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	events := f.recordEvents()
	svc := f.orderService()

	c := f.seedCustomer(t, "ada")
	a := f.seedProduct(t, "A", 10, 1, "10.00")
	b := f.seedProduct(t, "B", 3, 1, "4.50")

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		CustomerID: c.ID,
		Items: []OrderItemRequest{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 1, UnitPrice: price("4.00")},
		},
	}, tester)
	require.NoError(t, err)

	assertMoney(t, "24.00", order.TotalAmount)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Equal(t, model.DeliveryPending, order.DeliveryStatus)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{8}$`), order.OrderNumber)
	require.Len(t, order.Items, 2)
	assertMoney(t, "20.00", itemFor(order, a.ID).Subtotal)
	assertMoney(t, "4.00", itemFor(order, b.ID).UnitPrice)

	inv, prod := f.stock(t, a.ID)
	assert.Equal(t, 8, inv)
	assert.Equal(t, 8, prod)
	inv, _ = f.stock(t, b.ID)
	assert.Equal(t, 2, inv)

	audits := f.audits(t, a.ID)
	require.Len(t, audits, 1)
	assert.Equal(t, model.AuditSale, audits[0].Kind)
	assert.Equal(t, -2, audits[0].QuantityChange)
	assert.Equal(t, "Order "+order.OrderNumber, audits[0].Reason)
	require.NotNil(t, audits[0].ReferenceID)
	assert.Equal(t, order.ID, *audits[0].ReferenceID)

	var created int
	for _, e := range *events {
		if e.Type == ws.EventOrderCreated {
			created++
		}
	}
	assert.Equal(t, 1, created)

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestCreateOrderRollsBackOnInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.orderService()

	c := f.seedCustomer(t, "ada")
	a := f.seedProduct(t, "A", 10, 1, "10.00")
	b := f.seedProduct(t, "B", 1, 1, "4.50")

	_, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		CustomerID: c.ID,
		Items: []OrderItemRequest{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 5},
		},
	}, tester)
	assertCode(t, apperror.CodeInvariantViolation, err)

	inv, _ := f.stock(t, a.ID)
	assert.Equal(t, 10, inv)
	assert.Zero(t, f.count(t, &model.CustomerOrder{}))
	assert.Zero(t, f.count(t, &model.OrderItem{}))
	assert.Zero(t, f.count(t, &model.InventoryAudit{}))
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.orderService()
	c := f.seedCustomer(t, "ada")
	a := f.seedProduct(t, "A", 10, 1, "10.00")

	tests := []struct {
		name string
		req  *CreateOrderRequest
		code apperror.Code
	}{
		{"no items", &CreateOrderRequest{CustomerID: c.ID}, apperror.CodeValidation},
		{"zero quantity", &CreateOrderRequest{CustomerID: c.ID, Items: []OrderItemRequest{{ProductID: a.ID}}}, apperror.CodeValidation},
		{"negative price", &CreateOrderRequest{CustomerID: c.ID, Items: []OrderItemRequest{{ProductID: a.ID, Quantity: 1, UnitPrice: price("-1")}}}, apperror.CodeValidation},
		{"unknown customer", &CreateOrderRequest{CustomerID: uuid.New(), Items: []OrderItemRequest{{ProductID: a.ID, Quantity: 1}}}, apperror.CodeNotFound},
		{"unknown product", &CreateOrderRequest{CustomerID: c.ID, Items: []OrderItemRequest{{ProductID: uuid.New(), Quantity: 1}}}, apperror.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tt.req, tester)
			assertCode(t, tt.code, err)
		})
	}
	assert.Zero(t, f.count(t, &model.CustomerOrder{}))
}

func TestPaymentStatusFollowsLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allowEvents()
	orders := f.orderService()
	fin := f.financialService()

	c := f.seedCustomer(t, "ada")
	a := f.seedProduct(t, "A", 10, 1, "10.00")
	b := f.seedProduct(t, "B", 3, 1, "4.50")
	acct := f.seedAccount(t, "0")

	order, err := orders.CreateOrder(ctx, &CreateOrderRequest{
		CustomerID: c.ID,
		Items: []OrderItemRequest{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 1, UnitPrice: price("4.00")},
		},
	}, tester)
	require.NoError(t, err)

	post := func(typ model.TransactionType, amount string) *TransactionResult {
		t.Helper()
		res, err := fin.RecordTransaction(ctx, &RecordTransactionRequest{
			OrderID:         &order.ID,
			AccountID:       &acct.ID,
			Amount:          decimal.RequireFromString(amount),
			TransactionType: typ,
			PaymentMethod:   "cash",
		}, tester)
		require.NoError(t, err)
		require.NotNil(t, res.Order)
		return res
	}

	res := post(model.TxSale, "10.00")
	assert.Equal(t, model.PaymentPartial, res.Order.PaymentStatus)

	for i := 0; i < 2; i++ {
		refreshed, err := orders.RefreshPaymentStatus(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPartial, refreshed.PaymentStatus)
	}

	res = post(model.TxSale, "14.00")
	assert.Equal(t, model.PaymentPaid, res.Order.PaymentStatus)
	assertMoney(t, "24.00", f.balance(t, acct.ID))

	res = post(model.TxRefund, "5.00")
	assert.Equal(t, model.PaymentPartial, res.Order.PaymentStatus)
	assertMoney(t, "19.00", f.balance(t, acct.ID))

	post(model.TxDiscount, "3.00")
	assertMoney(t, "19.00", f.balance(t, acct.ID))

	rows, total, err := fin.ListTransactions(ctx, TransactionListParams{OrderID: &order.ID, Page: query.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, rows, 4)

	rows, total, err = fin.ListTransactions(ctx, TransactionListParams{TransactionType: "refund", Page: query.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assertMoney(t, "5.00", rows[0].Amount)
}

func TestUpdateDeliveryStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allowEvents()
	svc := f.orderService()
	c := f.seedCustomer(t, "ada")
	a := f.seedProduct(t, "A", 10, 1, "10.00")

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{CustomerID: c.ID, Items: []OrderItemRequest{{ProductID: a.ID, Quantity: 1}}}, tester)
	require.NoError(t, err)

	updated, err := svc.UpdateDeliveryStatus(ctx, order.ID, model.DeliveryShipped, tester)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryShipped, updated.DeliveryStatus)

	_, err = svc.UpdateDeliveryStatus(ctx, order.ID, "Lost", tester)
	assertCode(t, apperror.CodeValidation, err)

	_, err = svc.UpdateDeliveryStatus(ctx, uuid.New(), model.DeliveryShipped, tester)
	assertCode(t, apperror.CodeNotFound, err)

	_, err = svc.UpdateDeliveryStatus(ctx, order.ID, model.DeliveryCancelled, tester)
	require.NoError(t, err)
	inv, _ := f.stock(t, a.ID)
	assert.Equal(t, 9, inv)
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allowEvents()
	svc := f.orderService()
	ada := f.seedCustomer(t, "ada")
	bob := f.seedCustomer(t, "bob")
	a := f.seedProduct(t, "A", 10, 1, "10.00")

	for _, c := range []*model.Customer{ada, ada, bob} {
		_, err := svc.CreateOrder(ctx, &CreateOrderRequest{CustomerID: c.ID, Items: []OrderItemRequest{{ProductID: a.ID, Quantity: 1}}}, tester)
		require.NoError(t, err)
	}

	rows, total, err := svc.ListOrders(ctx, OrderListParams{CustomerID: &ada.ID, Page: query.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)

	_, total, err = svc.ListOrders(ctx, OrderListParams{PaymentStatus: "Pending", Page: query.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	_, _, err = svc.ListOrders(ctx, OrderListParams{StartDate: "yesterday", Page: query.NewPage(1, 10)})
	assertCode(t, apperror.CodeValidation, err)
}
