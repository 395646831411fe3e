package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-retail-ws/internal/model"
	"go-retail-ws/pkg/query"
)

// ReportRepository holds the read-only aggregates behind the dashboard and
// the financial reports.
type ReportRepository interface {
	StockMovement(ctx context.Context, start, end time.Time) ([]StockMovementData, error)
	DashboardStats(ctx context.Context, dayStart time.Time) (*DashboardStats, error)
	LedgerTotals(ctx context.Context, start, end time.Time) (map[model.TransactionType]LedgerTotal, error)
	PaymentMethodTotals(ctx context.Context, start, end time.Time, types ...model.TransactionType) ([]PaymentMethodTotal, error)
	ExpenseTotals(ctx context.Context, start, end time.Time) ([]ExpenseTotal, error)
	CostOfGoodsSold(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	OrderCount(ctx context.Context, start, end time.Time) (int64, error)
	ValuationInputs(ctx context.Context) ([]ValuationInput, error)
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalProducts   int64           `json:"total_products"`
	LowStockCount   int64           `json:"low_stock_count"`
	InventoryValue  decimal.Decimal `json:"inventory_value"`
	SalesToday      decimal.Decimal `json:"sales_today"`
	OrdersToday     int64           `json:"orders_today"`
	UnpaidOrders    int64           `json:"unpaid_orders"`
	PendingReturns  int64           `json:"pending_returns"`
	TotalCustomers  int64           `json:"total_customers"`
	AccountsBalance decimal.Decimal `json:"accounts_balance"`
}

type LedgerTotal struct {
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

type PaymentMethodTotal struct {
	PaymentMethod   string                `json:"payment_method"`
	TransactionType model.TransactionType `json:"transaction_type"`
	Total           decimal.Decimal       `json:"total"`
	Count           int64                 `json:"count"`
}

type ExpenseTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int64           `json:"count"`
}

// ValuationInput is one product's stock position plus its open batches.
type ValuationInput struct {
	Product model.Product
	Method  model.ValuationMethod
	Stock   int
	Batches []model.InventoryBatch
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func rangeFilter(column string, start, end time.Time) *query.Filter {
	return query.NewFilter(column, "transaction_type").
		WhereIf(!start.IsZero(), column, query.Gte, start.UTC()).
		WhereIf(!end.IsZero(), column, query.Lte, end.UTC())
}

// StockMovement buckets audit deltas per calendar day (UTC). Bucketing
// happens here rather than in SQL so the report reads the same on every
// supported driver.
func (r *reportRepo) StockMovement(ctx context.Context, start, end time.Time) ([]StockMovementData, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.InventoryAudit{}).
		Select("created_at, quantity_change").
		Where("created_at BETWEEN ? AND ?", start.UTC(), end.UTC()).
		Order("created_at ASC").
		Rows()
	if err != nil {
		return nil, translate(err, "stock movement")
	}
	defer rows.Close()

	results := []StockMovementData{}
	index := map[string]int{}
	for rows.Next() {
		var (
			at    time.Time
			delta int
		)
		if err := rows.Scan(&at, &delta); err != nil {
			return nil, err
		}
		day := at.UTC().Format(time.DateOnly)
		i, ok := index[day]
		if !ok {
			results = append(results, StockMovementData{Date: day})
			i = len(results) - 1
			index[day] = i
		}
		if delta > 0 {
			results[i].Inbound += delta
		} else {
			results[i].Outbound += -delta
		}
	}
	return results, rows.Err()
}

func (r *reportRepo) DashboardStats(ctx context.Context, dayStart time.Time) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	// Total Products
	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, translate(err, "count products")
	}

	if err := db.Model(&model.Inventory{}).
		Joins("JOIN product ON product.id = inventory.product_id AND product.deleted_at IS NULL").
		Where("inventory.stock_level <= inventory.reorder_level").
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, translate(err, "count low stock")
	}

	// Valuation at cost
	if err := db.Model(&model.Product{}).
		Select("COALESCE(SUM(stock_level * cost_price), 0)").
		Row().Scan(&stats.InventoryValue); err != nil {
		return nil, translate(err, "inventory value")
	}

	if err := db.Model(&model.SalesTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("transaction_type = ? AND created_at >= ?", model.TxSale, dayStart.UTC()).
		Row().Scan(&stats.SalesToday); err != nil {
		return nil, translate(err, "sales today")
	}

	if err := db.Model(&model.CustomerOrder{}).
		Where("created_at >= ?", dayStart.UTC()).
		Count(&stats.OrdersToday).Error; err != nil {
		return nil, translate(err, "orders today")
	}

	if err := db.Model(&model.CustomerOrder{}).
		Where("payment_status <> ?", model.PaymentPaid).
		Count(&stats.UnpaidOrders).Error; err != nil {
		return nil, translate(err, "unpaid orders")
	}

	if err := db.Model(&model.ReturnRequest{}).
		Where("status = ?", model.ReturnPending).
		Count(&stats.PendingReturns).Error; err != nil {
		return nil, translate(err, "pending returns")
	}

	if err := db.Model(&model.Customer{}).Count(&stats.TotalCustomers).Error; err != nil {
		return nil, translate(err, "count customers")
	}

	if err := db.Model(&model.FinancialAccount{}).
		Select("COALESCE(SUM(current_balance), 0)").
		Row().Scan(&stats.AccountsBalance); err != nil {
		return nil, translate(err, "accounts balance")
	}

	return &stats, nil
}

func (r *reportRepo) LedgerTotals(ctx context.Context, start, end time.Time) (map[model.TransactionType]LedgerTotal, error) {
	where, args, err := rangeFilter("created_at", start, end).Render()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.WithContext(ctx).Raw(
		"SELECT transaction_type, COALESCE(SUM(amount), 0), COUNT(*) FROM sales_transaction WHERE "+where+
			" GROUP BY transaction_type", args...).Rows()
	if err != nil {
		return nil, translate(err, "ledger totals")
	}
	defer rows.Close()

	totals := map[model.TransactionType]LedgerTotal{}
	for rows.Next() {
		var (
			kind  model.TransactionType
			total LedgerTotal
		)
		if err := rows.Scan(&kind, &total.Total, &total.Count); err != nil {
			return nil, err
		}
		totals[kind] = total
	}
	return totals, rows.Err()
}

func (r *reportRepo) PaymentMethodTotals(ctx context.Context, start, end time.Time, types ...model.TransactionType) ([]PaymentMethodTotal, error) {
	where, args, err := rangeFilter("created_at", start, end).
		WhereIf(len(types) > 0, "transaction_type", query.In, types).
		Render()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.WithContext(ctx).Raw(
		"SELECT payment_method, transaction_type, COALESCE(SUM(amount), 0), COUNT(*) FROM sales_transaction WHERE "+where+
			" GROUP BY payment_method, transaction_type ORDER BY payment_method, transaction_type", args...).Rows()
	if err != nil {
		return nil, translate(err, "payment method totals")
	}
	defer rows.Close()

	out := []PaymentMethodTotal{}
	for rows.Next() {
		var t PaymentMethodTotal
		if err := rows.Scan(&t.PaymentMethod, &t.TransactionType, &t.Total, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *reportRepo) ExpenseTotals(ctx context.Context, start, end time.Time) ([]ExpenseTotal, error) {
	where, args, err := query.NewFilter("expense_date").
		WhereIf(!start.IsZero(), "expense_date", query.Gte, start.UTC()).
		WhereIf(!end.IsZero(), "expense_date", query.Lte, end.UTC()).
		Render()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.WithContext(ctx).Raw(
		"SELECT category, COALESCE(SUM(amount), 0), COUNT(*) FROM expense WHERE "+where+
			" GROUP BY category ORDER BY category", args...).Rows()
	if err != nil {
		return nil, translate(err, "expense totals")
	}
	defer rows.Close()

	out := []ExpenseTotal{}
	for rows.Next() {
		var t ExpenseTotal
		if err := rows.Scan(&t.Category, &t.Total, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CostOfGoodsSold values items of orders placed in the range at the
// product's current cost price.
func (r *reportRepo) CostOfGoodsSold(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	where, args, err := query.NewFilter("o.created_at").
		WhereIf(!start.IsZero(), "o.created_at", query.Gte, start.UTC()).
		WhereIf(!end.IsZero(), "o.created_at", query.Lte, end.UTC()).
		Render()
	if err != nil {
		return decimal.Zero, err
	}
	var cogs decimal.Decimal
	err = r.db.WithContext(ctx).Raw(
		"SELECT COALESCE(SUM(oi.quantity * p.cost_price), 0) FROM order_item oi"+
			" JOIN customerorder o ON o.id = oi.order_id"+
			" JOIN product p ON p.id = oi.product_id"+
			" WHERE "+where, args...).Row().Scan(&cogs)
	if err != nil {
		return decimal.Zero, translate(err, "cost of goods sold")
	}
	return cogs, nil
}

func (r *reportRepo) OrderCount(ctx context.Context, start, end time.Time) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.CustomerOrder{})
	if !start.IsZero() {
		q = q.Where("created_at >= ?", start.UTC())
	}
	if !end.IsZero() {
		q = q.Where("created_at <= ?", end.UTC())
	}
	err := q.Count(&n).Error
	return n, translate(err, "count orders")
}

func (r *reportRepo) ValuationInputs(ctx context.Context) ([]ValuationInput, error) {
	db := r.db.WithContext(ctx)

	var inventories []model.Inventory
	err := db.Joins("JOIN product ON product.id = inventory.product_id AND product.deleted_at IS NULL").
		Preload("Product").
		Order("product.name ASC").
		Find(&inventories).Error
	if err != nil {
		return nil, translate(err, "load inventory")
	}

	ids := make([]uuid.UUID, 0, len(inventories))
	for _, inv := range inventories {
		ids = append(ids, inv.ProductID)
	}

	var batches []model.InventoryBatch
	if len(ids) > 0 {
		err = db.Where("product_id IN ? AND quantity > 0", ids).
			Order("received_date ASC, created_at ASC").
			Find(&batches).Error
		if err != nil {
			return nil, translate(err, "load batches")
		}
	}
	byProduct := map[uuid.UUID][]model.InventoryBatch{}
	for _, b := range batches {
		byProduct[b.ProductID] = append(byProduct[b.ProductID], b)
	}

	out := make([]ValuationInput, 0, len(inventories))
	for _, inv := range inventories {
		if inv.Product == nil {
			continue
		}
		out = append(out, ValuationInput{
			Product: *inv.Product,
			Method:  inv.ValuationMethod,
			Stock:   inv.StockLevel,
			Batches: byProduct[inv.ProductID],
		})
	}
	return out, nil
}
