package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/repository"
	"go-retail-ws/pkg/apperror"
)

// Report types accepted by Report.
const (
	ReportIncomeStatement    = "income_statement"
	ReportSalesTax           = "sales_tax"
	ReportInventoryValuation = "inventory_valuation"
)

// DateRange is inclusive on both ends.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// ParseDateRange reads startDate/endDate (YYYY-MM-DD). A missing start is
// the first day of now's month, a missing end is the end of today.
func ParseDateRange(startDate, endDate string, now time.Time) (DateRange, error) {
	now = now.UTC()
	start, err := parseDate("startDate", startDate)
	if err != nil {
		return DateRange{}, err
	}
	end, err := parseDate("endDate", endDate)
	if err != nil {
		return DateRange{}, err
	}

	r := DateRange{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		End:   endOfDay(now).Add(-time.Nanosecond),
	}
	if start != nil {
		r.Start = *start
	}
	if end != nil {
		r.End = endOfDay(*end).Add(-time.Nanosecond)
	}
	if r.Start.After(r.End) {
		return DateRange{}, apperror.Validation("startDate must not be after endDate")
	}
	return r, nil
}

type FinancialSummary struct {
	Period           DateRange                       `json:"period"`
	GrossSales       decimal.Decimal                 `json:"gross_sales"`
	Taxes            decimal.Decimal                 `json:"taxes"`
	Refunds          decimal.Decimal                 `json:"refunds"`
	Discounts        decimal.Decimal                 `json:"discounts"`
	NetRevenue       decimal.Decimal                 `json:"net_revenue"`
	Expenses         decimal.Decimal                 `json:"expenses"`
	NetIncome        decimal.Decimal                 `json:"net_income"`
	TransactionCount int64                           `json:"transaction_count"`
	OrderCount       int64                           `json:"order_count"`
	ByPaymentMethod  []repository.PaymentMethodTotal `json:"by_payment_method"`
}

type IncomeStatement struct {
	GrossSales      decimal.Decimal           `json:"gross_sales"`
	Discounts       decimal.Decimal           `json:"discounts"`
	Refunds         decimal.Decimal           `json:"refunds"`
	NetSales        decimal.Decimal           `json:"net_sales"`
	CostOfGoodsSold decimal.Decimal           `json:"cost_of_goods_sold"`
	GrossProfit     decimal.Decimal           `json:"gross_profit"`
	Expenses        []repository.ExpenseTotal `json:"expenses"`
	TotalExpenses   decimal.Decimal           `json:"total_expenses"`
	NetIncome       decimal.Decimal           `json:"net_income"`
}

type SalesTaxReport struct {
	TaxableSales    decimal.Decimal                 `json:"taxable_sales"`
	TaxCollected    decimal.Decimal                 `json:"tax_collected"`
	TaxCount        int64                           `json:"tax_transaction_count"`
	EffectiveRate   decimal.Decimal                 `json:"effective_rate_percent"`
	ByPaymentMethod []repository.PaymentMethodTotal `json:"by_payment_method"`
}

type ValuationLine struct {
	ProductID  uuid.UUID             `json:"product_id"`
	SKU        string                `json:"sku"`
	Name       string                `json:"name"`
	Category   string                `json:"category"`
	Method     model.ValuationMethod `json:"valuation_method"`
	StockLevel int                   `json:"stock_level"`
	CostPrice  decimal.Decimal       `json:"cost_price"`
	Value      decimal.Decimal       `json:"value"`
}

// InventoryValuation reflects stock as of AsOf; it does not depend on the
// requested range.
type InventoryValuation struct {
	AsOf       time.Time       `json:"as_of"`
	Lines      []ValuationLine `json:"lines"`
	TotalUnits int             `json:"total_units"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type Report struct {
	Type   string    `json:"report_type"`
	Period DateRange `json:"period"`
	Data   any       `json:"data"`
}

type ReportService interface {
	Summary(ctx context.Context, r DateRange) (*FinancialSummary, error)
	Report(ctx context.Context, reportType string, r DateRange) (*Report, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
	hooks      Hooks
	now        func() time.Time
}

func NewReportService(rRepo repository.ReportRepository, hooks Hooks) ReportService {
	return &reportService{reportRepo: rRepo, hooks: hooks, now: time.Now}
}

func (s *reportService) Summary(ctx context.Context, r DateRange) (summary *FinancialSummary, err error) {
	defer s.hooks.track(ctx, "report.summary")(&err)

	totals, err := s.reportRepo.LedgerTotals(ctx, r.Start, r.End)
	if err != nil {
		return nil, internalErr(err, "ledger totals")
	}
	expenses, err := s.reportRepo.ExpenseTotals(ctx, r.Start, r.End)
	if err != nil {
		return nil, internalErr(err, "expense totals")
	}
	methods, err := s.reportRepo.PaymentMethodTotals(ctx, r.Start, r.End)
	if err != nil {
		return nil, internalErr(err, "payment method totals")
	}
	orders, err := s.reportRepo.OrderCount(ctx, r.Start, r.End)
	if err != nil {
		return nil, internalErr(err, "count orders")
	}

	summary = &FinancialSummary{
		Period:          r,
		GrossSales:      totals[model.TxSale].Total,
		Taxes:           totals[model.TxTax].Total,
		Refunds:         totals[model.TxRefund].Total,
		Discounts:       totals[model.TxDiscount].Total,
		Expenses:        sumExpenses(expenses),
		OrderCount:      orders,
		ByPaymentMethod: methods,
	}
	for _, t := range totals {
		summary.TransactionCount += t.Count
	}
	summary.NetRevenue = summary.GrossSales.Sub(summary.Refunds).Sub(summary.Discounts)
	summary.NetIncome = summary.NetRevenue.Sub(summary.Expenses)
	return summary, nil
}

func (s *reportService) Report(ctx context.Context, reportType string, r DateRange) (report *Report, err error) {
	op := "report.invalid"
	switch reportType {
	case ReportIncomeStatement, ReportSalesTax, ReportInventoryValuation:
		op = "report." + reportType
	}
	defer s.hooks.track(ctx, op)(&err)

	var data any
	switch reportType {
	case ReportIncomeStatement:
		data, err = s.incomeStatement(ctx, r)
	case ReportSalesTax:
		data, err = s.salesTax(ctx, r)
	case ReportInventoryValuation:
		data, err = s.inventoryValuation(ctx)
	default:
		return nil, apperror.Validation("reportType must be one of income_statement, sales_tax, inventory_valuation")
	}
	if err != nil {
		return nil, err
	}
	return &Report{Type: reportType, Period: r, Data: data}, nil
}

func (s *reportService) incomeStatement(ctx context.Context, r DateRange) (*IncomeStatement, error) {
	totals, err := s.reportRepo.LedgerTotals(ctx, r.Start, r.End)
	if err != nil {
		return nil, internalErr(err, "ledger totals")
	}
	cogs, err := s.reportRepo.CostOfGoodsSold(ctx, r.Start, r.End)
	if err != nil {
		return nil, internalErr(err, "cost of goods sold")
	}
	expenses, err := s.reportRepo.ExpenseTotals(ctx, r.Start, r.End)
	if err != nil {
		return nil, internalErr(err, "expense totals")
	}

	st := &IncomeStatement{
		GrossSales:      totals[model.TxSale].Total,
		Discounts:       totals[model.TxDiscount].Total,
		Refunds:         totals[model.TxRefund].Total,
		CostOfGoodsSold: cogs,
		Expenses:        expenses,
		TotalExpenses:   sumExpenses(expenses),
	}
	st.NetSales = st.GrossSales.Sub(st.Discounts).Sub(st.Refunds)
	st.GrossProfit = st.NetSales.Sub(st.CostOfGoodsSold)
	st.NetIncome = st.GrossProfit.Sub(st.TotalExpenses)
	return st, nil
}

func (s *reportService) salesTax(ctx context.Context, r DateRange) (*SalesTaxReport, error) {
	totals, err := s.reportRepo.LedgerTotals(ctx, r.Start, r.End)
	if err != nil {
		return nil, internalErr(err, "ledger totals")
	}
	methods, err := s.reportRepo.PaymentMethodTotals(ctx, r.Start, r.End, model.TxTax)
	if err != nil {
		return nil, internalErr(err, "payment method totals")
	}

	rep := &SalesTaxReport{
		TaxableSales:    totals[model.TxSale].Total,
		TaxCollected:    totals[model.TxTax].Total,
		TaxCount:        totals[model.TxTax].Count,
		EffectiveRate:   decimal.Zero,
		ByPaymentMethod: methods,
	}
	if rep.TaxableSales.IsPositive() {
		rep.EffectiveRate = rep.TaxCollected.Div(rep.TaxableSales).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return rep, nil
}

func (s *reportService) inventoryValuation(ctx context.Context) (*InventoryValuation, error) {
	inputs, err := s.reportRepo.ValuationInputs(ctx)
	if err != nil {
		return nil, internalErr(err, "valuation inputs")
	}

	val := &InventoryValuation{AsOf: s.now().UTC(), Lines: make([]ValuationLine, 0, len(inputs)), TotalValue: decimal.Zero}
	for _, in := range inputs {
		value := valueStock(in.Method, in.Stock, in.Product.CostPrice, in.Batches)
		val.Lines = append(val.Lines, ValuationLine{
			ProductID:  in.Product.ID,
			SKU:        in.Product.SKU,
			Name:       in.Product.Name,
			Category:   in.Product.Category,
			Method:     in.Method,
			StockLevel: in.Stock,
			CostPrice:  in.Product.CostPrice,
			Value:      value,
		})
		val.TotalUnits += in.Stock
		val.TotalValue = val.TotalValue.Add(value)
	}
	return val, nil
}

func sumExpenses(rows []repository.ExpenseTotal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Total)
	}
	return total
}
