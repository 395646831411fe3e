package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"go-retail-ws/internal/service"
)

type FinancialHandler struct {
	financial service.FinancialService
	reports   service.ReportService
	now       func() time.Time
}

func NewFinancialHandler(financial service.FinancialService, reports service.ReportService) *FinancialHandler {
	return &FinancialHandler{financial: financial, reports: reports, now: time.Now}
}

// RecordTransaction posts a ledger entry
// POST /api/financial/transactions
func (h *FinancialHandler) RecordTransaction(c *fiber.Ctx) error {
	var req service.RecordTransactionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.financial.RecordTransaction(c.UserContext(), &req, actor(c))
	if err != nil {
		return err
	}
	return created(c, "transaction recorded", result)
}

// GetTransactions lists ledger entries
// Query params: order_id, account_id, transaction_type, payment_method, startDate, endDate, page, page_size
func (h *FinancialHandler) GetTransactions(c *fiber.Ctx) error {
	orderID, err := queryUUID(c, "order_id")
	if err != nil {
		return err
	}
	accountID, err := queryUUID(c, "account_id")
	if err != nil {
		return err
	}
	params := service.TransactionListParams{
		OrderID:         orderID,
		AccountID:       accountID,
		TransactionType: c.Query("transaction_type"),
		PaymentMethod:   c.Query("payment_method"),
		StartDate:       c.Query("startDate"),
		EndDate:         c.Query("endDate"),
		Page:            pageOf(c),
	}
	rows, total, err := h.financial.ListTransactions(c.UserContext(), params)
	if err != nil {
		return err
	}
	return paged(c, rows, params.Page, total)
}

// POST /api/financial/accounts
func (h *FinancialHandler) CreateAccount(c *fiber.Ctx) error {
	var req service.CreateAccountRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	account, err := h.financial.CreateAccount(c.UserContext(), &req, actor(c))
	if err != nil {
		return err
	}
	return created(c, "account created", account)
}

// GET /api/financial/accounts
func (h *FinancialHandler) GetAccounts(c *fiber.Ctx) error {
	accounts, err := h.financial.ListAccounts(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "", accounts)
}

// GET /api/financial/accounts/:id
func (h *FinancialHandler) GetAccount(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	account, err := h.financial.GetAccount(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "", account)
}

// POST /api/financial/expenses
func (h *FinancialHandler) RecordExpense(c *fiber.Ctx) error {
	var req service.RecordExpenseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	expense, err := h.financial.RecordExpense(c.UserContext(), &req, actor(c))
	if err != nil {
		return err
	}
	return created(c, "expense recorded", expense)
}

// GET /api/financial/expenses?category=
func (h *FinancialHandler) GetExpenses(c *fiber.Ctx) error {
	page := pageOf(c)
	rows, total, err := h.financial.ListExpenses(c.UserContext(), c.Query("category"), page)
	if err != nil {
		return err
	}
	return paged(c, rows, page, total)
}

// GetSummary returns ledger totals for a period
// GET /api/financial/summary?startDate&endDate
func (h *FinancialHandler) GetSummary(c *fiber.Ctx) error {
	r, err := service.ParseDateRange(c.Query("startDate"), c.Query("endDate"), h.now())
	if err != nil {
		return err
	}
	summary, err := h.reports.Summary(c.UserContext(), r)
	if err != nil {
		return err
	}
	return ok(c, "", summary)
}

// GetReport builds one of the named reports
// GET /api/financial/report?reportType&startDate&endDate
func (h *FinancialHandler) GetReport(c *fiber.Ctx) error {
	r, err := service.ParseDateRange(c.Query("startDate"), c.Query("endDate"), h.now())
	if err != nil {
		return err
	}
	report, err := h.reports.Report(c.UserContext(), c.Query("reportType"), r)
	if err != nil {
		return err
	}
	return ok(c, "", report)
}
