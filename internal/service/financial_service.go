package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/repository"
	"go-retail-ws/internal/ws"
	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/database"
	"go-retail-ws/pkg/query"
	"go-retail-ws/pkg/validator"
)

type RecordTransactionRequest struct {
	OrderID         *uuid.UUID            `json:"order_id"`
	AccountID       *uuid.UUID            `json:"account_id"`
	Amount          decimal.Decimal       `json:"amount"`
	TransactionType model.TransactionType `json:"transaction_type" validate:"required,oneof=SALE REFUND TAX DISCOUNT"`
	PaymentMethod   string                `json:"payment_method" validate:"required,max=50"`
	ReferenceNumber string                `json:"reference_number" validate:"max=100"`
	Notes           string                `json:"notes" validate:"max=1000"`
}

type CreateAccountRequest struct {
	Name           string            `json:"name" validate:"required,max=100"`
	AccountType    model.AccountType `json:"account_type" validate:"required,oneof=ASSET REVENUE EXPENSE LIABILITY"`
	AccountNumber  string            `json:"account_number" validate:"max=64"`
	OpeningBalance decimal.Decimal   `json:"opening_balance"`
	Description    string            `json:"description" validate:"max=1000"`
}

type RecordExpenseRequest struct {
	AccountID   uuid.UUID       `json:"account_id" validate:"uuid_required"`
	Category    string          `json:"category" validate:"required,max=100"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate string          `json:"expense_date"`
	Description string          `json:"description" validate:"max=1000"`
}

type TransactionListParams struct {
	OrderID         *uuid.UUID
	AccountID       *uuid.UUID
	TransactionType string
	PaymentMethod   string
	StartDate       string
	EndDate         string
	Page            query.Page
}

// TransactionResult is a posted transaction with the order it touched.
type TransactionResult struct {
	Transaction *model.SalesTransaction `json:"transaction"`
	Order       *model.CustomerOrder    `json:"order,omitempty"`
}

type FinancialService interface {
	RecordTransaction(ctx context.Context, req *RecordTransactionRequest, actor Actor) (*TransactionResult, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]model.SalesTransaction, int64, error)
	CreateAccount(ctx context.Context, req *CreateAccountRequest, actor Actor) (*model.FinancialAccount, error)
	ListAccounts(ctx context.Context) ([]model.FinancialAccount, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*model.FinancialAccount, error)
	RecordExpense(ctx context.Context, req *RecordExpenseRequest, actor Actor) (*model.Expense, error)
	ListExpenses(ctx context.Context, category string, page query.Page) ([]model.Expense, int64, error)
}

type financialService struct {
	db         *database.Client
	ledgerRepo repository.LedgerRepository
	orderRepo  repository.OrderRepository
	hooks      Hooks
}

func NewFinancialService(db *database.Client, lRepo repository.LedgerRepository, oRepo repository.OrderRepository, hooks Hooks) FinancialService {
	return &financialService{db: db, ledgerRepo: lRepo, orderRepo: oRepo, hooks: hooks}
}

// RecordTransaction inserts the ledger row, moves the account balance and
// re-derives the order's payment status in one transaction.
func (s *financialService) RecordTransaction(ctx context.Context, req *RecordTransactionRequest, actor Actor) (result *TransactionResult, err error) {
	defer s.hooks.track(ctx, "financial.record_transaction")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be greater than 0")
	}

	txn := &model.SalesTransaction{
		OrderID:         req.OrderID,
		AccountID:       req.AccountID,
		TransactionType: req.TransactionType,
		Amount:          req.Amount,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
		RecordedBy:      actor.ID,
	}

	var order *model.CustomerOrder
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		o, err := ledgerWriter{ledger: s.ledgerRepo.WithTx(tx), orders: s.orderRepo.WithTx(tx)}.post(ctx, txn)
		order = o
		return err
	})
	if err != nil {
		return nil, err
	}

	s.hooks.publish(ws.Event{
		Type:    ws.EventLedgerPosted,
		Action:  string(txn.TransactionType),
		Actor:   actor.label(),
		Message: fmt.Sprintf("%s of %s recorded", txn.TransactionType, txn.Amount.StringFixed(2)),
		Payload: txn,
	})
	if order != nil {
		s.hooks.publish(ws.Event{Type: ws.EventOrderUpdated, Action: "payment_status", Actor: actor.label(), Payload: order})
	}
	return &TransactionResult{Transaction: txn, Order: order}, nil
}

func (s *financialService) ListTransactions(ctx context.Context, params TransactionListParams) ([]model.SalesTransaction, int64, error) {
	start, err := parseDate("startDate", params.StartDate)
	if err != nil {
		return nil, 0, err
	}
	end, err := parseDate("endDate", params.EndDate)
	if err != nil {
		return nil, 0, err
	}

	filter := query.NewFilter(repository.TransactionFilterColumns...).
		WhereIf(params.TransactionType != "", "transaction_type", query.Eq, strings.ToUpper(params.TransactionType)).
		WhereIf(params.PaymentMethod != "", "payment_method", query.Eq, params.PaymentMethod)
	if params.OrderID != nil {
		filter.Where("order_id", query.Eq, *params.OrderID)
	}
	if params.AccountID != nil {
		filter.Where("account_id", query.Eq, *params.AccountID)
	}
	if start != nil {
		filter.Where("created_at", query.Gte, *start)
	}
	if end != nil {
		filter.Where("created_at", query.Lt, endOfDay(*end))
	}
	if err := filter.Err(); err != nil {
		return nil, 0, filterErr(err)
	}

	rows, total, err := s.ledgerRepo.ListTransactions(ctx, filter, params.Page)
	if err != nil {
		return nil, 0, internalErr(err, "list transactions")
	}
	return rows, total, nil
}

// CreateAccount opens an account. The opening balance is the only balance
// ever written directly.
func (s *financialService) CreateAccount(ctx context.Context, req *CreateAccountRequest, actor Actor) (account *model.FinancialAccount, err error) {
	defer s.hooks.track(ctx, "financial.create_account")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	account = &model.FinancialAccount{
		Name:           strings.TrimSpace(req.Name),
		AccountType:    req.AccountType,
		AccountNumber:  req.AccountNumber,
		CurrentBalance: req.OpeningBalance,
		Description:    req.Description,
		Auditable:      model.Auditable{CreatedBy: actor.ID, UpdatedBy: actor.ID},
	}
	if err = s.ledgerRepo.CreateAccount(ctx, account); err != nil {
		return nil, internalErr(err, "create account")
	}
	s.hooks.publish(ws.Event{Type: ws.EventAccountChanged, Action: "created", Actor: actor.label(), Payload: account})
	return account, nil
}

func (s *financialService) ListAccounts(ctx context.Context) ([]model.FinancialAccount, error) {
	accounts, err := s.ledgerRepo.ListAccounts(ctx)
	if err != nil {
		return nil, internalErr(err, "list accounts")
	}
	return accounts, nil
}

func (s *financialService) GetAccount(ctx context.Context, id uuid.UUID) (*model.FinancialAccount, error) {
	account, err := s.ledgerRepo.FindAccount(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "financial account")
	}
	return account, nil
}

// RecordExpense inserts the expense and takes its amount out of the account.
func (s *financialService) RecordExpense(ctx context.Context, req *RecordExpenseRequest, actor Actor) (expense *model.Expense, err error) {
	defer s.hooks.track(ctx, "financial.record_expense")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be greater than 0")
	}
	date, err := parseDate("expense_date", req.ExpenseDate)
	if err != nil {
		return nil, err
	}
	if date == nil {
		now := time.Now().UTC()
		date = &now
	}

	expense = &model.Expense{
		AccountID:   req.AccountID,
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		ExpenseDate: *date,
		Description: req.Description,
		RecordedBy:  actor.ID,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		ledger := s.ledgerRepo.WithTx(tx)
		if _, err := ledger.FindAccount(ctx, req.AccountID); err != nil {
			return lookupErr(err, "financial account")
		}
		if err := ledger.CreateExpense(ctx, expense); err != nil {
			return internalErr(err, "create expense")
		}
		return lookupErr(ledger.AdjustBalance(ctx, req.AccountID, req.Amount.Neg()), "financial account")
	})
	if err != nil {
		return nil, err
	}

	s.hooks.publish(ws.Event{
		Type:    ws.EventAccountChanged,
		Action:  "expense",
		Actor:   actor.label(),
		Message: fmt.Sprintf("expense of %s recorded under %s", expense.Amount.StringFixed(2), expense.Category),
		Payload: expense,
	})
	return expense, nil
}

func (s *financialService) ListExpenses(ctx context.Context, category string, page query.Page) ([]model.Expense, int64, error) {
	filter := query.NewFilter(repository.ExpenseFilterColumns...).
		WhereIf(category != "", "category", query.Eq, category)
	rows, total, err := s.ledgerRepo.ListExpenses(ctx, filter, page)
	if err != nil {
		return nil, 0, internalErr(err, "list expenses")
	}
	return rows, total, nil
}
