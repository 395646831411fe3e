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

// LedgerRepository covers sales transactions, financial accounts and
// expenses: everything that moves money.
type LedgerRepository interface {
	WithTx(tx *gorm.DB) LedgerRepository

	CreateTransaction(ctx context.Context, txn *model.SalesTransaction) error
	ListTransactions(ctx context.Context, filter *query.Filter, page query.Page) ([]model.SalesTransaction, int64, error)
	NetPaid(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)

	CreateAccount(ctx context.Context, account *model.FinancialAccount) error
	FindAccount(ctx context.Context, id uuid.UUID) (*model.FinancialAccount, error)
	ListAccounts(ctx context.Context) ([]model.FinancialAccount, error)
	AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error

	CreateExpense(ctx context.Context, expense *model.Expense) error
	ListExpenses(ctx context.Context, filter *query.Filter, page query.Page) ([]model.Expense, int64, error)
}

var (
	TransactionFilterColumns = []string{"order_id", "account_id", "transaction_type", "payment_method", "created_at"}
	ExpenseFilterColumns     = []string{"account_id", "category", "expense_date"}
)

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db}
}

func (r *ledgerRepo) WithTx(tx *gorm.DB) LedgerRepository {
	return &ledgerRepo{tx}
}

func (r *ledgerRepo) CreateTransaction(ctx context.Context, txn *model.SalesTransaction) error {
	return translate(r.db.WithContext(ctx).Create(txn).Error, "create sales transaction")
}

func (r *ledgerRepo) ListTransactions(ctx context.Context, filter *query.Filter, page query.Page) ([]model.SalesTransaction, int64, error) {
	q, err := filter.Apply(r.db.WithContext(ctx).Model(&model.SalesTransaction{}))
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := findPage[model.SalesTransaction](q, page, "created_at DESC")
	return rows, total, translate(err, "list sales transactions")
}

// NetPaid is SUM(SALE, TAX) - SUM(REFUND) over the order's whole history.
func (r *ledgerRepo) NetPaid(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var paid decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.SalesTransaction{}).
		Select(`COALESCE(SUM(CASE
			WHEN transaction_type IN (?, ?) THEN amount
			WHEN transaction_type = ? THEN -amount
			ELSE 0 END), 0)`, model.TxSale, model.TxTax, model.TxRefund).
		Where("order_id = ?", orderID).
		Row().Scan(&paid)
	if err != nil {
		return decimal.Zero, translate(err, "sum order payments")
	}
	return paid, nil
}

func (r *ledgerRepo) CreateAccount(ctx context.Context, account *model.FinancialAccount) error {
	return translate(r.db.WithContext(ctx).Create(account).Error, "create account")
}

func (r *ledgerRepo) FindAccount(ctx context.Context, id uuid.UUID) (*model.FinancialAccount, error) {
	var account model.FinancialAccount
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find account")
	}
	return &account, nil
}

func (r *ledgerRepo) ListAccounts(ctx context.Context) ([]model.FinancialAccount, error) {
	var accounts []model.FinancialAccount
	err := r.db.WithContext(ctx).Order("name ASC").Find(&accounts).Error
	return accounts, translate(err, "list accounts")
}

// AdjustBalance applies delta in place so concurrent postings never
// overwrite each other.
func (r *ledgerRepo) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&model.FinancialAccount{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"current_balance": gorm.Expr("current_balance + ?", delta),
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return translate(res.Error, "adjust account balance")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ledgerRepo) CreateExpense(ctx context.Context, expense *model.Expense) error {
	return translate(r.db.WithContext(ctx).Create(expense).Error, "create expense")
}

func (r *ledgerRepo) ListExpenses(ctx context.Context, filter *query.Filter, page query.Page) ([]model.Expense, int64, error) {
	q, err := filter.Apply(r.db.WithContext(ctx).Model(&model.Expense{}))
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := findPage[model.Expense](q, page, "expense_date DESC")
	return rows, total, translate(err, "list expenses")
}
