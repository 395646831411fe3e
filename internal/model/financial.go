package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxSale     TransactionType = "SALE"
	TxRefund   TransactionType = "REFUND"
	TxTax      TransactionType = "TAX"
	TxDiscount TransactionType = "DISCOUNT"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxSale, TxRefund, TxTax, TxDiscount:
		return true
	}
	return false
}

// BalanceDelta is the signed effect of a transaction of type t on its
// financial account. DISCOUNT does not move money.
func (t TransactionType) BalanceDelta(amount decimal.Decimal) decimal.Decimal {
	switch t {
	case TxSale, TxTax:
		return amount
	case TxRefund:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}

// SalesTransaction is an immutable ledger entry.
type SalesTransaction struct {
	LedgerModel
	OrderID         *uuid.UUID      `gorm:"type:char(36);index" json:"order_id,omitempty"`
	AccountID       *uuid.UUID      `gorm:"type:char(36);index" json:"account_id,omitempty"`
	TransactionType TransactionType `gorm:"type:varchar(16);not null;index" json:"transaction_type"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod   string          `gorm:"type:varchar(50);not null" json:"payment_method"`
	ReferenceNumber string          `gorm:"type:varchar(100)" json:"reference_number,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes"`
	RecordedBy      string          `gorm:"type:varchar(64)" json:"recorded_by"`
}

func (SalesTransaction) TableName() string { return "sales_transaction" }

type AccountType string

const (
	AccountAsset     AccountType = "ASSET"
	AccountRevenue   AccountType = "REVENUE"
	AccountExpense   AccountType = "EXPENSE"
	AccountLiability AccountType = "LIABILITY"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountRevenue, AccountExpense, AccountLiability:
		return true
	}
	return false
}

// FinancialAccount.CurrentBalance changes only through sales transactions
// and expenses.
type FinancialAccount struct {
	BaseModel
	Auditable
	Name           string          `gorm:"type:varchar(100);not null" json:"name"`
	AccountType    AccountType     `gorm:"type:varchar(16);not null" json:"account_type"`
	AccountNumber  string          `gorm:"type:varchar(64)" json:"account_number,omitempty"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"current_balance"`
	Description    string          `gorm:"type:text" json:"description"`
}

func (FinancialAccount) TableName() string { return "financial_account" }

type Expense struct {
	LedgerModel
	AccountID   uuid.UUID       `gorm:"type:char(36);not null;index" json:"account_id"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	ExpenseDate time.Time       `gorm:"not null;index" json:"expense_date"`
	Description string          `gorm:"type:text" json:"description"`
	RecordedBy  string          `gorm:"type:varchar(64)" json:"recorded_by"`
}

func (Expense) TableName() string { return "expense" }
