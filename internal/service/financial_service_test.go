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

func TestRecordTransactionValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.financialService()
	missing := uuid.New()

	tests := []struct {
		name string
		req  *RecordTransactionRequest
		code apperror.Code
	}{
		{"zero amount", &RecordTransactionRequest{Amount: decimal.Zero, TransactionType: model.TxSale, PaymentMethod: "cash"}, apperror.CodeValidation},
		{"negative amount", &RecordTransactionRequest{Amount: decimal.NewFromInt(-1), TransactionType: model.TxSale, PaymentMethod: "cash"}, apperror.CodeValidation},
		{"unknown type", &RecordTransactionRequest{Amount: decimal.NewFromInt(1), TransactionType: "GIFT", PaymentMethod: "cash"}, apperror.CodeValidation},
		{"no payment method", &RecordTransactionRequest{Amount: decimal.NewFromInt(1), TransactionType: model.TxSale}, apperror.CodeValidation},
		{"unknown account", &RecordTransactionRequest{AccountID: &missing, Amount: decimal.NewFromInt(1), TransactionType: model.TxSale, PaymentMethod: "cash"}, apperror.CodeNotFound},
		{"unknown order", &RecordTransactionRequest{OrderID: &missing, Amount: decimal.NewFromInt(1), TransactionType: model.TxSale, PaymentMethod: "cash"}, apperror.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordTransaction(ctx, tt.req, tester)
			assertCode(t, tt.code, err)
		})
	}
	assert.Zero(t, f.count(t, &model.SalesTransaction{}))
}

func TestAccountBalanceMovesWithLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allowEvents()
	svc := f.financialService()

	acct, err := svc.CreateAccount(ctx, &CreateAccountRequest{
		Name:           "Main till",
		AccountType:    model.AccountAsset,
		OpeningBalance: decimal.RequireFromString("50.00"),
	}, tester)
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, &CreateAccountRequest{Name: "Bad", AccountType: "CASH"}, tester)
	assertCode(t, apperror.CodeValidation, err)

	steps := []struct {
		typ  model.TransactionType
		amt  string
		want string
	}{
		{model.TxSale, "30.00", "80.00"},
		{model.TxTax, "2.40", "82.40"},
		{model.TxRefund, "12.40", "70.00"},
		{model.TxDiscount, "5.00", "70.00"},
	}
	for _, s := range steps {
		_, err := svc.RecordTransaction(ctx, &RecordTransactionRequest{
			AccountID:       &acct.ID,
			Amount:          decimal.RequireFromString(s.amt),
			TransactionType: s.typ,
			PaymentMethod:   "cash",
		}, tester)
		require.NoError(t, err)
		assertMoney(t, s.want, f.balance(t, acct.ID))
	}

	expense, err := svc.RecordExpense(ctx, &RecordExpenseRequest{
		AccountID:   acct.ID,
		Category:    "utilities",
		Amount:      decimal.RequireFromString("15.00"),
		ExpenseDate: "2024-06-01",
	}, tester)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", expense.ExpenseDate.Format("2006-01-02"))
	assertMoney(t, "55.00", f.balance(t, acct.ID))

	got, err := svc.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assertMoney(t, "55.00", got.CurrentBalance)

	accounts, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	rows, total, err := svc.ListExpenses(ctx, "utilities", query.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, rows, 1)
}

func TestRecordExpenseValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.financialService()
	acct := f.seedAccount(t, "10.00")

	_, err := svc.RecordExpense(ctx, &RecordExpenseRequest{AccountID: uuid.New(), Category: "rent", Amount: decimal.NewFromInt(5)}, tester)
	assertCode(t, apperror.CodeNotFound, err)

	_, err = svc.RecordExpense(ctx, &RecordExpenseRequest{AccountID: acct.ID, Category: "rent"}, tester)
	assertCode(t, apperror.CodeValidation, err)

	_, err = svc.RecordExpense(ctx, &RecordExpenseRequest{AccountID: acct.ID, Category: "rent", Amount: decimal.NewFromInt(5), ExpenseDate: "01-06-2024"}, tester)
	assertCode(t, apperror.CodeValidation, err)

	assert.Zero(t, f.count(t, &model.Expense{}))
	assertMoney(t, "10.00", f.balance(t, acct.ID))

	_, err = svc.GetAccount(ctx, uuid.New())
	assertCode(t, apperror.CodeNotFound, err)
}
