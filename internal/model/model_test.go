package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePaymentStatus(t *testing.T) {
	total := decimal.RequireFromString("100.00")
	tests := []struct {
		name string
		paid string
		want PaymentStatus
	}{
		{name: "nothing paid", paid: "0", want: PaymentPending},
		{name: "net negative after refund", paid: "-10", want: PaymentPending},
		{name: "partial", paid: "40.50", want: PaymentPartial},
		{name: "exact", paid: "100", want: PaymentPaid},
		{name: "overpaid", paid: "120", want: PaymentPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePaymentStatus(decimal.RequireFromString(tt.paid), total))
		})
	}
}

func TestReturnStatusTransitions(t *testing.T) {
	allowed := map[ReturnStatus][]ReturnStatus{
		ReturnPending:  {ReturnApproved, ReturnRejected},
		ReturnApproved: {ReturnCompleted},
	}
	all := []ReturnStatus{ReturnPending, ReturnApproved, ReturnRejected, ReturnCompleted}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestBalanceDelta(t *testing.T) {
	amount := decimal.RequireFromString("25.10")
	assert.True(t, TxSale.BalanceDelta(amount).Equal(amount))
	assert.True(t, TxTax.BalanceDelta(amount).Equal(amount))
	assert.True(t, TxRefund.BalanceDelta(amount).Equal(amount.Neg()))
	assert.True(t, TxDiscount.BalanceDelta(amount).IsZero())
	assert.False(t, TransactionType("GIFT").Valid())
}

func TestRolePrivileges(t *testing.T) {
	admin := &Staff{Role: RoleAdmin}
	cashier := &Staff{Role: RoleCashier}

	assert.Len(t, admin.Privileges(), len(DefaultPrivileges))
	assert.True(t, cashier.HasPrivilege(PrivOrderCreate))
	assert.False(t, cashier.HasPrivilege(PrivReturnProcess))
	assert.False(t, cashier.HasPrivilege(PrivInventoryAdjust))
	assert.Empty(t, PrivilegesFor("GUEST"))
	assert.False(t, ValidRole("GUEST"))
	assert.True(t, ValidRole(RoleManager))
}

func TestStaffPassword(t *testing.T) {
	s := &Staff{}
	require.NoError(t, s.SetPassword("hunter22"))
	assert.NotEqual(t, "hunter22", s.Password)
	assert.True(t, s.CheckPassword("hunter22"))
	assert.False(t, s.CheckPassword("wrong"))
}

func TestInventoryLowStock(t *testing.T) {
	assert.True(t, Inventory{StockLevel: 5, ReorderLevel: 5}.IsLowStock())
	assert.False(t, Inventory{StockLevel: 6, ReorderLevel: 5}.IsLowStock())
}
