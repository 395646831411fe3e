package service

import (
	"context"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/repository"
)

// ledgerWriter posts sales transactions through repositories bound to the
// caller's transaction.
type ledgerWriter struct {
	ledger repository.LedgerRepository
	orders repository.OrderRepository
}

// post inserts txn, moves its account balance and re-derives the payment
// status of its order. It returns the order (nil when txn has none) as it
// stands after the update.
func (w ledgerWriter) post(ctx context.Context, txn *model.SalesTransaction) (*model.CustomerOrder, error) {
	var order *model.CustomerOrder
	if txn.OrderID != nil {
		o, err := w.orders.FindByID(ctx, *txn.OrderID, true)
		if err != nil {
			return nil, lookupErr(err, "order")
		}
		order = o
	}
	if txn.AccountID != nil {
		if _, err := w.ledger.FindAccount(ctx, *txn.AccountID); err != nil {
			return nil, lookupErr(err, "financial account")
		}
	}

	if err := w.ledger.CreateTransaction(ctx, txn); err != nil {
		return nil, internalErr(err, "record transaction")
	}

	if txn.AccountID != nil {
		if delta := txn.TransactionType.BalanceDelta(txn.Amount); !delta.IsZero() {
			if err := w.ledger.AdjustBalance(ctx, *txn.AccountID, delta); err != nil {
				return nil, lookupErr(err, "financial account")
			}
		}
	}

	if order != nil {
		if err := w.syncPaymentStatus(ctx, order); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// syncPaymentStatus recomputes the order's payment status from the ledger.
// Running it twice without new transactions changes nothing.
func (w ledgerWriter) syncPaymentStatus(ctx context.Context, order *model.CustomerOrder) error {
	paid, err := w.ledger.NetPaid(ctx, order.ID)
	if err != nil {
		return internalErr(err, "sum order payments")
	}
	status := model.DerivePaymentStatus(paid, order.TotalAmount)
	if status == order.PaymentStatus {
		return nil
	}
	if err := w.orders.UpdatePaymentStatus(ctx, order.ID, status); err != nil {
		return internalErr(err, "update payment status")
	}
	order.PaymentStatus = status
	return nil
}
