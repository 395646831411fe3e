package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/repository"
	"go-retail-ws/pkg/apperror"
)

// stockChange is one signed movement of a product's stock.
type stockChange struct {
	ProductID uuid.UUID
	Delta     int
	Kind      model.AuditKind
	Reason    string
	// BatchID links the audit row to a batch. With ApplyToBatch the delta is
	// also applied to that batch's quantity.
	BatchID       *uuid.UUID
	ApplyToBatch  bool
	ReferenceType string
	ReferenceID   *uuid.UUID
	Actor         Actor
}

// stockWriter applies stock changes through repositories bound to the
// caller's transaction.
type stockWriter struct {
	products  repository.ProductRepository
	inventory repository.InventoryRepository
}

// apply performs, in order: the batch update (if targeted), the guarded
// inventory update, the product mirror update and the audit insert. Any
// failure leaves the caller's transaction to roll everything back.
func (w stockWriter) apply(ctx context.Context, c stockChange) (*model.InventoryAudit, error) {
	if c.Delta == 0 {
		return nil, apperror.Validation("quantity change must not be zero")
	}

	// 1. Batch
	if c.ApplyToBatch && c.BatchID != nil {
		batch, err := w.inventory.FindBatch(ctx, *c.BatchID, true)
		if err != nil {
			return nil, lookupErr(err, "batch")
		}
		if batch.ProductID != c.ProductID {
			return nil, apperror.Newf(apperror.CodeValidation, "batch %s does not belong to product %s", batch.BatchNumber, c.ProductID)
		}
		if err := w.inventory.ApplyBatchDelta(ctx, batch.ID, c.Delta); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, apperror.Newf(apperror.CodeInvariantViolation,
					"batch %s holds %d units, cannot apply %d", batch.BatchNumber, batch.Quantity, c.Delta).
					WithDetails(map[string]any{"batch_id": batch.ID, "available": batch.Quantity, "requested": c.Delta})
			}
			return nil, lookupErr(err, "batch")
		}
	}

	// 2. Inventory, guarded against going negative
	newLevel, err := w.inventory.ApplyDelta(ctx, c.ProductID, c.Delta)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, w.insufficient(ctx, c)
		}
		return nil, lookupErr(err, "inventory record")
	}

	// 3. Product mirror
	if err := w.products.SetStock(ctx, c.ProductID, newLevel); err != nil {
		return nil, lookupErr(err, "product")
	}

	// 4. Audit
	audit := &model.InventoryAudit{
		ProductID:        c.ProductID,
		BatchID:          c.BatchID,
		Kind:             c.Kind,
		PreviousQuantity: newLevel - c.Delta,
		NewQuantity:      newLevel,
		QuantityChange:   c.Delta,
		Reason:           c.Reason,
		ReferenceType:    c.ReferenceType,
		ReferenceID:      c.ReferenceID,
		PerformedBy:      c.Actor.ID,
		PerformedByName:  c.Actor.Name,
	}
	if err := w.inventory.CreateAudit(ctx, audit); err != nil {
		return nil, internalErr(err, "write inventory audit")
	}
	return audit, nil
}

func (w stockWriter) insufficient(ctx context.Context, c stockChange) error {
	details := map[string]any{"product_id": c.ProductID, "requested": c.Delta}
	msg := "insufficient stock: change would make stock negative"
	if inv, err := w.inventory.FindByProductID(ctx, c.ProductID); err == nil {
		details["available"] = inv.StockLevel
		msg = fmt.Sprintf("insufficient stock: %d available, change of %d would make stock negative", inv.StockLevel, c.Delta)
	}
	return apperror.New(apperror.CodeInvariantViolation, msg).WithDetails(details)
}
