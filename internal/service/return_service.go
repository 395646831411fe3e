package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

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

type CreateReturnRequest struct {
	OrderID      uuid.UUID           `json:"order_id" validate:"uuid_required"`
	CustomerID   uuid.UUID           `json:"customer_id" validate:"uuid_required"`
	ReturnReason string              `json:"return_reason" validate:"required,max=500"`
	Notes        string              `json:"notes" validate:"max=1000"`
	Items        []ReturnItemRequest `json:"items" validate:"required,min=1,dive"`
}

type ReturnItemRequest struct {
	OrderItemID       uuid.UUID           `json:"order_item_id" validate:"uuid_required"`
	ProductID         uuid.UUID           `json:"product_id" validate:"uuid_required"`
	Quantity          int                 `json:"quantity" validate:"required,gt=0"`
	Reason            string              `json:"reason" validate:"required,max=500"`
	Condition         model.ItemCondition `json:"condition" validate:"omitempty,oneof=NEW OPENED DAMAGED DEFECTIVE"`
	ReturnToInventory bool                `json:"return_to_inventory"`
}

type ProcessReturnRequest struct {
	Status       model.ReturnStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	RefundMethod string             `json:"refund_method" validate:"max=50"`
	Notes        string             `json:"notes" validate:"max=1000"`
}

type CompleteReturnRequest struct {
	AccountID       uuid.UUID `json:"account_id" validate:"uuid_required"`
	RefundReference string    `json:"refund_reference" validate:"max=100"`
}

type ReturnListParams struct {
	Status     string
	CustomerID *uuid.UUID
	OrderID    *uuid.UUID
	Page       query.Page
}

type ReturnService interface {
	CreateReturn(ctx context.Context, req *CreateReturnRequest, actor Actor) (*model.ReturnRequest, error)
	ProcessReturn(ctx context.Context, id uuid.UUID, req *ProcessReturnRequest, actor Actor) (*model.ReturnRequest, error)
	CompleteReturn(ctx context.Context, id uuid.UUID, req *CompleteReturnRequest, actor Actor) (*model.ReturnRequest, error)
	GetReturn(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error)
	ListReturns(ctx context.Context, params ReturnListParams) ([]model.ReturnRequest, int64, error)
}

type returnService struct {
	db            *database.Client
	returnRepo    repository.ReturnRepository
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	inventoryRepo repository.InventoryRepository
	ledgerRepo    repository.LedgerRepository
	hooks         Hooks
}

func NewReturnService(
	db *database.Client,
	rRepo repository.ReturnRepository,
	oRepo repository.OrderRepository,
	pRepo repository.ProductRepository,
	iRepo repository.InventoryRepository,
	lRepo repository.LedgerRepository,
	hooks Hooks,
) ReturnService {
	return &returnService{
		db:            db,
		returnRepo:    rRepo,
		orderRepo:     oRepo,
		productRepo:   pRepo,
		inventoryRepo: iRepo,
		ledgerRepo:    lRepo,
		hooks:         hooks,
	}
}

func (s *returnService) CreateReturn(ctx context.Context, req *CreateReturnRequest, actor Actor) (ret *model.ReturnRequest, err error) {
	defer s.hooks.track(ctx, "return.create")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		returns := s.returnRepo.WithTx(tx)

		// 1. Order exists and belongs to the customer
		order, err := s.orderRepo.WithTx(tx).FindByID(ctx, req.OrderID, true)
		if err != nil {
			return lookupErr(err, "order")
		}
		if order.CustomerID != req.CustomerID {
			return apperror.Forbidden("order does not belong to this customer")
		}
		orderItems := make(map[uuid.UUID]model.OrderItem, len(order.Items))
		for _, it := range order.Items {
			orderItems[it.ID] = it
		}

		// 2. Every item references this order and stays within the quantity
		//    still returnable
		requested := make(map[uuid.UUID]int)
		total := decimal.Zero
		items := make([]model.ReturnItem, 0, len(req.Items))
		for i, it := range req.Items {
			orig, ok := orderItems[it.OrderItemID]
			if !ok {
				return apperror.Newf(apperror.CodeValidation, "items[%d].order_item_id is not an item of this order", i)
			}
			if orig.ProductID != it.ProductID {
				return apperror.Newf(apperror.CodeValidation, "items[%d].product_id does not match the order item", i)
			}
			requested[it.OrderItemID] += it.Quantity

			already, err := returns.ReturnedQuantity(ctx, it.OrderItemID)
			if err != nil {
				return internalErr(err, "sum returned quantity")
			}
			if already+requested[it.OrderItemID] > orig.Quantity {
				return apperror.Newf(apperror.CodeValidation,
					"items[%d].quantity exceeds the returnable quantity (%d ordered, %d already returned)", i, orig.Quantity, already).
					WithDetails(map[string]any{
						"order_item_id": it.OrderItemID,
						"ordered":       orig.Quantity,
						"returned":      already,
						"requested":     requested[it.OrderItemID],
					})
			}

			condition := it.Condition
			if condition == "" {
				condition = model.ConditionNew
			}
			refund := orig.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			total = total.Add(refund)
			items = append(items, model.ReturnItem{
				OrderItemID:       it.OrderItemID,
				ProductID:         it.ProductID,
				Quantity:          it.Quantity,
				UnitPrice:         orig.UnitPrice,
				RefundAmount:      refund,
				Reason:            strings.TrimSpace(it.Reason),
				Condition:         condition,
				ReturnToInventory: it.ReturnToInventory,
			})
		}

		// 3. Return and items in one insert
		ret = &model.ReturnRequest{
			OrderID:           req.OrderID,
			CustomerID:        req.CustomerID,
			Status:            model.ReturnPending,
			ReturnReason:      strings.TrimSpace(req.ReturnReason),
			TotalRefundAmount: total,
			Notes:             req.Notes,
			CreatedBy:         actor.ID,
			Items:             items,
		}
		if err := returns.Create(ctx, ret); err != nil {
			return internalErr(err, "create return")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishReturn(ret, "created", actor)
	return ret, nil
}

// ProcessReturn approves or rejects a pending return. Approval restocks the
// items flagged for return to inventory.
func (s *returnService) ProcessReturn(ctx context.Context, id uuid.UUID, req *ProcessReturnRequest, actor Actor) (ret *model.ReturnRequest, err error) {
	defer s.hooks.track(ctx, "return.process")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	var restocked []*model.InventoryAudit
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		returns := s.returnRepo.WithTx(tx)

		current, err := returns.FindByID(ctx, id, true)
		if err != nil {
			return lookupErr(err, "return")
		}
		if !current.Status.CanTransitionTo(req.Status) {
			return apperror.InvalidState(fmt.Sprintf("return is %s and can no longer be processed", current.Status))
		}

		now := time.Now().UTC()
		fields := map[string]any{
			"processed_by": actor.ID,
			"processed_at": now,
			"notes":        appendNote(current.Notes, req.Notes),
		}
		if req.RefundMethod != "" {
			fields["refund_method"] = req.RefundMethod
		}
		if err := returns.Transition(ctx, id, current.Status, req.Status, fields); err != nil {
			return transitionErr(err)
		}

		if req.Status == model.ReturnApproved {
			writer := stockWriter{products: s.productRepo.WithTx(tx), inventory: s.inventoryRepo.WithTx(tx)}
			for _, item := range current.Items {
				if !item.ReturnToInventory {
					continue
				}
				reason := "Return " + current.ID.String()
				if item.Reason != "" {
					reason += ": " + item.Reason
				}
				audit, err := writer.apply(ctx, stockChange{
					ProductID:     item.ProductID,
					Delta:         item.Quantity,
					Kind:          model.AuditReturn,
					Reason:        truncate(reason, 255),
					ReferenceType: "return_request",
					ReferenceID:   &current.ID,
					Actor:         actor,
				})
				if err != nil {
					return err
				}
				restocked = append(restocked, audit)
			}
		}

		ret, err = returns.FindByID(ctx, id, false)
		return lookupErr(err, "return")
	})
	if err != nil {
		return nil, err
	}

	for _, a := range restocked {
		s.hooks.Metrics.StockMoved(string(model.AuditReturn), a.QuantityChange)
		s.hooks.publish(ws.Event{
			Type:    ws.EventStockChanged,
			Action:  "returned",
			Actor:   actor.label(),
			Payload: map[string]any{"product_id": a.ProductID, "stock_level": a.NewQuantity},
		})
	}
	s.publishReturn(ret, strings.ToLower(string(req.Status)), actor)
	return ret, nil
}

// CompleteReturn books the refund of an approved return against an account.
func (s *returnService) CompleteReturn(ctx context.Context, id uuid.UUID, req *CompleteReturnRequest, actor Actor) (ret *model.ReturnRequest, err error) {
	defer s.hooks.track(ctx, "return.complete")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	var refund *model.SalesTransaction
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		returns := s.returnRepo.WithTx(tx)

		current, err := returns.FindByID(ctx, id, true)
		if err != nil {
			return lookupErr(err, "return")
		}
		if current.Status != model.ReturnApproved {
			return apperror.InvalidState(fmt.Sprintf("only approved returns can be completed; return is %s", current.Status))
		}

		reference := strings.TrimSpace(req.RefundReference)
		if reference == "" {
			reference = "RF-" + strings.ToUpper(uuid.NewString()[:8])
		}
		now := time.Now().UTC()
		note := fmt.Sprintf("Refund of %s completed (ref %s)", current.TotalRefundAmount.StringFixed(2), reference)
		if err := returns.Transition(ctx, id, model.ReturnApproved, model.ReturnCompleted, map[string]any{
			"completed_at":     now,
			"refund_reference": reference,
			"notes":            appendNote(current.Notes, note),
		}); err != nil {
			return transitionErr(err)
		}

		method := current.RefundMethod
		if method == "" {
			method = "refund"
		}
		refund = &model.SalesTransaction{
			OrderID:         &current.OrderID,
			AccountID:       &req.AccountID,
			TransactionType: model.TxRefund,
			Amount:          current.TotalRefundAmount,
			PaymentMethod:   method,
			ReferenceNumber: reference,
			Notes:           "Refund for return " + current.ID.String(),
			RecordedBy:      actor.ID,
		}
		if _, err := (ledgerWriter{ledger: s.ledgerRepo.WithTx(tx), orders: s.orderRepo.WithTx(tx)}).post(ctx, refund); err != nil {
			return err
		}

		ret, err = returns.FindByID(ctx, id, false)
		return lookupErr(err, "return")
	})
	if err != nil {
		return nil, err
	}

	s.hooks.publish(ws.Event{Type: ws.EventLedgerPosted, Action: string(model.TxRefund), Actor: actor.label(), Payload: refund})
	s.publishReturn(ret, "completed", actor)
	return ret, nil
}

func (s *returnService) GetReturn(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	ret, err := s.returnRepo.FindByID(ctx, id, false)
	if err != nil {
		return nil, lookupErr(err, "return")
	}
	return ret, nil
}

func (s *returnService) ListReturns(ctx context.Context, params ReturnListParams) ([]model.ReturnRequest, int64, error) {
	filter := query.NewFilter(repository.ReturnFilterColumns...).
		WhereIf(params.Status != "", "status", query.Eq, strings.ToUpper(params.Status))
	if params.CustomerID != nil {
		filter.Where("customer_id", query.Eq, *params.CustomerID)
	}
	if params.OrderID != nil {
		filter.Where("order_id", query.Eq, *params.OrderID)
	}
	if err := filter.Err(); err != nil {
		return nil, 0, filterErr(err)
	}
	rows, total, err := s.returnRepo.List(ctx, filter, params.Page)
	if err != nil {
		return nil, 0, internalErr(err, "list returns")
	}
	return rows, total, nil
}

func (s *returnService) publishReturn(ret *model.ReturnRequest, action string, actor Actor) {
	s.hooks.publish(ws.Event{
		Type:    ws.EventReturnChanged,
		Action:  action,
		Actor:   actor.label(),
		Message: fmt.Sprintf("return %s is %s", ret.ID, ret.Status),
		Payload: ret,
	})
}

// transitionErr reports a lost race on the status column as an invalid state.
func transitionErr(err error) error {
	if errors.Is(err, repository.ErrStaleState) {
		return apperror.InvalidState("return was modified concurrently; reload and retry")
	}
	return internalErr(err, "update return status")
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
