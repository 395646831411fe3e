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

type CreateOrderRequest struct {
	CustomerID      uuid.UUID          `json:"customer_id" validate:"uuid_required"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string             `json:"shipping_address" validate:"max=1000"`
	Notes           string             `json:"notes" validate:"max=1000"`
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	// UnitPrice defaults to the product's current price.
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type OrderListParams struct {
	CustomerID     *uuid.UUID
	PaymentStatus  string
	DeliveryStatus string
	StartDate      string
	EndDate        string
	Page           query.Page
}

type OrderService interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest, actor Actor) (*model.CustomerOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.CustomerOrder, error)
	ListOrders(ctx context.Context, params OrderListParams) ([]model.CustomerOrder, int64, error)
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status model.DeliveryStatus, actor Actor) (*model.CustomerOrder, error)
	RefreshPaymentStatus(ctx context.Context, id uuid.UUID) (*model.CustomerOrder, error)
}

type orderService struct {
	db            *database.Client
	orderRepo     repository.OrderRepository
	customerRepo  repository.CustomerRepository
	productRepo   repository.ProductRepository
	inventoryRepo repository.InventoryRepository
	ledgerRepo    repository.LedgerRepository
	hooks         Hooks
}

func NewOrderService(
	db *database.Client,
	oRepo repository.OrderRepository,
	cRepo repository.CustomerRepository,
	pRepo repository.ProductRepository,
	iRepo repository.InventoryRepository,
	lRepo repository.LedgerRepository,
	hooks Hooks,
) OrderService {
	return &orderService{
		db:            db,
		orderRepo:     oRepo,
		customerRepo:  cRepo,
		productRepo:   pRepo,
		inventoryRepo: iRepo,
		ledgerRepo:    lRepo,
		hooks:         hooks,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, req *CreateOrderRequest, actor Actor) (order *model.CustomerOrder, err error) {
	defer s.hooks.track(ctx, "order.create")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	for i, item := range req.Items {
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return nil, apperror.Validation(fmt.Sprintf("items[%d].unit_price must not be negative", i))
		}
	}

	var stock []*model.InventoryAudit
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		inventory := s.inventoryRepo.WithTx(tx)
		writer := stockWriter{products: products, inventory: inventory}

		// 1. Customer and products must exist
		if _, err := s.customerRepo.WithTx(tx).FindByID(ctx, req.CustomerID); err != nil {
			return lookupErr(err, "customer")
		}

		order = &model.CustomerOrder{
			CustomerID:      req.CustomerID,
			PaymentStatus:   model.PaymentPending,
			DeliveryStatus:  model.DeliveryPending,
			ShippingAddress: req.ShippingAddress,
			Notes:           req.Notes,
			CreatedBy:       actor.ID,
		}
		order.ID = uuid.New()
		order.OrderNumber = orderNumber(order.ID, time.Now().UTC())

		total := decimal.Zero
		for _, item := range req.Items {
			product, err := products.FindByID(ctx, item.ProductID)
			if err != nil {
				return lookupErr(err, "product")
			}
			price := product.Price
			if item.UnitPrice != nil {
				price = *item.UnitPrice
			}
			subtotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(subtotal)
			order.Items = append(order.Items, model.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: price,
				Subtotal:  subtotal,
			})
		}
		order.TotalAmount = total

		// 2. Order and items
		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return internalErr(err, "create order")
		}

		// 3. One guarded stock decrement and audit row per item
		for _, item := range order.Items {
			audit, err := writer.apply(ctx, stockChange{
				ProductID:     item.ProductID,
				Delta:         -item.Quantity,
				Kind:          model.AuditSale,
				Reason:        "Order " + order.OrderNumber,
				ReferenceType: "customerorder",
				ReferenceID:   &order.ID,
				Actor:         actor,
			})
			if err != nil {
				return err
			}
			stock = append(stock, audit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, a := range stock {
		s.hooks.Metrics.StockMoved(string(model.AuditSale), a.QuantityChange)
		s.hooks.publish(ws.Event{
			Type:    ws.EventStockChanged,
			Action:  "sold",
			Actor:   actor.label(),
			Payload: map[string]any{"product_id": a.ProductID, "stock_level": a.NewQuantity},
		})
	}
	s.hooks.publish(ws.Event{
		Type:    ws.EventOrderCreated,
		Actor:   actor.label(),
		Message: fmt.Sprintf("order %s created (%s)", order.OrderNumber, order.TotalAmount.StringFixed(2)),
		Payload: order,
	})
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.CustomerOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, id, false)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, params OrderListParams) ([]model.CustomerOrder, int64, error) {
	start, err := parseDate("startDate", params.StartDate)
	if err != nil {
		return nil, 0, err
	}
	end, err := parseDate("endDate", params.EndDate)
	if err != nil {
		return nil, 0, err
	}

	filter := query.NewFilter(repository.OrderFilterColumns...).
		WhereIf(params.PaymentStatus != "", "payment_status", query.Eq, params.PaymentStatus).
		WhereIf(params.DeliveryStatus != "", "delivery_status", query.Eq, params.DeliveryStatus)
	if params.CustomerID != nil {
		filter.Where("customer_id", query.Eq, *params.CustomerID)
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

	orders, total, err := s.orderRepo.List(ctx, filter, params.Page)
	if err != nil {
		return nil, 0, internalErr(err, "list orders")
	}
	return orders, total, nil
}

// UpdateDeliveryStatus sets the delivery label. It does not move stock;
// goods coming back go through a return.
func (s *orderService) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status model.DeliveryStatus, actor Actor) (order *model.CustomerOrder, err error) {
	defer s.hooks.track(ctx, "order.update_delivery")(&err)

	if !status.Valid() {
		return nil, apperror.Validation("status must be one of Pending, Processing, Shipped, Delivered, Cancelled")
	}
	if err = s.orderRepo.UpdateDeliveryStatus(ctx, id, status); err != nil {
		return nil, lookupErr(err, "order")
	}
	order, err = s.orderRepo.FindByID(ctx, id, false)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	s.hooks.publish(ws.Event{
		Type:    ws.EventOrderUpdated,
		Action:  "delivery_status",
		Actor:   actor.label(),
		Message: fmt.Sprintf("order %s is %s", order.OrderNumber, status),
		Payload: order,
	})
	return order, nil
}

// RefreshPaymentStatus re-derives the payment status from the ledger.
func (s *orderService) RefreshPaymentStatus(ctx context.Context, id uuid.UUID) (order *model.CustomerOrder, err error) {
	defer s.hooks.track(ctx, "order.refresh_payment")(&err)

	var before model.PaymentStatus
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		o, err := orders.FindByID(ctx, id, true)
		if err != nil {
			return lookupErr(err, "order")
		}
		before = o.PaymentStatus
		if err := (ledgerWriter{ledger: s.ledgerRepo.WithTx(tx), orders: orders}).syncPaymentStatus(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != before {
		s.hooks.publish(ws.Event{Type: ws.EventOrderUpdated, Action: "payment_status", Payload: order})
	}
	return order, nil
}

// orderNumber is ORD-<yyyymmdd>-<first 8 hex digits of the id>.
func orderNumber(id uuid.UUID, now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(id.String()[:8]))
}

func endOfDay(day time.Time) time.Time {
	y, m, d := day.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
