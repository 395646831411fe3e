package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

// DerivePaymentStatus maps the net amount paid against an order total.
func DerivePaymentStatus(totalPaid, orderTotal decimal.Decimal) PaymentStatus {
	switch {
	case totalPaid.GreaterThanOrEqual(orderTotal):
		return PaymentPaid
	case totalPaid.IsPositive():
		return PaymentPartial
	default:
		return PaymentPending
	}
}

type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "Pending"
	DeliveryProcessing DeliveryStatus = "Processing"
	DeliveryShipped    DeliveryStatus = "Shipped"
	DeliveryDelivered  DeliveryStatus = "Delivered"
	DeliveryCancelled  DeliveryStatus = "Cancelled"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryProcessing, DeliveryShipped, DeliveryDelivered, DeliveryCancelled:
		return true
	}
	return false
}

type CustomerOrder struct {
	BaseModel
	OrderNumber     string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	CustomerID      uuid.UUID       `gorm:"type:char(36);not null;index" json:"customer_id"`
	Customer        *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(16);not null;default:Pending;index" json:"payment_status"`
	DeliveryStatus  DeliveryStatus  `gorm:"type:varchar(16);not null;default:Pending" json:"delivery_status"`
	ShippingAddress string          `gorm:"type:text" json:"shipping_address"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedBy       string          `gorm:"type:varchar(64)" json:"created_by"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (CustomerOrder) TableName() string { return "customerorder" }

// OrderItem is immutable once the order is placed.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:char(36);not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:char(36);not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}

func (OrderItem) TableName() string { return "order_item" }
