package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReturnStatus string

const (
	ReturnPending   ReturnStatus = "PENDING"
	ReturnApproved  ReturnStatus = "APPROVED"
	ReturnRejected  ReturnStatus = "REJECTED"
	ReturnCompleted ReturnStatus = "COMPLETED"
)

var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnPending:  {ReturnApproved, ReturnRejected},
	ReturnApproved: {ReturnCompleted},
}

// CanTransitionTo reports whether next is reachable from s in one step.
// REJECTED and COMPLETED are terminal.
func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	for _, allowed := range returnTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ItemCondition string

const (
	ConditionNew       ItemCondition = "NEW"
	ConditionOpened    ItemCondition = "OPENED"
	ConditionDamaged   ItemCondition = "DAMAGED"
	ConditionDefective ItemCondition = "DEFECTIVE"
)

type ReturnRequest struct {
	BaseModel
	OrderID           uuid.UUID       `gorm:"type:char(36);not null;index" json:"order_id"`
	CustomerID        uuid.UUID       `gorm:"type:char(36);not null;index" json:"customer_id"`
	Status            ReturnStatus    `gorm:"type:varchar(16);not null;default:PENDING;index" json:"status"`
	ReturnReason      string          `gorm:"type:varchar(500);not null" json:"return_reason"`
	TotalRefundAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_refund_amount"`
	RefundMethod      string          `gorm:"type:varchar(50)" json:"refund_method,omitempty"`
	RefundReference   string          `gorm:"type:varchar(100)" json:"refund_reference,omitempty"`
	Notes             string          `gorm:"type:text" json:"notes"`
	CreatedBy         string          `gorm:"type:varchar(64)" json:"created_by"`
	ProcessedBy       string          `gorm:"type:varchar(64)" json:"processed_by,omitempty"`
	ProcessedAt       *time.Time      `json:"processed_at,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	Items             []ReturnItem    `gorm:"foreignKey:ReturnID" json:"items,omitempty"`
}

func (ReturnRequest) TableName() string { return "return_request" }

type ReturnItem struct {
	BaseModel
	ReturnID          uuid.UUID       `gorm:"type:char(36);not null;index" json:"return_id"`
	OrderItemID       uuid.UUID       `gorm:"type:char(36);not null;index" json:"order_item_id"`
	ProductID         uuid.UUID       `gorm:"type:char(36);not null" json:"product_id"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	RefundAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"refund_amount"`
	Reason            string          `gorm:"type:varchar(500)" json:"reason"`
	Condition         ItemCondition   `gorm:"type:varchar(16);not null;default:NEW" json:"condition"`
	ReturnToInventory bool            `gorm:"not null;default:false" json:"return_to_inventory"`
}

func (ReturnItem) TableName() string { return "return_item" }
