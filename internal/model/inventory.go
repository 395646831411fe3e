package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ValuationMethod string

const (
	ValuationFIFO    ValuationMethod = "FIFO"
	ValuationLIFO    ValuationMethod = "LIFO"
	ValuationAverage ValuationMethod = "AVERAGE"
)

func (m ValuationMethod) Valid() bool {
	switch m {
	case ValuationFIFO, ValuationLIFO, ValuationAverage:
		return true
	}
	return false
}

// Inventory is one-to-one with Product. StockLevel is mirrored on the
// product row and both change in the same transaction.
type Inventory struct {
	BaseModel
	ProductID       uuid.UUID       `gorm:"type:char(36);uniqueIndex;not null" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	StockLevel      int             `gorm:"not null;default:0" json:"stock_level"`
	ReorderLevel    int             `gorm:"not null;default:0" json:"reorder_level"`
	Location        string          `gorm:"type:varchar(100)" json:"location"`
	Warehouse       string          `gorm:"type:varchar(100)" json:"warehouse"`
	ValuationMethod ValuationMethod `gorm:"type:varchar(10);not null;default:FIFO" json:"valuation_method"`
}

func (Inventory) TableName() string { return "inventory" }

func (i Inventory) IsLowStock() bool {
	return i.StockLevel <= i.ReorderLevel
}

type InventoryBatch struct {
	BaseModel
	ProductID        uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex:idx_batch_product_number" json:"product_id"`
	BatchNumber      string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_batch_product_number" json:"batch_number"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	InitialQuantity  int             `gorm:"not null" json:"initial_quantity"`
	CostPerUnit      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_per_unit"`
	ReceivedDate     time.Time       `gorm:"not null;index" json:"received_date"`
	ManufacturedDate *time.Time      `json:"manufactured_date,omitempty"`
	ExpiryDate       *time.Time      `json:"expiry_date,omitempty"`
	SupplierID       *uuid.UUID      `gorm:"type:char(36)" json:"supplier_id,omitempty"`
	Notes            string          `gorm:"type:text" json:"notes"`
	CreatedBy        string          `gorm:"type:varchar(64)" json:"created_by"`
}

func (InventoryBatch) TableName() string { return "inventory_batch" }

type AuditKind string

const (
	AuditInitial      AuditKind = "INITIAL"
	AuditBatchReceipt AuditKind = "BATCH_RECEIPT"
	AuditAdjustment   AuditKind = "ADJUSTMENT"
	AuditSale         AuditKind = "SALE"
	AuditReturn       AuditKind = "RETURN"
)

// InventoryAudit is write-once. Exactly one row exists per accepted stock
// change and NewQuantity - PreviousQuantity == QuantityChange.
type InventoryAudit struct {
	LedgerModel
	ProductID        uuid.UUID  `gorm:"type:char(36);not null;index" json:"product_id"`
	BatchID          *uuid.UUID `gorm:"type:char(36);index" json:"batch_id,omitempty"`
	Kind             AuditKind  `gorm:"type:varchar(20);not null" json:"kind"`
	PreviousQuantity int        `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int        `gorm:"not null" json:"new_quantity"`
	QuantityChange   int        `gorm:"not null" json:"quantity_change"`
	Reason           string     `gorm:"type:varchar(255);not null" json:"reason"`
	ReferenceType    string     `gorm:"type:varchar(32)" json:"reference_type,omitempty"`
	ReferenceID      *uuid.UUID `gorm:"type:char(36);index" json:"reference_id,omitempty"`
	PerformedBy      string     `gorm:"type:varchar(64)" json:"performed_by"`
	PerformedByName  string     `gorm:"type:varchar(255)" json:"performed_by_name"`
}

func (InventoryAudit) TableName() string { return "inventory_audit" }
