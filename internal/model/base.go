package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles ID (UUID) and timestamps
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Hook Before Create untuk generate UUID otomatis
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}

// Auditable adds soft delete and staff tracking to catalog-style records.
type Auditable struct {
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	CreatedBy string         `gorm:"type:varchar(64)" json:"created_by"`
	UpdatedBy string         `gorm:"type:varchar(64)" json:"updated_by"`
	DeletedBy string         `gorm:"type:varchar(64)" json:"deleted_by,omitempty"`
}

// LedgerModel is for append-only rows: no UpdatedAt, no soft delete.
type LedgerModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (l *LedgerModel) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

// Tables lists every persisted model in dependency order.
func Tables() []any {
	return []any{
		&Staff{},
		&Product{},
		&Inventory{},
		&InventoryBatch{},
		&InventoryAudit{},
		&Customer{},
		&CustomerOrder{},
		&OrderItem{},
		&ReturnRequest{},
		&ReturnItem{},
		&FinancialAccount{},
		&SalesTransaction{},
		&Expense{},
	}
}
