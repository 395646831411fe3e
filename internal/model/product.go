package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Auditable
	SKU         string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	Subcategory string          `gorm:"type:varchar(100)" json:"subcategory"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost_price"`
	StockLevel  int             `gorm:"not null;default:0" json:"stock_level"`

	// Dimensions
	Weight decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0" json:"weight"`
	Length decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"length"`
	Width  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"width"`
	Height decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"height"`

	SupplierID *uuid.UUID `gorm:"type:char(36);index" json:"supplier_id,omitempty"`
}

func (Product) TableName() string { return "product" }
