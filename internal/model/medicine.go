package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Medicine represents a catalog item with its current stock level.
// Stock is only mutated through locked adjust/reserve paths so it can
// never go negative.
type Medicine struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Category   string          `gorm:"type:varchar(100);index" json:"category"`
	Barcode    *string         `gorm:"type:varchar(100);uniqueIndex" json:"barcode,omitempty"` // nil when the item has no barcode
	Price      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Stock      int             `gorm:"type:int;not null;default:0" json:"stock"`
	MinStock   int             `gorm:"type:int;not null;default:0" json:"min_stock"`
	Expiry     *time.Time      `gorm:"type:date" json:"expiry,omitempty"`
	SupplierID *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier   *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (m *Medicine) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
