package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethod constants
const (
	PaymentMethodCash     = "CASH"
	PaymentMethodCard     = "CARD"
	PaymentMethodTransfer = "TRANSFER"
)

// Payment records the settlement of a PENDING prescription. Amount always
// equals the prescription total; change is only non-zero for cash.
type Payment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PrescriptionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"prescription_id"`
	Prescription   *Prescription   `gorm:"foreignKey:PrescriptionID" json:"prescription,omitempty"`
	OrderNo        string          `gorm:"type:varchar(30);not null;index" json:"order_no"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Tendered       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"tendered"`
	Change         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"change"`
	Method         string          `gorm:"type:varchar(20);not null" json:"method"`
	ProcessedBy    *uuid.UUID      `gorm:"type:uuid" json:"processed_by"`
	Accountant     *User           `gorm:"foreignKey:ProcessedBy" json:"accountant,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
}

func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
