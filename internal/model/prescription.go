package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PrescriptionStatus constants
const (
	PrescriptionPending   = "PENDING"
	PrescriptionPaid      = "PAID"
	PrescriptionDispensed = "DISPENSED"
	PrescriptionCancelled = "CANCELLED"
)

// Prescription represents a customer transaction with one or more medicine
// line items. Stock is reserved (deducted) at creation time, restored on
// cancellation of a PENDING prescription.
type Prescription struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNo       string             `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_no"`
	PatientID     *uuid.UUID         `gorm:"type:uuid;index" json:"patient_id,omitempty"`
	Patient       *Patient           `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	WalkIn        bool               `gorm:"not null;default:false" json:"walk_in"`
	CustomerName  string             `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone string             `gorm:"type:varchar(50)" json:"customer_phone"`
	Items         []PrescriptionItem `gorm:"foreignKey:PrescriptionID" json:"items"`
	Subtotal      decimal.Decimal    `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	Tax           decimal.Decimal    `gorm:"type:decimal(18,4);not null" json:"tax"`
	Total         decimal.Decimal    `gorm:"type:decimal(18,4);not null" json:"total"`
	Status        string             `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	PaymentMethod string             `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	CreatedBy     *uuid.UUID         `gorm:"type:uuid" json:"created_by"`
	Creator       *User              `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func (p *Prescription) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PrescriptionItem is a single medicine line with the unit price snapshotted
// at creation time.
type PrescriptionItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PrescriptionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"prescription_id"`
	MedicineID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"medicine_id"`
	MedicineName   string          `gorm:"type:varchar(255);not null" json:"medicine_name"`
	Quantity       int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Instructions   string          `gorm:"type:text" json:"instructions,omitempty"`
}

func (i *PrescriptionItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
