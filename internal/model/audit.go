package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateMedicine     = "CREATE_MEDICINE"
	ActionUpdateMedicine     = "UPDATE_MEDICINE"
	ActionDeleteMedicine     = "DELETE_MEDICINE"
	ActionAdjustStock        = "ADJUST_STOCK"
	ActionCreatePrescription = "CREATE_PRESCRIPTION"
	ActionCancelPrescription = "CANCEL_PRESCRIPTION"
	ActionDeletePrescription = "DELETE_PRESCRIPTION"
	ActionDispense           = "DISPENSE_PRESCRIPTION"
	ActionProcessPayment     = "PROCESS_PAYMENT"
	ActionCreatePatient      = "CREATE_PATIENT"
	ActionUpdatePatient      = "UPDATE_PATIENT"
	ActionDeletePatient      = "DELETE_PATIENT"
	ActionCreateSupplier     = "CREATE_SUPPLIER"
	ActionUpdateSupplier     = "UPDATE_SUPPLIER"
	ActionDeleteSupplier     = "DELETE_SUPPLIER"
	ActionApproveUser        = "APPROVE_USER"
	ActionRejectUser         = "REJECT_USER"
	ActionDeleteUser         = "DELETE_USER"
)

// AuditLogLimit caps the audit trail at the most recent entries; the
// appender evicts the oldest rows past this count.
const AuditLogLimit = 100

// AuditLog tracks Who, What, and When for mutating actions. The integer
// primary key gives a stable insertion order for FIFO eviction.
type AuditLog struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for system actions
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
