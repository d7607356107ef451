package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient is a registered customer a prescription can reference. Walk-in
// prescriptions carry only a free-text name/phone instead.
type Patient struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null;index" json:"name"`
	Phone       string         `gorm:"type:varchar(50);index" json:"phone"`
	Email       string         `gorm:"type:varchar(255)" json:"email"`
	DateOfBirth *time.Time     `gorm:"type:date" json:"date_of_birth,omitempty"`
	Address     string         `gorm:"type:text" json:"address"`
	Allergies   string         `gorm:"type:text" json:"allergies"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Patient) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
