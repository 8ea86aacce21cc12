// internal/models/address.go
package models

import (
	"github.com/google/uuid"
)

// Address is a buyer shipping address. At most one default per user; writes
// that set a default clear the others inside the same transaction.
type Address struct {
	BaseModel
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Label      string    `json:"label" gorm:"size:50"`
	FullName   string    `json:"full_name" gorm:"size:100;not null"`
	Phone      string    `json:"phone" gorm:"size:30"`
	City       string    `json:"city" gorm:"size:100;not null"`
	District   string    `json:"district" gorm:"size:100"`
	PostalCode string    `json:"postal_code" gorm:"size:20"`
	Line       string    `json:"line" gorm:"type:text;not null"`
	IsDefault  bool      `json:"is_default" gorm:"default:false;index"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
