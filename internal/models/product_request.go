// internal/models/product_request.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProductRequest is a buyer's posted sourcing need. Sellers browse active
// requests and respond with offers.
type ProductRequest struct {
	BaseModel
	UserID           uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductName      string         `json:"product_name" gorm:"size:255;not null"`
	Category         string         `json:"category" gorm:"size:100;index"`
	Description      string         `json:"description" gorm:"type:text"`
	Quantity         int            `json:"quantity" gorm:"not null"`
	MaxBudget        *float64       `json:"max_budget" gorm:"type:decimal(12,2)"`
	DeliveryCity     string         `json:"delivery_city" gorm:"size:100;not null"`
	DeliveryDistrict string         `json:"delivery_district" gorm:"size:100"`
	OfferDeadline    *time.Time     `json:"offer_deadline"`
	Images           pq.StringArray `json:"images" gorm:"type:text[]"`
	Status           RequestStatus  `json:"status" gorm:"type:varchar(20);default:'active';index"`

	// Relationships
	User   User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Offers []Offer `json:"offers,omitempty" gorm:"foreignKey:ProductRequestID"`
}
