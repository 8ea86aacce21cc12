// internal/models/offer.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Offer is a seller's priced response to one ProductRequest. The composite
// unique index enforces the one-offer-per-seller-per-request invariant at
// the storage layer so concurrent submissions cannot both slip past the
// application-level pre-check.
type Offer struct {
	BaseModel
	ProductRequestID uuid.UUID   `json:"product_request_id" gorm:"type:uuid;not null;uniqueIndex:idx_offers_request_seller,priority:1"`
	SellerID         uuid.UUID   `json:"seller_id" gorm:"type:uuid;not null;uniqueIndex:idx_offers_request_seller,priority:2"`
	Price            float64     `json:"price" gorm:"type:decimal(12,2);not null"`
	DeliveryTime     int         `json:"delivery_time" gorm:"not null"` // days
	Message          string      `json:"message,omitempty" gorm:"type:text"`
	Status           OfferStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	BuyerResponse    *string     `json:"buyer_response,omitempty" gorm:"type:text"`
	RespondedAt      *time.Time  `json:"responded_at"`

	// Relationships
	ProductRequest ProductRequest `json:"product_request,omitempty" gorm:"foreignKey:ProductRequestID"`
	Seller         User           `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Negotiations   []Negotiation  `json:"negotiations,omitempty" gorm:"foreignKey:OfferID"`
}
