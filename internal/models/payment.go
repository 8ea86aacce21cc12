// internal/models/payment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment records the buyer paying for an accepted offer. Creation only; the
// state machine for offers lives on Offer, not here.
type Payment struct {
	BaseModel
	OfferID          uuid.UUID     `json:"offer_id" gorm:"type:uuid;not null;index"`
	BuyerID          uuid.UUID     `json:"buyer_id" gorm:"type:uuid;not null;index"`
	Amount           float64       `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency         string        `json:"currency" gorm:"size:10;default:'usd'"`
	Status           PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentReference string        `json:"payment_reference" gorm:"size:255"`
	ProcessedAt      *time.Time    `json:"processed_at"`

	// Relationships
	Offer Offer `json:"offer,omitempty" gorm:"foreignKey:OfferID"`
	Buyer User  `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
}

// Order is a confirmed payment projected into shipment tracking.
type Order struct {
	BaseModel
	PaymentID       uuid.UUID   `json:"payment_id" gorm:"type:uuid;not null;uniqueIndex"`
	OfferID         uuid.UUID   `json:"offer_id" gorm:"type:uuid;not null;index"`
	BuyerID         uuid.UUID   `json:"buyer_id" gorm:"type:uuid;not null;index"`
	SellerID        uuid.UUID   `json:"seller_id" gorm:"type:uuid;not null;index"`
	Status          OrderStatus `json:"status" gorm:"type:varchar(20);default:'confirmed';index"`
	TrackingNumber  string      `json:"tracking_number,omitempty" gorm:"size:100"`
	ShippingAddress JSONB       `json:"shipping_address" gorm:"type:jsonb"`
	ShippedAt       *time.Time  `json:"shipped_at"`
	DeliveredAt     *time.Time  `json:"delivered_at"`

	// Relationships
	Payment Payment `json:"payment,omitempty" gorm:"foreignKey:PaymentID"`
	Offer   Offer   `json:"offer,omitempty" gorm:"foreignKey:OfferID"`
}
