// internal/models/negotiation.go
package models

import (
	"github.com/google/uuid"
)

// Negotiation is one message in an offer's counter-proposal thread. Rows are
// append-only: there is no update or delete path anywhere in the codebase.
// Canonical conversation order is created_at ASC with the id as tie-break.
type Negotiation struct {
	BaseModel
	OfferID          uuid.UUID `json:"offer_id" gorm:"type:uuid;not null;index"`
	SenderID         uuid.UUID `json:"sender_id" gorm:"type:uuid;not null;index"`
	Message          string    `json:"message" gorm:"type:text;not null"`
	ProposedPrice    *float64  `json:"proposed_price,omitempty" gorm:"type:decimal(12,2)"`
	ProposedDelivery *int      `json:"proposed_delivery,omitempty"` // days
	IsAIGenerated    bool      `json:"is_ai_generated" gorm:"default:false"`

	// Relationships
	Offer  Offer `json:"offer,omitempty" gorm:"foreignKey:OfferID"`
	Sender User  `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}
