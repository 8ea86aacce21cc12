// internal/services/negotiation_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/models"
	"github.com/openreq/marketplace-backend/internal/utils"
)

type NegotiationService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type PostNegotiationRequest struct {
	OfferID          uuid.UUID `json:"offer_id" validate:"required"`
	Message          string    `json:"message" validate:"required"`
	ProposedPrice    *float64  `json:"proposed_price,omitempty" validate:"omitempty,gt=0"`
	ProposedDelivery *int      `json:"proposed_delivery,omitempty" validate:"omitempty,gt=0"`
	IsAIGenerated    bool      `json:"is_ai_generated,omitempty"`
}

func NewNegotiationService(db *gorm.DB, notificationService *NotificationService) *NegotiationService {
	return &NegotiationService{
		db:                  db,
		notificationService: notificationService,
	}
}

// PostMessage appends one message to an offer's thread. Only the offer's
// buyer or seller may post, only while the offer is pending, and entries are
// immutable once created. Proposed price and delivery are log-only fields;
// they never rewrite the offer itself.
func (s *NegotiationService) PostMessage(senderID uuid.UUID, req *PostNegotiationRequest) (*models.Negotiation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message must not be empty", ErrValidation)
	}

	offer, err := s.loadOfferForParty(senderID, req.OfferID)
	if err != nil {
		return nil, err
	}

	if offer.Status != models.OfferStatusPending {
		return nil, fmt.Errorf("%w: offer is %s", ErrInvalidTransition, offer.Status)
	}

	negotiation := &models.Negotiation{
		OfferID:          req.OfferID,
		SenderID:         senderID,
		Message:          req.Message,
		ProposedPrice:    req.ProposedPrice,
		ProposedDelivery: req.ProposedDelivery,
		IsAIGenerated:    req.IsAIGenerated,
	}

	if err := s.db.Create(negotiation).Error; err != nil {
		return nil, fmt.Errorf("failed to create negotiation message: %w", err)
	}

	s.db.Preload("Sender").First(negotiation, negotiation.ID)

	go s.notifyMessagePosted(offer, negotiation)

	return negotiation, nil
}

// ListThread returns the full conversation in canonical order: created_at
// ascending with the id as insertion tie-break, so repeated reads are
// stable even when timestamps collide.
func (s *NegotiationService) ListThread(userID, offerID uuid.UUID) ([]models.Negotiation, error) {
	if _, err := s.loadOfferForParty(userID, offerID); err != nil {
		return nil, err
	}

	var messages []models.Negotiation
	if err := s.db.Where("offer_id = ?", offerID).
		Preload("Sender").
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch negotiation thread: %w", err)
	}

	return messages, nil
}

// loadOfferForParty resolves the offer and enforces the two-party rule:
// thread access is identical for reading and writing.
func (s *NegotiationService) loadOfferForParty(userID, offerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.Preload("ProductRequest").First(&offer, offerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if offer.SellerID != userID && offer.ProductRequest.UserID != userID {
		return nil, fmt.Errorf("%w: only the offer's buyer and seller may view this thread", ErrForbidden)
	}

	return &offer, nil
}

func (s *NegotiationService) notifyMessagePosted(offer *models.Offer, negotiation *models.Negotiation) {
	if s.notificationService == nil {
		return
	}
	s.notificationService.SendNegotiationMessageNotification(offer, negotiation)
}
