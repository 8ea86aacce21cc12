// internal/services/offer_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/models"
	"github.com/openreq/marketplace-backend/internal/utils"
)

type OfferService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type SubmitOfferRequest struct {
	ProductRequestID uuid.UUID `json:"product_request_id" validate:"required"`
	Price            float64   `json:"price" validate:"required,gt=0"`
	DeliveryTime     int       `json:"delivery_time" validate:"required,gt=0"` // days
	Message          string    `json:"message,omitempty"`
}

type RespondToOfferRequest struct {
	Status        models.OfferStatus `json:"status" validate:"required,oneof=accepted rejected"`
	BuyerResponse string             `json:"buyer_response,omitempty"`
}

func NewOfferService(db *gorm.DB, notificationService *NotificationService) *OfferService {
	return &OfferService{
		db:                  db,
		notificationService: notificationService,
	}
}

// SubmitOffer creates a pending offer against an active sourcing request.
// At most one offer per (request, seller) pair: a pre-check gives a friendly
// conflict error and the composite unique index catches the concurrent case
// the pre-check cannot.
func (s *OfferService) SubmitOffer(sellerID uuid.UUID, req *SubmitOfferRequest) (*models.Offer, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var seller models.User
	if err := s.db.First(&seller, sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("seller %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if seller.Status != models.UserStatusActive {
		return nil, fmt.Errorf("%w: account is not active", ErrForbidden)
	}

	// Capability check resolved from the role, not business logic peeking at
	// the role string.
	if !seller.CanSubmitOffer() {
		return nil, fmt.Errorf("%w: only sellers can submit offers", ErrForbidden)
	}

	var request models.ProductRequest
	if err := s.db.First(&request, req.ProductRequestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product request %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if request.UserID == sellerID {
		return nil, fmt.Errorf("%w: cannot submit an offer on your own request", ErrForbidden)
	}

	if request.Status != models.RequestStatusActive {
		return nil, ErrRequestClosed
	}
	if request.OfferDeadline != nil && time.Now().After(*request.OfferDeadline) {
		return nil, ErrRequestClosed
	}

	// Friendly pre-check; the unique index is the real guarantee.
	var existing models.Offer
	if err := s.db.Where("product_request_id = ? AND seller_id = ?",
		req.ProductRequestID, sellerID).First(&existing).Error; err == nil {
		return nil, ErrDuplicateOffer
	}

	offer := &models.Offer{
		ProductRequestID: req.ProductRequestID,
		SellerID:         sellerID,
		Price:            req.Price,
		DeliveryTime:     req.DeliveryTime,
		Message:          req.Message,
		Status:           models.OfferStatusPending,
	}

	if err := s.db.Create(offer).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateOffer
		}
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	s.db.Preload("ProductRequest").Preload("Seller").First(offer, offer.ID)

	go s.notifyOfferSubmitted(offer)

	return offer, nil
}

// RespondToOffer records the buyer's decision. Only the buyer who owns the
// parent request may call it, and only while the offer is pending; the
// transition table rejects a second decision on a resolved offer.
func (s *OfferService) RespondToOffer(buyerID, offerID uuid.UUID, req *RespondToOfferRequest) (*models.Offer, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var offer models.Offer
	if err := s.db.Preload("ProductRequest").Preload("Seller").
		First(&offer, offerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if offer.ProductRequest.UserID != buyerID {
		return nil, fmt.Errorf("%w: only the request owner may respond to this offer", ErrForbidden)
	}

	if !offer.Status.CanTransition(req.Status) {
		return nil, fmt.Errorf("%w: offer is %s", ErrInvalidTransition, offer.Status)
	}

	now := time.Now()
	offer.Status = req.Status
	offer.RespondedAt = &now
	if req.BuyerResponse != "" {
		offer.BuyerResponse = &req.BuyerResponse
	} else {
		offer.BuyerResponse = nil
	}

	if err := s.db.Save(&offer).Error; err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	go s.notifyOfferResolved(&offer)

	return &offer, nil
}

// WithdrawOffer lets the owning seller retract a pending offer.
func (s *OfferService) WithdrawOffer(sellerID, offerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.Preload("ProductRequest").First(&offer, offerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if offer.SellerID != sellerID {
		return nil, fmt.Errorf("%w: only the offer owner may withdraw it", ErrForbidden)
	}

	if !offer.Status.CanTransition(models.OfferStatusWithdrawn) {
		return nil, fmt.Errorf("%w: offer is %s", ErrInvalidTransition, offer.Status)
	}

	now := time.Now()
	offer.Status = models.OfferStatusWithdrawn
	offer.RespondedAt = &now

	if err := s.db.Save(&offer).Error; err != nil {
		return nil, fmt.Errorf("failed to withdraw offer: %w", err)
	}

	return &offer, nil
}

// GetOffer returns a single offer to one of its two parties.
func (s *OfferService) GetOffer(userID, offerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.Preload("ProductRequest").Preload("Seller").
		First(&offer, offerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if offer.SellerID != userID && offer.ProductRequest.UserID != userID {
		return nil, fmt.Errorf("%w: offer belongs to another conversation", ErrForbidden)
	}

	return &offer, nil
}

// ListSellerOffers returns the offers the seller has submitted.
func (s *OfferService) ListSellerOffers(sellerID uuid.UUID, params utils.PaginationParams) ([]models.Offer, int64, error) {
	query := s.db.Model(&models.Offer{}).
		Where("seller_id = ?", sellerID).
		Preload("ProductRequest").Preload("ProductRequest.User")

	return s.listOffers(query, params)
}

// ListBuyerOffers returns the offers received across the buyer's requests.
func (s *OfferService) ListBuyerOffers(buyerID uuid.UUID, params utils.PaginationParams) ([]models.Offer, int64, error) {
	query := s.db.Model(&models.Offer{}).
		Where("product_request_id IN (SELECT id FROM product_requests WHERE user_id = ?)", buyerID).
		Preload("ProductRequest").Preload("Seller")

	return s.listOffers(query, params)
}

func (s *OfferService) listOffers(query *gorm.DB, params utils.PaginationParams) ([]models.Offer, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count offers: %w", err)
	}

	allowedSortFields := []string{"created_at", "price", "delivery_time", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var offers []models.Offer
	if err := query.Find(&offers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch offers: %w", err)
	}

	return offers, total, nil
}

func (s *OfferService) notifyOfferSubmitted(offer *models.Offer) {
	if s.notificationService == nil {
		return
	}
	s.notificationService.SendOfferSubmittedNotification(offer)
}

func (s *OfferService) notifyOfferResolved(offer *models.Offer) {
	if s.notificationService == nil {
		return
	}
	s.notificationService.SendOfferResolvedNotification(offer)
}

// isUniqueViolation detects duplicate-key failures from both the Postgres
// driver and the sqlite driver the tests run on.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
