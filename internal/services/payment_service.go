// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/config"
	"github.com/openreq/marketplace-backend/internal/database"
	"github.com/openreq/marketplace-backend/internal/models"
	"github.com/openreq/marketplace-backend/internal/utils"
)

// PaymentService takes accepted offers through checkout. Payments are only
// ever created for an accepted offer owned by the calling buyer, and at most
// one non-failed payment may exist per offer.
type PaymentService struct {
	db     *gorm.DB
	config *config.Config
}

type CreatePaymentIntentRequest struct {
	OfferID uuid.UUID `json:"offer_id" validate:"required"`
}

type PaymentIntentResponse struct {
	ClientSecret string    `json:"client_secret"`
	PaymentID    uuid.UUID `json:"payment_id"`
	Status       string    `json:"status"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
	PaymentID       uuid.UUID `json:"payment_id" validate:"required"`
}

type RefundRequest struct {
	PaymentID uuid.UUID `json:"payment_id" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
}

func NewPaymentService(db *gorm.DB, config *config.Config) *PaymentService {
	stripe.Key = config.Payment.StripeSecretKey

	return &PaymentService{
		db:     db,
		config: config,
	}
}

// CreatePaymentIntent opens checkout for an accepted offer. The amount is
// taken from the offer, never from the request body.
func (s *PaymentService) CreatePaymentIntent(buyerID uuid.UUID, req *CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var offer models.Offer
	if err := s.db.Preload("ProductRequest").First(&offer, req.OfferID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if offer.ProductRequest.UserID != buyerID {
		return nil, fmt.Errorf("%w: only the request owner may pay for an offer", ErrForbidden)
	}
	if offer.Status != models.OfferStatusAccepted {
		return nil, fmt.Errorf("%w: offer must be accepted before payment", ErrPaymentNotEligible)
	}

	// One open payment per offer; a failed attempt may be retried.
	var existing int64
	if err := s.db.Model(&models.Payment{}).
		Where("offer_id = ? AND status <> ?", offer.ID, models.PaymentStatusFailed).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing payments: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: a payment already exists for this offer", ErrPaymentNotEligible)
	}

	payment := models.Payment{
		OfferID:  offer.ID,
		BuyerID:  buyerID,
		Amount:   offer.Price,
		Currency: "usd",
		Status:   models.PaymentStatusPending,
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(offer.Price * 100)),
		Currency: stripe.String(payment.Currency),
	}
	params.AddMetadata("payment_id", payment.ID.String())
	params.AddMetadata("offer_id", offer.ID.String())
	params.AddMetadata("buyer_id", buyerID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		s.db.Model(&payment).Update("status", models.PaymentStatusFailed)
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	if err := s.db.Model(&payment).Update("payment_reference", pi.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment reference: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    payment.ID,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmPayment settles a payment after the client-side flow finishes. On
// success it creates the order with a snapshot of the buyer's default
// address and closes the underlying product request.
func (s *PaymentService) ConfirmPayment(buyerID uuid.UUID, req *ConfirmPaymentRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var payment models.Payment
	if err := s.db.Preload("Offer").First(&payment, req.PaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("payment %w", ErrNotFound)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if payment.BuyerID != buyerID {
		return fmt.Errorf("%w: payment belongs to another buyer", ErrForbidden)
	}
	if payment.Status == models.PaymentStatusCompleted {
		return fmt.Errorf("%w: payment is already completed", ErrInvalidTransition)
	}
	if payment.PaymentReference != req.PaymentIntentID {
		return fmt.Errorf("%w: payment intent does not match", ErrValidation)
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return fmt.Errorf("failed to get payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return s.settlePayment(&payment)

	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation:
		return nil // still pending, nothing to record yet

	default:
		if err := s.db.Model(&payment).Update("status", models.PaymentStatusFailed).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		return fmt.Errorf("%w: payment did not succeed", ErrPaymentNotEligible)
	}
}

func (s *PaymentService) settlePayment(payment *models.Payment) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		now := time.Now()
		payment.Status = models.PaymentStatusCompleted
		payment.ProcessedAt = &now
		if err := tx.Save(payment).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		order := models.Order{
			PaymentID:       payment.ID,
			OfferID:         payment.OfferID,
			BuyerID:         payment.BuyerID,
			SellerID:        payment.Offer.SellerID,
			Status:          models.OrderStatusConfirmed,
			ShippingAddress: s.defaultAddressSnapshot(tx, payment.BuyerID),
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if err := tx.Model(&models.ProductRequest{}).
			Where("id = ?", payment.Offer.ProductRequestID).
			Update("status", models.RequestStatusCompleted).Error; err != nil {
			return fmt.Errorf("failed to close product request: %w", err)
		}

		return nil
	})
}

// defaultAddressSnapshot copies the buyer's default address into the order
// so later address edits don't rewrite shipment history. A missing address
// is not fatal; the order ships once one is supplied.
func (s *PaymentService) defaultAddressSnapshot(tx *gorm.DB, buyerID uuid.UUID) models.JSONB {
	var address models.Address
	if err := tx.Where("user_id = ? AND is_default = ?", buyerID, true).
		First(&address).Error; err != nil {
		logrus.WithField("buyer_id", buyerID).Warn("Buyer has no default address at checkout")
		return nil
	}

	return models.JSONB{
		"full_name":   address.FullName,
		"phone":       address.Phone,
		"city":        address.City,
		"district":    address.District,
		"postal_code": address.PostalCode,
		"line":        address.Line,
	}
}

// ProcessRefund refunds a completed payment through the provider. Admin only;
// the handler enforces the role.
func (s *PaymentService) ProcessRefund(req *RefundRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var payment models.Payment
	if err := s.db.First(&payment, req.PaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("payment %w", ErrNotFound)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if payment.Status != models.PaymentStatusCompleted {
		return fmt.Errorf("%w: only completed payments can be refunded", ErrInvalidTransition)
	}

	if payment.PaymentReference != "" {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(payment.PaymentReference),
			Reason:        stripe.String("requested_by_customer"),
		}
		if _, err := refund.New(params); err != nil {
			return fmt.Errorf("failed to process refund: %w", err)
		}
	}

	if err := s.db.Model(&payment).Update("status", models.PaymentStatusRefunded).Error; err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"reason":     req.Reason,
	}).Info("Payment refunded")

	return nil
}

// GetPaymentHistory lists payments the user is a party to, on either side of
// the offer.
func (s *PaymentService) GetPaymentHistory(userID uuid.UUID, params utils.PaginationParams) ([]models.Payment, int64, error) {
	query := s.db.Model(&models.Payment{}).
		Where("buyer_id = ? OR offer_id IN (SELECT id FROM offers WHERE seller_id = ?)", userID, userID).
		Preload("Offer")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}

	return payments, total, nil
}

// GetOrder returns a single order to either party.
func (s *PaymentService) GetOrder(userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Offer").Preload("Payment").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.BuyerID != userID && order.SellerID != userID {
		return nil, fmt.Errorf("%w: order belongs to other parties", ErrForbidden)
	}

	return &order, nil
}
