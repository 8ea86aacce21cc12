// internal/services/request_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/models"
	"github.com/openreq/marketplace-backend/internal/utils"
)

type RequestService struct {
	db *gorm.DB
}

type CreateRequestRequest struct {
	ProductName      string     `json:"product_name" validate:"required,max=255"`
	Category         string     `json:"category" validate:"required,max=100"`
	Description      string     `json:"description,omitempty"`
	Quantity         int        `json:"quantity" validate:"required,gt=0"`
	MaxBudget        *float64   `json:"max_budget,omitempty" validate:"omitempty,gt=0"`
	DeliveryCity     string     `json:"delivery_city" validate:"required,max=100"`
	DeliveryDistrict string     `json:"delivery_district,omitempty" validate:"omitempty,max=100"`
	OfferDeadline    *time.Time `json:"offer_deadline,omitempty"`
}

type RequestSearchParams struct {
	utils.PaginationParams
	City   string
	Status *models.RequestStatus
}

func NewRequestService(db *gorm.DB) *RequestService {
	return &RequestService{db: db}
}

// CreateRequest publishes a buyer's sourcing request.
func (s *RequestService) CreateRequest(userID uuid.UUID, req *CreateRequestRequest) (*models.ProductRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !user.CanPostRequest() {
		return nil, fmt.Errorf("%w: only buyers can post sourcing requests", ErrForbidden)
	}

	if req.OfferDeadline != nil && req.OfferDeadline.Before(time.Now()) {
		return nil, fmt.Errorf("%w: offer deadline must be in the future", ErrValidation)
	}

	request := &models.ProductRequest{
		UserID:           userID,
		ProductName:      req.ProductName,
		Category:         req.Category,
		Description:      req.Description,
		Quantity:         req.Quantity,
		MaxBudget:        req.MaxBudget,
		DeliveryCity:     req.DeliveryCity,
		DeliveryDistrict: req.DeliveryDistrict,
		OfferDeadline:    req.OfferDeadline,
		Status:           models.RequestStatusActive,
	}

	if err := s.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create product request: %w", err)
	}

	return request, nil
}

// GetRequest loads a request with its offers visible to the owner only;
// other users get the request without offers (sellers browsing need the
// request itself, not their competitors' bids).
func (s *RequestService) GetRequest(userID, requestID uuid.UUID) (*models.ProductRequest, error) {
	var request models.ProductRequest
	query := s.db.Preload("User")
	if err := query.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product request %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if request.UserID == userID {
		if err := s.db.Preload("Seller").
			Where("product_request_id = ?", requestID).
			Order("created_at DESC").
			Find(&request.Offers).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch offers: %w", err)
		}
	}

	return &request, nil
}

// ListOwnRequests returns the buyer's requests, newest first.
func (s *RequestService) ListOwnRequests(userID uuid.UUID, params utils.PaginationParams) ([]models.ProductRequest, int64, error) {
	query := s.db.Model(&models.ProductRequest{}).Where("user_id = ?", userID)
	return s.listRequests(query, params)
}

// ListOpenRequests is the seller-facing browse view over active requests.
func (s *RequestService) ListOpenRequests(params RequestSearchParams) ([]models.ProductRequest, int64, error) {
	query := s.db.Model(&models.ProductRequest{}).
		Where("status = ?", models.RequestStatusActive).
		Where("offer_deadline IS NULL OR offer_deadline > ?", time.Now()).
		Preload("User")

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.City != "" {
		query = query.Where("delivery_city = ?", params.City)
	}
	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("product_name LIKE ? OR description LIKE ?", like, like)
	}

	return s.listRequests(query, params.PaginationParams)
}

// CancelRequest closes an active request. Pending offers on it stay pending;
// submission of new offers is blocked by the status check.
func (s *RequestService) CancelRequest(userID, requestID uuid.UUID) (*models.ProductRequest, error) {
	var request models.ProductRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product request %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if request.UserID != userID {
		return nil, fmt.Errorf("%w: only the request owner may cancel it", ErrForbidden)
	}

	if request.Status != models.RequestStatusActive {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidTransition, request.Status)
	}

	request.Status = models.RequestStatusCancelled
	if err := s.db.Save(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to cancel request: %w", err)
	}

	return &request, nil
}

// AttachImages appends uploaded image URLs to a request owned by the caller.
func (s *RequestService) AttachImages(userID, requestID uuid.UUID, urls []string) (*models.ProductRequest, error) {
	var request models.ProductRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product request %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if request.UserID != userID {
		return nil, fmt.Errorf("%w: only the request owner may attach images", ErrForbidden)
	}

	request.Images = append(request.Images, urls...)
	if err := s.db.Save(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to attach images: %w", err)
	}

	return &request, nil
}

func (s *RequestService) listRequests(query *gorm.DB, params utils.PaginationParams) ([]models.ProductRequest, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count product requests: %w", err)
	}

	allowedSortFields := []string{"created_at", "offer_deadline", "quantity", "max_budget"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var requests []models.ProductRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch product requests: %w", err)
	}

	return requests, total, nil
}
