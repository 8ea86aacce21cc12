// internal/services/address_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/database"
	"github.com/openreq/marketplace-backend/internal/models"
	"github.com/openreq/marketplace-backend/internal/utils"
)

// AddressService manages a user's shipping addresses. The single invariant
// is at most one default per user, enforced by clearing the old default and
// setting the new one in the same transaction.
type AddressService struct {
	db *gorm.DB
}

type AddressRequest struct {
	Label      string `json:"label,omitempty"`
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone,omitempty"`
	City       string `json:"city" validate:"required"`
	District   string `json:"district,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Line       string `json:"line" validate:"required"`
	IsDefault  bool   `json:"is_default,omitempty"`
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

func (s *AddressService) CreateAddress(userID uuid.UUID, req *AddressRequest) (*models.Address, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	address := models.Address{
		UserID:     userID,
		Label:      req.Label,
		FullName:   req.FullName,
		Phone:      req.Phone,
		City:       req.City,
		District:   req.District,
		PostalCode: req.PostalCode,
		Line:       req.Line,
	}

	// The first address becomes the default automatically.
	var count int64
	if err := s.db.Model(&models.Address{}).
		Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count addresses: %w", err)
	}
	makeDefault := req.IsDefault || count == 0

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if makeDefault {
			if err := clearDefaultAddress(tx, userID); err != nil {
				return err
			}
			address.IsDefault = true
		}
		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &address, nil
}

func (s *AddressService) UpdateAddress(userID, addressID uuid.UUID, req *AddressRequest) (*models.Address, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	address, err := s.getOwnedAddress(userID, addressID)
	if err != nil {
		return nil, err
	}

	address.Label = req.Label
	address.FullName = req.FullName
	address.Phone = req.Phone
	address.City = req.City
	address.District = req.District
	address.PostalCode = req.PostalCode
	address.Line = req.Line

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if req.IsDefault && !address.IsDefault {
			if err := clearDefaultAddress(tx, userID); err != nil {
				return err
			}
			address.IsDefault = true
		}
		if err := tx.Save(address).Error; err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return address, nil
}

func (s *AddressService) SetDefaultAddress(userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.getOwnedAddress(userID, addressID)
	if err != nil {
		return nil, err
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := clearDefaultAddress(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(address).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	address.IsDefault = true
	return address, nil
}

func (s *AddressService) DeleteAddress(userID, addressID uuid.UUID) error {
	address, err := s.getOwnedAddress(userID, addressID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(address).Error; err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

func (s *AddressService) ListAddresses(userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	if err := s.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch addresses: %w", err)
	}
	return addresses, nil
}

func (s *AddressService) getOwnedAddress(userID, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := s.db.First(&address, addressID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("address %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if address.UserID != userID {
		return nil, fmt.Errorf("%w: address belongs to another user", ErrForbidden)
	}
	return &address, nil
}

func clearDefaultAddress(tx *gorm.DB, userID uuid.UUID) error {
	if err := tx.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error; err != nil {
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}
