// internal/services/testdb_test.go
package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openreq/marketplace-backend/internal/models"
)

// newTestDB opens a fresh in-memory database with the full schema. The
// sqlite driver honors the composite unique index, so the storage-level
// duplicate-offer guarantee is exercised for real.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ProductRequest{},
		&models.Offer{},
		&models.Negotiation{},
		&models.Payment{},
		&models.Order{},
		&models.Address{},
		&models.AuditLog{},
		&models.Notification{},
	))

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createRequest(t *testing.T, db *gorm.DB, buyer *models.User) *models.ProductRequest {
	t.Helper()

	deadline := time.Now().Add(72 * time.Hour)
	request := &models.ProductRequest{
		UserID:        buyer.ID,
		ProductName:   "Industrial fasteners",
		Category:      "hardware",
		Quantity:      500,
		DeliveryCity:  "Springfield",
		OfferDeadline: &deadline,
		Status:        models.RequestStatusActive,
	}
	require.NoError(t, db.Create(request).Error)
	return request
}

func createOffer(t *testing.T, db *gorm.DB, request *models.ProductRequest, seller *models.User, price float64, deliveryTime int) *models.Offer {
	t.Helper()

	offer := &models.Offer{
		ProductRequestID: request.ID,
		SellerID:         seller.ID,
		Price:            price,
		DeliveryTime:     deliveryTime,
		Status:           models.OfferStatusPending,
	}
	require.NoError(t, db.Create(offer).Error)
	return offer
}
