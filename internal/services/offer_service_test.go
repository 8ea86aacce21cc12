// internal/services/offer_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/models"
	"github.com/openreq/marketplace-backend/internal/utils"
)

type OfferServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *OfferService

	buyer   *models.User
	seller  *models.User
	request *models.ProductRequest
}

func (suite *OfferServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.service = NewOfferService(suite.db, nil)

	suite.buyer = createUser(suite.T(), suite.db, "buyer", models.UserRoleBuyer)
	suite.seller = createUser(suite.T(), suite.db, "seller", models.UserRoleSeller)
	suite.request = createRequest(suite.T(), suite.db, suite.buyer)
}

func (suite *OfferServiceTestSuite) submit(price float64, days int) (*models.Offer, error) {
	return suite.service.SubmitOffer(suite.seller.ID, &SubmitOfferRequest{
		ProductRequestID: suite.request.ID,
		Price:            price,
		DeliveryTime:     days,
	})
}

func (suite *OfferServiceTestSuite) TestSubmitOffer() {
	offer, err := suite.submit(1000, 10)
	suite.NoError(err)
	suite.Equal(models.OfferStatusPending, offer.Status)
	suite.Equal(suite.seller.ID, offer.SellerID)
	suite.Nil(offer.RespondedAt)
}

func (suite *OfferServiceTestSuite) TestSubmitOffer_DuplicateConflict() {
	_, err := suite.submit(1000, 10)
	suite.NoError(err)

	_, err = suite.submit(900, 7)
	suite.ErrorIs(err, ErrDuplicateOffer)

	var count int64
	suite.db.Model(&models.Offer{}).
		Where("product_request_id = ? AND seller_id = ?", suite.request.ID, suite.seller.ID).
		Count(&count)
	suite.Equal(int64(1), count)
}

func (suite *OfferServiceTestSuite) TestSubmitOffer_UniqueIndexBackstop() {
	// Bypass the service pre-check; the composite index must still reject.
	createOffer(suite.T(), suite.db, suite.request, suite.seller, 1000, 10)

	err := suite.db.Create(&models.Offer{
		ProductRequestID: suite.request.ID,
		SellerID:         suite.seller.ID,
		Price:            900,
		DeliveryTime:     7,
		Status:           models.OfferStatusPending,
	}).Error
	suite.True(isUniqueViolation(err))
}

func (suite *OfferServiceTestSuite) TestSubmitOffer_BuyerForbidden() {
	_, err := suite.service.SubmitOffer(suite.buyer.ID, &SubmitOfferRequest{
		ProductRequestID: suite.request.ID,
		Price:            1000,
		DeliveryTime:     10,
	})
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *OfferServiceTestSuite) TestSubmitOffer_NotOnboardedForbidden() {
	fresh := createUser(suite.T(), suite.db, "fresh", "")
	_, err := suite.service.SubmitOffer(fresh.ID, &SubmitOfferRequest{
		ProductRequestID: suite.request.ID,
		Price:            1000,
		DeliveryTime:     10,
	})
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *OfferServiceTestSuite) TestSubmitOffer_OwnRequestForbidden() {
	ownRequest := &models.ProductRequest{
		UserID:       suite.seller.ID,
		ProductName:  "Packing tape",
		Quantity:     10,
		DeliveryCity: "Springfield",
		Status:       models.RequestStatusActive,
	}
	suite.NoError(suite.db.Create(ownRequest).Error)

	_, err := suite.service.SubmitOffer(suite.seller.ID, &SubmitOfferRequest{
		ProductRequestID: ownRequest.ID,
		Price:            100,
		DeliveryTime:     3,
	})
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *OfferServiceTestSuite) TestSubmitOffer_ClosedRequest() {
	suite.db.Model(suite.request).Update("status", models.RequestStatusCancelled)

	_, err := suite.submit(1000, 10)
	suite.ErrorIs(err, ErrRequestClosed)
}

func (suite *OfferServiceTestSuite) TestSubmitOffer_PastDeadline() {
	past := time.Now().Add(-time.Hour)
	suite.db.Model(suite.request).Update("offer_deadline", past)

	_, err := suite.submit(1000, 10)
	suite.ErrorIs(err, ErrRequestClosed)
}

func (suite *OfferServiceTestSuite) TestRespondToOffer_Accept() {
	offer, err := suite.submit(1000, 10)
	suite.NoError(err)

	accepted, err := suite.service.RespondToOffer(suite.buyer.ID, offer.ID, &RespondToOfferRequest{
		Status:        models.OfferStatusAccepted,
		BuyerResponse: "Looks good, go ahead.",
	})
	suite.NoError(err)
	suite.Equal(models.OfferStatusAccepted, accepted.Status)
	suite.NotNil(accepted.RespondedAt)
	suite.False(accepted.RespondedAt.Before(accepted.CreatedAt))
	suite.NotNil(accepted.BuyerResponse)
}

func (suite *OfferServiceTestSuite) TestRespondToOffer_SellerForbidden() {
	offer, err := suite.submit(1000, 10)
	suite.NoError(err)

	// The seller of the offer is not the request owner; 403, not 404.
	_, err = suite.service.RespondToOffer(suite.seller.ID, offer.ID, &RespondToOfferRequest{
		Status: models.OfferStatusAccepted,
	})
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *OfferServiceTestSuite) TestRespondToOffer_StrangerForbidden() {
	offer, err := suite.submit(1000, 10)
	suite.NoError(err)

	stranger := createUser(suite.T(), suite.db, "stranger", models.UserRoleBuyer)
	_, err = suite.service.RespondToOffer(stranger.ID, offer.ID, &RespondToOfferRequest{
		Status: models.OfferStatusRejected,
	})
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *OfferServiceTestSuite) TestRespondToOffer_SecondDecisionInvalidState() {
	offer, err := suite.submit(1000, 10)
	suite.NoError(err)

	_, err = suite.service.RespondToOffer(suite.buyer.ID, offer.ID, &RespondToOfferRequest{
		Status: models.OfferStatusAccepted,
	})
	suite.NoError(err)

	_, err = suite.service.RespondToOffer(suite.buyer.ID, offer.ID, &RespondToOfferRequest{
		Status: models.OfferStatusRejected,
	})
	suite.ErrorIs(err, ErrInvalidTransition)

	// The original decision stands.
	var persisted models.Offer
	suite.NoError(suite.db.First(&persisted, offer.ID).Error)
	suite.Equal(models.OfferStatusAccepted, persisted.Status)
}

func (suite *OfferServiceTestSuite) TestWithdrawOffer() {
	offer, err := suite.submit(1000, 10)
	suite.NoError(err)

	withdrawn, err := suite.service.WithdrawOffer(suite.seller.ID, offer.ID)
	suite.NoError(err)
	suite.Equal(models.OfferStatusWithdrawn, withdrawn.Status)

	// A withdrawn offer can no longer be accepted.
	_, err = suite.service.RespondToOffer(suite.buyer.ID, offer.ID, &RespondToOfferRequest{
		Status: models.OfferStatusAccepted,
	})
	suite.ErrorIs(err, ErrInvalidTransition)
}

func (suite *OfferServiceTestSuite) TestWithdrawOffer_BuyerForbidden() {
	offer, err := suite.submit(1000, 10)
	suite.NoError(err)

	_, err = suite.service.WithdrawOffer(suite.buyer.ID, offer.ID)
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *OfferServiceTestSuite) TestGetOffer_TwoPartyOnly() {
	offer, err := suite.submit(1000, 10)
	suite.NoError(err)

	_, err = suite.service.GetOffer(suite.buyer.ID, offer.ID)
	suite.NoError(err)
	_, err = suite.service.GetOffer(suite.seller.ID, offer.ID)
	suite.NoError(err)

	stranger := createUser(suite.T(), suite.db, "stranger", models.UserRoleSeller)
	_, err = suite.service.GetOffer(stranger.ID, offer.ID)
	suite.ErrorIs(err, ErrForbidden)
}

// Two sellers compete on one request: the buyer accepts one and rejects the
// other, each decision is independent, and the request stays open for
// partial fulfillment.
func (suite *OfferServiceTestSuite) TestTwoSellerScenario() {
	secondSeller := createUser(suite.T(), suite.db, "seller2", models.UserRoleSeller)

	first, err := suite.submit(1000, 10)
	suite.NoError(err)

	second, err := suite.service.SubmitOffer(secondSeller.ID, &SubmitOfferRequest{
		ProductRequestID: suite.request.ID,
		Price:            900,
		DeliveryTime:     14,
	})
	suite.NoError(err)

	received, total, err := suite.service.ListBuyerOffers(suite.buyer.ID, utils.PaginationParams{Page: 1, Limit: 10})
	suite.NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(received, 2)

	_, err = suite.service.RespondToOffer(suite.buyer.ID, second.ID, &RespondToOfferRequest{
		Status: models.OfferStatusAccepted,
	})
	suite.NoError(err)

	_, err = suite.service.RespondToOffer(suite.buyer.ID, first.ID, &RespondToOfferRequest{
		Status: models.OfferStatusRejected,
	})
	suite.NoError(err)

	var request models.ProductRequest
	suite.NoError(suite.db.First(&request, suite.request.ID).Error)
	suite.Equal(models.RequestStatusActive, request.Status)

	var offers []models.Offer
	suite.NoError(suite.db.Where("product_request_id = ?", suite.request.ID).Find(&offers).Error)
	statuses := map[models.OfferStatus]int{}
	for _, o := range offers {
		statuses[o.Status]++
	}
	suite.Equal(1, statuses[models.OfferStatusAccepted])
	suite.Equal(1, statuses[models.OfferStatusRejected])
}

func (suite *OfferServiceTestSuite) TestListSellerOffers() {
	_, err := suite.submit(1000, 10)
	suite.NoError(err)

	otherBuyer := createUser(suite.T(), suite.db, "buyer2", models.UserRoleBuyer)
	otherRequest := createRequest(suite.T(), suite.db, otherBuyer)
	_, err = suite.service.SubmitOffer(suite.seller.ID, &SubmitOfferRequest{
		ProductRequestID: otherRequest.ID,
		Price:            500,
		DeliveryTime:     5,
	})
	suite.NoError(err)

	offers, total, err := suite.service.ListSellerOffers(suite.seller.ID, utils.PaginationParams{Page: 1, Limit: 10})
	suite.NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(offers, 2)
}

func TestOfferServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OfferServiceTestSuite))
}
