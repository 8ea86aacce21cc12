// internal/services/negotiation_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/models"
)

type NegotiationServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *NegotiationService

	buyer  *models.User
	seller *models.User
	offer  *models.Offer
}

func (suite *NegotiationServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.service = NewNegotiationService(suite.db, nil)

	suite.buyer = createUser(suite.T(), suite.db, "buyer", models.UserRoleBuyer)
	suite.seller = createUser(suite.T(), suite.db, "seller", models.UserRoleSeller)
	request := createRequest(suite.T(), suite.db, suite.buyer)
	suite.offer = createOffer(suite.T(), suite.db, request, suite.seller, 1000, 10)
}

func (suite *NegotiationServiceTestSuite) post(senderID string, message string) (*models.Negotiation, error) {
	var sender *models.User
	if senderID == "buyer" {
		sender = suite.buyer
	} else {
		sender = suite.seller
	}
	return suite.service.PostMessage(sender.ID, &PostNegotiationRequest{
		OfferID: suite.offer.ID,
		Message: message,
	})
}

func (suite *NegotiationServiceTestSuite) TestPostMessage() {
	msg, err := suite.post("buyer", "Can you do 900?")
	suite.NoError(err)
	suite.Equal(suite.buyer.ID, msg.SenderID)
	suite.Equal("Can you do 900?", msg.Message)
}

func (suite *NegotiationServiceTestSuite) TestPostMessage_EmptyMessageNoRow() {
	_, err := suite.post("buyer", "   ")
	suite.ErrorIs(err, ErrValidation)

	var count int64
	suite.db.Model(&models.Negotiation{}).Where("offer_id = ?", suite.offer.ID).Count(&count)
	suite.Equal(int64(0), count)
}

func (suite *NegotiationServiceTestSuite) TestPostMessage_StrangerForbidden() {
	stranger := createUser(suite.T(), suite.db, "stranger", models.UserRoleBuyer)

	_, err := suite.service.PostMessage(stranger.ID, &PostNegotiationRequest{
		OfferID: suite.offer.ID,
		Message: "Let me in",
	})
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *NegotiationServiceTestSuite) TestPostMessage_ResolvedOfferInvalidState() {
	suite.db.Model(suite.offer).Update("status", models.OfferStatusAccepted)

	_, err := suite.post("seller", "One more thing")
	suite.ErrorIs(err, ErrInvalidTransition)
}

// Proposals in the thread are log-only; the offer's own price never moves.
func (suite *NegotiationServiceTestSuite) TestProposedPriceIsLogOnly() {
	price := 900.0
	_, err := suite.service.PostMessage(suite.buyer.ID, &PostNegotiationRequest{
		OfferID:       suite.offer.ID,
		Message:       "Would you take 900?",
		ProposedPrice: &price,
	})
	suite.NoError(err)

	var offer models.Offer
	suite.NoError(suite.db.First(&offer, suite.offer.ID).Error)
	suite.Equal(1000.0, offer.Price)
}

func (suite *NegotiationServiceTestSuite) TestListThread_StableOrder() {
	messages := []string{"first", "second", "third", "fourth"}
	senders := []string{"buyer", "seller", "buyer", "seller"}
	for i, m := range messages {
		_, err := suite.post(senders[i], m)
		suite.NoError(err)
	}

	// Repeated reads return the identical sequence.
	for range [3]struct{}{} {
		thread, err := suite.service.ListThread(suite.buyer.ID, suite.offer.ID)
		suite.NoError(err)
		suite.Len(thread, len(messages))
		for i, m := range messages {
			suite.Equal(m, thread[i].Message)
		}
	}
}

func (suite *NegotiationServiceTestSuite) TestListThread_StrangerForbidden() {
	_, err := suite.post("buyer", "hello")
	suite.NoError(err)

	stranger := createUser(suite.T(), suite.db, "stranger", models.UserRoleSeller)
	_, err = suite.service.ListThread(stranger.ID, suite.offer.ID)
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *NegotiationServiceTestSuite) TestListThread_BothPartiesCanRead() {
	_, err := suite.post("buyer", "hello")
	suite.NoError(err)

	_, err = suite.service.ListThread(suite.buyer.ID, suite.offer.ID)
	suite.NoError(err)
	_, err = suite.service.ListThread(suite.seller.ID, suite.offer.ID)
	suite.NoError(err)
}

func TestNegotiationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NegotiationServiceTestSuite))
}
