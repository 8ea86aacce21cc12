// internal/services/assist_service_test.go
package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/ai"
	"github.com/openreq/marketplace-backend/internal/cache"
	"github.com/openreq/marketplace-backend/internal/models"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type AssistServiceTestSuite struct {
	suite.Suite
	db *gorm.DB

	buyer   *models.User
	seller  *models.User
	request *models.ProductRequest
}

func (suite *AssistServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.buyer = createUser(suite.T(), suite.db, "buyer", models.UserRoleBuyer)
	suite.seller = createUser(suite.T(), suite.db, "seller", models.UserRoleSeller)
	suite.request = createRequest(suite.T(), suite.db, suite.buyer)
}

func (suite *AssistServiceTestSuite) newService(stub *stubCompleter) *AssistService {
	return NewAssistService(suite.db, stub, cache.NewTTLCache(5*time.Minute, 16))
}

// The heuristic picks are fixed: lowest price and lowest delivery time, ties
// to the earlier offer.
func (suite *AssistServiceTestSuite) TestCompareOffers_HeuristicFallback() {
	offers := []*models.Offer{
		createOffer(suite.T(), suite.db, suite.request, suite.seller, 1000, 10),
		createOffer(suite.T(), suite.db, suite.request,
			createUser(suite.T(), suite.db, "seller2", models.UserRoleSeller), 900, 14),
		createOffer(suite.T(), suite.db, suite.request,
			createUser(suite.T(), suite.db, "seller3", models.UserRoleSeller), 1200, 5),
	}

	stub := &stubCompleter{err: errors.New("provider down")}
	service := suite.newService(stub)

	comparison, err := service.CompareOffers(context.Background(), suite.buyer.ID, suite.request.ID)
	suite.NoError(err)
	suite.True(comparison.Heuristic)
	suite.Equal(offers[1].ID, comparison.CheapestOfferID)
	suite.Equal(offers[2].ID, comparison.FastestOfferID)
	suite.NotEmpty(comparison.Summary)
}

func (suite *AssistServiceTestSuite) TestCompareOffers_CachesResult() {
	createOffer(suite.T(), suite.db, suite.request, suite.seller, 1000, 10)

	stub := &stubCompleter{reply: "Offer one is the balanced pick."}
	service := suite.newService(stub)

	first, err := service.CompareOffers(context.Background(), suite.buyer.ID, suite.request.ID)
	suite.NoError(err)
	callsAfterFirst := stub.calls

	second, err := service.CompareOffers(context.Background(), suite.buyer.ID, suite.request.ID)
	suite.NoError(err)
	suite.Equal(callsAfterFirst, stub.calls) // served from cache
	suite.Equal(first, second)
}

func (suite *AssistServiceTestSuite) TestCompareOffers_NewOfferMissesCache() {
	createOffer(suite.T(), suite.db, suite.request, suite.seller, 1000, 10)

	stub := &stubCompleter{reply: "Summary."}
	service := suite.newService(stub)

	_, err := service.CompareOffers(context.Background(), suite.buyer.ID, suite.request.ID)
	suite.NoError(err)
	callsAfterFirst := stub.calls

	// A new pending offer changes the id set, so the key changes.
	createOffer(suite.T(), suite.db, suite.request,
		createUser(suite.T(), suite.db, "seller2", models.UserRoleSeller), 800, 20)

	_, err = service.CompareOffers(context.Background(), suite.buyer.ID, suite.request.ID)
	suite.NoError(err)
	suite.Greater(stub.calls, callsAfterFirst)
}

func (suite *AssistServiceTestSuite) TestCompareOffers_SellerForbidden() {
	createOffer(suite.T(), suite.db, suite.request, suite.seller, 1000, 10)

	service := suite.newService(&stubCompleter{reply: "x"})
	_, err := service.CompareOffers(context.Background(), suite.seller.ID, suite.request.ID)
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *AssistServiceTestSuite) TestChat_ProviderDownUnavailable() {
	stub := &stubCompleter{err: errors.New("timeout")}
	service := suite.newService(stub)

	_, err := service.Chat(context.Background(), &ChatRequest{
		Messages: []ai.Message{{Role: "user", Content: "I need 500 bolts"}},
	})
	suite.ErrorIs(err, ErrAssistUnavailable)
	suite.Equal(2, stub.calls) // one attempt plus the single retry
}

func (suite *AssistServiceTestSuite) TestResearchPrice_ParsesLooseJSON() {
	stub := &stubCompleter{
		reply: `Here is my estimate: {"min_price": 800, "max_price": 1400, "typical_price": 1100, "notes": "bulk pricing"} hope that helps`,
	}
	service := suite.newService(stub)

	estimate, err := service.ResearchPrice(context.Background(), &PriceResearchRequest{
		ProductName: "Industrial fasteners",
		Quantity:    500,
	})
	suite.NoError(err)
	suite.Equal(800.0, estimate.MinPrice)
	suite.Equal(1100.0, estimate.TypicalPrice)
}

func (suite *AssistServiceTestSuite) TestResearchPrice_GarbageUnavailable() {
	stub := &stubCompleter{reply: "no structured answer here"}
	service := suite.newService(stub)

	_, err := service.ResearchPrice(context.Background(), &PriceResearchRequest{
		ProductName: "Industrial fasteners",
		Quantity:    500,
	})
	suite.ErrorIs(err, ErrAssistUnavailable)
}

func (suite *AssistServiceTestSuite) TestDraftOffer_HeuristicUsesBudget() {
	budget := 2500.0
	suite.db.Model(suite.request).Update("max_budget", budget)

	stub := &stubCompleter{err: errors.New("provider down")}
	service := suite.newService(stub)

	draft, err := service.DraftOffer(context.Background(), suite.seller.ID, suite.request.ID)
	suite.NoError(err)
	suite.True(draft.Heuristic)
	suite.Equal(budget, draft.Price)
	suite.Equal(7, draft.DeliveryTime)
	suite.NotEmpty(draft.Message)
}

func (suite *AssistServiceTestSuite) TestSuggestReply_HeuristicMidpoint() {
	offer := createOffer(suite.T(), suite.db, suite.request, suite.seller, 1000, 10)

	counter := 800.0
	suite.NoError(suite.db.Create(&models.Negotiation{
		OfferID:       offer.ID,
		SenderID:      suite.buyer.ID,
		Message:       "Can you do 800?",
		ProposedPrice: &counter,
	}).Error)

	stub := &stubCompleter{err: errors.New("provider down")}
	service := suite.newService(stub)

	suggestion, err := service.SuggestReply(context.Background(), suite.seller.ID, offer.ID)
	suite.NoError(err)
	suite.True(suggestion.Heuristic)
	suite.NotNil(suggestion.ProposedPrice)
	suite.Equal(900.0, *suggestion.ProposedPrice) // midpoint of 1000 and 800
}

func (suite *AssistServiceTestSuite) TestSuggestReply_StrangerForbidden() {
	offer := createOffer(suite.T(), suite.db, suite.request, suite.seller, 1000, 10)
	stranger := createUser(suite.T(), suite.db, "stranger", models.UserRoleBuyer)

	service := suite.newService(&stubCompleter{reply: "x"})
	_, err := service.SuggestReply(context.Background(), stranger.ID, offer.ID)
	suite.ErrorIs(err, ErrForbidden)
}

func TestAssistServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AssistServiceTestSuite))
}

func TestCheapestAndFastestOfferIndex(t *testing.T) {
	offers := []models.Offer{
		{Price: 1000, DeliveryTime: 10},
		{Price: 900, DeliveryTime: 14},
		{Price: 1200, DeliveryTime: 5},
	}
	assert.Equal(t, 1, CheapestOfferIndex(offers))
	assert.Equal(t, 2, FastestOfferIndex(offers))

	// Ties resolve to the earlier offer.
	tied := []models.Offer{
		{Price: 900, DeliveryTime: 7},
		{Price: 900, DeliveryTime: 7},
	}
	assert.Equal(t, 0, CheapestOfferIndex(tied))
	assert.Equal(t, 0, FastestOfferIndex(tied))
}

func TestMedianPrice(t *testing.T) {
	assert.Equal(t, 0.0, medianPrice(nil))
	assert.Equal(t, 10.0, medianPrice([]float64{10}))
	assert.Equal(t, 15.0, medianPrice([]float64{10, 20}))
	assert.Equal(t, 20.0, medianPrice([]float64{30, 10, 20}))
}
