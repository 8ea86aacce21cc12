// internal/services/assist_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/ai"
	"github.com/openreq/marketplace-backend/internal/cache"
	"github.com/openreq/marketplace-backend/internal/models"
	"github.com/openreq/marketplace-backend/internal/utils"
)

// TextCompleter is the slice of the provider client the assist service
// needs; tests substitute a stub.
type TextCompleter interface {
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

// AssistService wraps the generative-text provider behind four stateless,
// advisory operations. Nothing here mutates offers or negotiations; every
// suggestion is routed back through the authorized write paths by the
// caller.
type AssistService struct {
	db        *gorm.DB
	completer TextCompleter
	cache     *cache.TTLCache
}

type ChatRequest struct {
	Messages []ai.Message `json:"messages" validate:"required,min=1"`
}

type PriceResearchRequest struct {
	ProductName string `json:"product_name" validate:"required"`
	Category    string `json:"category,omitempty"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	City        string `json:"city,omitempty"`
}

type PriceEstimate struct {
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	TypicalPrice float64 `json:"typical_price"`
	Notes        string  `json:"notes,omitempty"`
}

type OfferDraft struct {
	Message      string  `json:"message"`
	Price        float64 `json:"price"`
	DeliveryTime int     `json:"delivery_time"`
	Heuristic    bool    `json:"heuristic"` // true when the provider was unavailable
}

type ReplySuggestion struct {
	Message       string   `json:"message"`
	ProposedPrice *float64 `json:"proposed_price,omitempty"`
	Heuristic     bool     `json:"heuristic"`
}

type OfferComparison struct {
	CheapestOfferID uuid.UUID `json:"cheapest_offer_id"`
	FastestOfferID  uuid.UUID `json:"fastest_offer_id"`
	Summary         string    `json:"summary"`
	Heuristic       bool      `json:"heuristic"`
}

func NewAssistService(db *gorm.DB, completer TextCompleter, comparisonCache *cache.TTLCache) *AssistService {
	return &AssistService{
		db:        db,
		completer: completer,
		cache:     comparisonCache,
	}
}

// Chat is the form-filling assistant. The caller owns the conversation
// array; the service keeps no state. There is no safe fallback, so provider
// failures surface as ErrAssistUnavailable.
func (s *AssistService) Chat(ctx context.Context, req *ChatRequest) (string, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	messages := append([]ai.Message{{
		Role: "system",
		Content: "You help buyers describe what they want to purchase on a sourcing " +
			"marketplace. Ask short clarifying questions about product, quantity, " +
			"budget and delivery location, one at a time.",
	}}, req.Messages...)

	reply, err := s.complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssistUnavailable, err)
	}
	return reply, nil
}

// ResearchPrice asks the provider for a market estimate and defensively
// parses JSON out of the free-form reply. No deterministic fallback exists
// for market data, so failures surface to the user.
func (s *AssistService) ResearchPrice(ctx context.Context, req *PriceResearchRequest) (*PriceEstimate, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	prompt := fmt.Sprintf(
		"Estimate a realistic market price range for %d x %q (category %q, delivery to %q). "+
			`Reply with a JSON object: {"min_price": n, "max_price": n, "typical_price": n, "notes": "..."}.`,
		req.Quantity, req.ProductName, req.Category, req.City,
	)

	reply, err := s.complete(ctx, []ai.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssistUnavailable, err)
	}

	var estimate PriceEstimate
	if err := ai.ExtractJSON(reply, &estimate); err != nil {
		return nil, fmt.Errorf("%w: unparseable estimate", ErrAssistUnavailable)
	}
	if estimate.TypicalPrice <= 0 {
		return nil, fmt.Errorf("%w: empty estimate", ErrAssistUnavailable)
	}

	return &estimate, nil
}

// DraftOffer writes a first-pass offer for a seller looking at a request.
// When the provider is down the draft degrades to a deterministic template
// priced from the request budget or the median of existing offers.
func (s *AssistService) DraftOffer(ctx context.Context, sellerID, requestID uuid.UUID) (*OfferDraft, error) {
	var request models.ProductRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product request %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	budget := "unspecified"
	if request.MaxBudget != nil {
		budget = fmt.Sprintf("%.2f", *request.MaxBudget)
	}
	prompt := fmt.Sprintf(
		"Draft a short, professional offer message for this sourcing request: "+
			"%d x %q, category %q, delivery to %s, buyer budget %s. "+
			`Reply with JSON: {"message": "...", "price": n, "delivery_time": days}.`,
		request.Quantity, request.ProductName, request.Category, request.DeliveryCity, budget,
	)

	reply, err := s.complete(ctx, []ai.Message{{Role: "user", Content: prompt}})
	if err == nil {
		var draft OfferDraft
		if jsonErr := ai.ExtractJSON(reply, &draft); jsonErr == nil && draft.Price > 0 && draft.Message != "" {
			if draft.DeliveryTime <= 0 {
				draft.DeliveryTime = 7
			}
			return &draft, nil
		}
	}

	logrus.WithField("request_id", requestID).Warn("Offer draft fell back to heuristic")
	return s.heuristicOfferDraft(&request), nil
}

func (s *AssistService) heuristicOfferDraft(request *models.ProductRequest) *OfferDraft {
	price := 0.0
	if request.MaxBudget != nil {
		price = *request.MaxBudget
	} else {
		var prices []float64
		s.db.Model(&models.Offer{}).
			Where("product_request_id = ?", request.ID).
			Order("price ASC").
			Pluck("price", &prices)
		price = medianPrice(prices)
	}

	return &OfferDraft{
		Message: fmt.Sprintf("Hello, I can supply %d x %s with delivery to %s. "+
			"Happy to discuss the details.",
			request.Quantity, request.ProductName, request.DeliveryCity),
		Price:        price,
		DeliveryTime: 7,
		Heuristic:    true,
	}
}

// SuggestReply proposes the next negotiation message for either party. The
// fallback is the midpoint of the two most recent proposed prices in the
// thread, or the offer price when nobody has countered yet.
func (s *AssistService) SuggestReply(ctx context.Context, userID, offerID uuid.UUID) (*ReplySuggestion, error) {
	var offer models.Offer
	if err := s.db.Preload("ProductRequest").First(&offer, offerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if offer.SellerID != userID && offer.ProductRequest.UserID != userID {
		return nil, fmt.Errorf("%w: only the offer's buyer and seller may request suggestions", ErrForbidden)
	}

	var thread []models.Negotiation
	if err := s.db.Where("offer_id = ?", offerID).
		Order("created_at ASC, id ASC").
		Find(&thread).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch negotiation thread: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Offer: price %.2f, delivery %d days.\n", offer.Price, offer.DeliveryTime)
	for _, msg := range thread {
		side := "seller"
		if msg.SenderID == offer.ProductRequest.UserID {
			side = "buyer"
		}
		fmt.Fprintf(&sb, "%s: %s", side, msg.Message)
		if msg.ProposedPrice != nil {
			fmt.Fprintf(&sb, " (proposed price %.2f)", *msg.ProposedPrice)
		}
		sb.WriteString("\n")
	}
	side := "seller"
	if userID == offer.ProductRequest.UserID {
		side = "buyer"
	}
	fmt.Fprintf(&sb,
		"Suggest the %s's next short message. Reply with JSON: "+
			`{"message": "...", "proposed_price": n}.`, side)

	reply, err := s.complete(ctx, []ai.Message{{Role: "user", Content: sb.String()}})
	if err == nil {
		var suggestion ReplySuggestion
		if jsonErr := ai.ExtractJSON(reply, &suggestion); jsonErr == nil && suggestion.Message != "" {
			return &suggestion, nil
		}
	}

	logrus.WithField("offer_id", offerID).Warn("Reply suggestion fell back to heuristic")
	return heuristicReplySuggestion(&offer, thread), nil
}

func heuristicReplySuggestion(offer *models.Offer, thread []models.Negotiation) *ReplySuggestion {
	proposals := []float64{offer.Price}
	for _, msg := range thread {
		if msg.ProposedPrice != nil {
			proposals = append(proposals, *msg.ProposedPrice)
		}
	}

	price := proposals[len(proposals)-1]
	if len(proposals) >= 2 {
		price = (proposals[len(proposals)-1] + proposals[len(proposals)-2]) / 2
	}

	return &ReplySuggestion{
		Message:       fmt.Sprintf("Could we meet at %.2f? That would work for me.", price),
		ProposedPrice: &price,
		Heuristic:     true,
	}
}

// CompareOffers ranks the pending offers on a buyer's request. The result is
// cached for a few minutes keyed by the sorted offer-id set; the cached value
// is advisory and may be stale within the TTL. The heuristic picks are
// deterministic: lowest price and lowest delivery time.
func (s *AssistService) CompareOffers(ctx context.Context, buyerID, requestID uuid.UUID) (*OfferComparison, error) {
	var request models.ProductRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product request %w", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if request.UserID != buyerID {
		return nil, fmt.Errorf("%w: only the request owner may compare its offers", ErrForbidden)
	}

	var offers []models.Offer
	if err := s.db.Where("product_request_id = ? AND status = ?",
		requestID, models.OfferStatusPending).
		Order("created_at ASC").
		Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch offers: %w", err)
	}

	if len(offers) == 0 {
		return nil, fmt.Errorf("%w: no pending offers to compare", ErrValidation)
	}

	key := comparisonCacheKey(offers)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if comparison, ok := cached.(*OfferComparison); ok {
				return comparison, nil
			}
		}
	}

	comparison := s.buildComparison(ctx, offers)

	if s.cache != nil {
		s.cache.Set(key, comparison)
	}

	return comparison, nil
}

func (s *AssistService) buildComparison(ctx context.Context, offers []models.Offer) *OfferComparison {
	cheapest := offers[CheapestOfferIndex(offers)]
	fastest := offers[FastestOfferIndex(offers)]

	comparison := &OfferComparison{
		CheapestOfferID: cheapest.ID,
		FastestOfferID:  fastest.ID,
	}

	var sb strings.Builder
	sb.WriteString("Summarize the trade-offs between these offers in two sentences:\n")
	for i, o := range offers {
		fmt.Fprintf(&sb, "%d. price %.2f, delivery %d days\n", i+1, o.Price, o.DeliveryTime)
	}

	reply, err := s.complete(ctx, []ai.Message{{Role: "user", Content: sb.String()}})
	if err != nil {
		comparison.Summary = fmt.Sprintf(
			"Cheapest offer: %.2f. Fastest delivery: %d days.",
			cheapest.Price, fastest.DeliveryTime)
		comparison.Heuristic = true
		return comparison
	}

	comparison.Summary = strings.TrimSpace(reply)
	return comparison
}

// CheapestOfferIndex returns the index of the lowest-priced offer; ties go
// to the earlier index so the pick is deterministic.
func CheapestOfferIndex(offers []models.Offer) int {
	best := 0
	for i, o := range offers {
		if o.Price < offers[best].Price {
			best = i
		}
	}
	return best
}

// FastestOfferIndex returns the index of the offer with the shortest
// delivery time; ties go to the earlier index.
func FastestOfferIndex(offers []models.Offer) int {
	best := 0
	for i, o := range offers {
		if o.DeliveryTime < offers[best].DeliveryTime {
			best = i
		}
	}
	return best
}

func medianPrice(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func comparisonCacheKey(offers []models.Offer) string {
	ids := make([]string, len(offers))
	for i, o := range offers {
		ids[i] = o.ID.String()
	}
	sort.Strings(ids)
	return "offer-comparison:" + strings.Join(ids, ",")
}

// complete makes one provider call plus a single retry; the client's own
// timeout bounds each attempt so handlers never hang on the provider.
func (s *AssistService) complete(ctx context.Context, messages []ai.Message) (string, error) {
	reply, err := s.completer.Complete(ctx, messages)
	if err == nil {
		return reply, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	logrus.WithError(err).Warn("Assist provider call failed, retrying once")
	return s.completer.Complete(ctx, messages)
}
