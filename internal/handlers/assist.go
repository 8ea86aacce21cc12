// internal/handlers/assist.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openreq/marketplace-backend/internal/i18n"
	"github.com/openreq/marketplace-backend/internal/services"
	"github.com/openreq/marketplace-backend/internal/utils"
)

// AssistHandler exposes the advisory text operations. Every response is a
// suggestion; nothing here writes offers, messages or requests.
type AssistHandler struct {
	assistService *services.AssistService
}

func NewAssistHandler(assistService *services.AssistService) *AssistHandler {
	return &AssistHandler{
		assistService: assistService,
	}
}

// POST /assist/chat
func (h *AssistHandler) Chat(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	reply, err := h.assistService.Chat(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, i18n.KeyUserNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{"reply": reply})
}

// POST /assist/price-research
func (h *AssistHandler) ResearchPrice(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req services.PriceResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	estimate, err := h.assistService.ResearchPrice(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, i18n.KeyUserNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{"estimate": estimate})
}

// POST /assist/requests/:id/draft-offer
func (h *AssistHandler) DraftOffer(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	draft, err := h.assistService.DraftOffer(c.Request.Context(), sellerID, requestID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyRequestNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{"draft": draft})
}

// POST /assist/offers/:id/suggest-reply
func (h *AssistHandler) SuggestReply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	offerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	suggestion, err := h.assistService.SuggestReply(c.Request.Context(), userID, offerID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyOfferNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{"suggestion": suggestion})
}

// POST /assist/requests/:id/compare-offers
func (h *AssistHandler) CompareOffers(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	comparison, err := h.assistService.CompareOffers(c.Request.Context(), buyerID, requestID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyRequestNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{"comparison": comparison})
}
