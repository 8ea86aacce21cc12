// internal/handlers/negotiation.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openreq/marketplace-backend/internal/i18n"
	"github.com/openreq/marketplace-backend/internal/services"
	"github.com/openreq/marketplace-backend/internal/utils"
)

type NegotiationHandler struct {
	negotiationService *services.NegotiationService
}

func NewNegotiationHandler(negotiationService *services.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{
		negotiationService: negotiationService,
	}
}

// POST /offers/:id/messages
func (h *NegotiationHandler) PostMessage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	senderID, ok := currentUserID(c)
	if !ok {
		return
	}

	offerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.PostNegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	req.OfferID = offerID

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	negotiation, err := h.negotiationService.PostMessage(senderID, &req)
	if err != nil {
		handleServiceError(c, err, i18n.KeyOfferNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyNegotiationPosted),
		"negotiation": negotiation,
	})
}

// GET /offers/:id/messages
func (h *NegotiationHandler) ListThread(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	offerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	thread, err := h.negotiationService.ListThread(userID, offerID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyOfferNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{"messages": thread})
}
