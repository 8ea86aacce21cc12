// internal/handlers/offer.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openreq/marketplace-backend/internal/i18n"
	"github.com/openreq/marketplace-backend/internal/models"
	"github.com/openreq/marketplace-backend/internal/services"
	"github.com/openreq/marketplace-backend/internal/utils"
)

type OfferHandler struct {
	offerService *services.OfferService
}

func NewOfferHandler(offerService *services.OfferService) *OfferHandler {
	return &OfferHandler{
		offerService: offerService,
	}
}

// POST /offers
func (h *OfferHandler) SubmitOffer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.SubmitOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	offer, err := h.offerService.SubmitOffer(sellerID, &req)
	if err != nil {
		handleServiceError(c, err, i18n.KeyRequestNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOfferCreated),
		"offer":   offer,
	})
}

// GET /offers/:id
func (h *OfferHandler) GetOffer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	offerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	offer, err := h.offerService.GetOffer(userID, offerID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyOfferNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{"offer": offer})
}

// POST /offers/:id/respond — buyer accepts or rejects.
func (h *OfferHandler) RespondToOffer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	offerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.RespondToOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	offer, err := h.offerService.RespondToOffer(buyerID, offerID, &req)
	if err != nil {
		handleServiceError(c, err, i18n.KeyOfferNotFound)
		return
	}

	messageKey := i18n.KeyOfferRejected
	if offer.Status == models.OfferStatusAccepted {
		messageKey = i18n.KeyOfferAccepted
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, messageKey),
		"offer":   offer,
	})
}

// POST /offers/:id/withdraw — seller pulls a pending offer.
func (h *OfferHandler) WithdrawOffer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	offerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	offer, err := h.offerService.WithdrawOffer(sellerID, offerID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyOfferNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOfferWithdrawn),
		"offer":   offer,
	})
}

// GET /offers/mine — the seller's submitted offers.
func (h *OfferHandler) ListSellerOffers(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	offers, total, err := h.offerService.ListSellerOffers(sellerID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(offers, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /offers/received — offers on the buyer's requests.
func (h *OfferHandler) ListBuyerOffers(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	offers, total, err := h.offerService.ListBuyerOffers(buyerID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(offers, total, params)
	utils.PaginatedResponse(c, result)
}
