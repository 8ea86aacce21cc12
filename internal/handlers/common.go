// internal/handlers/common.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openreq/marketplace-backend/internal/services"
	"github.com/openreq/marketplace-backend/internal/utils"
)

// currentUserID pulls the authenticated user out of the context set by the
// auth middleware. A false return has already written the response.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	return userID, true
}

// pathUUID parses a :param path segment. A false return has already written
// the response.
func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+param, nil)
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps service sentinels onto the HTTP error taxonomy:
// not-found 404, forbidden 403, validation 400, duplicates and bad state
// transitions 409, assist outages 502, everything else 500.
func handleServiceError(c *gin.Context, err error, notFoundKey string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, notFoundKey)
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrPaymentNotEligible):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrDuplicateOffer),
		errors.Is(err, services.ErrAlreadyOnboarded):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrRequestClosed):
		utils.InvalidStateResponse(c, err.Error())
	case errors.Is(err, services.ErrAssistUnavailable):
		utils.AssistUnavailableResponse(c)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
