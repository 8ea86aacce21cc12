// internal/handlers/request.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openreq/marketplace-backend/internal/i18n"
	"github.com/openreq/marketplace-backend/internal/models"
	"github.com/openreq/marketplace-backend/internal/services"
	"github.com/openreq/marketplace-backend/internal/utils"
)

type RequestHandler struct {
	requestService *services.RequestService
	storageService *services.StorageService
}

func NewRequestHandler(requestService *services.RequestService, storageService *services.StorageService) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		storageService: storageService,
	}
}

// POST /requests
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	request, err := h.requestService.CreateRequest(userID, &req)
	if err != nil {
		handleServiceError(c, err, i18n.KeyRequestNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyRequestCreated),
		"request": request,
	})
}

// GET /requests — open requests, the seller's browse surface.
func (h *RequestHandler) ListOpenRequests(c *gin.Context) {
	params := services.RequestSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
		City:             c.Query("city"),
	}
	if status := c.Query("status"); status != "" {
		requestStatus := models.RequestStatus(status)
		params.Status = &requestStatus
	}

	requests, total, err := h.requestService.ListOpenRequests(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(requests, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /requests/mine
func (h *RequestHandler) ListOwnRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	requests, total, err := h.requestService.ListOwnRequests(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(requests, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	request, err := h.requestService.GetRequest(userID, requestID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyRequestNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{"request": request})
}

// POST /requests/:id/cancel
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	request, err := h.requestService.CancelRequest(userID, requestID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyRequestNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyRequestCancelled),
		"request": request,
	})
}

// POST /requests/:id/images — multipart upload, stored in S3, URL attached
// to the request.
func (h *RequestHandler) UploadImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	if err := h.storageService.ValidateImage(file); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), nil)
		return
	}

	options := h.storageService.GetDefaultUploadOptions("request_images")
	upload, err := h.storageService.UploadFile(file, header, options)
	if err != nil {
		handleServiceError(c, err, i18n.KeyRequestNotFound)
		return
	}

	request, err := h.requestService.AttachImages(userID, requestID, []string{upload.URL})
	if err != nil {
		handleServiceError(c, err, i18n.KeyRequestNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFileUploadSuccess),
		"upload":  upload,
		"request": request,
	})
}
