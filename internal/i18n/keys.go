// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// User Management
	KeyUserProfileUpdated  = "user.profile_updated"
	KeyUserNotFound        = "user.not_found"
	KeyUserOnboarded       = "user.onboarded"
	KeyUserAlreadyOnboard  = "user.already_onboarded"
	KeyUserAccessDenied    = "user.access_denied"

	// Product Requests
	KeyRequestCreated   = "request.created"
	KeyRequestCancelled = "request.cancelled"
	KeyRequestNotFound  = "request.not_found"
	KeyRequestClosed    = "request.closed"

	// Offers
	KeyOfferCreated      = "offer.created"
	KeyOfferAccepted     = "offer.accepted"
	KeyOfferRejected     = "offer.rejected"
	KeyOfferWithdrawn    = "offer.withdrawn"
	KeyOfferNotFound     = "offer.not_found"
	KeyOfferDuplicate    = "offer.duplicate"
	KeyOfferAlreadyFinal = "offer.already_resolved"

	// Negotiations
	KeyNegotiationPosted   = "negotiation.posted"
	KeyNegotiationNotFound = "negotiation.not_found"

	// Payments
	KeyPaymentSuccess = "payment.success"
	KeyPaymentFailed  = "payment.failed"
	KeyPaymentPending = "payment.pending"

	// Addresses
	KeyAddressCreated  = "address.created"
	KeyAddressUpdated  = "address.updated"
	KeyAddressDeleted  = "address.deleted"
	KeyAddressNotFound = "address.not_found"

	// Assist
	KeyAssistUnavailable = "assist.unavailable"

	// Admin
	KeyAdminActionSuccess = "admin.action_success"
	KeyAdminAccessDenied  = "admin.access_denied"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
)
