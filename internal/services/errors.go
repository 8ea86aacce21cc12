// internal/services/errors.go
package services

import "errors"

// Business failures shared across services. Handlers map these onto HTTP
// responses with errors.Is; anything not listed here is treated as an
// internal error and never leaks detail to the client.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("not allowed to access this resource")
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateOffer     = errors.New("an offer for this request already exists")
	ErrInvalidTransition  = errors.New("offer has already been resolved")
	ErrRequestClosed      = errors.New("request is no longer accepting offers")
	ErrAlreadyOnboarded   = errors.New("onboarding has already been completed")
	ErrAssistUnavailable  = errors.New("assistant provider is unavailable")
	ErrPaymentNotEligible = errors.New("offer is not eligible for payment")
)
