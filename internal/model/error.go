package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeListingNotFound    = "LISTING_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeProfileNotFound    = "PROFILE_NOT_FOUND"
	ErrCodePaymentNotFound    = "PAYMENT_METHOD_NOT_FOUND"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeListingUnavailable = "LISTING_UNAVAILABLE"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeEmptyCart          = "EMPTY_CART"
	ErrCodeInvalidStateKey    = "INVALID_STATE_KEY"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeMarketUnavailable  = "MARKET_DATA_UNAVAILABLE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrUnauthenticated    = NewDomainError(ErrCodeUnauthorised, "Authenticated user is required")
	ErrListingNotFound    = NewDomainError(ErrCodeListingNotFound, "Listing not found")
	ErrOrderNotFound      = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrProfileNotFound    = NewDomainError(ErrCodeProfileNotFound, "User profile not found")
	ErrNotListingOwner    = NewDomainError(ErrCodeForbidden, "You can only modify your own listings")
	ErrFarmerOnly         = NewDomainError(ErrCodeForbidden, "Only farmers can perform this action")
	ErrBuyerOnly          = NewDomainError(ErrCodeForbidden, "Only buyers can place orders")
	ErrOrderAccessDenied  = NewDomainError(ErrCodeForbidden, "Unauthorized to access this order")
	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInsufficientStock  = NewDomainError(ErrCodeInsufficientStock, "Order quantity exceeds available quantity")
	ErrListingUnavailable = NewDomainError(ErrCodeListingUnavailable, "This crop is no longer available")
	ErrInvalidStatus      = NewDomainError(ErrCodeInvalidStatus, "Invalid status value")
	ErrInvalidTransition  = NewDomainError(ErrCodeInvalidTransition, "Order status transition is not allowed")
	ErrEmptyCart          = NewDomainError(ErrCodeEmptyCart, "Your cart is empty")
	ErrInvalidStateKey    = NewDomainError(ErrCodeInvalidStateKey, "Unknown client state key")

	ErrPaymentMethodNotFound     = NewDomainError(ErrCodePaymentNotFound, "Payment method not found")
	ErrPaymentMethodAccessDenied = NewDomainError(ErrCodeForbidden, "You can only use your own payment methods")
	ErrMarketUnavailable         = NewDomainError(ErrCodeMarketUnavailable, "Market data is temporarily unavailable")
)
