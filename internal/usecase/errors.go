package usecase

import "errors"

// Error codes surfaced at the API boundary. Each code maps to exactly one
// HTTP status in the transport layer.
const (
	CodeDuplicateLead      = "DUPLICATE_LEAD"
	CodeValidation         = "VALIDATION_ERROR"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeInvalidFileKey     = "INVALID_FILE_KEY"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeNoOpTransition     = "NOOP_TRANSITION"
	CodeRenderFailed       = "RENDER_FAILED"
	CodeDeliveryFailed     = "DELIVERY_FAILED"
	CodeNotificationFailed = "NOTIFICATION_FAILED"
	CodeInternal           = "INTERNAL"
)

// DomainError is a business-rule failure the caller can act on.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	ok := errors.As(err, &de)
	return de, ok
}

// TechnicalError is an unexpected infrastructure failure. Err keeps the
// underlying cause reachable through errors.Is/As without exposing it to the
// caller.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func AsTechnicalError(err error) (*TechnicalError, bool) {
	var te *TechnicalError
	ok := errors.As(err, &te)
	return te, ok
}
