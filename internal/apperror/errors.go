// Package apperror defines the error taxonomy shared by the inference pipeline
// and its HTTP surface.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category.
type Code string

const (
	CodeInvalidInput          Code = "INVALID_INPUT"
	CodeModelFault            Code = "MODEL_FAULT"
	CodeEnrichmentDegraded    Code = "ENRICHMENT_DEGRADED"
	CodeEnrichmentUnavailable Code = "ENRICHMENT_UNAVAILABLE"
	CodeDeliveryFailed        Code = "DELIVERY_FAILED"
	CodeCanceled              Code = "REQUEST_CANCELED"
)

// Sentinels for errors.Is checks. Every Error wraps exactly one of them.
var (
	ErrInvalidImage       = errors.New("invalid image")
	ErrMissingImage       = errors.New("image field is required")
	ErrMissingCoordinates = errors.New("latitude and longitude are required")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrShapeMismatch      = errors.New("tensor shape mismatch")
	ErrModel              = errors.New("model fault")
	ErrEnrichment         = errors.New("enrichment unavailable")
	ErrDelivery           = errors.New("message delivery failed")
	ErrCanceled           = errors.New("request canceled")
)

// Error is a structured application error. Nothing in the service retries, so
// Retryable is reported for clients only.
type Error struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`

	kind  error
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.cause != nil {
		out = append(out, e.cause)
	}
	return out
}

func newError(code Code, kind error, message string, cause error) *Error {
	e := &Error{
		Code:    code,
		Message: message,
		kind:    kind,
		cause:   cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// InvalidImage reports bytes that could not be decoded as an image.
func InvalidImage(cause error) *Error {
	return newError(CodeInvalidInput, ErrInvalidImage, "image could not be decoded", cause)
}

// MissingImage reports a classification request without an image part.
func MissingImage() *Error {
	return newError(CodeInvalidInput, ErrMissingImage, "no image uploaded", nil)
}

// MissingCoordinates reports a weather lookup without a coordinate pair.
func MissingCoordinates() *Error {
	return newError(CodeInvalidInput, ErrMissingCoordinates, "location required", nil)
}

// InvalidRequest reports a malformed request body or field.
func InvalidRequest(message string, cause error) *Error {
	return newError(CodeInvalidInput, ErrInvalidRequest, message, cause)
}

// ShapeMismatch reports a tensor that does not match the model's declared input.
func ShapeMismatch(want, got []int64) *Error {
	return newError(CodeModelFault, ErrShapeMismatch,
		fmt.Sprintf("expected input shape %v, got %v", want, got), nil)
}

// ModelFault reports a broken artifact or a failed inference run.
func ModelFault(message string, cause error) *Error {
	return newError(CodeModelFault, ErrModel, message, cause)
}

// EnrichmentUnavailable reports an upstream failure on a path where
// enrichment is the primary payload.
func EnrichmentUnavailable(cause error) *Error {
	return newError(CodeEnrichmentUnavailable, ErrEnrichment, "failed to fetch weather", cause)
}

// LocationUnavailable reports a reverse-geocoding failure on the location lookup.
func LocationUnavailable(cause error) *Error {
	return newError(CodeEnrichmentUnavailable, ErrEnrichment, "failed to determine location", cause)
}

// DeliveryFailed reports a notification that could not be handed to the provider.
func DeliveryFailed(cause error) *Error {
	return newError(CodeDeliveryFailed, ErrDelivery, "failed to send message", cause)
}

// Canceled reports a request abandoned before the work started, either by the
// client going away or by its deadline passing.
func Canceled(cause error) *Error {
	return newError(CodeCanceled, ErrCanceled, "request canceled", cause)
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HTTPStatus maps an error to the status code surfaced to callers.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeDeliveryFailed:
		return http.StatusBadGateway
	case CodeCanceled:
		return http.StatusServiceUnavailable
	case CodeModelFault, CodeEnrichmentUnavailable:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the caller-facing text for err. Unknown errors are not
// echoed back.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
