package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Error codes
// ---------------------------------------------------------------------------

// Error codes carried by IntegrationError. HTTP_<status> codes are built with HTTPCode.
const (
	CodeTimeout            = "TIMEOUT"
	CodeNetworkError       = "NETWORK_ERROR"
	CodeGraphQLError       = "GRAPHQL_ERROR"
	CodeInvalidResponse    = "INVALID_RESPONSE"
	CodeSOAPError          = "SOAP_ERROR"
	CodeMaxRetriesExceeded = "MAX_RETRIES_EXCEEDED"
	CodeSyncFailed         = "SYNC_FAILED"
	CodeUnmappedStatus     = "UNMAPPED_STATUS"
	CodeInvalidPayload     = "INVALID_PAYLOAD"
	CodeCanceled           = "CANCELED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeDuplicateDelivery  = "DUPLICATE_DELIVERY"
	CodeInvalidSignature   = "INVALID_SIGNATURE"
	CodeUpsertFailed       = "UPSERT_FAILED"

	CodeProviderNotSupported = "PROVIDER_NOT_SUPPORTED"
	CodeBookingsNotSupported = "BOOKINGS_NOT_SUPPORTED"
	CodeRoomsNotSupported    = "ROOMS_NOT_SUPPORTED"
	CodeGuestsNotSupported   = "GUESTS_NOT_SUPPORTED"
)

// StatusClientClosedRequest is used for caller cancellation (nginx convention).
const StatusClientClosedRequest = 499

var (
	// Configuration errors
	ErrInvalidHotelID      = errors.New("integration: invalid hotel ID")
	ErrInvalidProvider     = errors.New("integration: invalid provider key")
	ErrInvalidEntityType   = errors.New("integration: invalid entity type")
	ErrAdapterRegistered   = errors.New("integration: adapter already registered")
	ErrInvalidBookingDraft = errors.New("integration: invalid booking draft")

	// Persistence errors
	ErrRecordNotFound = errors.New("integration: record not found")
)

// ---------------------------------------------------------------------------
// IntegrationError
// ---------------------------------------------------------------------------

// IntegrationError is the single error type raised across the adapter boundary.
// Code is machine readable, StatusCode is the closest HTTP status.
type IntegrationError struct {
	Message    string
	StatusCode int
	Code       string
	Cause      error
}

// NewIntegrationError creates an IntegrationError without a cause
func NewIntegrationError(code, message string, statusCode int) *IntegrationError {
	return &IntegrationError{Code: code, Message: message, StatusCode: statusCode}
}

// WrapIntegrationError creates an IntegrationError that wraps cause
func WrapIntegrationError(code, message string, statusCode int, cause error) *IntegrationError {
	return &IntegrationError{Code: code, Message: message, StatusCode: statusCode, Cause: cause}
}

// Error implements the error interface
func (e *IntegrationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause
func (e *IntegrationError) Unwrap() error {
	return e.Cause
}

// Is matches another IntegrationError by code, so errors.Is(err, &IntegrationError{Code: CodeTimeout}) works.
func (e *IntegrationError) Is(target error) bool {
	var t *IntegrationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// Retryable reports whether the failure is transient from the caller's point of view.
func (e *IntegrationError) Retryable() bool {
	switch e.Code {
	case CodeNetworkError, CodeMaxRetriesExceeded, CodeRateLimited:
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 && e.StatusCode != http.StatusNotImplemented
}

// ---------------------------------------------------------------------------
// Constructors for common codes
// ---------------------------------------------------------------------------

// HTTPCode returns the HTTP_<status> code for a status
func HTTPCode(status int) string {
	return "HTTP_" + strconv.Itoa(status)
}

// HTTPStatusFromCode parses the status out of an HTTP_<status> code
func HTTPStatusFromCode(code string) (int, bool) {
	rest, ok := strings.CutPrefix(code, "HTTP_")
	if !ok {
		return 0, false
	}
	status, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return status, true
}

// NewHTTPError builds the error raised for a non-retryable or exhausted HTTP status
func NewHTTPError(status int, body string) *IntegrationError {
	msg := http.StatusText(status)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, truncate(body, 256))
	}
	return NewIntegrationError(HTTPCode(status), msg, status)
}

// NewTimeoutError builds the error raised when a request exceeds its deadline
func NewTimeoutError(cause error) *IntegrationError {
	return WrapIntegrationError(CodeTimeout, "request timed out", http.StatusGatewayTimeout, cause)
}

// NewNetworkError builds the error raised for transport failures
func NewNetworkError(cause error) *IntegrationError {
	return WrapIntegrationError(CodeNetworkError, "network request failed", http.StatusBadGateway, cause)
}

// NewCanceledError builds the error raised when the caller abandons an operation
func NewCanceledError(cause error) *IntegrationError {
	return WrapIntegrationError(CodeCanceled, "operation canceled", StatusClientClosedRequest, cause)
}

// NewNotSupportedError builds the capability-gap error for an entity type
func NewNotSupportedError(provider ProviderKey, entity EntityType) *IntegrationError {
	return NewIntegrationError(
		entity.NotSupportedCode(),
		fmt.Sprintf("provider %s does not support %s", provider, entity),
		http.StatusNotImplemented,
	)
}

// NewProviderNotSupportedError builds the error raised when no adapter is registered
func NewProviderNotSupportedError(provider ProviderKey) *IntegrationError {
	return NewIntegrationError(
		CodeProviderNotSupported,
		fmt.Sprintf("no adapter registered for provider %s", provider),
		http.StatusNotImplemented,
	)
}

// NewUnmappedStatusError builds the error raised when a vendor value has no canonical mapping
func NewUnmappedStatusError(vendor, kind, value string) *IntegrationError {
	return NewIntegrationError(
		CodeUnmappedStatus,
		fmt.Sprintf("%s %s status %q has no canonical mapping", vendor, kind, value),
		http.StatusUnprocessableEntity,
	)
}

// NewInvalidInputError builds the error raised when a caller passes arguments
// that fail validation. The cause stays reachable for errors.Is.
func NewInvalidInputError(cause error) *IntegrationError {
	return WrapIntegrationError(CodeInvalidPayload, cause.Error(), http.StatusBadRequest, cause)
}

// NewInvalidResponseError builds the error raised when a vendor response cannot be interpreted
func NewInvalidResponseError(message string, cause error) *IntegrationError {
	return WrapIntegrationError(CodeInvalidResponse, message, http.StatusBadGateway, cause)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// AsIntegrationError extracts an IntegrationError from an error chain
func AsIntegrationError(err error) (*IntegrationError, bool) {
	var ie *IntegrationError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// CodeOf returns the integration code of err, or "" when it has none
func CodeOf(err error) string {
	if ie, ok := AsIntegrationError(err); ok {
		return ie.Code
	}
	return ""
}

// IsCode reports whether any IntegrationError in the chain carries code
func IsCode(err error, code string) bool {
	for err != nil {
		var ie *IntegrationError
		if !errors.As(err, &ie) {
			return false
		}
		if ie.Code == code {
			return true
		}
		err = ie.Cause
	}
	return false
}

// Wrap converts an arbitrary error into an IntegrationError. Existing integration errors
// pass through untouched; context errors map to TIMEOUT and CANCELED.
func Wrap(err error, code string, message string) *IntegrationError {
	if err == nil {
		return nil
	}
	if ie, ok := AsIntegrationError(err); ok {
		return ie
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(err)
	case errors.Is(err, context.Canceled):
		return NewCanceledError(err)
	}
	return WrapIntegrationError(code, message, http.StatusInternalServerError, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
