package dto

import (
	"net/http"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// Codes raised by the HTTP layer itself. Integration codes pass through unchanged.
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Inbound problems
	integration.CodeInvalidPayload:    http.StatusBadRequest,
	integration.CodeInvalidSignature:  http.StatusUnauthorized,
	integration.CodeDuplicateDelivery: http.StatusConflict,
	integration.CodeUnmappedStatus:    http.StatusUnprocessableEntity,
	integration.CodeCanceled:          integration.StatusClientClosedRequest,

	// Vendor side failures surface as gateway errors
	integration.CodeTimeout:            http.StatusGatewayTimeout,
	integration.CodeNetworkError:       http.StatusBadGateway,
	integration.CodeGraphQLError:       http.StatusBadGateway,
	integration.CodeInvalidResponse:    http.StatusBadGateway,
	integration.CodeSOAPError:          http.StatusBadGateway,
	integration.CodeMaxRetriesExceeded: http.StatusServiceUnavailable,
	integration.CodeRateLimited:        http.StatusTooManyRequests,

	integration.CodeProviderNotSupported: http.StatusNotFound,
	integration.CodeBookingsNotSupported: http.StatusNotImplemented,
	integration.CodeRoomsNotSupported:    http.StatusNotImplemented,
	integration.CodeGuestsNotSupported:   http.StatusNotImplemented,
	integration.CodeUpsertFailed:         http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// StatusForIntegrationError picks the response status for err. Mapped codes win;
// otherwise the status carried by the error is used (HTTP_<status>, SYNC_FAILED).
func StatusForIntegrationError(err *integration.IntegrationError) int {
	if status, ok := ErrorCodeHTTPStatus[err.Code]; ok {
		return status
	}
	if err.StatusCode >= http.StatusBadRequest && err.StatusCode <= 599 {
		return err.StatusCode
	}
	return http.StatusInternalServerError
}
