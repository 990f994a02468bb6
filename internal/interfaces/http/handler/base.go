package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/interfaces/http/dto"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// ValidationError sends a 400 response listing the invalid fields of err
func (h *BaseHandler) ValidationError(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		message,
		middleware.GetRequestID(c),
		middleware.ValidationDetails(err),
	))
}

// HandleError converts domain and integration errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.HandleErrorWithData(c, err, nil)
}

// HandleErrorWithData is HandleError with a partial result attached to the response
func (h *BaseHandler) HandleErrorWithData(c *gin.Context, err error, data any) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	status, resp := h.errorResponse(c, err)
	resp.Data = data
	c.JSON(status, resp)
}

func (h *BaseHandler) errorResponse(c *gin.Context, err error) (int, dto.Response) {
	requestID := middleware.GetRequestID(c)

	switch {
	case errors.Is(err, integration.ErrInvalidBookingDraft):
		return http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Booking draft is invalid", requestID, middleware.ValidationDetails(err))
	case errors.Is(err, integration.ErrInvalidHotelID),
		errors.Is(err, integration.ErrInvalidProvider),
		errors.Is(err, integration.ErrInvalidEntityType):
		msg := err.Error()
		if ie, ok := integration.AsIntegrationError(err); ok {
			msg = ie.Message
		}
		return http.StatusBadRequest, dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, msg, requestID)
	case errors.Is(err, integration.ErrRecordNotFound):
		return http.StatusNotFound, dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Record not found", requestID)
	}

	if ie, ok := integration.AsIntegrationError(err); ok {
		return dto.StatusForIntegrationError(ie), dto.NewErrorResponseWithRequestID(ie.Code, ie.Message, requestID)
	}

	return http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	)
}
