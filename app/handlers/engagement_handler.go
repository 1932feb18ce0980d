package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/app/middleware"
	businessflow "github.com/mizeapp/mize-backend/business_flow"
	"github.com/mizeapp/mize-backend/utils"
)

// EngagementHandlerInterface defines the contract for public engagement handlers
type EngagementHandlerInterface interface {
	GetConfig(c fiber.Ctx) error
	ListContenders(c fiber.Ctx) error
	GetContender(c fiber.Ctx) error
	ToggleLove(c fiber.Ctx) error
	SubmitGuess(c fiber.Ctx) error
}

// EngagementHandler handles public browsing, love, and guess HTTP requests
type EngagementHandler struct {
	engagementFlow businessflow.EngagementFlow
	validator      *validator.Validate
}

// NewEngagementHandler creates a new engagement handler
func NewEngagementHandler(engagementFlow businessflow.EngagementFlow) *EngagementHandler {
	return &EngagementHandler{
		engagementFlow: engagementFlow,
		validator:      validator.New(),
	}
}

func (h *EngagementHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *EngagementHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetConfig returns the public bootstrap configuration
func (h *EngagementHandler) GetConfig(c fiber.Ctx) error {
	result, err := h.engagementFlow.GetPublicConfig(h.createRequestContext(c, "/api/v1/config"))
	if err != nil {
		log.Println("Config lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load configuration", "CONFIG_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Configuration retrieved", result)
}

// ListContenders returns all visible contenders with the caller's love state
func (h *EngagementHandler) ListContenders(c fiber.Ctx) error {
	deviceToken := middleware.ResolvedDeviceToken(c)

	result, err := h.engagementFlow.ListContenders(h.createRequestContext(c, "/api/v1/contenders"), deviceToken)
	if err != nil {
		log.Println("Contender listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list contenders", "CONTENDER_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Contenders retrieved", result)
}

// GetContender returns one contender with aggregated guesses
func (h *EngagementHandler) GetContender(c fiber.Ctx) error {
	contenderID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contender ID", "INVALID_CONTENDER_ID", nil)
	}
	deviceToken := middleware.ResolvedDeviceToken(c)

	result, err := h.engagementFlow.GetContender(h.createRequestContext(c, "/api/v1/contenders/:id"), contenderID, deviceToken)
	if err != nil {
		if businessflow.IsContenderNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contender not found", "CONTENDER_NOT_FOUND", nil)
		}

		log.Println("Contender lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load contender", "CONTENDER_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Contender retrieved", result)
}

// ToggleLove flips the caller's love for a contender
func (h *EngagementHandler) ToggleLove(c fiber.Ctx) error {
	contenderID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contender ID", "INVALID_CONTENDER_ID", nil)
	}

	var req dto.ToggleLoveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	deviceToken := middleware.ResolvedDeviceToken(c)

	result, err := h.engagementFlow.ToggleLove(h.createRequestContext(c, "/api/v1/contenders/:id/love"), contenderID, &req, deviceToken, metadata)
	if err != nil {
		if businessflow.IsContenderNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contender not found", "CONTENDER_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidFingerprint(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Fingerprint payload is malformed", "INVALID_FINGERPRINT", nil)
		}

		log.Println("Love toggle failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to toggle love", "LOVE_TOGGLE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Love toggled", result)
}

// SubmitGuess records a free-text identity guess for a contender
func (h *EngagementHandler) SubmitGuess(c fiber.Ctx) error {
	contenderID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contender ID", "INVALID_CONTENDER_ID", nil)
	}

	var req dto.SubmitGuessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	deviceToken := middleware.ResolvedDeviceToken(c)

	result, err := h.engagementFlow.SubmitGuess(h.createRequestContext(c, "/api/v1/contenders/:id/guess"), contenderID, &req, deviceToken, metadata)
	if err != nil {
		if businessflow.IsContenderNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contender not found", "CONTENDER_NOT_FOUND", nil)
		}
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "GUESS_VALIDATION_FAILED", nil)
		}

		log.Println("Guess submission failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to submit guess", "GUESS_SUBMISSION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Guess submitted", result)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *EngagementHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout builds a request-scoped context shared by all handlers
func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}

// parseIDParam reads a positive integer path parameter
func parseIDParam(c fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		if err == nil {
			err = strconv.ErrSyntax
		}
		return 0, err
	}
	return uint(id), nil
}
