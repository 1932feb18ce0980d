package handlers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mizeapp/mize-backend/app/dto"
	businessflow "github.com/mizeapp/mize-backend/business_flow"
)

// AdminAuthHandlerInterface defines the contract for admin auth handlers
type AdminAuthHandlerInterface interface {
	Login(c fiber.Ctx) error
	Session(c fiber.Ctx) error
}

// AdminAuthHandler handles admin authentication HTTP requests
type AdminAuthHandler struct {
	authFlow  businessflow.AdminAuthFlow
	validator *validator.Validate
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(authFlow businessflow.AdminAuthFlow) *AdminAuthHandler {
	return &AdminAuthHandler{
		authFlow:  authFlow,
		validator: validator.New(),
	}
}

func (h *AdminAuthHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminAuthHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Login verifies the admin password and returns a bearer token
func (h *AdminAuthHandler) Login(c fiber.Ctx) error {
	var req dto.AdminLoginRequest
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

	result, err := h.authFlow.Login(h.createRequestContext(c, "/api/v1/admin/login"), &req, metadata)
	if err != nil {
		if businessflow.IsIncorrectAdminPassword(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Incorrect password", "INCORRECT_PASSWORD", nil)
		}

		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "ADMIN_LOGIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Session confirms the caller's token is still valid. The auth middleware has
// already rejected anything invalid by the time this runs.
func (h *AdminAuthHandler) Session(c fiber.Ctx) error {
	return h.SuccessResponse(c, fiber.StatusOK, "Session valid", dto.AdminSessionResponse{
		Authenticated: true,
	})
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *AdminAuthHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
