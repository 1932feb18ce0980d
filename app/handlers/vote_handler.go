package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/app/middleware"
	businessflow "github.com/mizeapp/mize-backend/business_flow"
)

// VoteHandlerInterface defines the contract for vote handlers
type VoteHandlerInterface interface {
	GetVoteStatus(c fiber.Ctx) error
	SubmitVote(c fiber.Ctx) error
}

// VoteHandler handles ballot-related HTTP requests
type VoteHandler struct {
	votingFlow businessflow.VotingFlow
	validator  *validator.Validate
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(votingFlow businessflow.VotingFlow) *VoteHandler {
	return &VoteHandler{
		votingFlow: votingFlow,
		validator:  validator.New(),
	}
}

func (h *VoteHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *VoteHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetVoteStatus reports the active cycle and the caller's existing ballot
func (h *VoteHandler) GetVoteStatus(c fiber.Ctx) error {
	deviceToken := middleware.ResolvedDeviceToken(c)

	result, err := h.votingFlow.GetVoteStatus(h.createRequestContext(c, "/api/v1/vote"), deviceToken)
	if err != nil {
		log.Println("Vote status lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load vote status", "VOTE_STATUS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Vote status retrieved", result)
}

// SubmitVote records or revises the caller's ballot
func (h *VoteHandler) SubmitVote(c fiber.Ctx) error {
	var req dto.SubmitVoteRequest
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

	result, err := h.votingFlow.SubmitVote(h.createRequestContext(c, "/api/v1/vote"), &req, deviceToken, metadata)
	if err != nil {
		if businessflow.IsNoActiveCycle(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "No voting cycle is currently accepting votes", "NO_ACTIVE_CYCLE", nil)
		}
		if businessflow.IsTooManySelections(err) {
			// The flow's message carries the cycle's selection cap
			return h.ErrorResponse(c, fiber.StatusBadRequest, businessErrorMessage(err), "TOO_MANY_SELECTIONS", nil)
		}
		if businessflow.IsInvalidSelection(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "One or more selections are not votable", "INVALID_SELECTION", nil)
		}
		if businessflow.IsDuplicateDevice(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "A vote from this device already exists", "DUPLICATE_DEVICE", nil)
		}
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, businessErrorMessage(err), "VOTE_VALIDATION_FAILED", nil)
		}

		log.Println("Vote submission failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Vote submission failed", "VOTE_SUBMISSION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *VoteHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// businessErrorMessage surfaces the flow's message without the wrapped cause
func businessErrorMessage(err error) string {
	if be, ok := err.(*businessflow.BusinessError); ok {
		return be.Message
	}
	return err.Error()
}
