package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mizeapp/mize-backend/app/dto"
	businessflow "github.com/mizeapp/mize-backend/business_flow"
)

// AdminHandlerInterface defines the contract for admin management handlers
type AdminHandlerInterface interface {
	ListContenders(c fiber.Ctx) error
	CreateContender(c fiber.Ctx) error
	UpdateContender(c fiber.Ctx) error
	DeleteContender(c fiber.Ctx) error
	ListGuesses(c fiber.Ctx) error
	GetContenderStats(c fiber.Ctx) error
	UpdateGuess(c fiber.Ctx) error
	DeleteGuess(c fiber.Ctx) error
	ListCycles(c fiber.Ctx) error
	CreateCycle(c fiber.Ctx) error
	UpdateCycle(c fiber.Ctx) error
	CloseCycle(c fiber.Ctx) error
	DeleteCycle(c fiber.Ctx) error
	GetCycleResults(c fiber.Ctx) error
	ExportCycleResults(c fiber.Ctx) error
	GetSettings(c fiber.Ctx) error
	UpdateSettings(c fiber.Ctx) error
}

// AdminHandler handles contender, cycle, and settings management HTTP requests
type AdminHandler struct {
	contenderFlow businessflow.AdminContenderFlow
	cycleFlow     businessflow.AdminCycleFlow
	settingsFlow  businessflow.AdminSettingsFlow
	validator     *validator.Validate
}

// NewAdminHandler creates a new admin management handler
func NewAdminHandler(
	contenderFlow businessflow.AdminContenderFlow,
	cycleFlow businessflow.AdminCycleFlow,
	settingsFlow businessflow.AdminSettingsFlow,
) *AdminHandler {
	return &AdminHandler{
		contenderFlow: contenderFlow,
		cycleFlow:     cycleFlow,
		settingsFlow:  settingsFlow,
		validator:     validator.New(),
	}
}

func (h *AdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListContenders returns every contender with engagement counters
func (h *AdminHandler) ListContenders(c fiber.Ctx) error {
	result, err := h.contenderFlow.ListContenders(h.createRequestContext(c, "/api/v1/admin/contenders"))
	if err != nil {
		log.Println("Admin contender listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list contenders", "CONTENDER_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Contenders retrieved", result)
}

// CreateContender adds a new contender
func (h *AdminHandler) CreateContender(c fiber.Ctx) error {
	var req dto.CreateContenderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validateStruct(c, &req); err != nil {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.contenderFlow.CreateContender(h.createRequestContext(c, "/api/v1/admin/contenders"), &req, metadata)
	if err != nil {
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, businessErrorMessage(err), "CONTENDER_VALIDATION_FAILED", nil)
		}

		log.Println("Contender creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create contender", "CONTENDER_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Contender created", result)
}

// UpdateContender applies a partial update to a contender
func (h *AdminHandler) UpdateContender(c fiber.Ctx) error {
	contenderID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contender ID", "INVALID_CONTENDER_ID", nil)
	}

	var req dto.UpdateContenderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validateStruct(c, &req); err != nil {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.contenderFlow.UpdateContender(h.createRequestContext(c, "/api/v1/admin/contenders/:id"), contenderID, &req, metadata)
	if err != nil {
		if businessflow.IsContenderNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contender not found", "CONTENDER_NOT_FOUND", nil)
		}
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, businessErrorMessage(err), "CONTENDER_VALIDATION_FAILED", nil)
		}

		log.Println("Contender update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update contender", "CONTENDER_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Contender updated", result)
}

// DeleteContender removes a contender and its engagement
func (h *AdminHandler) DeleteContender(c fiber.Ctx) error {
	contenderID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contender ID", "INVALID_CONTENDER_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	err = h.contenderFlow.DeleteContender(h.createRequestContext(c, "/api/v1/admin/contenders/:id"), contenderID, metadata)
	if err != nil {
		if businessflow.IsContenderNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contender not found", "CONTENDER_NOT_FOUND", nil)
		}

		log.Println("Contender deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete contender", "CONTENDER_DELETION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Contender deleted", nil)
}

// ListGuesses returns a contender's raw guesses
func (h *AdminHandler) ListGuesses(c fiber.Ctx) error {
	contenderID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contender ID", "INVALID_CONTENDER_ID", nil)
	}

	result, err := h.contenderFlow.ListGuesses(h.createRequestContext(c, "/api/v1/admin/contenders/:id/guesses"), contenderID)
	if err != nil {
		if businessflow.IsContenderNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contender not found", "CONTENDER_NOT_FOUND", nil)
		}

		log.Println("Guess listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list guesses", "GUESS_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Guesses retrieved", result)
}

// GetContenderStats returns one contender's counters and guess word cloud
func (h *AdminHandler) GetContenderStats(c fiber.Ctx) error {
	contenderID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contender ID", "INVALID_CONTENDER_ID", nil)
	}

	result, err := h.contenderFlow.GetContenderStats(h.createRequestContext(c, "/api/v1/admin/contenders/:id/stats"), contenderID)
	if err != nil {
		if businessflow.IsContenderNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contender not found", "CONTENDER_NOT_FOUND", nil)
		}

		log.Println("Contender stats failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load stats", "CONTENDER_STATS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Stats retrieved", result)
}

// UpdateGuess edits a guess's display name or text
func (h *AdminHandler) UpdateGuess(c fiber.Ctx) error {
	guessID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid guess ID", "INVALID_GUESS_ID", nil)
	}

	var req dto.UpdateGuessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validateStruct(c, &req); err != nil {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.contenderFlow.UpdateGuess(h.createRequestContext(c, "/api/v1/admin/guesses/:id"), guessID, &req, metadata)
	if err != nil {
		if businessflow.IsGuessNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Guess not found", "GUESS_NOT_FOUND", nil)
		}
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, businessErrorMessage(err), "GUESS_VALIDATION_FAILED", nil)
		}

		log.Println("Guess update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update guess", "GUESS_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Guess updated", result)
}

// DeleteGuess removes a guess
func (h *AdminHandler) DeleteGuess(c fiber.Ctx) error {
	guessID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid guess ID", "INVALID_GUESS_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	err = h.contenderFlow.DeleteGuess(h.createRequestContext(c, "/api/v1/admin/guesses/:id"), guessID, metadata)
	if err != nil {
		if businessflow.IsGuessNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Guess not found", "GUESS_NOT_FOUND", nil)
		}

		log.Println("Guess deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete guess", "GUESS_DELETION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Guess deleted", nil)
}

// ListCycles returns every cycle with its computed status
func (h *AdminHandler) ListCycles(c fiber.Ctx) error {
	result, err := h.cycleFlow.ListCycles(h.createRequestContext(c, "/api/v1/admin/cycles"))
	if err != nil {
		log.Println("Cycle listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list cycles", "CYCLE_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Cycles retrieved", result)
}

// CreateCycle schedules a new voting window
func (h *AdminHandler) CreateCycle(c fiber.Ctx) error {
	var req dto.CreateCycleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validateStruct(c, &req); err != nil {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.cycleFlow.CreateCycle(h.createRequestContext(c, "/api/v1/admin/cycles"), &req, metadata)
	if err != nil {
		if businessflow.IsCycleOverlap(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Cycle overlaps an open cycle", "CYCLE_OVERLAP", nil)
		}
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, businessErrorMessage(err), "CYCLE_VALIDATION_FAILED", nil)
		}

		log.Println("Cycle creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create cycle", "CYCLE_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Cycle created", result)
}

// UpdateCycle applies a partial update to a cycle
func (h *AdminHandler) UpdateCycle(c fiber.Ctx) error {
	cycleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid cycle ID", "INVALID_CYCLE_ID", nil)
	}

	var req dto.UpdateCycleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validateStruct(c, &req); err != nil {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.cycleFlow.UpdateCycle(h.createRequestContext(c, "/api/v1/admin/cycles/:id"), cycleID, &req, metadata)
	if err != nil {
		if businessflow.IsCycleNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Cycle not found", "CYCLE_NOT_FOUND", nil)
		}
		if businessflow.IsCycleOverlap(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Cycle overlaps an open cycle", "CYCLE_OVERLAP", nil)
		}
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, businessErrorMessage(err), "CYCLE_VALIDATION_FAILED", nil)
		}

		log.Println("Cycle update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update cycle", "CYCLE_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Cycle updated", result)
}

// CloseCycle stops a cycle immediately
func (h *AdminHandler) CloseCycle(c fiber.Ctx) error {
	cycleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid cycle ID", "INVALID_CYCLE_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.cycleFlow.CloseCycle(h.createRequestContext(c, "/api/v1/admin/cycles/:id/close"), cycleID, metadata)
	if err != nil {
		if businessflow.IsCycleNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Cycle not found", "CYCLE_NOT_FOUND", nil)
		}
		if businessflow.IsCycleAlreadyClosed(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Cycle is already closed", "CYCLE_ALREADY_CLOSED", nil)
		}

		log.Println("Cycle close failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to close cycle", "CYCLE_CLOSE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Cycle closed", result)
}

// DeleteCycle removes a cycle and its ballots
func (h *AdminHandler) DeleteCycle(c fiber.Ctx) error {
	cycleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid cycle ID", "INVALID_CYCLE_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	err = h.cycleFlow.DeleteCycle(h.createRequestContext(c, "/api/v1/admin/cycles/:id"), cycleID, metadata)
	if err != nil {
		if businessflow.IsCycleNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Cycle not found", "CYCLE_NOT_FOUND", nil)
		}

		log.Println("Cycle deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete cycle", "CYCLE_DELETION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Cycle deleted", nil)
}

// GetCycleResults tallies a cycle's ballots per contender
func (h *AdminHandler) GetCycleResults(c fiber.Ctx) error {
	cycleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid cycle ID", "INVALID_CYCLE_ID", nil)
	}

	result, err := h.cycleFlow.GetCycleResults(h.createRequestContext(c, "/api/v1/admin/cycles/:id/results"), cycleID)
	if err != nil {
		if businessflow.IsCycleNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Cycle not found", "CYCLE_NOT_FOUND", nil)
		}

		log.Println("Cycle results failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load results", "CYCLE_RESULTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Results retrieved", result)
}

// ExportCycleResults streams the results as an xlsx download
func (h *AdminHandler) ExportCycleResults(c fiber.Ctx) error {
	cycleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid cycle ID", "INVALID_CYCLE_ID", nil)
	}

	workbook, err := h.cycleFlow.ExportCycleResults(h.createRequestContext(c, "/api/v1/admin/cycles/:id/results/export"), cycleID)
	if err != nil {
		if businessflow.IsCycleNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Cycle not found", "CYCLE_NOT_FOUND", nil)
		}

		log.Println("Cycle results export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export results", "RESULTS_EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="cycle-%d-results.xlsx"`, cycleID))
	return c.Send(workbook)
}

// GetSettings returns the runtime settings
func (h *AdminHandler) GetSettings(c fiber.Ctx) error {
	result, err := h.settingsFlow.GetSettings(h.createRequestContext(c, "/api/v1/admin/settings"))
	if err != nil {
		log.Println("Settings lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load settings", "SETTINGS_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Settings retrieved", result)
}

// UpdateSettings applies a settings change
func (h *AdminHandler) UpdateSettings(c fiber.Ctx) error {
	var req dto.UpdateAppSettingsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validateStruct(c, &req); err != nil {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.settingsFlow.UpdateSettings(h.createRequestContext(c, "/api/v1/admin/settings"), &req, metadata)
	if err != nil {
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, businessErrorMessage(err), "SETTINGS_VALIDATION_FAILED", nil)
		}

		log.Println("Settings update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update settings", "SETTINGS_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Settings updated", result)
}

// validateStruct runs the validator and writes the error response on failure
func (h *AdminHandler) validateStruct(c fiber.Ctx, req any) error {
	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}
	return nil
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *AdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
