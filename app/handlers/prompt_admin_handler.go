// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/templaito/templaito/app/dto"
	businessflow "github.com/templaito/templaito/business_flow"
	"github.com/templaito/templaito/utils"
)

// PromptAdminHandlerInterface defines the contract for admin prompt template handlers
type PromptAdminHandlerInterface interface {
	CreatePrompt(c fiber.Ctx) error
	UpdatePrompt(c fiber.Ctx) error
	GetPrompt(c fiber.Ctx) error
	ListPrompts(c fiber.Ctx) error
	GetPromptStats(c fiber.Ctx) error
}

// PromptAdminHandler handles admin prompt template HTTP requests
type PromptAdminHandler struct {
	promptFlow businessflow.PromptFlow
	validator  *validator.Validate
}

// NewPromptAdminHandler creates a new admin prompt template handler
func NewPromptAdminHandler(promptFlow businessflow.PromptFlow) *PromptAdminHandler {
	return &PromptAdminHandler{
		promptFlow: promptFlow,
		validator:  validator.New(),
	}
}

func (h *PromptAdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *PromptAdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreatePrompt creates a prompt template
func (h *PromptAdminHandler) CreatePrompt(c fiber.Ctx) error {
	var req dto.CreatePromptTemplateRequest
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

	result, err := h.promptFlow.CreatePrompt(h.createRequestContext(c, "/api/v1/admin/prompts"), &req, metadata)
	if err != nil {
		log.Println("Prompt template creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Prompt template creation failed", "CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Prompt template created", result)
}

// UpdatePrompt updates a prompt template. Prompt text changes bump the version.
func (h *PromptAdminHandler) UpdatePrompt(c fiber.Ctx) error {
	var req dto.UpdatePromptTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	req.PromptUUID = c.Params("prompt_uuid")
	if req.PromptUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Prompt UUID is required", "MISSING_PROMPT_UUID", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.promptFlow.UpdatePrompt(h.createRequestContext(c, "/api/v1/admin/prompts/:prompt_uuid"), &req, metadata)
	if err != nil {
		if businessflow.IsPromptNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Prompt template not found", "PROMPT_NOT_FOUND", nil)
		}

		log.Println("Prompt template update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Prompt template update failed", "UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Prompt template updated", result)
}

// GetPrompt returns one prompt template
func (h *PromptAdminHandler) GetPrompt(c fiber.Ctx) error {
	promptUUID := c.Params("prompt_uuid")
	if promptUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Prompt UUID is required", "MISSING_PROMPT_UUID", nil)
	}

	result, err := h.promptFlow.GetPrompt(h.createRequestContext(c, "/api/v1/admin/prompts/:prompt_uuid"), promptUUID)
	if err != nil {
		if businessflow.IsPromptNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Prompt template not found", "PROMPT_NOT_FOUND", nil)
		}

		log.Println("Prompt template retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Prompt template retrieval failed", "GET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Prompt template retrieved successfully", result)
}

// ListPrompts returns prompt templates matching the filters
func (h *PromptAdminHandler) ListPrompts(c fiber.Ctx) error {
	var req dto.ListPromptTemplatesRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.promptFlow.ListPrompts(h.createRequestContext(c, "/api/v1/admin/prompts"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Prompt template listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Prompt template listing failed", "LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Prompt templates retrieved successfully", result)
}

// GetPromptStats returns generation run statistics for one prompt template
func (h *PromptAdminHandler) GetPromptStats(c fiber.Ctx) error {
	promptUUID := c.Params("prompt_uuid")
	if promptUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Prompt UUID is required", "MISSING_PROMPT_UUID", nil)
	}

	result, err := h.promptFlow.GetPromptStats(h.createRequestContext(c, "/api/v1/admin/prompts/:prompt_uuid/stats"), promptUUID)
	if err != nil {
		if businessflow.IsPromptNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Prompt template not found", "PROMPT_NOT_FOUND", nil)
		}

		log.Println("Prompt stats retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Prompt stats retrieval failed", "STATS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Prompt stats retrieved successfully", result)
}

func (h *PromptAdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *PromptAdminHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
