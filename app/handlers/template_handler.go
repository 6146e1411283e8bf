// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/app/services"
	businessflow "github.com/templaito/templaito/business_flow"
	"github.com/templaito/templaito/utils"
)

// TemplateHandlerInterface defines the contract for template generation handlers
type TemplateHandlerInterface interface {
	GenerateTemplate(c fiber.Ctx) error
	Thumbnail(c fiber.Ctx) error
}

// TemplateHandler handles template generation HTTP requests
type TemplateHandler struct {
	generationFlow businessflow.TemplateGenerationFlow
	imageService   services.ImageService
	validator      *validator.Validate
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(generationFlow businessflow.TemplateGenerationFlow, imageService services.ImageService) *TemplateHandler {
	return &TemplateHandler{
		generationFlow: generationFlow,
		imageService:   imageService,
		validator:      validator.New(),
	}
}

func (h *TemplateHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TemplateHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GenerateTemplate runs the scrape and generation pipeline. The generous
// timeout covers two sequential LLM calls plus scraping.
func (h *TemplateHandler) GenerateTemplate(c fiber.Ctx) error {
	var req dto.GenerateTemplateRequest
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

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	req.UserID = userID

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.generationFlow.GenerateTemplate(h.createRequestContextWithTimeout(c, "/api/v1/templates/generate", 3*time.Minute), &req, metadata)
	if err != nil {
		if businessflow.IsPromptNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Prompt template not found", "PROMPT_NOT_FOUND", nil)
		}
		if businessflow.IsPromptNotUsable(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Prompt template is not active", "PROMPT_NOT_USABLE", nil)
		}
		if businessflow.IsNoDefaultPrompt(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "No default prompt template for template type", "NO_DEFAULT_PROMPT", nil)
		}
		if businessflow.IsNoUsableProductData(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "No product data could be scraped from any country", "NO_USABLE_PRODUCT_DATA", nil)
		}
		if businessflow.IsContentUnparseable(err) || businessflow.IsContentGenerationFailed(err) || businessflow.IsDesignGenerationFailed(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Template generation failed", "GENERATION_FAILED", nil)
		}

		log.Println("Template generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Template generation failed", "GENERATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Template generated successfully", result)
}

// Thumbnail proxies a product image as a bounded PNG preview
func (h *TemplateHandler) Thumbnail(c fiber.Ctx) error {
	var req dto.ThumbnailRequest
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

	data, err := h.imageService.Thumbnail(h.createRequestContext(c, "/api/v1/templates/thumbnail"), req.ImageURL, req.MaxEdge)
	if err != nil {
		log.Println("Thumbnail generation failed", err)
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Thumbnail generation failed", "THUMBNAIL_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(data)
}

func (h *TemplateHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *TemplateHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
