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

// IntegrationHandlerInterface defines the contract for ESP integration handlers
type IntegrationHandlerInterface interface {
	Connect(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Disconnect(c fiber.Ctx) error
	Get(c fiber.Ctx) error
}

// IntegrationHandler handles ESP integration HTTP requests
type IntegrationHandler struct {
	integrationFlow businessflow.IntegrationFlow
	validator       *validator.Validate
}

// NewIntegrationHandler creates a new integration handler
func NewIntegrationHandler(integrationFlow businessflow.IntegrationFlow) *IntegrationHandler {
	return &IntegrationHandler{
		integrationFlow: integrationFlow,
		validator:       validator.New(),
	}
}

func (h *IntegrationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *IntegrationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Connect validates an ESP API key and stores it encrypted
func (h *IntegrationHandler) Connect(c fiber.Ctx) error {
	clientUUID := c.Params("uuid")
	if clientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
	}

	var req dto.ConnectIntegrationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.ClientUUID = clientUUID

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.integrationFlow.Connect(h.createRequestContext(c, "/api/v1/clients/"+clientUUID+"/integration"), &req, metadata)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}
		if businessflow.IsIntegrationValidationFailed(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "API key rejected by provider", "INTEGRATION_VALIDATION_FAILED", nil)
		}

		log.Println("Integration connect failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Integration connect failed", "INTEGRATION_CONNECT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Integration connected successfully", result)
}

// Refresh re-fetches mailing lists and account metadata from the ESP
func (h *IntegrationHandler) Refresh(c fiber.Ctx) error {
	clientUUID := c.Params("uuid")
	if clientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.integrationFlow.Refresh(h.createRequestContext(c, "/api/v1/clients/"+clientUUID+"/integration/refresh"), clientUUID, metadata)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}
		if businessflow.IsIntegrationNotFound(err) || businessflow.IsIntegrationNotConnected(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Integration is not connected", "INTEGRATION_NOT_CONNECTED", nil)
		}
		if businessflow.IsCredentialDecryptionFailed(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Stored credentials are unusable, reconnect the integration", "CREDENTIAL_DECRYPTION_FAILED", nil)
		}

		log.Println("Integration refresh failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Integration refresh failed", "INTEGRATION_REFRESH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Integration refreshed successfully", result)
}

// Disconnect drops the stored credential but keeps the integration row
func (h *IntegrationHandler) Disconnect(c fiber.Ctx) error {
	clientUUID := c.Params("uuid")
	if clientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.integrationFlow.Disconnect(h.createRequestContext(c, "/api/v1/clients/"+clientUUID+"/integration"), clientUUID, metadata)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}
		if businessflow.IsIntegrationNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Integration not found", "INTEGRATION_NOT_FOUND", nil)
		}

		log.Println("Integration disconnect failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Integration disconnect failed", "INTEGRATION_DISCONNECT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Integration disconnected successfully", result)
}

// Get returns the sanitized integration state for a client
func (h *IntegrationHandler) Get(c fiber.Ctx) error {
	clientUUID := c.Params("uuid")
	if clientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
	}

	result, err := h.integrationFlow.Get(h.createRequestContext(c, "/api/v1/clients/"+clientUUID+"/integration"), clientUUID)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}
		if businessflow.IsIntegrationNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Integration not found", "INTEGRATION_NOT_FOUND", nil)
		}

		log.Println("Integration lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Integration lookup failed", "INTEGRATION_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Integration retrieved successfully", result)
}

func (h *IntegrationHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *IntegrationHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
