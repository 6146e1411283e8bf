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

// ClientHandlerInterface defines the contract for client management handlers
type ClientHandlerInterface interface {
	CreateClient(c fiber.Ctx) error
	UpdateClient(c fiber.Ctx) error
	GetClient(c fiber.Ctx) error
	ListClients(c fiber.Ctx) error
	SetArchived(c fiber.Ctx) error
	ListCountryConfigs(c fiber.Ctx) error
	UpdateCountryConfig(c fiber.Ctx) error
}

// ClientHandler handles client management HTTP requests
type ClientHandler struct {
	clientFlow businessflow.ClientFlow
	validator  *validator.Validate
}

// NewClientHandler creates a new client handler
func NewClientHandler(clientFlow businessflow.ClientFlow) *ClientHandler {
	return &ClientHandler{
		clientFlow: clientFlow,
		validator:  validator.New(),
	}
}

func (h *ClientHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ClientHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateClient handles the client creation process
func (h *ClientHandler) CreateClient(c fiber.Ctx) error {
	var req dto.CreateClientRequest
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

	result, err := h.clientFlow.CreateClient(h.createRequestContext(c, "/api/v1/clients"), &req, metadata)
	if err != nil {
		log.Println("Client creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Client creation failed", "CLIENT_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Client created successfully", result)
}

// UpdateClient handles the client update process
func (h *ClientHandler) UpdateClient(c fiber.Ctx) error {
	clientUUID := c.Params("uuid")
	if clientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
	}

	var req dto.UpdateClientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = clientUUID

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.clientFlow.UpdateClient(h.createRequestContext(c, "/api/v1/clients/"+clientUUID), &req, metadata)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}

		log.Println("Client update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Client update failed", "CLIENT_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Client updated successfully", result)
}

// GetClient returns one client by UUID
func (h *ClientHandler) GetClient(c fiber.Ctx) error {
	clientUUID := c.Params("uuid")
	if clientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
	}

	result, err := h.clientFlow.GetClient(h.createRequestContext(c, "/api/v1/clients/"+clientUUID), clientUUID)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}

		log.Println("Client lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Client lookup failed", "CLIENT_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Client retrieved successfully", result)
}

// ListClients returns the paginated client listing
func (h *ClientHandler) ListClients(c fiber.Ctx) error {
	var req dto.ListClientsRequest
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

	result, err := h.clientFlow.ListClients(h.createRequestContext(c, "/api/v1/clients"), &req, metadata)
	if err != nil {
		log.Println("Client listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Client listing failed", "CLIENT_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Clients retrieved successfully", result)
}

// SetArchived toggles the client's soft-archive flag
func (h *ClientHandler) SetArchived(c fiber.Ctx) error {
	clientUUID := c.Params("uuid")
	if clientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
	}

	var req dto.SetClientArchivedRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = clientUUID

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.clientFlow.SetArchived(h.createRequestContext(c, "/api/v1/clients/"+clientUUID+"/archive"), &req, metadata)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}

		log.Println("Archive toggle failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Archive toggle failed", "CLIENT_ARCHIVE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ListCountryConfigs returns the client's per-country sending settings
func (h *ClientHandler) ListCountryConfigs(c fiber.Ctx) error {
	clientUUID := c.Params("uuid")
	if clientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
	}

	result, err := h.clientFlow.ListCountryConfigs(h.createRequestContext(c, "/api/v1/clients/"+clientUUID+"/countries"), clientUUID)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}

		log.Println("Country config listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Country config listing failed", "COUNTRY_CONFIG_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Country configs retrieved successfully", result)
}

// UpdateCountryConfig updates one country's sending settings for a client
func (h *ClientHandler) UpdateCountryConfig(c fiber.Ctx) error {
	clientUUID := c.Params("uuid")
	countryCode := c.Params("country")
	if clientUUID == "" || countryCode == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID and country code are required", "MISSING_PARAMETERS", nil)
	}

	var req dto.UpdateCountryConfigRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.ClientUUID = clientUUID
	req.CountryCode = countryCode

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.clientFlow.UpdateCountryConfig(h.createRequestContext(c, "/api/v1/clients/"+clientUUID+"/countries/"+countryCode), &req, metadata)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}
		if businessflow.IsCountryNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Country not found", "COUNTRY_NOT_FOUND", nil)
		}

		log.Println("Country config update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Country config update failed", "COUNTRY_CONFIG_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Country config updated successfully", result)
}

func (h *ClientHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *ClientHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
