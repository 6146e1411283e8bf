// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/templaito/templaito/app/dto"
	businessflow "github.com/templaito/templaito/business_flow"
	"github.com/templaito/templaito/utils"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	PublishCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	CancelCampaign(c fiber.Ctx) error
	GetMetrics(c fiber.Ctx) error
	ExportMetrics(c fiber.Ctx) error
}

// CampaignHandler handles campaign HTTP requests
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFlow
	metricsFlow  businessflow.MetricsFlow
	validator    *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow, metricsFlow businessflow.MetricsFlow) *CampaignHandler {
	return &CampaignHandler{
		campaignFlow: campaignFlow,
		metricsFlow:  metricsFlow,
		validator:    validator.New(),
	}
}

func (h *CampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CampaignHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// PublishCampaign publishes one newsletter per eligible country
func (h *CampaignHandler) PublishCampaign(c fiber.Ctx) error {
	var req dto.PublishCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	req.ClientUUID = c.Params("uuid")
	if req.ClientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
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

	result, err := h.campaignFlow.PublishCampaign(h.createRequestContextWithTimeout(c, "/api/v1/clients/:uuid/campaigns", 2*time.Minute), &req, metadata)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}
		if businessflow.IsIntegrationNotConnected(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Client has no connected mail integration", "INTEGRATION_NOT_CONNECTED", nil)
		}
		if businessflow.IsCredentialDecryptionFailed(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Stored integration credentials are unreadable", "CREDENTIAL_DECRYPTION_FAILED", nil)
		}
		if businessflow.IsBaseCountryMissing(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Base country has no scrape result", "BASE_COUNTRY_MISSING", nil)
		}
		if businessflow.IsNoPublishableCountry(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "No country is configured for publishing", "NO_PUBLISHABLE_COUNTRY", nil)
		}

		log.Println("Campaign publish failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign publish failed", "PUBLISH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign published", result)
}

// ListCampaigns returns the client's campaigns, newest first
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	var req dto.ListCampaignsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	req.ClientUUID = c.Params("uuid")
	if req.ClientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.ListCampaigns(h.createRequestContext(c, "/api/v1/clients/:uuid/campaigns"), &req, metadata)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Campaign listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign listing failed", "LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaigns retrieved successfully", result)
}

// GetCampaign returns one campaign with its per-country targets
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	clientUUID := c.Params("uuid")
	campaignUUID := c.Params("campaign_uuid")
	if clientUUID == "" || campaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client and campaign UUIDs are required", "MISSING_UUID", nil)
	}

	result, err := h.campaignFlow.GetCampaign(h.createRequestContext(c, "/api/v1/clients/:uuid/campaigns/:campaign_uuid"), clientUUID, campaignUUID)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignNotFound(err) || businessflow.IsCampaignAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Campaign retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign retrieval failed", "GET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign retrieved successfully", result)
}

// CancelCampaign cancels a campaign that has not been sent yet
func (h *CampaignHandler) CancelCampaign(c fiber.Ctx) error {
	req := dto.CancelCampaignRequest{
		ClientUUID:   c.Params("uuid"),
		CampaignUUID: c.Params("campaign_uuid"),
	}
	if req.ClientUUID == "" || req.CampaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client and campaign UUIDs are required", "MISSING_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.CancelCampaign(h.createRequestContext(c, "/api/v1/clients/:uuid/campaigns/:campaign_uuid/cancel"), &req, metadata)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignNotFound(err) || businessflow.IsCampaignAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignNotCancellable(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign can no longer be cancelled", "CAMPAIGN_NOT_CANCELLABLE", nil)
		}

		log.Println("Campaign cancellation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign cancellation failed", "CANCEL_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign cancelled", result)
}

// GetMetrics returns ESP engagement metrics for a batch of newsletter IDs
func (h *CampaignHandler) GetMetrics(c fiber.Ctx) error {
	var req dto.GetMetricsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	req.ClientUUID = c.Params("uuid")
	if req.ClientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.metricsFlow.GetMetrics(h.createRequestContextWithTimeout(c, "/api/v1/clients/:uuid/metrics", 60*time.Second), &req, metadata)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}
		if businessflow.IsIntegrationNotConnected(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Client has no connected mail integration", "INTEGRATION_NOT_CONNECTED", nil)
		}
		if businessflow.IsCredentialDecryptionFailed(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Stored integration credentials are unreadable", "CREDENTIAL_DECRYPTION_FAILED", nil)
		}
		if businessflow.IsMetricsFetchFailed(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Metrics provider request failed", "METRICS_FETCH_FAILED", nil)
		}

		log.Println("Metrics retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Metrics retrieval failed", "METRICS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Metrics retrieved successfully", result)
}

// ExportMetrics streams the client's sent-campaign metrics as an XLSX file
func (h *CampaignHandler) ExportMetrics(c fiber.Ctx) error {
	clientUUID := c.Params("uuid")
	if clientUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client UUID is required", "MISSING_CLIENT_UUID", nil)
	}

	data, filename, err := h.metricsFlow.ExportMetricsXLSX(h.createRequestContextWithTimeout(c, "/api/v1/clients/:uuid/metrics/export", 60*time.Second), clientUUID)
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}

		log.Println("Metrics export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Metrics export failed", "EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}

func (h *CampaignHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *CampaignHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
