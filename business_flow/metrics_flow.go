// Package businessflow contains the core business logic and use cases for metrics workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/app/services"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/repository"
	"github.com/templaito/templaito/utils"
	"github.com/xuri/excelize/v2"
)

// MetricsFlow handles newsletter metrics aggregation and export
type MetricsFlow interface {
	GetMetrics(ctx context.Context, req *dto.GetMetricsRequest, metadata *ClientMetadata) (*dto.GetMetricsResponse, error)
	ExportMetricsXLSX(ctx context.Context, clientUUID string) ([]byte, string, error)
	SyncCampaignStatistics(ctx context.Context, lookback time.Duration) error
}

// MetricsFlowImpl implements the metrics business flow
type MetricsFlowImpl struct {
	clientRepo      repository.ClientRepository
	campaignRepo    repository.CampaignRepository
	targetRepo      repository.CampaignCountryTargetRepository
	integrationRepo repository.ClientIntegrationRepository
	squalomail      services.SqualoMailAPI
	cipher          services.CredentialCipher
	rc              *redis.Client
}

// NewMetricsFlow creates a new metrics flow instance
func NewMetricsFlow(
	clientRepo repository.ClientRepository,
	campaignRepo repository.CampaignRepository,
	targetRepo repository.CampaignCountryTargetRepository,
	integrationRepo repository.ClientIntegrationRepository,
	squalomail services.SqualoMailAPI,
	cipher services.CredentialCipher,
	rc *redis.Client,
) MetricsFlow {
	return &MetricsFlowImpl{
		clientRepo:      clientRepo,
		campaignRepo:    campaignRepo,
		targetRepo:      targetRepo,
		integrationRepo: integrationRepo,
		squalomail:      squalomail,
		cipher:          cipher,
		rc:              rc,
	}
}

// GetMetrics fetches engagement numbers for a set of newsletter IDs. IDs the
// ESP is not tracking yet stay absent from the result so callers can tell
// "no data" from zero engagement. Recently fetched IDs are served from cache.
func (f *MetricsFlowImpl) GetMetrics(ctx context.Context, req *dto.GetMetricsRequest, metadata *ClientMetadata) (*dto.GetMetricsResponse, error) {
	client, err := f.lookupClient(ctx, req.ClientUUID)
	if err != nil {
		return nil, err
	}

	apiKey, err := f.decryptedAPIKey(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	ids := utils.Dedupe(req.NewsletterIDs)

	metrics := make(map[string]dto.NewsletterMetricsDTO, len(ids))
	var misses []string
	for _, id := range ids {
		if cached, ok := f.cachedMetrics(ctx, id); ok {
			metrics[id] = *cached
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := f.squalomail.FetchReportMetrics(ctx, apiKey, misses)
		if err != nil {
			return nil, NewBusinessError("METRICS_FETCH_FAILED", "Metrics could not be fetched from provider", ErrMetricsFetchFailed)
		}
		for id, m := range fetched {
			entry := toMetricsDTO(m)
			metrics[id] = entry
			f.cacheMetrics(ctx, id, entry)
		}
	}

	return &dto.GetMetricsResponse{
		Message: "Metrics retrieved successfully",
		Metrics: metrics,
	}, nil
}

// ExportMetricsXLSX builds a workbook with one row per published country
// target across the client's sent campaigns.
func (f *MetricsFlowImpl) ExportMetricsXLSX(ctx context.Context, clientUUID string) ([]byte, string, error) {
	client, err := f.lookupClient(ctx, clientUUID)
	if err != nil {
		return nil, "", err
	}

	apiKey, err := f.decryptedAPIKey(ctx, client.ID)
	if err != nil {
		return nil, "", err
	}

	status := models.CampaignStatusSent
	campaigns, err := f.campaignRepo.ByFilter(ctx, models.CampaignFilter{ClientID: &client.ID, Status: &status}, "created_at DESC", 1000, 0)
	if err != nil {
		return nil, "", NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to list campaigns", err)
	}

	type exportRow struct {
		campaignName string
		countryCode  string
		externalID   string
		sentAt       string
	}
	var rows []exportRow
	var ids []string
	for _, campaign := range campaigns {
		sentAt := ""
		if campaign.SentAt != nil {
			sentAt = campaign.SentAt.Format(time.RFC3339)
		}
		for _, target := range campaign.Targets {
			if !target.IsPublished() {
				continue
			}
			rows = append(rows, exportRow{
				campaignName: campaign.Name,
				countryCode:  target.CountryCode,
				externalID:   *target.ExternalID,
				sentAt:       sentAt,
			})
			ids = append(ids, *target.ExternalID)
		}
	}

	metricsByID := make(map[string]services.NewsletterMetrics)
	if len(ids) > 0 {
		metricsByID, err = f.squalomail.FetchReportMetrics(ctx, apiKey, utils.Dedupe(ids))
		if err != nil {
			return nil, "", NewBusinessError("METRICS_FETCH_FAILED", "Metrics could not be fetched from provider", ErrMetricsFetchFailed)
		}
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	header := []string{"campaign", "country", "newsletter_id", "sent_at", "sent_total", "open_total", "click_total", "open_rate", "click_rate"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, row := range rows {
		cells := []any{row.campaignName, row.countryCode, row.externalID, row.sentAt, "", "", "", "", ""}
		if m, ok := metricsByID[row.externalID]; ok {
			entry := toMetricsDTO(m)
			cells[4] = entry.SentTotal
			cells[5] = entry.OpenTotal
			cells[6] = entry.ClickTotal
			cells[7] = entry.OpenRate
			cells[8] = entry.ClickRate
		}
		_ = xl.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &cells)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, "", NewBusinessError("METRICS_EXPORT_FAILED", "Failed to build metrics workbook", err)
	}

	filename := fmt.Sprintf("metrics_%s_%s.xlsx", client.UUID.String(), utils.UTCNow().Format("20060102"))
	return buf.Bytes(), filename, nil
}

// SyncCampaignStatistics refreshes the cached statistics of campaigns sent
// within the lookback window. A failing client does not stop the sweep.
func (f *MetricsFlowImpl) SyncCampaignStatistics(ctx context.Context, lookback time.Duration) error {
	campaigns, err := f.campaignRepo.ListSentSince(ctx, utils.UTCNow().Add(-lookback))
	if err != nil {
		return fmt.Errorf("failed to list sent campaigns: %w", err)
	}
	if len(campaigns) == 0 {
		return nil
	}

	campaignIDs := make([]uint, 0, len(campaigns))
	for _, campaign := range campaigns {
		campaignIDs = append(campaignIDs, campaign.ID)
	}
	externalIDs, err := f.targetRepo.ExternalIDsByCampaigns(ctx, campaignIDs)
	if err != nil {
		return fmt.Errorf("failed to load published targets: %w", err)
	}

	apiKeys := make(map[uint]string)
	for _, campaign := range campaigns {
		apiKey, ok := apiKeys[campaign.ClientID]
		if !ok {
			apiKey, err = f.decryptedAPIKeyByClientID(ctx, campaign.ClientID)
			if err != nil {
				log.Printf("statistics sync: skipping client %d: %v", campaign.ClientID, err)
				apiKeys[campaign.ClientID] = ""
				continue
			}
			apiKeys[campaign.ClientID] = apiKey
		}
		if apiKey == "" {
			continue
		}

		ids := externalIDs[campaign.ID]
		if len(ids) == 0 {
			continue
		}

		fetched, err := f.squalomail.FetchReportMetrics(ctx, apiKey, ids)
		if err != nil {
			log.Printf("statistics sync: metrics fetch failed for campaign %d: %v", campaign.ID, err)
			continue
		}

		var stats models.CampaignStatistics
		for _, m := range fetched {
			stats.SentTotal += m.SentTotal
			stats.OpenTotal += m.OpenTotal
			stats.ClickTotal += m.ClickTotal
		}
		if stats.SentTotal > 0 {
			stats.OpenRate = float64(stats.OpenTotal) / float64(stats.SentTotal)
			stats.ClickRate = float64(stats.ClickTotal) / float64(stats.SentTotal)
		}

		if err := f.campaignRepo.UpdateStatistics(ctx, campaign.ID, stats, utils.UTCNow()); err != nil {
			log.Printf("statistics sync: failed to save statistics for campaign %d: %v", campaign.ID, err)
		}
	}

	return nil
}

func (f *MetricsFlowImpl) lookupClient(ctx context.Context, clientUUID string) (*models.Client, error) {
	client, err := f.clientRepo.ByUUID(ctx, clientUUID)
	if err != nil {
		return nil, NewBusinessError("CLIENT_LOOKUP_FAILED", "Failed to lookup client", err)
	}
	if client == nil {
		return nil, NewBusinessError("CLIENT_NOT_FOUND", "Client not found", ErrClientNotFound)
	}
	return client, nil
}

func (f *MetricsFlowImpl) decryptedAPIKey(ctx context.Context, clientID uint) (string, error) {
	apiKey, err := f.decryptedAPIKeyByClientID(ctx, clientID)
	if err != nil {
		if IsCredentialDecryptionFailed(err) {
			return "", NewBusinessError("CREDENTIAL_DECRYPTION_FAILED", "Stored credentials could not be decrypted", err)
		}
		return "", NewBusinessError("INTEGRATION_NOT_CONNECTED", "Integration is not connected", err)
	}
	return apiKey, nil
}

func (f *MetricsFlowImpl) decryptedAPIKeyByClientID(ctx context.Context, clientID uint) (string, error) {
	integration, err := f.integrationRepo.ByClientAndProvider(ctx, clientID, utils.ProviderSqualoMail)
	if err != nil {
		return "", err
	}
	if integration == nil || !integration.IsConnected() {
		return "", ErrIntegrationNotConnected
	}
	apiKey, err := f.cipher.Decrypt(*integration.EncryptedCredentials)
	if err != nil {
		return "", ErrCredentialDecryptionFailed
	}
	return apiKey, nil
}

func (f *MetricsFlowImpl) cachedMetrics(ctx context.Context, newsletterID string) (*dto.NewsletterMetricsDTO, bool) {
	if f.rc == nil {
		return nil, false
	}
	bs, err := f.rc.Get(ctx, utils.MetricsCacheKeyPrefix+newsletterID).Bytes()
	if err != nil || len(bs) == 0 {
		return nil, false
	}
	var entry dto.NewsletterMetricsDTO
	if err := json.Unmarshal(bs, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func (f *MetricsFlowImpl) cacheMetrics(ctx context.Context, newsletterID string, entry dto.NewsletterMetricsDTO) {
	if f.rc == nil {
		return
	}
	if bs, err := json.Marshal(entry); err == nil {
		_ = f.rc.Set(ctx, utils.MetricsCacheKeyPrefix+newsletterID, bs, utils.MetricsCacheTTL).Err()
	}
}

// toMetricsDTO computes rates from raw ESP counters, never dividing by zero
func toMetricsDTO(m services.NewsletterMetrics) dto.NewsletterMetricsDTO {
	entry := dto.NewsletterMetricsDTO{
		SentTotal:  m.SentTotal,
		OpenTotal:  m.OpenTotal,
		ClickTotal: m.ClickTotal,
	}
	if m.SentTotal > 0 {
		entry.OpenRate = float64(m.OpenTotal) / float64(m.SentTotal)
		entry.ClickRate = float64(m.ClickTotal) / float64(m.SentTotal)
	}
	return entry
}
