// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/app/services"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/repository"
	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

var newslettersPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "newsletters_published_total",
		Help: "Total number of per-country newsletter publish attempts",
	},
	[]string{"result"},
)

// CampaignFlow handles publishing, listing and cancelling campaigns
type CampaignFlow interface {
	PublishCampaign(ctx context.Context, req *dto.PublishCampaignRequest, metadata *ClientMetadata) (*dto.PublishCampaignResponse, error)
	ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, metadata *ClientMetadata) (*dto.ListCampaignsResponse, error)
	GetCampaign(ctx context.Context, clientUUID, campaignUUID string) (*dto.GetCampaignResponse, error)
	CancelCampaign(ctx context.Context, req *dto.CancelCampaignRequest, metadata *ClientMetadata) (*dto.CancelCampaignResponse, error)
}

// CampaignFlowImpl implements the campaign business flow
type CampaignFlowImpl struct {
	clientRepo      repository.ClientRepository
	campaignRepo    repository.CampaignRepository
	targetRepo      repository.CampaignCountryTargetRepository
	configRepo      repository.ClientCountryConfigRepository
	integrationRepo repository.ClientIntegrationRepository
	squalomail      services.SqualoMailAPI
	cipher          services.CredentialCipher
	db              *gorm.DB
}

// NewCampaignFlow creates a new campaign flow instance
func NewCampaignFlow(
	clientRepo repository.ClientRepository,
	campaignRepo repository.CampaignRepository,
	targetRepo repository.CampaignCountryTargetRepository,
	configRepo repository.ClientCountryConfigRepository,
	integrationRepo repository.ClientIntegrationRepository,
	squalomail services.SqualoMailAPI,
	cipher services.CredentialCipher,
	db *gorm.DB,
) CampaignFlow {
	return &CampaignFlowImpl{
		clientRepo:      clientRepo,
		campaignRepo:    campaignRepo,
		targetRepo:      targetRepo,
		configRepo:      configRepo,
		integrationRepo: integrationRepo,
		squalomail:      squalomail,
		cipher:          cipher,
		db:              db,
	}
}

// countryPublishOutcome is one country's result from the ESP fan-out
type countryPublishOutcome struct {
	CountryCode   string
	MailingListID string
	ExternalID    string
	Err           error
}

// PublishCampaign localizes the canonical template per eligible country,
// creates one ESP newsletter per country, and persists the campaign with one
// target per successfully published country. A failing country does not abort
// the others.
func (f *CampaignFlowImpl) PublishCampaign(ctx context.Context, req *dto.PublishCampaignRequest, metadata *ClientMetadata) (*dto.PublishCampaignResponse, error) {
	client, err := f.lookupClient(ctx, req.ClientUUID)
	if err != nil {
		return nil, err
	}

	integration, err := f.integrationRepo.ByClientAndProvider(ctx, client.ID, utils.ProviderSqualoMail)
	if err != nil {
		return nil, NewBusinessError("INTEGRATION_LOOKUP_FAILED", "Failed to lookup integration", err)
	}
	if integration == nil || !integration.IsConnected() {
		return nil, NewBusinessError("INTEGRATION_NOT_CONNECTED", "Integration is not connected", ErrIntegrationNotConnected)
	}

	apiKey, err := f.cipher.Decrypt(*integration.EncryptedCredentials)
	if err != nil {
		return nil, NewBusinessError("CREDENTIAL_DECRYPTION_FAILED", "Stored credentials could not be decrypted", ErrCredentialDecryptionFailed)
	}

	countryResults := make(map[string]models.CountryScrapeResult, len(req.CountryResults))
	for code, d := range req.CountryResults {
		countryResults[code] = FromCountryScrapeResultDTO(d)
	}
	baseResult, ok := countryResults[req.BaseCountry]
	if !ok || baseResult.IsEmpty() {
		return nil, NewBusinessError("BASE_COUNTRY_MISSING", "Base country has no scrape result", ErrBaseCountryMissing)
	}
	baseProducts := baseResult.Products()

	canonicalHTML := ApplyImageOverrides(req.EmailTemplate.HTML, baseProducts, req.ImageOverrides)

	configs, err := f.configRepo.ListByClient(ctx, client.ID)
	if err != nil {
		return nil, NewBusinessError("COUNTRY_CONFIG_LOOKUP_FAILED", "Failed to load country configs", err)
	}
	configByCountry := make(map[string]*models.ClientCountryConfig, len(configs))
	for _, cfg := range configs {
		configByCountry[cfg.CountryCode] = cfg
	}

	// Eligible countries only. The others are skipped silently and simply
	// produce no target.
	var eligible []string
	for code := range countryResults {
		if cfg, ok := configByCountry[code]; ok && cfg.IsPublishable() {
			eligible = append(eligible, code)
		}
	}
	if len(eligible) == 0 {
		return nil, NewBusinessError("NO_PUBLISHABLE_COUNTRY", "No country is eligible for publishing", ErrNoPublishableCountry)
	}

	outcomes := f.publishCountries(ctx, apiKey, canonicalHTML, baseProducts, countryResults, configByCountry, integration.Metadata.UTMMedium, eligible, req)

	var succeeded []countryPublishOutcome
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			succeeded = append(succeeded, outcome)
		}
	}

	now := utils.UTCNow()
	campaign := &models.Campaign{
		ClientID:    client.ID,
		Name:        req.Name,
		Description: req.Description,
		Spec: models.CampaignSpec{
			Subject:     req.Subject,
			Preheader:   req.Preheader,
			BaseCountry: req.BaseCountry,
			HTML:        canonicalHTML,
			ScheduleAt:  req.SendDate,
		},
	}
	switch {
	case len(succeeded) == 0:
		campaign.Status = models.CampaignStatusFailed
	case req.SendDate != nil:
		campaign.Status = models.CampaignStatusScheduled
		campaign.ScheduledAt = req.SendDate
	default:
		campaign.Status = models.CampaignStatusSent
		campaign.SentAt = &now
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.campaignRepo.Save(txCtx, campaign); err != nil {
			return err
		}
		targets := make([]*models.CampaignCountryTarget, 0, len(succeeded))
		for _, outcome := range succeeded {
			externalID := outcome.ExternalID
			targets = append(targets, &models.CampaignCountryTarget{
				CampaignID:    campaign.ID,
				CountryCode:   outcome.CountryCode,
				MailingListID: outcome.MailingListID,
				ExternalID:    &externalID,
			})
		}
		if len(targets) > 0 {
			return f.targetRepo.SaveBatch(txCtx, targets)
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_SAVE_FAILED", "Failed to persist campaign", err)
	}

	response := &dto.PublishCampaignResponse{
		Message:      "Campaign published",
		CampaignUUID: campaign.UUID.String(),
		Status:       campaign.Status.String(),
	}
	for _, outcome := range outcomes {
		result := dto.CountryPublishResultDTO{CountryCode: outcome.CountryCode}
		if outcome.Err != nil {
			result.Error = utils.ToPtr(outcome.Err.Error())
		} else {
			result.ExternalID = utils.ToPtr(outcome.ExternalID)
		}
		response.PerCountryResult = append(response.PerCountryResult, result)
	}
	return response, nil
}

// publishCountries fans out one goroutine per eligible country
func (f *CampaignFlowImpl) publishCountries(
	ctx context.Context,
	apiKey string,
	canonicalHTML string,
	baseProducts []models.ProductInfo,
	countryResults map[string]models.CountryScrapeResult,
	configByCountry map[string]*models.ClientCountryConfig,
	utmMedium *string,
	eligible []string,
	req *dto.PublishCampaignRequest,
) []countryPublishOutcome {
	var wg sync.WaitGroup
	outcomes := make([]countryPublishOutcome, len(eligible))

	for i, code := range eligible {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()

			cfg := configByCountry[code]
			result := countryResults[code]

			html := LocalizeHTML(canonicalHTML, baseProducts, result.Products(), req.ImageOverrides)
			if utmMedium != nil && *utmMedium != "" {
				html = AppendUTMParams(html, *utmMedium, code)
			}

			input := services.CreateNewsletterInput{
				Subject:  req.Subject,
				HTML:     html,
				ListID:   *cfg.MailingListID,
				SendDate: req.SendDate,
			}
			if req.Preheader != nil {
				input.Preheader = *req.Preheader
			}
			if cfg.SenderEmail != nil {
				input.SenderEmail = *cfg.SenderEmail
			}
			if cfg.SenderName != nil {
				input.SenderName = *cfg.SenderName
			}

			externalID, err := f.squalomail.CreateNewsletter(ctx, apiKey, input)
			if err != nil {
				newslettersPublishedTotal.WithLabelValues("failure").Inc()
			} else {
				newslettersPublishedTotal.WithLabelValues("success").Inc()
			}
			outcomes[i] = countryPublishOutcome{
				CountryCode:   code,
				MailingListID: *cfg.MailingListID,
				ExternalID:    externalID,
				Err:           err,
			}
		}(i, code)
	}

	wg.Wait()
	return outcomes
}

// ListCampaigns returns the client's campaigns, newest first
func (f *CampaignFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, metadata *ClientMetadata) (*dto.ListCampaignsResponse, error) {
	client, err := f.lookupClient(ctx, req.ClientUUID)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := models.CampaignFilter{ClientID: &client.ID}
	if req.Status != nil {
		status := models.CampaignStatus(*req.Status)
		filter.Status = &status
	}
	if req.Name != nil {
		filter.Name = req.Name
	}

	campaigns, err := f.campaignRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to list campaigns", err)
	}
	total, err := f.campaignRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_COUNT_FAILED", "Failed to count campaigns", err)
	}

	response := &dto.ListCampaignsResponse{
		Message:   "Campaigns retrieved successfully",
		Campaigns: make([]dto.CampaignDTO, 0, len(campaigns)),
		Total:     total,
		Page:      page,
	}
	for _, campaign := range campaigns {
		response.Campaigns = append(response.Campaigns, ToCampaignDTO(*campaign))
	}
	return response, nil
}

// GetCampaign returns one campaign with its per-country targets
func (f *CampaignFlowImpl) GetCampaign(ctx context.Context, clientUUID, campaignUUID string) (*dto.GetCampaignResponse, error) {
	_, campaign, err := f.ownedCampaign(ctx, clientUUID, campaignUUID)
	if err != nil {
		return nil, err
	}
	return &dto.GetCampaignResponse{
		Message:  "Campaign retrieved successfully",
		Campaign: ToCampaignDTO(*campaign),
	}, nil
}

// CancelCampaign moves a DRAFT or SCHEDULED campaign to CANCELLED
func (f *CampaignFlowImpl) CancelCampaign(ctx context.Context, req *dto.CancelCampaignRequest, metadata *ClientMetadata) (*dto.CancelCampaignResponse, error) {
	_, campaign, err := f.ownedCampaign(ctx, req.ClientUUID, req.CampaignUUID)
	if err != nil {
		return nil, err
	}

	if !campaign.IsCancellable() {
		return nil, NewBusinessError("CAMPAIGN_NOT_CANCELLABLE",
			fmt.Sprintf("Campaign in status %s can no longer be cancelled", campaign.Status), ErrCampaignNotCancellable)
	}

	if err := f.campaignRepo.UpdateStatus(ctx, campaign.ID, models.CampaignStatusCancelled); err != nil {
		return nil, NewBusinessError("CAMPAIGN_SAVE_FAILED", "Failed to cancel campaign", err)
	}

	return &dto.CancelCampaignResponse{
		Message: "Campaign cancelled successfully",
		Status:  models.CampaignStatusCancelled.String(),
	}, nil
}

func (f *CampaignFlowImpl) lookupClient(ctx context.Context, clientUUID string) (*models.Client, error) {
	client, err := f.clientRepo.ByUUID(ctx, clientUUID)
	if err != nil {
		return nil, NewBusinessError("CLIENT_LOOKUP_FAILED", "Failed to lookup client", err)
	}
	if client == nil {
		return nil, NewBusinessError("CLIENT_NOT_FOUND", "Client not found", ErrClientNotFound)
	}
	return client, nil
}

func (f *CampaignFlowImpl) ownedCampaign(ctx context.Context, clientUUID, campaignUUID string) (*models.Client, *models.Campaign, error) {
	client, err := f.lookupClient(ctx, clientUUID)
	if err != nil {
		return nil, nil, err
	}
	campaign, err := f.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}
	if campaign.ClientID != client.ID {
		return nil, nil, NewBusinessError("CAMPAIGN_ACCESS_DENIED", "Campaign access denied", ErrCampaignAccessDenied)
	}
	return client, campaign, nil
}
