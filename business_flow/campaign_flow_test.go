package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/app/services"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/utils"
)

type campaignFixture struct {
	client          *models.Client
	clientRepo      *mockClientRepo
	campaignRepo    *mockCampaignRepo
	targetRepo      *mockTargetRepo
	configRepo      *mockConfigRepo
	integrationRepo *mockIntegrationRepo
	squalomail      *services.MockSqualoMailClient
	cipher          *mockCipher
	flow            *CampaignFlowImpl
}

func newCampaignFixture() *campaignFixture {
	f := &campaignFixture{
		client:          &models.Client{ID: 1, Name: "Acme"},
		campaignRepo:    newMockCampaignRepo(),
		targetRepo:      &mockTargetRepo{},
		configRepo:      &mockConfigRepo{},
		integrationRepo: &mockIntegrationRepo{},
		squalomail:      services.NewMockSqualoMailClient(),
		cipher:          &mockCipher{},
	}
	f.clientRepo = newMockClientRepo(f.client)
	f.flow = &CampaignFlowImpl{
		clientRepo:      f.clientRepo,
		campaignRepo:    f.campaignRepo,
		targetRepo:      f.targetRepo,
		configRepo:      f.configRepo,
		integrationRepo: f.integrationRepo,
		squalomail:      f.squalomail,
		cipher:          f.cipher,
	}
	return f
}

func (f *campaignFixture) connectIntegration() {
	f.integrationRepo.integration = &models.ClientIntegration{
		ClientID:             f.client.ID,
		Provider:             utils.ProviderSqualoMail,
		Status:               models.IntegrationStatusConnected,
		EncryptedCredentials: utils.ToPtr("sq-api-key"),
	}
}

func (f *campaignFixture) publishableConfig(countryCode string) *models.ClientCountryConfig {
	cfg := &models.ClientCountryConfig{
		ClientID:      f.client.ID,
		CountryCode:   countryCode,
		IsActive:      utils.ToPtr(true),
		MailingListID: utils.ToPtr("list-" + countryCode),
		SenderEmail:   utils.ToPtr("news@example.com"),
		SenderName:    utils.ToPtr("Example News"),
	}
	f.configRepo.configs = append(f.configRepo.configs, cfg)
	return cfg
}

func singleResultDTO(url, image, price string) dto.CountryScrapeResultDTO {
	return dto.CountryScrapeResultDTO{
		Type: "SINGLE",
		URLs: []string{url},
		Products: []dto.ProductInfoDTO{{
			Title:        "Mixer X",
			BestImageURL: image,
			SourceURL:    url,
			SalePrice:    price,
		}},
	}
}

func publishRequest(f *campaignFixture) *dto.PublishCampaignRequest {
	return &dto.PublishCampaignRequest{
		ClientUUID:  f.client.UUID.String(),
		Name:        "Summer sale",
		Subject:     "Big summer sale",
		BaseCountry: "US",
		EmailTemplate: dto.EmailTemplateDTO{
			Subject: "Big summer sale",
			HTML:    `<img src="https://img.example.com/us.jpg"><a href="https://shop.example.com/us">$49.99</a>`,
		},
		CountryResults: map[string]dto.CountryScrapeResultDTO{
			"US": singleResultDTO("https://shop.example.com/us", "https://img.example.com/us.jpg", "$49.99"),
			"DE": singleResultDTO("https://shop.example.de/de", "https://img.example.com/de.jpg", "49,99 EUR"),
		},
	}
}

func TestPublishCampaignIntegrationChecks(t *testing.T) {
	t.Run("client not found", func(t *testing.T) {
		f := newCampaignFixture()
		req := publishRequest(f)
		req.ClientUUID = "6f9619ff-8b86-4d01-b42d-00c04fc964ff"
		_, err := f.flow.PublishCampaign(context.Background(), req, nil)
		assert.True(t, IsClientNotFound(err))
	})

	t.Run("integration not connected", func(t *testing.T) {
		f := newCampaignFixture()
		_, err := f.flow.PublishCampaign(context.Background(), publishRequest(f), nil)
		assert.True(t, IsIntegrationNotConnected(err))
	})

	t.Run("disconnected integration row is not usable", func(t *testing.T) {
		f := newCampaignFixture()
		f.connectIntegration()
		f.integrationRepo.integration.Status = models.IntegrationStatusDisconnected
		_, err := f.flow.PublishCampaign(context.Background(), publishRequest(f), nil)
		assert.True(t, IsIntegrationNotConnected(err))
	})

	t.Run("credential decryption failure", func(t *testing.T) {
		f := newCampaignFixture()
		f.connectIntegration()
		f.cipher.decryptErr = errors.New("bad ciphertext")
		_, err := f.flow.PublishCampaign(context.Background(), publishRequest(f), nil)
		assert.True(t, IsCredentialDecryptionFailed(err))
	})
}

func TestPublishCampaignEligibility(t *testing.T) {
	t.Run("base country without scrape data", func(t *testing.T) {
		f := newCampaignFixture()
		f.connectIntegration()
		req := publishRequest(f)
		req.BaseCountry = "FR"
		_, err := f.flow.PublishCampaign(context.Background(), req, nil)
		assert.True(t, IsBaseCountryMissing(err))
	})

	t.Run("no publishable country", func(t *testing.T) {
		f := newCampaignFixture()
		f.connectIntegration()
		// Config exists but is inactive and unbound
		f.configRepo.configs = append(f.configRepo.configs, &models.ClientCountryConfig{
			ClientID:    f.client.ID,
			CountryCode: "US",
			IsActive:    utils.ToPtr(false),
		})
		_, err := f.flow.PublishCampaign(context.Background(), publishRequest(f), nil)
		assert.True(t, IsNoPublishableCountry(err))
	})
}

func TestPublishCountriesPartialSuccess(t *testing.T) {
	f := newCampaignFixture()
	f.connectIntegration()
	usConfig := f.publishableConfig("US")
	deConfig := f.publishableConfig("DE")
	f.squalomail.CreateErr["list-DE"] = errors.New("list is locked")

	req := publishRequest(f)
	countryResults := map[string]models.CountryScrapeResult{
		"US": FromCountryScrapeResultDTO(req.CountryResults["US"]),
		"DE": FromCountryScrapeResultDTO(req.CountryResults["DE"]),
	}
	configByCountry := map[string]*models.ClientCountryConfig{"US": usConfig, "DE": deConfig}
	baseResult := countryResults["US"]
	baseProducts := baseResult.Products()

	outcomes := f.flow.publishCountries(context.Background(), "sq-api-key", req.EmailTemplate.HTML,
		baseProducts, countryResults, configByCountry, utils.ToPtr("email"), []string{"US", "DE"}, req)

	require.Len(t, outcomes, 2)
	byCountry := map[string]countryPublishOutcome{}
	for _, o := range outcomes {
		byCountry[o.CountryCode] = o
	}

	assert.NoError(t, byCountry["US"].Err)
	assert.NotEmpty(t, byCountry["US"].ExternalID)
	assert.Error(t, byCountry["DE"].Err)
	assert.Empty(t, byCountry["DE"].ExternalID)

	// Only the US newsletter reached the ESP, localized for its own country
	require.Len(t, f.squalomail.Created, 1)
	created := f.squalomail.Created[0]
	assert.Equal(t, "list-US", created.ListID)
	assert.Equal(t, "Big summer sale", created.Subject)
	assert.Equal(t, "news@example.com", created.SenderEmail)
	assert.Contains(t, created.HTML, "utm_medium=email")
	assert.Contains(t, created.HTML, "utm_source=US")
}

func TestPublishCountriesLocalizesTargetCountry(t *testing.T) {
	f := newCampaignFixture()
	f.connectIntegration()
	deConfig := f.publishableConfig("DE")

	req := publishRequest(f)
	countryResults := map[string]models.CountryScrapeResult{
		"US": FromCountryScrapeResultDTO(req.CountryResults["US"]),
		"DE": FromCountryScrapeResultDTO(req.CountryResults["DE"]),
	}
	baseResult := countryResults["US"]
	baseProducts := baseResult.Products()

	f.flow.publishCountries(context.Background(), "sq-api-key", req.EmailTemplate.HTML,
		baseProducts, countryResults, map[string]*models.ClientCountryConfig{"DE": deConfig},
		nil, []string{"DE"}, req)

	require.Len(t, f.squalomail.Created, 1)
	html := f.squalomail.Created[0].HTML
	assert.Contains(t, html, "https://img.example.com/de.jpg")
	assert.Contains(t, html, "https://shop.example.de/de")
	assert.Contains(t, html, "49,99 EUR")
	assert.NotContains(t, html, "$49.99")
}

func TestPublishCountriesAppliesOverridesPerCountry(t *testing.T) {
	f := newCampaignFixture()
	f.connectIntegration()
	usConfig := f.publishableConfig("US")
	deConfig := f.publishableConfig("DE")

	us := singleResultDTO("https://shop.example.com/us", "https://img.example.com/us-best.jpg", "$49.99")
	us.Products[0].Images = []string{"https://img.example.com/us-best.jpg", "https://img.example.com/us-alt.jpg"}
	de := singleResultDTO("https://shop.example.de/de", "https://img.example.com/de-best.jpg", "49,99 EUR")
	de.Products[0].Images = []string{"https://img.example.com/de-best.jpg", "https://img.example.com/de-alt.jpg"}

	req := publishRequest(f)
	req.CountryResults = map[string]dto.CountryScrapeResultDTO{"US": us, "DE": de}
	req.EmailTemplate.HTML = `<img src="https://img.example.com/us-best.jpg">`
	req.ImageOverrides = map[int]int{0: 1}

	countryResults := map[string]models.CountryScrapeResult{
		"US": FromCountryScrapeResultDTO(us),
		"DE": FromCountryScrapeResultDTO(de),
	}
	baseResult := countryResults["US"]
	baseProducts := baseResult.Products()
	canonicalHTML := ApplyImageOverrides(req.EmailTemplate.HTML, baseProducts, req.ImageOverrides)

	f.flow.publishCountries(context.Background(), "sq-api-key", canonicalHTML,
		baseProducts, countryResults, map[string]*models.ClientCountryConfig{"US": usConfig, "DE": deConfig},
		nil, []string{"US", "DE"}, req)

	require.Len(t, f.squalomail.Created, 2)
	htmlByList := map[string]string{}
	for _, created := range f.squalomail.Created {
		htmlByList[created.ListID] = created.HTML
	}
	assert.Contains(t, htmlByList["list-US"], "https://img.example.com/us-alt.jpg")
	assert.Contains(t, htmlByList["list-DE"], "https://img.example.com/de-alt.jpg")
	assert.NotContains(t, htmlByList["list-DE"], "us-alt.jpg")
}

func TestGetCampaign(t *testing.T) {
	f := newCampaignFixture()
	campaign := &models.Campaign{
		ID:       10,
		ClientID: f.client.ID,
		Name:     "Sent campaign",
		Status:   models.CampaignStatusSent,
		Targets: []models.CampaignCountryTarget{
			{CountryCode: "US", MailingListID: "list-US", ExternalID: utils.ToPtr("nl-1")},
		},
	}
	f.campaignRepo = newMockCampaignRepo(campaign)
	f.flow.campaignRepo = f.campaignRepo

	resp, err := f.flow.GetCampaign(context.Background(), f.client.UUID.String(), campaign.UUID.String())
	require.NoError(t, err)
	assert.Equal(t, "Sent campaign", resp.Campaign.Name)
	require.Len(t, resp.Campaign.Targets, 1)
	assert.Equal(t, "US", resp.Campaign.Targets[0].CountryCode)
}

func TestCancelCampaign(t *testing.T) {
	setup := func(status models.CampaignStatus) (*campaignFixture, *models.Campaign) {
		f := newCampaignFixture()
		campaign := &models.Campaign{ID: 10, ClientID: f.client.ID, Status: status}
		f.campaignRepo = newMockCampaignRepo(campaign)
		f.flow.campaignRepo = f.campaignRepo
		return f, campaign
	}

	t.Run("draft campaign is cancellable", func(t *testing.T) {
		f, campaign := setup(models.CampaignStatusDraft)
		resp, err := f.flow.CancelCampaign(context.Background(), &dto.CancelCampaignRequest{
			ClientUUID:   f.client.UUID.String(),
			CampaignUUID: campaign.UUID.String(),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", resp.Status)
		assert.Equal(t, models.CampaignStatusCancelled, f.campaignRepo.statusUpdates[campaign.ID])
	})

	t.Run("sent campaign is not cancellable", func(t *testing.T) {
		f, campaign := setup(models.CampaignStatusSent)
		_, err := f.flow.CancelCampaign(context.Background(), &dto.CancelCampaignRequest{
			ClientUUID:   f.client.UUID.String(),
			CampaignUUID: campaign.UUID.String(),
		}, nil)
		assert.True(t, IsCampaignNotCancellable(err))
	})

	t.Run("campaign of another client is hidden", func(t *testing.T) {
		f, campaign := setup(models.CampaignStatusDraft)
		campaign.ClientID = 99
		_, err := f.flow.CancelCampaign(context.Background(), &dto.CancelCampaignRequest{
			ClientUUID:   f.client.UUID.String(),
			CampaignUUID: campaign.UUID.String(),
		}, nil)
		assert.True(t, IsCampaignAccessDenied(err))
	})

	t.Run("unknown campaign", func(t *testing.T) {
		f, _ := setup(models.CampaignStatusDraft)
		_, err := f.flow.CancelCampaign(context.Background(), &dto.CancelCampaignRequest{
			ClientUUID:   f.client.UUID.String(),
			CampaignUUID: "6f9619ff-8b86-4d01-b42d-00c04fc964ff",
		}, nil)
		assert.True(t, IsCampaignNotFound(err))
	})
}
