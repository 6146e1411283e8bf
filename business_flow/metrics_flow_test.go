package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/app/services"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/utils"
)

type metricsFixture struct {
	client          *models.Client
	clientRepo      *mockClientRepo
	campaignRepo    *mockCampaignRepo
	targetRepo      *mockTargetRepo
	integrationRepo *mockIntegrationRepo
	squalomail      *services.MockSqualoMailClient
	cipher          *mockCipher
	flow            *MetricsFlowImpl
}

func newMetricsFixture() *metricsFixture {
	f := &metricsFixture{
		client:          &models.Client{ID: 1, Name: "Acme"},
		campaignRepo:    newMockCampaignRepo(),
		targetRepo:      &mockTargetRepo{},
		integrationRepo: &mockIntegrationRepo{},
		squalomail:      services.NewMockSqualoMailClient(),
		cipher:          &mockCipher{},
	}
	f.clientRepo = newMockClientRepo(f.client)
	f.integrationRepo.integration = &models.ClientIntegration{
		ClientID:             f.client.ID,
		Provider:             utils.ProviderSqualoMail,
		Status:               models.IntegrationStatusConnected,
		EncryptedCredentials: utils.ToPtr("sq-api-key"),
	}
	f.flow = &MetricsFlowImpl{
		clientRepo:      f.clientRepo,
		campaignRepo:    f.campaignRepo,
		targetRepo:      f.targetRepo,
		integrationRepo: f.integrationRepo,
		squalomail:      f.squalomail,
		cipher:          f.cipher,
	}
	return f
}

func TestGetMetrics(t *testing.T) {
	t.Run("untracked newsletters stay absent", func(t *testing.T) {
		f := newMetricsFixture()
		f.squalomail.Metrics["nl-1"] = services.NewsletterMetrics{SentTotal: 100, OpenTotal: 40, ClickTotal: 10}

		resp, err := f.flow.GetMetrics(context.Background(), &dto.GetMetricsRequest{
			ClientUUID:    f.client.UUID.String(),
			NewsletterIDs: []string{"nl-1", "nl-untracked"},
		}, nil)

		require.NoError(t, err)
		require.Contains(t, resp.Metrics, "nl-1")
		assert.NotContains(t, resp.Metrics, "nl-untracked")

		entry := resp.Metrics["nl-1"]
		assert.Equal(t, int64(100), entry.SentTotal)
		assert.InDelta(t, 0.4, entry.OpenRate, 1e-9)
		assert.InDelta(t, 0.1, entry.ClickRate, 1e-9)
	})

	t.Run("zero sent yields zero rates", func(t *testing.T) {
		f := newMetricsFixture()
		f.squalomail.Metrics["nl-1"] = services.NewsletterMetrics{SentTotal: 0, OpenTotal: 0, ClickTotal: 0}

		resp, err := f.flow.GetMetrics(context.Background(), &dto.GetMetricsRequest{
			ClientUUID:    f.client.UUID.String(),
			NewsletterIDs: []string{"nl-1"},
		}, nil)

		require.NoError(t, err)
		entry := resp.Metrics["nl-1"]
		assert.Zero(t, entry.OpenRate)
		assert.Zero(t, entry.ClickRate)
	})

	t.Run("duplicate newsletter ids are fetched once", func(t *testing.T) {
		f := newMetricsFixture()
		_, err := f.flow.GetMetrics(context.Background(), &dto.GetMetricsRequest{
			ClientUUID:    f.client.UUID.String(),
			NewsletterIDs: []string{"nl-1", "nl-1", "nl-2"},
		}, nil)

		require.NoError(t, err)
		require.Len(t, f.squalomail.ReportedIDs, 1)
		assert.ElementsMatch(t, []string{"nl-1", "nl-2"}, f.squalomail.ReportedIDs[0])
	})

	t.Run("disconnected integration", func(t *testing.T) {
		f := newMetricsFixture()
		f.integrationRepo.integration = nil
		_, err := f.flow.GetMetrics(context.Background(), &dto.GetMetricsRequest{
			ClientUUID:    f.client.UUID.String(),
			NewsletterIDs: []string{"nl-1"},
		}, nil)
		assert.True(t, IsIntegrationNotConnected(err))
	})

	t.Run("undecryptable credentials", func(t *testing.T) {
		f := newMetricsFixture()
		f.cipher.decryptErr = ErrCredentialDecryptionFailed
		_, err := f.flow.GetMetrics(context.Background(), &dto.GetMetricsRequest{
			ClientUUID:    f.client.UUID.String(),
			NewsletterIDs: []string{"nl-1"},
		}, nil)
		assert.True(t, IsCredentialDecryptionFailed(err))
	})
}

func TestSyncCampaignStatistics(t *testing.T) {
	f := newMetricsFixture()
	now := time.Now().UTC()
	campaign := &models.Campaign{
		ID:       10,
		ClientID: f.client.ID,
		Status:   models.CampaignStatusSent,
		SentAt:   &now,
		Targets: []models.CampaignCountryTarget{
			{CountryCode: "US", MailingListID: "list-US", ExternalID: utils.ToPtr("nl-us")},
			{CountryCode: "DE", MailingListID: "list-DE", ExternalID: utils.ToPtr("nl-de")},
			{CountryCode: "FR", MailingListID: "list-FR"}, // never published
		},
	}
	f.campaignRepo.sent = []*models.Campaign{campaign}
	// Only the published targets carry an external newsletter ID
	f.targetRepo.externalIDs = map[uint][]string{campaign.ID: {"nl-us", "nl-de"}}
	f.squalomail.Metrics["nl-us"] = services.NewsletterMetrics{SentTotal: 100, OpenTotal: 30, ClickTotal: 5}
	f.squalomail.Metrics["nl-de"] = services.NewsletterMetrics{SentTotal: 100, OpenTotal: 20, ClickTotal: 5}

	err := f.flow.SyncCampaignStatistics(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)

	stats, ok := f.campaignRepo.statsUpdates[campaign.ID]
	require.True(t, ok)
	assert.Equal(t, int64(200), stats.SentTotal)
	assert.Equal(t, int64(50), stats.OpenTotal)
	assert.Equal(t, int64(10), stats.ClickTotal)
	assert.InDelta(t, 0.25, stats.OpenRate, 1e-9)
	assert.InDelta(t, 0.05, stats.ClickRate, 1e-9)

	// Only published targets are queried
	require.Len(t, f.squalomail.ReportedIDs, 1)
	assert.ElementsMatch(t, []string{"nl-us", "nl-de"}, f.squalomail.ReportedIDs[0])
}

func TestSyncCampaignStatisticsSkipsBrokenClients(t *testing.T) {
	f := newMetricsFixture()
	f.cipher.decryptErr = ErrCredentialDecryptionFailed
	now := time.Now().UTC()
	f.campaignRepo.sent = []*models.Campaign{{
		ID:       10,
		ClientID: f.client.ID,
		Status:   models.CampaignStatusSent,
		SentAt:   &now,
		Targets: []models.CampaignCountryTarget{
			{CountryCode: "US", MailingListID: "list-US", ExternalID: utils.ToPtr("nl-us")},
		},
	}}
	f.targetRepo.externalIDs = map[uint][]string{10: {"nl-us"}}

	// The sweep itself succeeds, the broken client is skipped
	err := f.flow.SyncCampaignStatistics(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, f.campaignRepo.statsUpdates)
	assert.Empty(t, f.squalomail.ReportedIDs)
}
