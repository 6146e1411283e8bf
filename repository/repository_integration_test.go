package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templaito/templaito/models"
	apptesting "github.com/templaito/templaito/testing"
	"github.com/templaito/templaito/utils"
)

// setupRepoTest provisions a throwaway postgres database. Tests are skipped
// when no server is reachable so the suite stays runnable without one.
func setupRepoTest(t *testing.T) (*apptesting.TestDB, *apptesting.TestFixtures) {
	t.Helper()

	testDB, err := apptesting.SetupTestDB()
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() {
		if err := testDB.TeardownTestDB(); err != nil {
			t.Logf("teardown: %v", err)
		}
	})
	return testDB, apptesting.NewTestFixtures(testDB)
}

func TestClientRepository(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	ctx := context.Background()
	repo := NewClientRepository(testDB.DB)

	client, err := fixtures.CreateTestClient("Acme Retail")
	require.NoError(t, err)

	found, err := repo.ByUUID(ctx, client.UUID.String())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Acme Retail", found.Name)
	assert.False(t, utils.IsTrue(found.IsArchived))

	require.NoError(t, repo.SetArchived(ctx, client.ID, true))

	found, err = repo.ByUUID(ctx, client.UUID.String())
	require.NoError(t, err)
	assert.True(t, utils.IsTrue(found.IsArchived))

	missing, err := repo.ByUUID(ctx, "6f9619ff-8b86-4d01-b42d-00c04fc964ff")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPromptTemplateRepositoryDefaults(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	ctx := context.Background()
	repo := NewPromptTemplateRepository(testDB.DB)

	prompt, err := fixtures.CreateTestPromptTemplate(models.DesignEngineClaude, models.PromptTemplateTypeSingleProduct, true)
	require.NoError(t, err)

	def, err := repo.DefaultByType(ctx, models.PromptTemplateTypeSingleProduct)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, prompt.ID, def.ID)

	// Default uniqueness is handled by ClearDefault before the new save.
	require.NoError(t, repo.ClearDefault(ctx, models.PromptTemplateTypeSingleProduct))

	def, err = repo.DefaultByType(ctx, models.PromptTemplateTypeSingleProduct)
	require.NoError(t, err)
	assert.Nil(t, def)

	found, err := repo.ByUUID(ctx, prompt.UUID.String())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, utils.IsTrue(found.IsDefault))
}

func TestCampaignRepositoryLifecycle(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	ctx := context.Background()
	campaignRepo := NewCampaignRepository(testDB.DB)
	targetRepo := NewCampaignCountryTargetRepository(testDB.DB)

	require.NoError(t, fixtures.SeedCountries())
	client, err := fixtures.CreateTestClient("Acme Retail")
	require.NoError(t, err)

	campaign, err := fixtures.CreateTestCampaign(client.ID, models.CampaignStatusSent, "US", "DE")
	require.NoError(t, err)

	found, err := campaignRepo.ByUUID(ctx, campaign.UUID.String())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Big summer sale", found.Spec.Subject)

	sent, err := campaignRepo.ListSentSince(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, campaign.ID, sent[0].ID)

	targets, err := targetRepo.ListByCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	require.Len(t, targets, 2)

	externalIDs, err := targetRepo.ExternalIDsByCampaigns(ctx, []uint{campaign.ID})
	require.NoError(t, err)
	assert.Len(t, externalIDs[campaign.ID], 2)

	syncedAt := time.Now().UTC()
	stats := models.CampaignStatistics{SentTotal: 200, OpenTotal: 50, ClickTotal: 10, OpenRate: 0.25, ClickRate: 0.05}
	require.NoError(t, campaignRepo.UpdateStatistics(ctx, campaign.ID, stats, syncedAt))

	found, err = campaignRepo.ByUUID(ctx, campaign.UUID.String())
	require.NoError(t, err)
	require.NotNil(t, found.Statistics)
	assert.Equal(t, int64(200), found.Statistics.SentTotal)
	assert.InDelta(t, 0.25, found.Statistics.OpenRate, 0.0001)
	require.NotNil(t, found.LastSyncedAt)

	require.NoError(t, campaignRepo.UpdateStatus(ctx, campaign.ID, models.CampaignStatusCancelled))
	found, err = campaignRepo.ByUUID(ctx, campaign.UUID.String())
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusCancelled, found.Status)
}

func TestTemplateGenerationStats(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	ctx := context.Background()
	repo := NewTemplateGenerationRepository(testDB.DB)

	user, err := fixtures.CreateTestUser("maker@example.com")
	require.NoError(t, err)
	prompt, err := fixtures.CreateTestPromptTemplate(models.DesignEngineGPT4O, models.PromptTemplateTypeMultiProduct, false)
	require.NoError(t, err)

	_, err = fixtures.CreateTestGeneration(prompt.ID, user.ID, true, 100)
	require.NoError(t, err)
	_, err = fixtures.CreateTestGeneration(prompt.ID, user.ID, true, 300)
	require.NoError(t, err)
	_, err = fixtures.CreateTestGeneration(prompt.ID, user.ID, false, 200)
	require.NoError(t, err)

	stats, err := repo.StatsByPrompt(ctx, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalRuns)
	assert.Equal(t, int64(2), stats.SuccessfulRuns)
	assert.InDelta(t, 200.0, stats.AvgGenerationMs, 0.0001)
	assert.NotNil(t, stats.LastGenerationAt)
}

func TestClientIntegrationRepository(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	ctx := context.Background()
	repo := NewClientIntegrationRepository(testDB.DB)

	client, err := fixtures.CreateTestClient("Acme Retail")
	require.NoError(t, err)
	_, err = fixtures.CreateTestIntegration(client.ID, "encrypted-blob")
	require.NoError(t, err)

	integration, err := repo.ByClientAndProvider(ctx, client.ID, utils.ProviderSqualoMail)
	require.NoError(t, err)
	require.NotNil(t, integration)
	assert.True(t, integration.IsConnected())
	assert.Len(t, integration.Metadata.Lists, 2)

	integration.Status = models.IntegrationStatusDisconnected
	integration.EncryptedCredentials = nil
	require.NoError(t, repo.Update(ctx, *integration))

	integration, err = repo.ByClientAndProvider(ctx, client.ID, utils.ProviderSqualoMail)
	require.NoError(t, err)
	require.NotNil(t, integration)
	assert.False(t, integration.IsConnected())
	assert.Nil(t, integration.EncryptedCredentials)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	ctx := context.Background()
	repo := NewClientRepository(testDB.DB)

	client, err := fixtures.CreateTestClient("Acme Retail")
	require.NoError(t, err)

	sentinel := assert.AnError
	err = WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
		if err := repo.SetArchived(txCtx, client.ID, true); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	found, err := repo.ByUUID(ctx, client.UUID.String())
	require.NoError(t, err)
	assert.False(t, utils.IsTrue(found.IsArchived))
}
