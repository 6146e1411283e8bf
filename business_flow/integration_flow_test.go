package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/app/services"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/utils"
)

type integrationFixture struct {
	client          *models.Client
	clientRepo      *mockClientRepo
	integrationRepo *mockIntegrationRepo
	squalomail      *services.MockSqualoMailClient
	cipher          *mockCipher
	flow            IntegrationFlow
}

func newIntegrationFixture() *integrationFixture {
	f := &integrationFixture{
		client:          &models.Client{ID: 1, Name: "Acme"},
		integrationRepo: &mockIntegrationRepo{},
		squalomail:      services.NewMockSqualoMailClient(),
		cipher:          &mockCipher{},
	}
	f.clientRepo = newMockClientRepo(f.client)
	f.squalomail.Lists = []models.MailingList{
		{ID: "list-US", Name: "Newsletter US", Subscribers: 1200},
	}
	f.flow = NewIntegrationFlow(f.clientRepo, f.integrationRepo, f.squalomail, f.cipher, nil)
	return f
}

func TestConnectIntegration(t *testing.T) {
	t.Run("validates then stores the encrypted key", func(t *testing.T) {
		f := newIntegrationFixture()
		resp, err := f.flow.Connect(context.Background(), &dto.ConnectIntegrationRequest{
			ClientUUID: f.client.UUID.String(),
			APIKey:     "sq-raw-key",
			UTMMedium:  utils.ToPtr("email"),
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"sq-raw-key"}, f.squalomail.ValidatedKeys)
		assert.Equal(t, "CONNECTED", resp.Integration.Status)
		assert.Equal(t, utils.ProviderSqualoMail, resp.Integration.Provider)
		require.Len(t, resp.Integration.Lists, 1)
		assert.Equal(t, "list-US", resp.Integration.Lists[0].ID)

		require.NotNil(t, f.integrationRepo.integration)
		require.NotNil(t, f.integrationRepo.integration.EncryptedCredentials)
		// The identity cipher makes the stored value observable
		assert.Equal(t, "sq-raw-key", *f.integrationRepo.integration.EncryptedCredentials)
	})

	t.Run("rejected key stores nothing", func(t *testing.T) {
		f := newIntegrationFixture()
		f.squalomail.ValidateErr = errors.New("401")

		_, err := f.flow.Connect(context.Background(), &dto.ConnectIntegrationRequest{
			ClientUUID: f.client.UUID.String(),
			APIKey:     "bad-key",
		}, nil)

		assert.True(t, IsIntegrationValidationFailed(err))
		assert.Nil(t, f.integrationRepo.integration)
	})

	t.Run("list fetch failure stores nothing", func(t *testing.T) {
		f := newIntegrationFixture()
		f.squalomail.FetchListsErr = errors.New("timeout")

		_, err := f.flow.Connect(context.Background(), &dto.ConnectIntegrationRequest{
			ClientUUID: f.client.UUID.String(),
			APIKey:     "sq-raw-key",
		}, nil)

		assert.True(t, IsMailingListFetchFailed(err))
		assert.Nil(t, f.integrationRepo.integration)
	})

	t.Run("prefers the provider session token when issued", func(t *testing.T) {
		f := newIntegrationFixture()
		f.squalomail.Account.Token = "session-token"

		_, err := f.flow.Connect(context.Background(), &dto.ConnectIntegrationRequest{
			ClientUUID: f.client.UUID.String(),
			APIKey:     "sq-raw-key",
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, "session-token", *f.integrationRepo.integration.EncryptedCredentials)
	})
}

func TestDisconnectIntegration(t *testing.T) {
	f := newIntegrationFixture()
	f.integrationRepo.integration = &models.ClientIntegration{
		ID:                   1,
		ClientID:             f.client.ID,
		Provider:             utils.ProviderSqualoMail,
		Status:               models.IntegrationStatusConnected,
		EncryptedCredentials: utils.ToPtr("secret"),
		Metadata: models.IntegrationMetadata{
			Lists: []models.MailingList{{ID: "list-US"}},
		},
	}

	_, err := f.flow.Disconnect(context.Background(), f.client.UUID.String(), nil)
	require.NoError(t, err)

	// The row survives as an audit trail with the secret and metadata nulled
	require.NotNil(t, f.integrationRepo.integration)
	assert.Equal(t, models.IntegrationStatusDisconnected, f.integrationRepo.integration.Status)
	assert.Nil(t, f.integrationRepo.integration.EncryptedCredentials)
	assert.Empty(t, f.integrationRepo.integration.Metadata.Lists)
}

func TestGetIntegrationNotFound(t *testing.T) {
	f := newIntegrationFixture()
	_, err := f.flow.Get(context.Background(), f.client.UUID.String())
	assert.True(t, IsIntegrationNotFound(err))
}

func TestSanitizeIntegrationNeverLeaksCredentials(t *testing.T) {
	integration := &models.ClientIntegration{
		Provider:             utils.ProviderSqualoMail,
		Status:               models.IntegrationStatusConnected,
		EncryptedCredentials: utils.ToPtr("super-secret"),
		Metadata: models.IntegrationMetadata{
			AccountName: utils.ToPtr("Acme"),
			Lists:       []models.MailingList{{ID: "list-US", Name: "Newsletter US"}},
		},
	}

	sanitized := SanitizeIntegration(integration)
	encoded, err := json.Marshal(sanitized)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "super-secret")
	assert.Contains(t, string(encoded), "list-US")
}
