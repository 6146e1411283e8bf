// Package businessflow contains the core business logic and use cases for ESP integration workflows
package businessflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/app/services"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/repository"
	"github.com/templaito/templaito/utils"
)

// IntegrationFlow handles the ESP integration lifecycle for a client
type IntegrationFlow interface {
	Connect(ctx context.Context, req *dto.ConnectIntegrationRequest, metadata *ClientMetadata) (*dto.ConnectIntegrationResponse, error)
	Refresh(ctx context.Context, clientUUID string, metadata *ClientMetadata) (*dto.RefreshIntegrationResponse, error)
	Disconnect(ctx context.Context, clientUUID string, metadata *ClientMetadata) (*dto.DisconnectIntegrationResponse, error)
	Get(ctx context.Context, clientUUID string) (*dto.SanitizedIntegrationDTO, error)
}

// IntegrationFlowImpl implements the ESP integration business flow
type IntegrationFlowImpl struct {
	clientRepo      repository.ClientRepository
	integrationRepo repository.ClientIntegrationRepository
	squalomail      services.SqualoMailAPI
	cipher          services.CredentialCipher
	rc              *redis.Client
}

// NewIntegrationFlow creates a new integration flow instance
func NewIntegrationFlow(
	clientRepo repository.ClientRepository,
	integrationRepo repository.ClientIntegrationRepository,
	squalomail services.SqualoMailAPI,
	cipher services.CredentialCipher,
	rc *redis.Client,
) IntegrationFlow {
	return &IntegrationFlowImpl{
		clientRepo:      clientRepo,
		integrationRepo: integrationRepo,
		squalomail:      squalomail,
		cipher:          cipher,
		rc:              rc,
	}
}

// Connect validates the raw API key against the ESP and only then encrypts
// and stores it. Rejection or network failure writes nothing.
func (f *IntegrationFlowImpl) Connect(ctx context.Context, req *dto.ConnectIntegrationRequest, metadata *ClientMetadata) (*dto.ConnectIntegrationResponse, error) {
	client, err := f.lookupClient(ctx, req.ClientUUID)
	if err != nil {
		return nil, err
	}

	account, err := f.squalomail.ValidateAPIKey(ctx, req.APIKey)
	if err != nil {
		return nil, NewBusinessError("INTEGRATION_VALIDATION_FAILED", "API key rejected by provider", ErrIntegrationValidationFailed)
	}

	lists, err := f.squalomail.FetchLists(ctx, req.APIKey)
	if err != nil {
		return nil, NewBusinessError("MAILING_LIST_FETCH_FAILED", "Failed to fetch mailing lists", ErrMailingListFetchFailed)
	}

	credential := req.APIKey
	if account.Token != "" {
		credential = account.Token
	}
	encrypted, err := f.cipher.Encrypt(credential)
	if err != nil {
		return nil, NewBusinessError("CREDENTIAL_ENCRYPTION_FAILED", "Failed to encrypt credentials", err)
	}

	now := utils.UTCNow()
	meta := models.IntegrationMetadata{
		AccountName:  utils.ToPtr(account.Name),
		AccountEmail: utils.ToPtr(account.Email),
		Lists:        lists,
		UTMMedium:    req.UTMMedium,
	}

	integration, err := f.integrationRepo.ByClientAndProvider(ctx, client.ID, utils.ProviderSqualoMail)
	if err != nil {
		return nil, NewBusinessError("INTEGRATION_LOOKUP_FAILED", "Failed to lookup integration", err)
	}
	if integration == nil {
		integration = &models.ClientIntegration{
			ClientID: client.ID,
			Provider: utils.ProviderSqualoMail,
		}
	}
	integration.Status = models.IntegrationStatusConnected
	integration.EncryptedCredentials = &encrypted
	integration.Metadata = meta
	integration.LastSyncedAt = &now

	if integration.ID == 0 {
		err = f.integrationRepo.Save(ctx, integration)
	} else {
		err = f.integrationRepo.Update(ctx, *integration)
	}
	if err != nil {
		return nil, NewBusinessError("INTEGRATION_SAVE_FAILED", "Failed to save integration", err)
	}

	f.cacheLists(ctx, client.UUID.String(), lists)

	return &dto.ConnectIntegrationResponse{
		Message:     "Integration connected successfully",
		Integration: SanitizeIntegration(integration),
	}, nil
}

// Refresh decrypts the stored credential, re-fetches lists and account
// metadata, and updates the row in place. The secret never leaves this flow.
func (f *IntegrationFlowImpl) Refresh(ctx context.Context, clientUUID string, metadata *ClientMetadata) (*dto.RefreshIntegrationResponse, error) {
	client, integration, err := f.connectedIntegration(ctx, clientUUID)
	if err != nil {
		return nil, err
	}

	apiKey, err := f.cipher.Decrypt(*integration.EncryptedCredentials)
	if err != nil {
		return nil, NewBusinessError("CREDENTIAL_DECRYPTION_FAILED", "Stored credentials could not be decrypted", ErrCredentialDecryptionFailed)
	}

	lists, err := f.squalomail.FetchLists(ctx, apiKey)
	if err != nil {
		return nil, NewBusinessError("MAILING_LIST_FETCH_FAILED", "Failed to fetch mailing lists", ErrMailingListFetchFailed)
	}

	now := utils.UTCNow()
	integration.Metadata.Lists = lists
	integration.LastSyncedAt = &now
	if err := f.integrationRepo.Update(ctx, *integration); err != nil {
		return nil, NewBusinessError("INTEGRATION_SAVE_FAILED", "Failed to save integration", err)
	}

	f.cacheLists(ctx, client.UUID.String(), lists)

	return &dto.RefreshIntegrationResponse{
		Message:     "Integration refreshed successfully",
		Integration: SanitizeIntegration(integration),
	}, nil
}

// Disconnect nulls the credential and metadata but keeps the row
func (f *IntegrationFlowImpl) Disconnect(ctx context.Context, clientUUID string, metadata *ClientMetadata) (*dto.DisconnectIntegrationResponse, error) {
	client, err := f.lookupClient(ctx, clientUUID)
	if err != nil {
		return nil, err
	}

	integration, err := f.integrationRepo.ByClientAndProvider(ctx, client.ID, utils.ProviderSqualoMail)
	if err != nil {
		return nil, NewBusinessError("INTEGRATION_LOOKUP_FAILED", "Failed to lookup integration", err)
	}
	if integration == nil {
		return nil, NewBusinessError("INTEGRATION_NOT_FOUND", "Integration not found", ErrIntegrationNotFound)
	}

	integration.Status = models.IntegrationStatusDisconnected
	integration.EncryptedCredentials = nil
	integration.Metadata = models.IntegrationMetadata{}
	if err := f.integrationRepo.Update(ctx, *integration); err != nil {
		return nil, NewBusinessError("INTEGRATION_SAVE_FAILED", "Failed to save integration", err)
	}

	if f.rc != nil {
		_ = f.rc.Del(ctx, utils.MailingListsCacheKeyPrefix+client.UUID.String()).Err()
	}

	return &dto.DisconnectIntegrationResponse{
		Message: "Integration disconnected successfully",
	}, nil
}

// Get returns the sanitized integration state for a client
func (f *IntegrationFlowImpl) Get(ctx context.Context, clientUUID string) (*dto.SanitizedIntegrationDTO, error) {
	client, err := f.lookupClient(ctx, clientUUID)
	if err != nil {
		return nil, err
	}

	integration, err := f.integrationRepo.ByClientAndProvider(ctx, client.ID, utils.ProviderSqualoMail)
	if err != nil {
		return nil, NewBusinessError("INTEGRATION_LOOKUP_FAILED", "Failed to lookup integration", err)
	}
	if integration == nil {
		return nil, NewBusinessError("INTEGRATION_NOT_FOUND", "Integration not found", ErrIntegrationNotFound)
	}

	sanitized := SanitizeIntegration(integration)
	return &sanitized, nil
}

func (f *IntegrationFlowImpl) lookupClient(ctx context.Context, clientUUID string) (*models.Client, error) {
	client, err := f.clientRepo.ByUUID(ctx, clientUUID)
	if err != nil {
		return nil, NewBusinessError("CLIENT_LOOKUP_FAILED", "Failed to lookup client", err)
	}
	if client == nil {
		return nil, NewBusinessError("CLIENT_NOT_FOUND", "Client not found", ErrClientNotFound)
	}
	return client, nil
}

func (f *IntegrationFlowImpl) connectedIntegration(ctx context.Context, clientUUID string) (*models.Client, *models.ClientIntegration, error) {
	client, err := f.lookupClient(ctx, clientUUID)
	if err != nil {
		return nil, nil, err
	}

	integration, err := f.integrationRepo.ByClientAndProvider(ctx, client.ID, utils.ProviderSqualoMail)
	if err != nil {
		return nil, nil, NewBusinessError("INTEGRATION_LOOKUP_FAILED", "Failed to lookup integration", err)
	}
	if integration == nil {
		return nil, nil, NewBusinessError("INTEGRATION_NOT_FOUND", "Integration not found", ErrIntegrationNotFound)
	}
	if !integration.IsConnected() {
		return nil, nil, NewBusinessError("INTEGRATION_NOT_CONNECTED", "Integration is not connected", ErrIntegrationNotConnected)
	}
	return client, integration, nil
}

// cacheLists stores the fetched mailing lists in redis for the country config UI
func (f *IntegrationFlowImpl) cacheLists(ctx context.Context, clientUUID string, lists []models.MailingList) {
	if f.rc == nil {
		return
	}
	if bs, err := json.Marshal(lists); err == nil {
		_ = f.rc.Set(ctx, utils.MailingListsCacheKeyPrefix+clientUUID, bs, utils.MailingListsCacheTTL).Err()
	}
}

// SanitizeIntegration maps an integration row to its boundary-safe shape.
// The returned DTO structurally has no credential field.
func SanitizeIntegration(integration *models.ClientIntegration) dto.SanitizedIntegrationDTO {
	d := dto.SanitizedIntegrationDTO{
		Provider:     integration.Provider,
		Status:       integration.Status.String(),
		AccountName:  integration.Metadata.AccountName,
		AccountEmail: integration.Metadata.AccountEmail,
		UTMMedium:    integration.Metadata.UTMMedium,
	}
	for _, l := range integration.Metadata.Lists {
		d.Lists = append(d.Lists, dto.MailingListDTO{
			ID:          l.ID,
			Name:        l.Name,
			Subscribers: l.Subscribers,
		})
	}
	if integration.LastSyncedAt != nil {
		s := integration.LastSyncedAt.Format(time.RFC3339)
		d.LastSyncedAt = &s
	}
	return d
}
