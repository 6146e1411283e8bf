// Package businessflow contains the core business logic and use cases for client management workflows
package businessflow

import (
	"context"

	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/repository"
	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// ClientFlow handles client management and per-country sending configuration
type ClientFlow interface {
	CreateClient(ctx context.Context, req *dto.CreateClientRequest, metadata *ClientMetadata) (*dto.CreateClientResponse, error)
	UpdateClient(ctx context.Context, req *dto.UpdateClientRequest, metadata *ClientMetadata) (*dto.UpdateClientResponse, error)
	GetClient(ctx context.Context, clientUUID string) (*dto.ClientDTO, error)
	ListClients(ctx context.Context, req *dto.ListClientsRequest, metadata *ClientMetadata) (*dto.ListClientsResponse, error)
	SetArchived(ctx context.Context, req *dto.SetClientArchivedRequest, metadata *ClientMetadata) (*dto.SetClientArchivedResponse, error)
	ListCountryConfigs(ctx context.Context, clientUUID string) (*dto.ListCountryConfigsResponse, error)
	UpdateCountryConfig(ctx context.Context, req *dto.UpdateCountryConfigRequest, metadata *ClientMetadata) (*dto.UpdateCountryConfigResponse, error)
}

// ClientFlowImpl implements the client management business flow
type ClientFlowImpl struct {
	clientRepo  repository.ClientRepository
	countryRepo repository.CountryRepository
	configRepo  repository.ClientCountryConfigRepository
	db          *gorm.DB
}

// NewClientFlow creates a new client flow instance
func NewClientFlow(
	clientRepo repository.ClientRepository,
	countryRepo repository.CountryRepository,
	configRepo repository.ClientCountryConfigRepository,
	db *gorm.DB,
) ClientFlow {
	return &ClientFlowImpl{
		clientRepo:  clientRepo,
		countryRepo: countryRepo,
		configRepo:  configRepo,
		db:          db,
	}
}

// CreateClient handles the client creation process
func (f *ClientFlowImpl) CreateClient(ctx context.Context, req *dto.CreateClientRequest, metadata *ClientMetadata) (*dto.CreateClientResponse, error) {
	client := &models.Client{
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
	}
	if err := f.clientRepo.Save(ctx, client); err != nil {
		return nil, NewBusinessError("CLIENT_SAVE_FAILED", "Failed to create client", err)
	}

	return &dto.CreateClientResponse{
		Message: "Client created successfully",
		Client:  ToClientDTO(*client),
	}, nil
}

// UpdateClient handles the client update process. Nil fields stay unchanged.
func (f *ClientFlowImpl) UpdateClient(ctx context.Context, req *dto.UpdateClientRequest, metadata *ClientMetadata) (*dto.UpdateClientResponse, error) {
	client, err := f.lookupClient(ctx, req.UUID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Description != nil {
		client.Description = req.Description
	}
	if req.Website != nil {
		client.Website = req.Website
	}

	if err := f.clientRepo.Update(ctx, *client); err != nil {
		return nil, NewBusinessError("CLIENT_SAVE_FAILED", "Failed to update client", err)
	}

	return &dto.UpdateClientResponse{
		Message: "Client updated successfully",
		Client:  ToClientDTO(*client),
	}, nil
}

// GetClient returns one client by UUID
func (f *ClientFlowImpl) GetClient(ctx context.Context, clientUUID string) (*dto.ClientDTO, error) {
	client, err := f.lookupClient(ctx, clientUUID)
	if err != nil {
		return nil, err
	}
	d := ToClientDTO(*client)
	return &d, nil
}

// ListClients returns the paginated client listing. Archived clients are
// excluded unless explicitly requested.
func (f *ClientFlowImpl) ListClients(ctx context.Context, req *dto.ListClientsRequest, metadata *ClientMetadata) (*dto.ListClientsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := models.ClientFilter{Name: req.Name}
	if !req.IncludeArchived {
		filter.IsArchived = utils.ToPtr(false)
	}

	clients, err := f.clientRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("CLIENT_LIST_FAILED", "Failed to list clients", err)
	}
	total, err := f.clientRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CLIENT_COUNT_FAILED", "Failed to count clients", err)
	}

	response := &dto.ListClientsResponse{
		Message: "Clients retrieved successfully",
		Clients: make([]dto.ClientDTO, 0, len(clients)),
		Total:   total,
		Page:    page,
	}
	for _, client := range clients {
		response.Clients = append(response.Clients, ToClientDTO(*client))
	}
	return response, nil
}

// SetArchived toggles the soft-archive flag. Archived clients keep all their
// data and can be unarchived later.
func (f *ClientFlowImpl) SetArchived(ctx context.Context, req *dto.SetClientArchivedRequest, metadata *ClientMetadata) (*dto.SetClientArchivedResponse, error) {
	client, err := f.lookupClient(ctx, req.UUID)
	if err != nil {
		return nil, err
	}

	if err := f.clientRepo.SetArchived(ctx, client.ID, req.Archived); err != nil {
		return nil, NewBusinessError("CLIENT_SAVE_FAILED", "Failed to update archive flag", err)
	}

	message := "Client archived successfully"
	if !req.Archived {
		message = "Client unarchived successfully"
	}
	return &dto.SetClientArchivedResponse{Message: message}, nil
}

// ListCountryConfigs returns the client's per-country settings. Config rows
// for newly activated countries are backfilled lazily; rows for countries
// that were deactivated later are kept, so the set is a superset of the
// currently active countries.
func (f *ClientFlowImpl) ListCountryConfigs(ctx context.Context, clientUUID string) (*dto.ListCountryConfigsResponse, error) {
	client, err := f.lookupClient(ctx, clientUUID)
	if err != nil {
		return nil, err
	}

	countries, err := f.countryRepo.ListActive(ctx)
	if err != nil {
		return nil, NewBusinessError("COUNTRY_LIST_FAILED", "Failed to list countries", err)
	}
	nameByCode := make(map[string]string, len(countries))
	for _, country := range countries {
		nameByCode[country.Code] = country.Name
	}

	configs, err := f.configRepo.ListByClient(ctx, client.ID)
	if err != nil {
		return nil, NewBusinessError("COUNTRY_CONFIG_LOOKUP_FAILED", "Failed to load country configs", err)
	}
	existing := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		existing[cfg.CountryCode] = true
	}

	var missing []*models.ClientCountryConfig
	for _, country := range countries {
		if !existing[country.Code] {
			missing = append(missing, &models.ClientCountryConfig{
				ClientID:    client.ID,
				CountryCode: country.Code,
			})
		}
	}
	if len(missing) > 0 {
		if err := f.configRepo.SaveBatch(ctx, missing); err != nil {
			return nil, NewBusinessError("COUNTRY_CONFIG_SAVE_FAILED", "Failed to backfill country configs", err)
		}
		configs = append(configs, missing...)
	}

	response := &dto.ListCountryConfigsResponse{
		Message: "Country configs retrieved successfully",
		Configs: make([]dto.CountryConfigDTO, 0, len(configs)),
	}
	for _, cfg := range configs {
		response.Configs = append(response.Configs, ToCountryConfigDTO(*cfg, nameByCode[cfg.CountryCode]))
	}
	return response, nil
}

// UpdateCountryConfig updates one country's sending settings for a client
func (f *ClientFlowImpl) UpdateCountryConfig(ctx context.Context, req *dto.UpdateCountryConfigRequest, metadata *ClientMetadata) (*dto.UpdateCountryConfigResponse, error) {
	client, err := f.lookupClient(ctx, req.ClientUUID)
	if err != nil {
		return nil, err
	}

	country, err := f.countryRepo.ByCode(ctx, req.CountryCode)
	if err != nil {
		return nil, NewBusinessError("COUNTRY_LOOKUP_FAILED", "Failed to lookup country", err)
	}
	if country == nil {
		return nil, NewBusinessError("COUNTRY_NOT_FOUND", "Country not found", ErrCountryNotFound)
	}

	cfg, err := f.configRepo.ByClientAndCountry(ctx, client.ID, req.CountryCode)
	if err != nil {
		return nil, NewBusinessError("COUNTRY_CONFIG_LOOKUP_FAILED", "Failed to load country config", err)
	}
	if cfg == nil {
		cfg = &models.ClientCountryConfig{
			ClientID:    client.ID,
			CountryCode: req.CountryCode,
		}
	}

	if req.IsActive != nil {
		cfg.IsActive = req.IsActive
	}
	if req.MailingListID != nil {
		cfg.MailingListID = req.MailingListID
	}
	if req.MailingListName != nil {
		cfg.MailingListName = req.MailingListName
	}
	if req.SenderEmail != nil {
		cfg.SenderEmail = req.SenderEmail
	}
	if req.SenderName != nil {
		cfg.SenderName = req.SenderName
	}

	if cfg.ID == 0 {
		err = f.configRepo.Save(ctx, cfg)
	} else {
		err = f.configRepo.Update(ctx, *cfg)
	}
	if err != nil {
		return nil, NewBusinessError("COUNTRY_CONFIG_SAVE_FAILED", "Failed to save country config", err)
	}

	return &dto.UpdateCountryConfigResponse{
		Message: "Country config updated successfully",
		Config:  ToCountryConfigDTO(*cfg, country.Name),
	}, nil
}

func (f *ClientFlowImpl) lookupClient(ctx context.Context, clientUUID string) (*models.Client, error) {
	client, err := f.clientRepo.ByUUID(ctx, clientUUID)
	if err != nil {
		return nil, NewBusinessError("CLIENT_LOOKUP_FAILED", "Failed to lookup client", err)
	}
	if client == nil {
		return nil, NewBusinessError("CLIENT_NOT_FOUND", "Client not found", ErrClientNotFound)
	}
	return client, nil
}
