package businessflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/templaito/templaito/models"
)

// stubRepo satisfies the generic repository interface with inert defaults so
// mocks only implement the methods a test actually exercises.
type stubRepo[T any, F any] struct{}

func (stubRepo[T, F]) ByID(ctx context.Context, id uint) (*T, error) { return nil, nil }
func (stubRepo[T, F]) ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error) {
	return nil, nil
}
func (stubRepo[T, F]) Save(ctx context.Context, entity *T) error        { return nil }
func (stubRepo[T, F]) SaveBatch(ctx context.Context, entities []*T) error { return nil }
func (stubRepo[T, F]) Count(ctx context.Context, filter F) (int64, error) { return 0, nil }
func (stubRepo[T, F]) Exists(ctx context.Context, filter F) (bool, error) { return false, nil }

type mockPromptRepo struct {
	stubRepo[models.PromptTemplate, models.PromptTemplateFilter]

	byUUID   map[string]*models.PromptTemplate
	defaults map[models.PromptTemplateType]*models.PromptTemplate
	lookupErr error
}

func newMockPromptRepo() *mockPromptRepo {
	return &mockPromptRepo{
		byUUID:   make(map[string]*models.PromptTemplate),
		defaults: make(map[models.PromptTemplateType]*models.PromptTemplate),
	}
}

func (m *mockPromptRepo) add(prompt *models.PromptTemplate) *models.PromptTemplate {
	if prompt.UUID == uuid.Nil {
		prompt.UUID = uuid.New()
	}
	m.byUUID[prompt.UUID.String()] = prompt
	if prompt.IsDefault != nil && *prompt.IsDefault {
		m.defaults[prompt.TemplateType] = prompt
	}
	return prompt
}

func (m *mockPromptRepo) ByUUID(ctx context.Context, id string) (*models.PromptTemplate, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.byUUID[id], nil
}

func (m *mockPromptRepo) DefaultByType(ctx context.Context, templateType models.PromptTemplateType) (*models.PromptTemplate, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.defaults[templateType], nil
}

func (m *mockPromptRepo) ClearDefault(ctx context.Context, templateType models.PromptTemplateType) error {
	delete(m.defaults, templateType)
	return nil
}

func (m *mockPromptRepo) Update(ctx context.Context, prompt models.PromptTemplate) error {
	m.byUUID[prompt.UUID.String()] = &prompt
	return nil
}

type mockGenerationRepo struct {
	stubRepo[models.TemplateGeneration, models.TemplateGenerationFilter]

	saved []*models.TemplateGeneration
}

func (m *mockGenerationRepo) Save(ctx context.Context, record *models.TemplateGeneration) error {
	m.saved = append(m.saved, record)
	return nil
}

func (m *mockGenerationRepo) StatsByPrompt(ctx context.Context, promptID uint) (*models.PromptGenerationStats, error) {
	return &models.PromptGenerationStats{PromptID: promptID}, nil
}

type mockClientRepo struct {
	stubRepo[models.Client, models.ClientFilter]

	clients map[string]*models.Client
}

func newMockClientRepo(clients ...*models.Client) *mockClientRepo {
	m := &mockClientRepo{clients: make(map[string]*models.Client)}
	for _, c := range clients {
		if c.UUID == uuid.Nil {
			c.UUID = uuid.New()
		}
		m.clients[c.UUID.String()] = c
	}
	return m
}

func (m *mockClientRepo) ByUUID(ctx context.Context, id string) (*models.Client, error) {
	return m.clients[id], nil
}

func (m *mockClientRepo) Update(ctx context.Context, client models.Client) error { return nil }

func (m *mockClientRepo) SetArchived(ctx context.Context, id uint, archived bool) error { return nil }

type mockCampaignRepo struct {
	stubRepo[models.Campaign, models.CampaignFilter]

	byUUID        map[string]*models.Campaign
	sent          []*models.Campaign
	statusUpdates map[uint]models.CampaignStatus
	statsUpdates  map[uint]models.CampaignStatistics
}

func newMockCampaignRepo(campaigns ...*models.Campaign) *mockCampaignRepo {
	m := &mockCampaignRepo{
		byUUID:        make(map[string]*models.Campaign),
		statusUpdates: make(map[uint]models.CampaignStatus),
		statsUpdates:  make(map[uint]models.CampaignStatistics),
	}
	for _, c := range campaigns {
		if c.UUID == uuid.Nil {
			c.UUID = uuid.New()
		}
		m.byUUID[c.UUID.String()] = c
	}
	return m
}

func (m *mockCampaignRepo) ByUUID(ctx context.Context, id string) (*models.Campaign, error) {
	return m.byUUID[id], nil
}

func (m *mockCampaignRepo) ByClientID(ctx context.Context, clientID uint, limit, offset int) ([]*models.Campaign, error) {
	return nil, nil
}

func (m *mockCampaignRepo) ListSentSince(ctx context.Context, since time.Time) ([]*models.Campaign, error) {
	return m.sent, nil
}

func (m *mockCampaignRepo) Update(ctx context.Context, campaign models.Campaign) error { return nil }

func (m *mockCampaignRepo) UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	m.statusUpdates[id] = status
	return nil
}

func (m *mockCampaignRepo) UpdateStatistics(ctx context.Context, id uint, stats models.CampaignStatistics, syncedAt time.Time) error {
	m.statsUpdates[id] = stats
	return nil
}

type mockTargetRepo struct {
	stubRepo[models.CampaignCountryTarget, models.CampaignCountryTargetFilter]

	saved       []*models.CampaignCountryTarget
	externalIDs map[uint][]string
}

func (m *mockTargetRepo) SaveBatch(ctx context.Context, targets []*models.CampaignCountryTarget) error {
	m.saved = append(m.saved, targets...)
	return nil
}

func (m *mockTargetRepo) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.CampaignCountryTarget, error) {
	return nil, nil
}

func (m *mockTargetRepo) ExternalIDsByCampaigns(ctx context.Context, campaignIDs []uint) (map[uint][]string, error) {
	out := make(map[uint][]string)
	for _, id := range campaignIDs {
		if ids, ok := m.externalIDs[id]; ok {
			out[id] = ids
		}
	}
	return out, nil
}

type mockConfigRepo struct {
	stubRepo[models.ClientCountryConfig, models.ClientCountryConfigFilter]

	configs []*models.ClientCountryConfig
}

func (m *mockConfigRepo) ListByClient(ctx context.Context, clientID uint) ([]*models.ClientCountryConfig, error) {
	return m.configs, nil
}

func (m *mockConfigRepo) ByClientAndCountry(ctx context.Context, clientID uint, countryCode string) (*models.ClientCountryConfig, error) {
	for _, cfg := range m.configs {
		if cfg.CountryCode == countryCode {
			return cfg, nil
		}
	}
	return nil, nil
}

func (m *mockConfigRepo) Update(ctx context.Context, config models.ClientCountryConfig) error {
	return nil
}

type mockIntegrationRepo struct {
	stubRepo[models.ClientIntegration, models.ClientIntegrationFilter]

	integration *models.ClientIntegration
}

func (m *mockIntegrationRepo) ByClientAndProvider(ctx context.Context, clientID uint, provider string) (*models.ClientIntegration, error) {
	return m.integration, nil
}

func (m *mockIntegrationRepo) Save(ctx context.Context, integration *models.ClientIntegration) error {
	integration.ID = 1
	m.integration = integration
	return nil
}

func (m *mockIntegrationRepo) Update(ctx context.Context, integration models.ClientIntegration) error {
	m.integration = &integration
	return nil
}

// mockCipher is an identity cipher that can be forced to fail
type mockCipher struct {
	decryptErr error
}

func (m *mockCipher) Encrypt(plaintext string) (string, error) { return plaintext, nil }

func (m *mockCipher) Decrypt(ciphertext string) (string, error) {
	if m.decryptErr != nil {
		return "", m.decryptErr
	}
	return ciphertext, nil
}
