// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/templaito/templaito/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CountryRepository defines operations for globally configured countries
type CountryRepository interface {
	Repository[models.Country, models.CountryFilter]
	ByCode(ctx context.Context, code string) (*models.Country, error)
	ListActive(ctx context.Context) ([]*models.Country, error)
}

// ClientRepository defines operations for tenant clients
type ClientRepository interface {
	Repository[models.Client, models.ClientFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Client, error)
	Update(ctx context.Context, client models.Client) error
	SetArchived(ctx context.Context, id uint, archived bool) error
}

// ClientCountryConfigRepository defines operations for per-client country settings
type ClientCountryConfigRepository interface {
	Repository[models.ClientCountryConfig, models.ClientCountryConfigFilter]
	ListByClient(ctx context.Context, clientID uint) ([]*models.ClientCountryConfig, error)
	ByClientAndCountry(ctx context.Context, clientID uint, countryCode string) (*models.ClientCountryConfig, error)
	Update(ctx context.Context, config models.ClientCountryConfig) error
}

// ClientIntegrationRepository defines operations for ESP integrations
type ClientIntegrationRepository interface {
	Repository[models.ClientIntegration, models.ClientIntegrationFilter]
	ByClientAndProvider(ctx context.Context, clientID uint, provider string) (*models.ClientIntegration, error)
	Update(ctx context.Context, integration models.ClientIntegration) error
}

// PromptTemplateRepository defines operations for prompt templates
type PromptTemplateRepository interface {
	Repository[models.PromptTemplate, models.PromptTemplateFilter]
	ByUUID(ctx context.Context, uuid string) (*models.PromptTemplate, error)
	DefaultByType(ctx context.Context, templateType models.PromptTemplateType) (*models.PromptTemplate, error)
	ClearDefault(ctx context.Context, templateType models.PromptTemplateType) error
	Update(ctx context.Context, prompt models.PromptTemplate) error
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	ByClientID(ctx context.Context, clientID uint, limit, offset int) ([]*models.Campaign, error)
	ListSentSince(ctx context.Context, since time.Time) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign models.Campaign) error
	UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error
	UpdateStatistics(ctx context.Context, id uint, stats models.CampaignStatistics, syncedAt time.Time) error
}

// CampaignCountryTargetRepository defines operations for per-country publish records
type CampaignCountryTargetRepository interface {
	Repository[models.CampaignCountryTarget, models.CampaignCountryTargetFilter]
	ListByCampaign(ctx context.Context, campaignID uint) ([]*models.CampaignCountryTarget, error)
	ExternalIDsByCampaigns(ctx context.Context, campaignIDs []uint) (map[uint][]string, error)
}

// TemplateGenerationRepository defines operations for the generation audit trail
type TemplateGenerationRepository interface {
	Repository[models.TemplateGeneration, models.TemplateGenerationFilter]
	StatsByPrompt(ctx context.Context, promptID uint) (*models.PromptGenerationStats, error)
}

// UserRepository defines operations for tenant users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error
}

// AdminRepository defines operations for platform admins
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, adminID uint, at time.Time) error
}
