package testing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures helper
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates a test user with a bcrypt password hash
func (f *TestFixtures) CreateTestUser(email string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		FullName:     "Test User",
		PasswordHash: string(hash),
		IsActive:     utils.ToPtr(true),
	}
	if err := f.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateTestAdmin creates a test admin with a bcrypt password hash
func (f *TestFixtures) CreateTestAdmin(username string) (*models.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("AdminPass123!"), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		UUID:         uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     utils.ToPtr(true),
		CreatedAt:    time.Now().UTC(),
	}
	if err := f.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}
	return admin, nil
}

// CreateTestClient creates a client
func (f *TestFixtures) CreateTestClient(name string) (*models.Client, error) {
	client := &models.Client{
		Name:        name,
		Description: utils.ToPtr("A test client"),
		Website:     utils.ToPtr("https://example.com"),
		IsArchived:  utils.ToPtr(false),
	}
	if err := f.DB.DB.Create(client).Error; err != nil {
		return nil, fmt.Errorf("failed to create test client: %w", err)
	}
	return client, nil
}

// CreateTestCountry inserts a country row
func (f *TestFixtures) CreateTestCountry(code, name string) (*models.Country, error) {
	country := &models.Country{
		Code:     code,
		Name:     name,
		IsActive: utils.ToPtr(true),
	}
	if err := f.DB.DB.Create(country).Error; err != nil {
		return nil, fmt.Errorf("failed to create test country: %w", err)
	}
	return country, nil
}

// SeedCountries inserts a standard set of countries used across tests
func (f *TestFixtures) SeedCountries() error {
	countries := []struct {
		code string
		name string
	}{
		{"US", "United States"},
		{"DE", "Germany"},
		{"FR", "France"},
		{"IT", "Italy"},
		{"SI", "Slovenia"},
	}
	for _, c := range countries {
		if _, err := f.CreateTestCountry(c.code, c.name); err != nil {
			return err
		}
	}
	return nil
}

// CreateTestCountryConfig creates a country configuration for a client.
// When publishable is true the config is active and carries a mailing list binding.
func (f *TestFixtures) CreateTestCountryConfig(clientID uint, countryCode string, publishable bool) (*models.ClientCountryConfig, error) {
	config := &models.ClientCountryConfig{
		ClientID:    clientID,
		CountryCode: countryCode,
		IsActive:    utils.ToPtr(publishable),
	}
	if publishable {
		config.MailingListID = utils.ToPtr("list-" + countryCode)
		config.MailingListName = utils.ToPtr("Newsletter " + countryCode)
		config.SenderEmail = utils.ToPtr("news@example.com")
		config.SenderName = utils.ToPtr("Example News")
	}
	if err := f.DB.DB.Create(config).Error; err != nil {
		return nil, fmt.Errorf("failed to create test country config: %w", err)
	}
	return config, nil
}

// CreateTestIntegration creates a connected ESP integration for a client
func (f *TestFixtures) CreateTestIntegration(clientID uint, encryptedCredentials string) (*models.ClientIntegration, error) {
	integration := &models.ClientIntegration{
		ClientID:             clientID,
		Provider:             utils.ProviderSqualoMail,
		Status:               models.IntegrationStatusConnected,
		EncryptedCredentials: utils.ToPtr(encryptedCredentials),
		Metadata: models.IntegrationMetadata{
			AccountName:  utils.ToPtr("Test Account"),
			AccountEmail: utils.ToPtr("owner@example.com"),
			Lists: []models.MailingList{
				{ID: "list-US", Name: "Newsletter US", Subscribers: 1200},
				{ID: "list-DE", Name: "Newsletter DE", Subscribers: 800},
			},
		},
		LastSyncedAt: utils.ToPtr(time.Now().UTC()),
	}
	if err := f.DB.DB.Create(integration).Error; err != nil {
		return nil, fmt.Errorf("failed to create test integration: %w", err)
	}
	return integration, nil
}

// CreateTestPromptTemplate creates an active prompt template for the given engine and type
func (f *TestFixtures) CreateTestPromptTemplate(engine models.DesignEngine, templateType models.PromptTemplateType, isDefault bool) (*models.PromptTemplate, error) {
	prompt := &models.PromptTemplate{
		Name:         fmt.Sprintf("Test %s %s", engine, templateType),
		DesignEngine: engine,
		TemplateType: templateType,
		Status:       models.PromptStatusActive,
		SystemPrompt: "You are an email template designer.",
		UserPrompt:   "Design an email for {product_name} priced {price}.",
		IsDefault:    utils.ToPtr(isDefault),
		Version:      1,
	}
	if err := f.DB.DB.Create(prompt).Error; err != nil {
		return nil, fmt.Errorf("failed to create test prompt template: %w", err)
	}
	return prompt, nil
}

// CreateTestCampaign creates a campaign in the given status with one target per country code
func (f *TestFixtures) CreateTestCampaign(clientID uint, status models.CampaignStatus, countryCodes ...string) (*models.Campaign, error) {
	campaign := &models.Campaign{
		ClientID: clientID,
		Name:     "Test Campaign",
		Status:   status,
		Spec: models.CampaignSpec{
			Subject:     "Big summer sale",
			BaseCountry: "US",
			HTML:        "<html><body><h1>Sale</h1></body></html>",
		},
	}
	if status == models.CampaignStatusSent {
		campaign.SentAt = utils.ToPtr(time.Now().UTC())
		campaign.Statistics = &models.CampaignStatistics{}
	}
	if err := f.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}

	for _, code := range countryCodes {
		target := &models.CampaignCountryTarget{
			CampaignID:    campaign.ID,
			CountryCode:   code,
			MailingListID: "list-" + code,
		}
		if status == models.CampaignStatusSent {
			target.ExternalID = utils.ToPtr("nl-" + code + "-" + GenerateSecureToken(4))
		}
		if err := f.DB.DB.Create(target).Error; err != nil {
			return nil, fmt.Errorf("failed to create campaign target for %s: %w", code, err)
		}
		campaign.Targets = append(campaign.Targets, *target)
	}

	return campaign, nil
}

// CreateTestGeneration records a template generation run against a prompt
func (f *TestFixtures) CreateTestGeneration(promptID uint, userID uint, successful bool, durationMs int64) (*models.TemplateGeneration, error) {
	generation := &models.TemplateGeneration{
		PromptID:         promptID,
		UserID:           utils.ToPtr(userID),
		WasSuccessful:    successful,
		GenerationTimeMs: durationMs,
		InputURL:         "https://shop.example.com/product/123",
	}
	if err := f.DB.DB.Create(generation).Error; err != nil {
		return nil, fmt.Errorf("failed to create test generation: %w", err)
	}
	return generation, nil
}

// GenerateSecureToken generates a random hex token of the given byte length
func GenerateSecureToken(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
