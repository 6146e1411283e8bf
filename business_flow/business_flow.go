// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all caller-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToUserDTO converts a user model to UserDTO for authentication responses
func ToUserDTO(user models.User) dto.UserDTO {
	return dto.UserDTO{
		ID:        user.ID,
		UUID:      user.UUID.String(),
		Email:     user.Email,
		FullName:  user.FullName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

// ToClientDTO converts a client model to its API representation
func ToClientDTO(client models.Client) dto.ClientDTO {
	return dto.ClientDTO{
		ID:          client.ID,
		UUID:        client.UUID.String(),
		Name:        client.Name,
		Description: client.Description,
		Website:     client.Website,
		IsArchived:  client.IsArchived,
		CreatedAt:   client.CreatedAt.Format(time.RFC3339),
	}
}

// ToCountryConfigDTO converts a country config row to its API representation
func ToCountryConfigDTO(cfg models.ClientCountryConfig, countryName string) dto.CountryConfigDTO {
	d := dto.CountryConfigDTO{
		CountryCode:     cfg.CountryCode,
		CountryName:     countryName,
		IsActive:        cfg.IsActive,
		MailingListID:   cfg.MailingListID,
		MailingListName: cfg.MailingListName,
		SenderEmail:     cfg.SenderEmail,
		SenderName:      cfg.SenderName,
	}
	if cfg.LastSyncedAt != nil {
		s := cfg.LastSyncedAt.Format(time.RFC3339)
		d.LastSyncedAt = &s
	}
	return d
}

// ToCampaignDTO converts a campaign model (with preloaded targets) to its API representation
func ToCampaignDTO(campaign models.Campaign) dto.CampaignDTO {
	d := dto.CampaignDTO{
		UUID:        campaign.UUID.String(),
		Name:        campaign.Name,
		Description: campaign.Description,
		Status:      campaign.Status.String(),
		Subject:     campaign.Spec.Subject,
		BaseCountry: campaign.Spec.BaseCountry,
		ScheduledAt: campaign.ScheduledAt,
		SentAt:      campaign.SentAt,
		CreatedAt:   campaign.CreatedAt,
	}
	if campaign.Statistics != nil {
		d.Statistics = &dto.CampaignStatisticsDTO{
			SentTotal:  campaign.Statistics.SentTotal,
			OpenTotal:  campaign.Statistics.OpenTotal,
			ClickTotal: campaign.Statistics.ClickTotal,
			OpenRate:   campaign.Statistics.OpenRate,
			ClickRate:  campaign.Statistics.ClickRate,
		}
	}
	for _, t := range campaign.Targets {
		d.Targets = append(d.Targets, dto.CampaignTargetDTO{
			CountryCode:   t.CountryCode,
			MailingListID: t.MailingListID,
			ExternalID:    t.ExternalID,
		})
	}
	return d
}

// ToPromptTemplateDTO converts a prompt template model to its API representation
func ToPromptTemplateDTO(prompt models.PromptTemplate) dto.PromptTemplateDTO {
	d := dto.PromptTemplateDTO{
		UUID:         prompt.UUID.String(),
		Name:         prompt.Name,
		Description:  prompt.Description,
		SystemPrompt: prompt.SystemPrompt,
		UserPrompt:   prompt.UserPrompt,
		DesignEngine: prompt.DesignEngine.String(),
		TemplateType: prompt.TemplateType.String(),
		Status:       prompt.Status.String(),
		IsDefault:    prompt.IsDefault != nil && *prompt.IsDefault,
		Version:      prompt.Version,
		CreatedAt:    prompt.CreatedAt.Format(time.RFC3339),
	}
	if prompt.UpdatedAt != nil {
		s := prompt.UpdatedAt.Format(time.RFC3339)
		d.UpdatedAt = &s
	}
	return d
}

// ToProductInfoDTO converts scraped product data to its API representation
func ToProductInfoDTO(info models.ProductInfo) dto.ProductInfoDTO {
	return dto.ProductInfoDTO{
		Title:        info.Title,
		Description:  info.Description,
		Images:       info.Images,
		BestImageURL: info.BestImageURL,
		Language:     info.Language,
		RegularPrice: info.RegularPrice,
		SalePrice:    info.SalePrice,
		Discount:     info.Discount,
		SourceURL:    info.SourceURL,
	}
}

// ToCountryScrapeResultDTO converts a country scrape result to its API representation
func ToCountryScrapeResultDTO(result models.CountryScrapeResult) dto.CountryScrapeResultDTO {
	d := dto.CountryScrapeResultDTO{
		Type: string(result.Type),
		URLs: result.URLs,
	}
	for _, p := range result.Products() {
		d.Products = append(d.Products, ToProductInfoDTO(p))
	}
	return d
}

// FromCountryScrapeResultDTO rebuilds a scrape result from its API representation.
// Publish replays the generation-time scrape data this way instead of re-scraping.
func FromCountryScrapeResultDTO(d dto.CountryScrapeResultDTO) models.CountryScrapeResult {
	result := models.CountryScrapeResult{
		Type: models.ScrapeResultType(d.Type),
		URLs: d.URLs,
	}
	products := make([]models.ProductInfo, 0, len(d.Products))
	for _, p := range d.Products {
		products = append(products, models.ProductInfo{
			Title:        p.Title,
			Description:  p.Description,
			Images:       p.Images,
			BestImageURL: p.BestImageURL,
			Language:     p.Language,
			RegularPrice: p.RegularPrice,
			SalePrice:    p.SalePrice,
			Discount:     p.Discount,
			SourceURL:    p.SourceURL,
		})
	}
	switch result.Type {
	case models.ScrapeResultTypeMulti:
		mi := models.MultiProductInfo{Products: products}
		if len(products) > 0 {
			mi.Language = products[0].Language
		}
		result.MultiProductInfo = &mi
	default:
		if len(products) > 0 {
			p := products[0]
			result.ProductInfo = &p
		}
	}
	return result
}
