package dto

import (
	"time"
)

// PublishCampaignRequest represents the request to publish one newsletter per
// eligible country. CountryResults replays the scrape data from generation so
// per-country localization does not re-scrape.
type PublishCampaignRequest struct {
	ClientUUID  string     `json:"-"`
	UserID      uint       `json:"-"`
	Name        string     `json:"name" validate:"required,min=1,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Subject     string     `json:"subject" validate:"required,min=1,max=255"`
	Preheader   *string    `json:"preheader,omitempty" validate:"omitempty,max=255"`
	SendDate    *time.Time `json:"send_date,omitempty"`
	BaseCountry string     `json:"base_country" validate:"required,len=2"`
	PromptUUID  *string    `json:"prompt_uuid,omitempty" validate:"omitempty,uuid"`

	EmailTemplate  EmailTemplateDTO                  `json:"email_template" validate:"required"`
	CountryResults map[string]CountryScrapeResultDTO `json:"country_results" validate:"required,min=1"`

	// ImageOverrides maps product index to the chosen image index within that
	// product's scraped images. Single-product templates use key 0.
	ImageOverrides map[int]int `json:"image_overrides,omitempty"`
}

// CountryPublishResultDTO is one country's publish outcome
type CountryPublishResultDTO struct {
	CountryCode string  `json:"country_code"`
	ExternalID  *string `json:"external_id,omitempty"`
	Error       *string `json:"error,omitempty"`
}

// PublishCampaignResponse reports per-country outcomes so partial success is visible
type PublishCampaignResponse struct {
	Message          string                    `json:"message"`
	CampaignUUID     string                    `json:"campaign_uuid"`
	Status           string                    `json:"status"`
	PerCountryResult []CountryPublishResultDTO `json:"per_country_results"`
}

// ListCampaignsRequest represents filter criteria for listing campaigns
type ListCampaignsRequest struct {
	ClientUUID string  `json:"-"`
	Page       int     `query:"page" validate:"omitempty,min=1"`
	PageSize   int     `query:"page_size" validate:"omitempty,min=1,max=100"`
	Status     *string `query:"status" validate:"omitempty,oneof=DRAFT READY SCHEDULED SENDING SENT FAILED CANCELLED"`
	Name       *string `query:"name" validate:"omitempty,max=255"`
}

// CampaignStatisticsDTO is the cached ESP metrics roll-up
type CampaignStatisticsDTO struct {
	SentTotal  int64   `json:"sent_total"`
	OpenTotal  int64   `json:"open_total"`
	ClickTotal int64   `json:"click_total"`
	OpenRate   float64 `json:"open_rate"`
	ClickRate  float64 `json:"click_rate"`
}

// CampaignTargetDTO is one country's publish record
type CampaignTargetDTO struct {
	CountryCode   string  `json:"country_code"`
	MailingListID string  `json:"mailing_list_id"`
	ExternalID    *string `json:"external_id,omitempty"`
}

// CampaignDTO is the campaign representation returned to callers
type CampaignDTO struct {
	UUID        string                 `json:"uuid"`
	Name        string                 `json:"name"`
	Description *string                `json:"description,omitempty"`
	Status      string                 `json:"status"`
	Subject     string                 `json:"subject"`
	BaseCountry string                 `json:"base_country"`
	ScheduledAt *time.Time             `json:"scheduled_at,omitempty"`
	SentAt      *time.Time             `json:"sent_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	Statistics  *CampaignStatisticsDTO `json:"statistics,omitempty"`
	Targets     []CampaignTargetDTO    `json:"targets,omitempty"`
}

// ListCampaignsResponse represents the paginated campaign listing
type ListCampaignsResponse struct {
	Message   string        `json:"message"`
	Campaigns []CampaignDTO `json:"campaigns"`
	Total     int64         `json:"total"`
	Page      int           `json:"page"`
}

// GetCampaignResponse represents one campaign with its targets
type GetCampaignResponse struct {
	Message  string      `json:"message"`
	Campaign CampaignDTO `json:"campaign"`
}

// CancelCampaignRequest represents the request to cancel a campaign
type CancelCampaignRequest struct {
	ClientUUID   string `json:"-"`
	CampaignUUID string `json:"-"`
}

// CancelCampaignResponse represents the response to a cancel
type CancelCampaignResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GetMetricsRequest represents the request to fetch ESP metrics for newsletters
type GetMetricsRequest struct {
	ClientUUID    string   `json:"-"`
	NewsletterIDs []string `json:"newsletter_ids" validate:"required,min=1,max=200"`
}

// NewsletterMetricsDTO is the per-newsletter metrics entry
type NewsletterMetricsDTO struct {
	SentTotal  int64   `json:"sent_total"`
	OpenTotal  int64   `json:"open_total"`
	ClickTotal int64   `json:"click_total"`
	OpenRate   float64 `json:"open_rate"`
	ClickRate  float64 `json:"click_rate"`
}

// GetMetricsResponse maps newsletter IDs to metrics. IDs the ESP is not
// tracking yet are absent so callers can tell "no data" from zero engagement.
type GetMetricsResponse struct {
	Message string                          `json:"message"`
	Metrics map[string]NewsletterMetricsDTO `json:"metrics"`
}
