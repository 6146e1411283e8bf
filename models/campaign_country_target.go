package models

import (
	"time"

	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// CampaignCountryTarget records one country's newsletter within a campaign.
// ExternalID is the ESP-assigned newsletter ID once published; a target with a
// non-null ExternalID already lives in the ESP and is never re-created.
type CampaignCountryTarget struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CampaignID  uint   `gorm:"not null;index:idx_campaign_country_targets_campaign_id;uniqueIndex:uk_campaign_country_targets_campaign_country" json:"campaign_id"`
	CountryCode string `gorm:"size:2;not null;uniqueIndex:uk_campaign_country_targets_campaign_country" json:"country_code"`

	MailingListID string  `gorm:"size:64;not null" json:"mailing_list_id"`
	ExternalID    *string `gorm:"size:64;index:idx_campaign_country_targets_external_id" json:"external_id,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (CampaignCountryTarget) TableName() string {
	return "campaign_country_targets"
}

// BeforeCreate is called before creating a new record
func (t *CampaignCountryTarget) BeforeCreate(tx *gorm.DB) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (t *CampaignCountryTarget) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	t.UpdatedAt = &now
	return nil
}

// IsPublished reports whether the ESP has already accepted this target
func (t *CampaignCountryTarget) IsPublished() bool {
	return t.ExternalID != nil && *t.ExternalID != ""
}

// CampaignCountryTargetFilter represents filter criteria for target queries
type CampaignCountryTargetFilter struct {
	ID          *uint   `json:"id,omitempty"`
	CampaignID  *uint   `json:"campaign_id,omitempty"`
	CountryCode *string `json:"country_code,omitempty"`
	ExternalID  *string `json:"external_id,omitempty"`
}
