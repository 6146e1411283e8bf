package models

import (
	"time"

	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// ClientCountryConfig holds per-client sending settings for one target country.
// Rows are backfilled lazily so every active country has one for every client.
type ClientCountryConfig struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ClientID    uint   `gorm:"not null;index:idx_client_country_configs_client_id;uniqueIndex:uk_client_country_configs_client_country" json:"client_id"`
	CountryCode string `gorm:"size:2;not null;uniqueIndex:uk_client_country_configs_client_country" json:"country_code"`

	IsActive        *bool   `gorm:"default:false" json:"is_active"`
	MailingListID   *string `gorm:"size:64" json:"mailing_list_id,omitempty"`
	MailingListName *string `gorm:"size:255" json:"mailing_list_name,omitempty"`
	SenderEmail     *string `gorm:"size:255" json:"sender_email,omitempty"`
	SenderName      *string `gorm:"size:255" json:"sender_name,omitempty"`

	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`

	// Relations
	Client *Client `gorm:"foreignKey:ClientID;references:ID" json:"client,omitempty"`
}

// TableName returns the table name for the model
func (ClientCountryConfig) TableName() string {
	return "client_country_configs"
}

// BeforeCreate is called before creating a new record
func (c *ClientCountryConfig) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *ClientCountryConfig) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// IsPublishable reports whether the country can receive a newsletter:
// it must be enabled and have a mailing list assigned.
func (c *ClientCountryConfig) IsPublishable() bool {
	return utils.IsTrue(c.IsActive) && c.MailingListID != nil && *c.MailingListID != ""
}

// ClientCountryConfigFilter represents filter criteria for country config queries
type ClientCountryConfigFilter struct {
	ID          *uint   `json:"id,omitempty"`
	ClientID    *uint   `json:"client_id,omitempty"`
	CountryCode *string `json:"country_code,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}
