// Package models contains domain entities and business models for the template platform
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// Client represents a tenant whose campaigns and integrations we manage
type Client struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_clients_uuid;index:idx_clients_uuid" json:"uuid"`
	Name        string    `gorm:"size:255;not null;index:idx_clients_name" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Website     *string   `gorm:"size:512" json:"website,omitempty"`

	// Archival is soft, clients are never physically deleted
	IsArchived *bool      `gorm:"default:false;index:idx_clients_is_archived" json:"is_archived"`
	CreatedAt  time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_clients_created_at" json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`

	// Relations
	CountryConfigs []ClientCountryConfig `gorm:"foreignKey:ClientID" json:"country_configs,omitempty"`
	Integrations   []ClientIntegration   `gorm:"foreignKey:ClientID" json:"integrations,omitempty"`
	Campaigns      []Campaign            `gorm:"foreignKey:ClientID" json:"campaigns,omitempty"`
}

// TableName returns the table name for the model
func (Client) TableName() string {
	return "clients"
}

// BeforeCreate is called before creating a new record
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Client) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// ClientFilter represents filter criteria for client queries
type ClientFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Name          *string    `json:"name,omitempty"`
	IsArchived    *bool      `json:"is_archived,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
