package models

import (
	"time"

	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// Country represents a globally configured target market
type Country struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Code      string     `gorm:"size:2;not null;uniqueIndex:uk_countries_code" json:"code"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	IsActive  *bool      `gorm:"default:true;index:idx_countries_is_active" json:"is_active"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Country) TableName() string {
	return "countries"
}

// BeforeCreate is called before creating a new record
func (c *Country) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Country) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// CountryFilter represents filter criteria for country queries
type CountryFilter struct {
	ID       *uint   `json:"id,omitempty"`
	Code     *string `json:"code,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
