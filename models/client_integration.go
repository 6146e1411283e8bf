package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// IntegrationStatus represents the connection state of an ESP integration
type IntegrationStatus string

const (
	IntegrationStatusConnected    IntegrationStatus = "CONNECTED"
	IntegrationStatusDisconnected IntegrationStatus = "DISCONNECTED"
)

// String returns the string representation of the status
func (s IntegrationStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s IntegrationStatus) Valid() bool {
	switch s {
	case IntegrationStatusConnected, IntegrationStatusDisconnected:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for IntegrationStatus
func (s *IntegrationStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = IntegrationStatus(v)
	case []byte:
		*s = IntegrationStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into IntegrationStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for IntegrationStatus
func (s IntegrationStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid IntegrationStatus: %s", s)
	}
	return string(s), nil
}

// MailingList is one subscriber list fetched from the ESP
type MailingList struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
}

// IntegrationMetadata is the JSON metadata stored alongside an integration.
// It never contains credential material.
type IntegrationMetadata struct {
	AccountName  *string       `json:"account_name,omitempty"`
	AccountEmail *string       `json:"account_email,omitempty"`
	Lists        []MailingList `json:"lists,omitempty"`
	UTMMedium    *string       `json:"utm_medium,omitempty"`
}

// Value implements the driver.Valuer interface for IntegrationMetadata
func (m IntegrationMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for IntegrationMetadata
func (m *IntegrationMetadata) Scan(value any) error {
	if value == nil {
		*m = IntegrationMetadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into IntegrationMetadata", value)
	}

	return json.Unmarshal(bytes, m)
}

// ClientIntegration is one row per (client, provider). Disconnecting nulls the
// credential and metadata but keeps the row as an audit trail.
type ClientIntegration struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ClientID uint   `gorm:"not null;index:idx_client_integrations_client_id;uniqueIndex:uk_client_integrations_client_provider" json:"client_id"`
	Provider string `gorm:"size:32;not null;uniqueIndex:uk_client_integrations_client_provider" json:"provider"`

	Status IntegrationStatus `gorm:"type:text;not null;default:'DISCONNECTED';index:idx_client_integrations_status" json:"status"`

	// AES-GCM ciphertext of the ESP credential, base64 encoded. Never serialized out.
	EncryptedCredentials *string `gorm:"type:text" json:"-"`

	Metadata     IntegrationMetadata `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	LastSyncedAt *time.Time          `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time           `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    *time.Time          `json:"updated_at,omitempty"`

	// Relations
	Client *Client `gorm:"foreignKey:ClientID;references:ID" json:"client,omitempty"`
}

// TableName returns the table name for the model
func (ClientIntegration) TableName() string {
	return "client_integrations"
}

// BeforeCreate is called before creating a new record
func (i *ClientIntegration) BeforeCreate(tx *gorm.DB) error {
	if i.Status == "" {
		i.Status = IntegrationStatusDisconnected
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (i *ClientIntegration) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	i.UpdatedAt = &now
	return nil
}

// IsConnected reports whether the integration holds a usable credential
func (i *ClientIntegration) IsConnected() bool {
	return i.Status == IntegrationStatusConnected && i.EncryptedCredentials != nil
}

// ClientIntegrationFilter represents filter criteria for integration queries
type ClientIntegrationFilter struct {
	ID       *uint              `json:"id,omitempty"`
	ClientID *uint              `json:"client_id,omitempty"`
	Provider *string            `json:"provider,omitempty"`
	Status   *IntegrationStatus `json:"status,omitempty"`
}
