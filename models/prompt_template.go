package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// DesignEngine selects which LLM backend renders content and design
type DesignEngine string

const (
	DesignEngineClaude DesignEngine = "CLAUDE"
	DesignEngineGPT4O  DesignEngine = "GPT4O"
)

// String returns the string representation of the engine
func (e DesignEngine) String() string {
	return string(e)
}

// Valid checks if the engine is valid
func (e DesignEngine) Valid() bool {
	switch e {
	case DesignEngineClaude, DesignEngineGPT4O:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for DesignEngine
func (e *DesignEngine) Scan(value any) error {
	if value == nil {
		*e = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*e = DesignEngine(v)
	case []byte:
		*e = DesignEngine(string(v))
	default:
		return fmt.Errorf("cannot scan %T into DesignEngine", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for DesignEngine
func (e DesignEngine) Value() (driver.Value, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("invalid DesignEngine: %s", e)
	}
	return string(e), nil
}

// PromptTemplateType distinguishes single-product from multi-product prompts
type PromptTemplateType string

const (
	PromptTemplateTypeSingleProduct PromptTemplateType = "SINGLE_PRODUCT"
	PromptTemplateTypeMultiProduct  PromptTemplateType = "MULTI_PRODUCT"
)

// String returns the string representation of the template type
func (t PromptTemplateType) String() string {
	return string(t)
}

// Valid checks if the template type is valid
func (t PromptTemplateType) Valid() bool {
	switch t {
	case PromptTemplateTypeSingleProduct, PromptTemplateTypeMultiProduct:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for PromptTemplateType
func (t *PromptTemplateType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = PromptTemplateType(v)
	case []byte:
		*t = PromptTemplateType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PromptTemplateType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for PromptTemplateType
func (t PromptTemplateType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid PromptTemplateType: %s", t)
	}
	return string(t), nil
}

// PromptStatus represents the lifecycle state of a prompt template
type PromptStatus string

const (
	PromptStatusActive   PromptStatus = "ACTIVE"
	PromptStatusDraft    PromptStatus = "DRAFT"
	PromptStatusArchived PromptStatus = "ARCHIVED"
)

// String returns the string representation of the status
func (s PromptStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s PromptStatus) Valid() bool {
	switch s {
	case PromptStatusActive, PromptStatusDraft, PromptStatusArchived:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for PromptStatus
func (s *PromptStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = PromptStatus(v)
	case []byte:
		*s = PromptStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PromptStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for PromptStatus
func (s PromptStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid PromptStatus: %s", s)
	}
	return string(s), nil
}

// PromptTemplate is an authored prompt pair used by the generation pipeline.
// It is immutable during a single generation run.
type PromptTemplate struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_prompt_templates_uuid" json:"uuid"`
	Name        string    `gorm:"size:255;not null;index:idx_prompt_templates_name" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`

	SystemPrompt string `gorm:"type:text;not null" json:"system_prompt"`
	UserPrompt   string `gorm:"type:text;not null" json:"user_prompt"`

	DesignEngine DesignEngine       `gorm:"type:text;not null;default:'CLAUDE'" json:"design_engine"`
	TemplateType PromptTemplateType `gorm:"type:text;not null;default:'SINGLE_PRODUCT';index:idx_prompt_templates_template_type" json:"template_type"`
	Status       PromptStatus       `gorm:"type:text;not null;default:'DRAFT';index:idx_prompt_templates_status" json:"status"`

	// Only one template per TemplateType may be the default
	IsDefault *bool `gorm:"default:false;index:idx_prompt_templates_is_default" json:"is_default"`
	Version   int   `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_prompt_templates_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (PromptTemplate) TableName() string {
	return "prompt_templates"
}

// BeforeCreate is called before creating a new record
func (p *PromptTemplate) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PromptStatusDraft
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (p *PromptTemplate) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	p.UpdatedAt = &now
	return nil
}

// IsUsable reports whether the template can be selected for generation
func (p *PromptTemplate) IsUsable() bool {
	return p.Status == PromptStatusActive
}

// PromptTemplateFilter represents filter criteria for prompt template queries
type PromptTemplateFilter struct {
	ID           *uint               `json:"id,omitempty"`
	UUID         *uuid.UUID          `json:"uuid,omitempty"`
	Name         *string             `json:"name,omitempty"`
	DesignEngine *DesignEngine       `json:"design_engine,omitempty"`
	TemplateType *PromptTemplateType `json:"template_type,omitempty"`
	Status       *PromptStatus       `json:"status,omitempty"`
	IsDefault    *bool               `json:"is_default,omitempty"`
}
