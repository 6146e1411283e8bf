package models

import (
	"time"

	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// TemplateGeneration is an append-only audit record of one generation attempt.
// Rows are never updated after creation.
type TemplateGeneration struct {
	ID       uint  `gorm:"primaryKey" json:"id"`
	PromptID uint  `gorm:"not null;index:idx_template_generations_prompt_id" json:"prompt_id"`
	UserID   *uint `gorm:"index:idx_template_generations_user_id" json:"user_id,omitempty"`

	WasSuccessful    bool   `gorm:"not null;index:idx_template_generations_was_successful" json:"was_successful"`
	GenerationTimeMs int64  `gorm:"not null" json:"generation_time_ms"`
	InputURL         string `gorm:"size:2048;not null" json:"input_url"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_template_generations_created_at" json:"created_at"`

	// Relations
	Prompt *PromptTemplate `gorm:"foreignKey:PromptID;references:ID" json:"prompt,omitempty"`
}

// TableName returns the table name for the model
func (TemplateGeneration) TableName() string {
	return "template_generations"
}

// BeforeCreate is called before creating a new record
func (g *TemplateGeneration) BeforeCreate(tx *gorm.DB) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = utils.UTCNow()
	}
	return nil
}

// TemplateGenerationFilter represents filter criteria for generation queries
type TemplateGenerationFilter struct {
	ID            *uint      `json:"id,omitempty"`
	PromptID      *uint      `json:"prompt_id,omitempty"`
	UserID        *uint      `json:"user_id,omitempty"`
	WasSuccessful *bool      `json:"was_successful,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}

// PromptGenerationStats aggregates TemplateGeneration rows for one prompt
type PromptGenerationStats struct {
	PromptID         uint    `json:"prompt_id"`
	TotalRuns        int64   `json:"total_runs"`
	SuccessfulRuns   int64   `json:"successful_runs"`
	SuccessRate      float64 `json:"success_rate"`
	AvgGenerationMs  float64 `json:"avg_generation_ms"`
	LastGenerationAt *string `json:"last_generation_at,omitempty"`
}
