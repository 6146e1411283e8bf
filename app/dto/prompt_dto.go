package dto

// CreatePromptTemplateRequest represents the admin request to create a prompt template
type CreatePromptTemplateRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=255"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	SystemPrompt string  `json:"system_prompt" validate:"required,min=1"`
	UserPrompt   string  `json:"user_prompt" validate:"required,min=1"`
	DesignEngine string  `json:"design_engine" validate:"required,oneof=CLAUDE GPT4O"`
	TemplateType string  `json:"template_type" validate:"required,oneof=SINGLE_PRODUCT MULTI_PRODUCT"`
	Status       string  `json:"status" validate:"required,oneof=ACTIVE DRAFT ARCHIVED"`
	IsDefault    *bool   `json:"is_default,omitempty"`
}

// UpdatePromptTemplateRequest represents the admin request to update a prompt
// template. Nil fields are left unchanged.
type UpdatePromptTemplateRequest struct {
	PromptUUID   string  `json:"-"`
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	SystemPrompt *string `json:"system_prompt,omitempty" validate:"omitempty,min=1"`
	UserPrompt   *string `json:"user_prompt,omitempty" validate:"omitempty,min=1"`
	DesignEngine *string `json:"design_engine,omitempty" validate:"omitempty,oneof=CLAUDE GPT4O"`
	TemplateType *string `json:"template_type,omitempty" validate:"omitempty,oneof=SINGLE_PRODUCT MULTI_PRODUCT"`
	Status       *string `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE DRAFT ARCHIVED"`
	IsDefault    *bool   `json:"is_default,omitempty"`
}

// ListPromptTemplatesRequest represents filter criteria for listing prompt templates
type ListPromptTemplatesRequest struct {
	Page         int     `query:"page" validate:"omitempty,min=1"`
	PageSize     int     `query:"page_size" validate:"omitempty,min=1,max=100"`
	TemplateType *string `query:"template_type" validate:"omitempty,oneof=SINGLE_PRODUCT MULTI_PRODUCT"`
	Status       *string `query:"status" validate:"omitempty,oneof=ACTIVE DRAFT ARCHIVED"`
}

// PromptTemplateDTO is the prompt template representation returned to admins
type PromptTemplateDTO struct {
	UUID         string  `json:"uuid"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	SystemPrompt string  `json:"system_prompt"`
	UserPrompt   string  `json:"user_prompt"`
	DesignEngine string  `json:"design_engine"`
	TemplateType string  `json:"template_type"`
	Status       string  `json:"status"`
	IsDefault    bool    `json:"is_default"`
	Version      int     `json:"version"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    *string `json:"updated_at,omitempty"`
}

// PromptTemplateResponse wraps a single prompt template
type PromptTemplateResponse struct {
	Message string            `json:"message"`
	Prompt  PromptTemplateDTO `json:"prompt"`
}

// ListPromptTemplatesResponse represents the paginated prompt template listing
type ListPromptTemplatesResponse struct {
	Message string              `json:"message"`
	Prompts []PromptTemplateDTO `json:"prompts"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
}

// PromptStatsDTO aggregates generation outcomes for one prompt template
type PromptStatsDTO struct {
	PromptUUID       string  `json:"prompt_uuid"`
	TotalRuns        int64   `json:"total_runs"`
	SuccessfulRuns   int64   `json:"successful_runs"`
	SuccessRate      float64 `json:"success_rate"`
	AvgGenerationMs  float64 `json:"avg_generation_ms"`
	LastGenerationAt *string `json:"last_generation_at,omitempty"`
}

// PromptStatsResponse wraps the generation stats for one prompt template
type PromptStatsResponse struct {
	Message string         `json:"message"`
	Stats   PromptStatsDTO `json:"stats"`
}
