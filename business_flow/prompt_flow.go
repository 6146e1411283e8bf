// Package businessflow contains the core business logic and use cases for prompt template administration
package businessflow

import (
	"context"

	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/repository"
	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// PromptFlow handles prompt template administration
type PromptFlow interface {
	CreatePrompt(ctx context.Context, req *dto.CreatePromptTemplateRequest, metadata *ClientMetadata) (*dto.PromptTemplateResponse, error)
	UpdatePrompt(ctx context.Context, req *dto.UpdatePromptTemplateRequest, metadata *ClientMetadata) (*dto.PromptTemplateResponse, error)
	GetPrompt(ctx context.Context, promptUUID string) (*dto.PromptTemplateResponse, error)
	ListPrompts(ctx context.Context, req *dto.ListPromptTemplatesRequest, metadata *ClientMetadata) (*dto.ListPromptTemplatesResponse, error)
	GetPromptStats(ctx context.Context, promptUUID string) (*dto.PromptStatsResponse, error)
}

// PromptFlowImpl implements the prompt template business flow
type PromptFlowImpl struct {
	promptRepo     repository.PromptTemplateRepository
	generationRepo repository.TemplateGenerationRepository
	db             *gorm.DB
}

// NewPromptFlow creates a new prompt flow instance
func NewPromptFlow(
	promptRepo repository.PromptTemplateRepository,
	generationRepo repository.TemplateGenerationRepository,
	db *gorm.DB,
) PromptFlow {
	return &PromptFlowImpl{
		promptRepo:     promptRepo,
		generationRepo: generationRepo,
		db:             db,
	}
}

// CreatePrompt creates a prompt template. Marking it default clears the
// previous default of the same template type in the same transaction.
func (f *PromptFlowImpl) CreatePrompt(ctx context.Context, req *dto.CreatePromptTemplateRequest, metadata *ClientMetadata) (*dto.PromptTemplateResponse, error) {
	prompt := &models.PromptTemplate{
		Name:         req.Name,
		Description:  req.Description,
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		DesignEngine: models.DesignEngine(req.DesignEngine),
		TemplateType: models.PromptTemplateType(req.TemplateType),
		Status:       models.PromptStatus(req.Status),
		IsDefault:    req.IsDefault,
	}

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if utils.IsTrue(req.IsDefault) {
			if err := f.promptRepo.ClearDefault(txCtx, prompt.TemplateType); err != nil {
				return err
			}
		}
		return f.promptRepo.Save(txCtx, prompt)
	})
	if err != nil {
		return nil, NewBusinessError("PROMPT_SAVE_FAILED", "Failed to create prompt template", err)
	}

	return &dto.PromptTemplateResponse{
		Message: "Prompt template created successfully",
		Prompt:  ToPromptTemplateDTO(*prompt),
	}, nil
}

// UpdatePrompt updates a prompt template. Editing either prompt string bumps
// the version so generation stats stay attributable.
func (f *PromptFlowImpl) UpdatePrompt(ctx context.Context, req *dto.UpdatePromptTemplateRequest, metadata *ClientMetadata) (*dto.PromptTemplateResponse, error) {
	prompt, err := f.lookupPrompt(ctx, req.PromptUUID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		prompt.Name = *req.Name
	}
	if req.Description != nil {
		prompt.Description = req.Description
	}
	promptsChanged := false
	if req.SystemPrompt != nil && *req.SystemPrompt != prompt.SystemPrompt {
		prompt.SystemPrompt = *req.SystemPrompt
		promptsChanged = true
	}
	if req.UserPrompt != nil && *req.UserPrompt != prompt.UserPrompt {
		prompt.UserPrompt = *req.UserPrompt
		promptsChanged = true
	}
	if promptsChanged {
		prompt.Version++
	}
	if req.DesignEngine != nil {
		prompt.DesignEngine = models.DesignEngine(*req.DesignEngine)
	}
	if req.TemplateType != nil {
		prompt.TemplateType = models.PromptTemplateType(*req.TemplateType)
	}
	if req.Status != nil {
		prompt.Status = models.PromptStatus(*req.Status)
	}
	if req.IsDefault != nil {
		prompt.IsDefault = req.IsDefault
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if req.IsDefault != nil && *req.IsDefault {
			if err := f.promptRepo.ClearDefault(txCtx, prompt.TemplateType); err != nil {
				return err
			}
		}
		return f.promptRepo.Update(txCtx, *prompt)
	})
	if err != nil {
		return nil, NewBusinessError("PROMPT_SAVE_FAILED", "Failed to update prompt template", err)
	}

	return &dto.PromptTemplateResponse{
		Message: "Prompt template updated successfully",
		Prompt:  ToPromptTemplateDTO(*prompt),
	}, nil
}

// GetPrompt returns one prompt template by UUID
func (f *PromptFlowImpl) GetPrompt(ctx context.Context, promptUUID string) (*dto.PromptTemplateResponse, error) {
	prompt, err := f.lookupPrompt(ctx, promptUUID)
	if err != nil {
		return nil, err
	}
	return &dto.PromptTemplateResponse{
		Message: "Prompt template retrieved successfully",
		Prompt:  ToPromptTemplateDTO(*prompt),
	}, nil
}

// ListPrompts returns the paginated prompt template listing
func (f *PromptFlowImpl) ListPrompts(ctx context.Context, req *dto.ListPromptTemplatesRequest, metadata *ClientMetadata) (*dto.ListPromptTemplatesResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := models.PromptTemplateFilter{}
	if req.TemplateType != nil {
		templateType := models.PromptTemplateType(*req.TemplateType)
		filter.TemplateType = &templateType
	}
	if req.Status != nil {
		status := models.PromptStatus(*req.Status)
		filter.Status = &status
	}

	prompts, err := f.promptRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("PROMPT_LIST_FAILED", "Failed to list prompt templates", err)
	}
	total, err := f.promptRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("PROMPT_COUNT_FAILED", "Failed to count prompt templates", err)
	}

	response := &dto.ListPromptTemplatesResponse{
		Message: "Prompt templates retrieved successfully",
		Prompts: make([]dto.PromptTemplateDTO, 0, len(prompts)),
		Total:   total,
		Page:    page,
	}
	for _, prompt := range prompts {
		response.Prompts = append(response.Prompts, ToPromptTemplateDTO(*prompt))
	}
	return response, nil
}

// GetPromptStats aggregates the generation audit trail for one prompt
func (f *PromptFlowImpl) GetPromptStats(ctx context.Context, promptUUID string) (*dto.PromptStatsResponse, error) {
	prompt, err := f.lookupPrompt(ctx, promptUUID)
	if err != nil {
		return nil, err
	}

	stats, err := f.generationRepo.StatsByPrompt(ctx, prompt.ID)
	if err != nil {
		return nil, NewBusinessError("PROMPT_STATS_FAILED", "Failed to aggregate generation stats", err)
	}

	return &dto.PromptStatsResponse{
		Message: "Prompt stats retrieved successfully",
		Stats: dto.PromptStatsDTO{
			PromptUUID:       prompt.UUID.String(),
			TotalRuns:        stats.TotalRuns,
			SuccessfulRuns:   stats.SuccessfulRuns,
			SuccessRate:      stats.SuccessRate,
			AvgGenerationMs:  stats.AvgGenerationMs,
			LastGenerationAt: stats.LastGenerationAt,
		},
	}, nil
}

func (f *PromptFlowImpl) lookupPrompt(ctx context.Context, promptUUID string) (*models.PromptTemplate, error) {
	prompt, err := f.promptRepo.ByUUID(ctx, promptUUID)
	if err != nil {
		return nil, NewBusinessError("PROMPT_LOOKUP_FAILED", "Failed to lookup prompt template", err)
	}
	if prompt == nil {
		return nil, NewBusinessError("PROMPT_NOT_FOUND", "Prompt template not found", ErrPromptNotFound)
	}
	return prompt, nil
}
