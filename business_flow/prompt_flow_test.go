package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/utils"
)

func TestGetPrompt(t *testing.T) {
	promptRepo := newMockPromptRepo()
	prompt := promptRepo.add(&models.PromptTemplate{
		Name:         "Summer single",
		SystemPrompt: "sys",
		UserPrompt:   "user",
		DesignEngine: models.DesignEngineClaude,
		TemplateType: models.PromptTemplateTypeSingleProduct,
		Status:       models.PromptStatusActive,
		IsDefault:    utils.ToPtr(true),
		Version:      3,
	})
	flow := NewPromptFlow(promptRepo, &mockGenerationRepo{}, nil)

	resp, err := flow.GetPrompt(context.Background(), prompt.UUID.String())
	require.NoError(t, err)
	assert.Equal(t, "Summer single", resp.Prompt.Name)
	assert.Equal(t, "CLAUDE", resp.Prompt.DesignEngine)
	assert.Equal(t, "SINGLE_PRODUCT", resp.Prompt.TemplateType)
	assert.True(t, resp.Prompt.IsDefault)
	assert.Equal(t, 3, resp.Prompt.Version)
}

func TestGetPromptNotFound(t *testing.T) {
	flow := NewPromptFlow(newMockPromptRepo(), &mockGenerationRepo{}, nil)

	_, err := flow.GetPrompt(context.Background(), "6f9619ff-8b86-4d01-b42d-00c04fc964ff")
	assert.True(t, IsPromptNotFound(err))
}

func TestGetPromptStats(t *testing.T) {
	promptRepo := newMockPromptRepo()
	prompt := promptRepo.add(&models.PromptTemplate{
		ID:           5,
		Name:         "tracked",
		DesignEngine: models.DesignEngineClaude,
		TemplateType: models.PromptTemplateTypeSingleProduct,
		Status:       models.PromptStatusActive,
	})
	flow := NewPromptFlow(promptRepo, &mockGenerationRepo{}, nil)

	resp, err := flow.GetPromptStats(context.Background(), prompt.UUID.String())
	require.NoError(t, err)
	assert.Equal(t, prompt.UUID.String(), resp.Stats.PromptUUID)
}

func TestListPromptsNormalizesPagination(t *testing.T) {
	flow := NewPromptFlow(newMockPromptRepo(), &mockGenerationRepo{}, nil)

	resp, err := flow.ListPrompts(context.Background(), &dto.ListPromptTemplatesRequest{
		Page:     0,
		PageSize: 500,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Empty(t, resp.Prompts)
}
