package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/app/services"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/utils"
)

const (
	contentJSON = `{"subject":"Big sale","headline":"Save now","bodyText":"Great deals","ctaText":"Shop","preheader":"Don't miss out"}`
	designHTML  = `<html><body><h1>Save now</h1><img src="https://img.example.com/de.jpg"></body></html>`
)

func newGenerationFixture() (*mockPromptRepo, *mockGenerationRepo, *services.MockScraper, *services.MockAIProvider, *services.MockAIProvider) {
	return newMockPromptRepo(), &mockGenerationRepo{}, services.NewMockScraper(),
		services.NewMockAIProvider("claude"), services.NewMockAIProvider("gpt4o")
}

func defaultPrompt(engine models.DesignEngine, templateType models.PromptTemplateType) *models.PromptTemplate {
	return &models.PromptTemplate{
		ID:           1,
		Name:         "default",
		SystemPrompt: "Design an email.",
		UserPrompt:   "Feature {{product_name}} at {{sale_price}}.",
		DesignEngine: engine,
		TemplateType: templateType,
		Status:       models.PromptStatusActive,
		IsDefault:    utils.ToPtr(true),
	}
}

func TestGenerateTemplateSingleProduct(t *testing.T) {
	promptRepo, generationRepo, scraper, claude, gpt4o := newGenerationFixture()
	promptRepo.add(defaultPrompt(models.DesignEngineClaude, models.PromptTemplateTypeSingleProduct))

	scraper.Results["https://shop.example.de/blender"] = &models.ProductInfo{
		Title:        "Mixer X",
		Images:       []string{"https://img.example.com/de.jpg"},
		Language:     "de",
		RegularPrice: "59,99 EUR",
		SalePrice:    "49,99 EUR",
	}
	claude.Responses = []string{"```json\n" + contentJSON + "\n```", designHTML}

	flow := NewTemplateGenerationFlow(promptRepo, generationRepo, scraper, claude, gpt4o)
	resp, err := flow.GenerateTemplate(context.Background(), &dto.GenerateTemplateRequest{
		UserID:       7,
		TemplateType: "SINGLE_PRODUCT",
		CountryURLs:  map[string][]string{"DE": {"https://shop.example.de/blender"}},
	}, NewClientMetadata("127.0.0.1", "test"))

	require.NoError(t, err)
	assert.Equal(t, "DE", resp.BaseCountry)
	assert.Equal(t, "Big sale", resp.EmailTemplate.Subject)
	assert.Equal(t, designHTML, resp.EmailTemplate.HTML)
	assert.Equal(t, "SINGLE", resp.CountryResults["DE"].Type)
	require.NotNil(t, resp.ProductInfo)
	assert.Equal(t, "Mixer X", resp.ProductInfo.Title)

	// One content call plus one design call, both on the prompt's engine
	assert.Equal(t, 2, claude.CallCount())
	assert.Equal(t, 0, gpt4o.CallCount())

	require.Len(t, generationRepo.saved, 1)
	assert.True(t, generationRepo.saved[0].WasSuccessful)
	require.NotNil(t, generationRepo.saved[0].UserID)
	assert.Equal(t, uint(7), *generationRepo.saved[0].UserID)
}

func TestGenerateTemplateBaseCountrySelection(t *testing.T) {
	promptRepo, generationRepo, scraper, claude, gpt4o := newGenerationFixture()
	promptRepo.add(defaultPrompt(models.DesignEngineClaude, models.PromptTemplateTypeSingleProduct))

	// SI has no URLs, the US URL fails, DE succeeds. The first country in the
	// caller's order with usable data wins.
	scraper.Results["https://shop.example.de/p"] = &models.ProductInfo{Title: "Mixer X", Language: "de"}
	claude.Responses = []string{contentJSON, designHTML}

	flow := NewTemplateGenerationFlow(promptRepo, generationRepo, scraper, claude, gpt4o)
	resp, err := flow.GenerateTemplate(context.Background(), &dto.GenerateTemplateRequest{
		TemplateType: "SINGLE_PRODUCT",
		CountryOrder: []string{"SI", "US", "DE"},
		CountryURLs: map[string][]string{
			"SI": {},
			"US": {"https://shop.example.com/p"},
			"DE": {"https://shop.example.de/p"},
		},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "DE", resp.BaseCountry)
}

func TestGenerateTemplateNoUsableProductData(t *testing.T) {
	promptRepo, generationRepo, scraper, claude, gpt4o := newGenerationFixture()
	promptRepo.add(defaultPrompt(models.DesignEngineClaude, models.PromptTemplateTypeSingleProduct))

	flow := NewTemplateGenerationFlow(promptRepo, generationRepo, scraper, claude, gpt4o)
	_, err := flow.GenerateTemplate(context.Background(), &dto.GenerateTemplateRequest{
		TemplateType: "SINGLE_PRODUCT",
		CountryURLs:  map[string][]string{"DE": {"https://shop.example.de/missing"}},
	}, nil)

	require.Error(t, err)
	assert.True(t, IsNoUsableProductData(err))

	// No LLM call happens when scraping yields nothing
	assert.Equal(t, 0, claude.CallCount())
	assert.Equal(t, 0, gpt4o.CallCount())

	require.Len(t, generationRepo.saved, 1)
	assert.False(t, generationRepo.saved[0].WasSuccessful)
}

func TestGenerateTemplatePromptResolution(t *testing.T) {
	t.Run("unknown prompt uuid", func(t *testing.T) {
		promptRepo, generationRepo, scraper, claude, gpt4o := newGenerationFixture()
		flow := NewTemplateGenerationFlow(promptRepo, generationRepo, scraper, claude, gpt4o)

		_, err := flow.GenerateTemplate(context.Background(), &dto.GenerateTemplateRequest{
			PromptUUID:   utils.ToPtr("6f9619ff-8b86-4d01-b42d-00c04fc964ff"),
			TemplateType: "SINGLE_PRODUCT",
			CountryURLs:  map[string][]string{"DE": {"https://shop.example.de/p"}},
		}, nil)
		assert.True(t, IsPromptNotFound(err))
	})

	t.Run("inactive prompt is not usable", func(t *testing.T) {
		promptRepo, generationRepo, scraper, claude, gpt4o := newGenerationFixture()
		draft := defaultPrompt(models.DesignEngineClaude, models.PromptTemplateTypeSingleProduct)
		draft.Status = models.PromptStatusDraft
		prompt := promptRepo.add(draft)

		flow := NewTemplateGenerationFlow(promptRepo, generationRepo, scraper, claude, gpt4o)
		_, err := flow.GenerateTemplate(context.Background(), &dto.GenerateTemplateRequest{
			PromptUUID:   utils.ToPtr(prompt.UUID.String()),
			TemplateType: "SINGLE_PRODUCT",
			CountryURLs:  map[string][]string{"DE": {"https://shop.example.de/p"}},
		}, nil)
		assert.True(t, IsPromptNotUsable(err))
	})

	t.Run("no default prompt for type", func(t *testing.T) {
		promptRepo, generationRepo, scraper, claude, gpt4o := newGenerationFixture()
		flow := NewTemplateGenerationFlow(promptRepo, generationRepo, scraper, claude, gpt4o)

		_, err := flow.GenerateTemplate(context.Background(), &dto.GenerateTemplateRequest{
			TemplateType: "MULTI_PRODUCT",
			CountryURLs:  map[string][]string{"DE": {"https://shop.example.de/p"}},
		}, nil)
		assert.True(t, IsNoDefaultPrompt(err))
	})
}

func TestGenerateTemplateUnparseableContent(t *testing.T) {
	promptRepo, generationRepo, scraper, claude, gpt4o := newGenerationFixture()
	promptRepo.add(defaultPrompt(models.DesignEngineClaude, models.PromptTemplateTypeSingleProduct))

	scraper.Results["https://shop.example.de/p"] = &models.ProductInfo{Title: "Mixer X"}
	claude.Responses = []string{"Sure! Here is some copy for you."}

	flow := NewTemplateGenerationFlow(promptRepo, generationRepo, scraper, claude, gpt4o)
	_, err := flow.GenerateTemplate(context.Background(), &dto.GenerateTemplateRequest{
		TemplateType: "SINGLE_PRODUCT",
		CountryURLs:  map[string][]string{"DE": {"https://shop.example.de/p"}},
	}, nil)

	require.Error(t, err)
	assert.True(t, IsContentUnparseable(err))
	assert.False(t, IsContentGenerationFailed(err))

	require.Len(t, generationRepo.saved, 1)
	assert.False(t, generationRepo.saved[0].WasSuccessful)
}

func TestGenerateTemplateGPT4OUsesJSONMode(t *testing.T) {
	promptRepo, generationRepo, scraper, claude, gpt4o := newGenerationFixture()
	promptRepo.add(defaultPrompt(models.DesignEngineGPT4O, models.PromptTemplateTypeMultiProduct))

	scraper.Results["https://shop.example.de/a"] = &models.ProductInfo{Title: "Mixer X"}
	scraper.Results["https://shop.example.de/b"] = &models.ProductInfo{Title: "Toaster Y"}
	gpt4o.Responses = []string{contentJSON, `{"html":"` + `<html><body>ok</body></html>` + `"}`}

	flow := NewTemplateGenerationFlow(promptRepo, generationRepo, scraper, claude, gpt4o)
	resp, err := flow.GenerateTemplate(context.Background(), &dto.GenerateTemplateRequest{
		TemplateType: "MULTI_PRODUCT",
		CountryURLs:  map[string][]string{"DE": {"https://shop.example.de/a", "https://shop.example.de/b"}},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, claude.CallCount())
	require.Equal(t, 2, gpt4o.CallCount())
	assert.True(t, gpt4o.Requests[0].JSONMode)
	assert.False(t, gpt4o.Requests[1].JSONMode)

	// The JSON envelope around the design response is unwrapped
	assert.Equal(t, "<html><body>ok</body></html>", resp.EmailTemplate.HTML)
	assert.Equal(t, "MULTI", resp.CountryResults["DE"].Type)
	assert.Len(t, resp.CountryResults["DE"].Products, 2)
}

func TestOrderedCountries(t *testing.T) {
	urls := map[string][]string{"DE": {"a"}, "US": {"b"}, "SI": {"c"}}

	t.Run("falls back to sorted codes without an explicit order", func(t *testing.T) {
		assert.Equal(t, []string{"DE", "SI", "US"}, orderedCountries(nil, urls))
	})

	t.Run("keeps caller order and appends stragglers", func(t *testing.T) {
		got := orderedCountries([]string{"US", "DE"}, urls)
		assert.Equal(t, []string{"US", "DE"}, got[:2])
		assert.Contains(t, got, "SI")
		assert.Len(t, got, 3)
	})

	t.Run("drops codes without URLs and duplicates", func(t *testing.T) {
		got := orderedCountries([]string{"FR", "DE", "DE"}, map[string][]string{"DE": {"a"}})
		assert.Equal(t, []string{"DE"}, got)
	})
}
