// Package businessflow contains the core business logic and use cases for template generation workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/app/services"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/repository"
	"github.com/templaito/templaito/utils"
)

var templateGenerationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "template_generations_total",
		Help: "Total number of template generation attempts",
	},
	[]string{"result"},
)

// TemplateGenerationFlow handles the scrape, content and design generation pipeline
type TemplateGenerationFlow interface {
	GenerateTemplate(ctx context.Context, req *dto.GenerateTemplateRequest, metadata *ClientMetadata) (*dto.GenerateTemplateResponse, error)
}

// TemplateGenerationFlowImpl implements the template generation business flow
type TemplateGenerationFlowImpl struct {
	promptRepo     repository.PromptTemplateRepository
	generationRepo repository.TemplateGenerationRepository
	scraper        services.Scraper
	claude         services.AIProvider
	gpt4o          services.AIProvider
}

// NewTemplateGenerationFlow creates a new template generation flow instance
func NewTemplateGenerationFlow(
	promptRepo repository.PromptTemplateRepository,
	generationRepo repository.TemplateGenerationRepository,
	scraper services.Scraper,
	claude services.AIProvider,
	gpt4o services.AIProvider,
) TemplateGenerationFlow {
	return &TemplateGenerationFlowImpl{
		promptRepo:     promptRepo,
		generationRepo: generationRepo,
		scraper:        scraper,
		claude:         claude,
		gpt4o:          gpt4o,
	}
}

// GenerateTemplate scrapes every country's product URLs, picks the base
// country, and runs content then design generation on the base country's data.
func (f *TemplateGenerationFlowImpl) GenerateTemplate(ctx context.Context, req *dto.GenerateTemplateRequest, metadata *ClientMetadata) (*dto.GenerateTemplateResponse, error) {
	templateType := models.PromptTemplateType(req.TemplateType)

	prompt, err := f.resolvePrompt(ctx, req.PromptUUID, templateType)
	if err != nil {
		return nil, err
	}

	started := utils.UTCNow()
	countryOrder := orderedCountries(req.CountryOrder, req.CountryURLs)
	countryResults := f.scrapeCountries(ctx, countryOrder, req.CountryURLs, templateType)

	baseCountry := ""
	for _, code := range countryOrder {
		if result, ok := countryResults[code]; ok && !result.IsEmpty() {
			baseCountry = code
			break
		}
	}
	if baseCountry == "" {
		f.recordGeneration(ctx, prompt.ID, req.UserID, firstURL(countryOrder, req.CountryURLs), false, started)
		return nil, NewBusinessError("NO_USABLE_PRODUCT_DATA", "No product data could be scraped from any country", ErrNoUsableProductData)
	}

	baseResult := countryResults[baseCountry]
	baseProducts := baseResult.Products()

	content, err := f.generateContent(ctx, prompt, baseProducts)
	if err != nil {
		f.recordGeneration(ctx, prompt.ID, req.UserID, baseResult.URLs[0], false, started)
		return nil, err
	}

	html, err := f.generateDesign(ctx, prompt, content, baseProducts)
	if err != nil {
		f.recordGeneration(ctx, prompt.ID, req.UserID, baseResult.URLs[0], false, started)
		return nil, err
	}

	f.recordGeneration(ctx, prompt.ID, req.UserID, baseResult.URLs[0], true, started)

	subject := content.Subject
	if subject == "" {
		subject = utils.DefaultEmailSubject
	}
	emailTemplate := &models.EmailTemplate{Subject: subject, HTML: html}

	resultDTOs := make(map[string]dto.CountryScrapeResultDTO, len(countryResults))
	for code, result := range countryResults {
		resultDTOs[code] = ToCountryScrapeResultDTO(*result)
	}

	response := &dto.GenerateTemplateResponse{
		Message:         "Template generated successfully",
		BaseCountry:     baseCountry,
		CountryResults:  resultDTOs,
		EmailTemplate:   dto.EmailTemplateDTO{Subject: emailTemplate.Subject, HTML: emailTemplate.HTML},
		PreviewTemplate: dto.EmailTemplateDTO{Subject: emailTemplate.Subject, HTML: emailTemplate.HTML},
		PromptUUID:      prompt.UUID.String(),
	}
	if len(baseProducts) > 0 {
		info := ToProductInfoDTO(baseProducts[0])
		response.ProductInfo = &info
	}

	return response, nil
}

// resolvePrompt loads the requested prompt template or falls back to the
// default for the template type.
func (f *TemplateGenerationFlowImpl) resolvePrompt(ctx context.Context, promptUUID *string, templateType models.PromptTemplateType) (*models.PromptTemplate, error) {
	if promptUUID != nil && *promptUUID != "" {
		prompt, err := f.promptRepo.ByUUID(ctx, *promptUUID)
		if err != nil {
			return nil, NewBusinessError("PROMPT_LOOKUP_FAILED", "Failed to lookup prompt template", err)
		}
		if prompt == nil {
			return nil, NewBusinessError("PROMPT_NOT_FOUND", "Prompt template not found", ErrPromptNotFound)
		}
		if !prompt.IsUsable() {
			return nil, NewBusinessError("PROMPT_NOT_USABLE", "Prompt template is not active", ErrPromptNotUsable)
		}
		return prompt, nil
	}

	prompt, err := f.promptRepo.DefaultByType(ctx, templateType)
	if err != nil {
		return nil, NewBusinessError("PROMPT_LOOKUP_FAILED", "Failed to lookup default prompt template", err)
	}
	if prompt == nil {
		return nil, NewBusinessError("NO_DEFAULT_PROMPT", "No default prompt template for template type", ErrNoDefaultPrompt)
	}
	return prompt, nil
}

// scrapeCountries fans out one goroutine per country. URLs within a country
// are scraped sequentially; a failed URL is dropped and logged.
func (f *TemplateGenerationFlowImpl) scrapeCountries(ctx context.Context, countryOrder []string, countryURLs map[string][]string, templateType models.PromptTemplateType) map[string]*models.CountryScrapeResult {
	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make(map[string]*models.CountryScrapeResult, len(countryOrder))

	for _, code := range countryOrder {
		urls := nonEmptyURLs(countryURLs[code])
		if len(urls) == 0 {
			continue
		}

		wg.Add(1)
		go func(code string, urls []string) {
			defer wg.Done()

			products := make([]models.ProductInfo, 0, len(urls))
			for _, pageURL := range urls {
				info, err := f.scraper.Scrape(ctx, pageURL)
				if err != nil {
					log.Printf("scrape failed for %s (%s): %v", pageURL, code, err)
					continue
				}
				if info.IsEmpty() {
					continue
				}
				products = append(products, *info)
			}

			result := buildScrapeResult(urls, products, templateType)

			mu.Lock()
			results[code] = result
			mu.Unlock()
		}(code, urls)
	}

	wg.Wait()
	return results
}

// buildScrapeResult shapes scraped products as SINGLE or MULTI. A country is
// SINGLE only when the template is single-product and it has exactly one URL.
func buildScrapeResult(urls []string, products []models.ProductInfo, templateType models.PromptTemplateType) *models.CountryScrapeResult {
	if templateType == models.PromptTemplateTypeSingleProduct && len(urls) == 1 {
		result := &models.CountryScrapeResult{Type: models.ScrapeResultTypeSingle, URLs: urls}
		if len(products) > 0 {
			p := products[0]
			result.ProductInfo = &p
		}
		return result
	}
	result := &models.CountryScrapeResult{Type: models.ScrapeResultTypeMulti, URLs: urls}
	mi := models.MultiProductInfo{Products: products}
	if len(products) > 0 {
		mi.Language = products[0].Language
	}
	result.MultiProductInfo = &mi
	return result
}

// generateContent asks the prompt's engine for the structured marketing copy.
// GPT-4o uses its native JSON mode; Claude's answer is unwrapped from an
// optional markdown fence before parsing.
func (f *TemplateGenerationFlowImpl) generateContent(ctx context.Context, prompt *models.PromptTemplate, products []models.ProductInfo) (*models.GeneratedContent, error) {
	provider := f.providerFor(prompt.DesignEngine)

	raw, err := provider.Complete(ctx, services.CompletionRequest{
		System:    contentSystemPrompt,
		Prompt:    buildContentPrompt(products),
		MaxTokens: 1024,
		JSONMode:  prompt.DesignEngine == models.DesignEngineGPT4O,
	})
	if err != nil {
		return nil, NewBusinessError("CONTENT_GENERATION_FAILED", "Content generation failed", fmt.Errorf("%w: %v", ErrContentGenerationFailed, err))
	}

	if prompt.DesignEngine == models.DesignEngineClaude {
		raw = services.StripJSONFence(raw)
	}

	var content models.GeneratedContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, NewBusinessError("CONTENT_UNPARSEABLE", "Generated content is not valid JSON", fmt.Errorf("%w: %v", ErrContentUnparseable, err))
	}
	return &content, nil
}

// generateDesign asks the prompt's engine for the full newsletter HTML,
// unwrapping the JSON envelope some responses arrive in.
func (f *TemplateGenerationFlowImpl) generateDesign(ctx context.Context, prompt *models.PromptTemplate, content *models.GeneratedContent, products []models.ProductInfo) (string, error) {
	provider := f.providerFor(prompt.DesignEngine)

	tokens := designTokens(prompt.TemplateType, products)
	userPrompt := SubstituteTokens(prompt.UserPrompt, tokens)
	userPrompt = appendContentSection(userPrompt, content)

	raw, err := provider.Complete(ctx, services.CompletionRequest{
		System:    SubstituteTokens(prompt.SystemPrompt, tokens),
		Prompt:    userPrompt,
		MaxTokens: 4096,
	})
	if err != nil {
		return "", NewBusinessError("DESIGN_GENERATION_FAILED", "Design generation failed", fmt.Errorf("%w: %v", ErrDesignGenerationFailed, err))
	}

	html := services.ExtractHTMLPayload(raw)
	if strings.TrimSpace(html) == "" {
		return "", NewBusinessError("DESIGN_GENERATION_FAILED", "Design generation returned empty HTML", ErrDesignGenerationFailed)
	}
	return html, nil
}

func (f *TemplateGenerationFlowImpl) providerFor(engine models.DesignEngine) services.AIProvider {
	if engine == models.DesignEngineGPT4O {
		return f.gpt4o
	}
	return f.claude
}

// recordGeneration writes the append-only usage record. Failures here must
// not fail the generation itself.
func (f *TemplateGenerationFlowImpl) recordGeneration(ctx context.Context, promptID uint, userID uint, inputURL string, successful bool, started time.Time) {
	record := &models.TemplateGeneration{
		PromptID:         promptID,
		WasSuccessful:    successful,
		GenerationTimeMs: time.Since(started).Milliseconds(),
		InputURL:         inputURL,
	}
	if userID != 0 {
		record.UserID = &userID
	}
	result := "failure"
	if successful {
		result = "success"
	}
	templateGenerationsTotal.WithLabelValues(result).Inc()
	if err := f.generationRepo.Save(ctx, record); err != nil {
		log.Printf("failed to record template generation for prompt %d: %v", promptID, err)
	}
}

const contentSystemPrompt = "You are an expert email marketing copywriter. " +
	"Respond with a single JSON object with exactly these keys: " +
	`"subject", "headline", "bodyText", "ctaText", "preheader". No other text.`

// buildContentPrompt describes the products and pins the output language to
// the scraped page's language.
func buildContentPrompt(products []models.ProductInfo) string {
	var b strings.Builder
	b.WriteString("Write marketing email copy for the following product(s):\n")
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s", i+1, p.Title)
		if p.SalePrice != "" && p.RegularPrice != "" {
			fmt.Fprintf(&b, " (was %s, now %s)", p.RegularPrice, p.SalePrice)
		} else if p.RegularPrice != "" {
			fmt.Fprintf(&b, " (%s)", p.RegularPrice)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, ": %s", p.Description)
		}
		b.WriteString("\n")
	}
	language := "en"
	if len(products) > 0 && products[0].Language != "" {
		language = products[0].Language
	}
	fmt.Fprintf(&b, "Write all copy in the language %q.\n", language)
	return b.String()
}

// appendContentSection feeds the copy from the content step into the design prompt
func appendContentSection(userPrompt string, content *models.GeneratedContent) string {
	encoded, err := json.Marshal(content)
	if err != nil {
		return userPrompt
	}
	return userPrompt + "\n\nUse this pre-approved copy verbatim:\n" + string(encoded)
}

func designTokens(templateType models.PromptTemplateType, products []models.ProductInfo) map[string]string {
	if templateType == models.PromptTemplateTypeMultiProduct {
		return MultiProductTokens(products)
	}
	if len(products) == 0 {
		return map[string]string{}
	}
	return SingleProductTokens(products[0])
}

// orderedCountries returns the caller's country order, falling back to sorted
// codes, with countries absent from the URL map dropped.
func orderedCountries(order []string, countryURLs map[string][]string) []string {
	if len(order) == 0 {
		order = make([]string, 0, len(countryURLs))
		for code := range countryURLs {
			order = append(order, code)
		}
		sort.Strings(order)
		return order
	}
	result := make([]string, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, code := range order {
		if _, ok := countryURLs[code]; ok && !seen[code] {
			result = append(result, code)
			seen[code] = true
		}
	}
	for code := range countryURLs {
		if !seen[code] {
			result = append(result, code)
		}
	}
	return result
}

func nonEmptyURLs(urls []string) []string {
	result := make([]string, 0, len(urls))
	for _, u := range urls {
		if strings.TrimSpace(u) != "" {
			result = append(result, u)
		}
	}
	return result
}

func firstURL(countryOrder []string, countryURLs map[string][]string) string {
	for _, code := range countryOrder {
		for _, u := range countryURLs[code] {
			if strings.TrimSpace(u) != "" {
				return u
			}
		}
	}
	return ""
}
