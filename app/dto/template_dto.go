package dto

// GenerateTemplateRequest represents the request to generate an email template.
// CountryURLs maps country codes to product page URLs; CountryOrder preserves
// the caller's country priority for base-country selection.
type GenerateTemplateRequest struct {
	UserID       uint                `json:"-"`
	PromptUUID   *string             `json:"prompt_uuid,omitempty" validate:"omitempty,uuid"`
	TemplateType string              `json:"template_type" validate:"required,oneof=SINGLE_PRODUCT MULTI_PRODUCT"`
	CountryURLs  map[string][]string `json:"country_urls" validate:"required,min=1"`
	CountryOrder []string            `json:"country_order,omitempty" validate:"omitempty,dive,len=2"`
}

// ProductInfoDTO mirrors the scraped product data for display
type ProductInfoDTO struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Images       []string `json:"images,omitempty"`
	BestImageURL string   `json:"best_image_url,omitempty"`
	Language     string   `json:"language,omitempty"`
	RegularPrice string   `json:"regular_price,omitempty"`
	SalePrice    string   `json:"sale_price,omitempty"`
	Discount     string   `json:"discount,omitempty"`
	SourceURL    string   `json:"source_url,omitempty"`
}

// CountryScrapeResultDTO is one country's scrape outcome
type CountryScrapeResultDTO struct {
	Type     string           `json:"type"`
	URLs     []string         `json:"urls"`
	Products []ProductInfoDTO `json:"products,omitempty"`
}

// EmailTemplateDTO is the generated subject/html pair
type EmailTemplateDTO struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// GenerateTemplateResponse represents the generation result
type GenerateTemplateResponse struct {
	Message         string                            `json:"message"`
	BaseCountry     string                            `json:"base_country"`
	CountryResults  map[string]CountryScrapeResultDTO `json:"country_results"`
	EmailTemplate   EmailTemplateDTO                  `json:"email_template"`
	PreviewTemplate EmailTemplateDTO                  `json:"preview_template"`
	ProductInfo     *ProductInfoDTO                   `json:"product_info,omitempty"`
	PromptUUID      string                            `json:"prompt_uuid"`
}

// ThumbnailRequest represents the request for an image-override preview
type ThumbnailRequest struct {
	ImageURL string `query:"image_url" validate:"required,url,max=2048"`
	MaxEdge  int    `query:"max_edge" validate:"omitempty,min=16,max=1024"`
}
