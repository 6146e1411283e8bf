package models

// ProductInfo is the structured product data returned by the scraper for one URL
type ProductInfo struct {
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

// IsEmpty reports whether scraping yielded nothing usable
func (p *ProductInfo) IsEmpty() bool {
	return p == nil || (p.Title == "" && len(p.Images) == 0)
}

// MultiProductInfo groups several scraped products for a multi-product template
type MultiProductInfo struct {
	Products []ProductInfo `json:"products"`
	Language string        `json:"language,omitempty"`
}

// ScrapeResultType tags a CountryScrapeResult as single or multi product
type ScrapeResultType string

const (
	ScrapeResultTypeSingle ScrapeResultType = "SINGLE"
	ScrapeResultTypeMulti  ScrapeResultType = "MULTI"
)

// CountryScrapeResult is the per-country outcome of the scrape step.
// Exactly one of ProductInfo/MultiProductInfo is populated, matching Type.
type CountryScrapeResult struct {
	Type             ScrapeResultType  `json:"type"`
	URLs             []string          `json:"urls"`
	ProductInfo      *ProductInfo      `json:"product_info,omitempty"`
	MultiProductInfo *MultiProductInfo `json:"multi_product_info,omitempty"`
}

// IsEmpty reports whether the country produced no usable product data
func (r *CountryScrapeResult) IsEmpty() bool {
	if r == nil {
		return true
	}
	switch r.Type {
	case ScrapeResultTypeSingle:
		return r.ProductInfo.IsEmpty()
	case ScrapeResultTypeMulti:
		return r.MultiProductInfo == nil || len(r.MultiProductInfo.Products) == 0
	default:
		return true
	}
}

// Products returns the scraped products regardless of result shape
func (r *CountryScrapeResult) Products() []ProductInfo {
	if r == nil {
		return nil
	}
	switch r.Type {
	case ScrapeResultTypeSingle:
		if r.ProductInfo == nil {
			return nil
		}
		return []ProductInfo{*r.ProductInfo}
	case ScrapeResultTypeMulti:
		if r.MultiProductInfo == nil {
			return nil
		}
		return r.MultiProductInfo.Products
	default:
		return nil
	}
}

// EmailTemplate is the generated newsletter. Instances are immutable after
// generation; localization at publish time works on copies.
type EmailTemplate struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Clone returns an independent copy of the template
func (t *EmailTemplate) Clone() *EmailTemplate {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// GeneratedContent is the structured marketing copy produced by the content step
type GeneratedContent struct {
	Subject   string `json:"subject"`
	Headline  string `json:"headline"`
	BodyText  string `json:"bodyText"`
	CTAText   string `json:"ctaText"`
	Preheader string `json:"preheader"`
}
