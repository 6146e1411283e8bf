package businessflow

import (
	"strings"

	"github.com/templaito/templaito/models"
)

// Prompt token names recognized by the substitution engine
const (
	TokenProductName  = "product_name"
	TokenImageURL     = "image_url"
	TokenProductLink  = "product_link"
	TokenRegularPrice = "regular_price"
	TokenSalePrice    = "sale_price"
	TokenDiscount     = "discount"

	TokenProductNames  = "product_names"
	TokenProductLinks  = "product_links"
	TokenProductImages = "product_images"
	TokenProductPrices = "product_prices"

	// TokenEmailAddress is resolved by the ESP at send time, never here.
	TokenEmailAddress = "email_address"
)

// SubstituteTokens replaces every {{name}} occurrence for each entry in values.
// Tokens absent from values stay verbatim, and {{email_address}} is always
// passed through untouched so the ESP can resolve it per recipient.
func SubstituteTokens(template string, values map[string]string) string {
	result := template
	for name, value := range values {
		if name == TokenEmailAddress {
			continue
		}
		result = strings.ReplaceAll(result, "{{"+name+"}}", value)
	}
	return result
}

// SingleProductTokens builds the token map for a single-product template
func SingleProductTokens(product models.ProductInfo) map[string]string {
	return map[string]string{
		TokenProductName:  product.Title,
		TokenImageURL:     PrimaryImageURL(product),
		TokenProductLink:  product.SourceURL,
		TokenRegularPrice: product.RegularPrice,
		TokenSalePrice:    product.SalePrice,
		TokenDiscount:     product.Discount,
	}
}

// MultiProductTokens builds the comma-joined token map for a multi-product
// template. Values keep the products' input order.
func MultiProductTokens(products []models.ProductInfo) map[string]string {
	names := make([]string, 0, len(products))
	links := make([]string, 0, len(products))
	images := make([]string, 0, len(products))
	prices := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Title)
		links = append(links, p.SourceURL)
		images = append(images, PrimaryImageURL(p))
		prices = append(prices, displayPrice(p))
	}
	return map[string]string{
		TokenProductNames:  strings.Join(names, ", "),
		TokenProductLinks:  strings.Join(links, ", "),
		TokenProductImages: strings.Join(images, ", "),
		TokenProductPrices: strings.Join(prices, ", "),
	}
}

// PrimaryImageURL returns the image the generators should feature for a product
func PrimaryImageURL(product models.ProductInfo) string {
	if product.BestImageURL != "" {
		return product.BestImageURL
	}
	if len(product.Images) > 0 {
		return product.Images[0]
	}
	return ""
}

func displayPrice(product models.ProductInfo) string {
	if product.SalePrice != "" {
		return product.SalePrice
	}
	return product.RegularPrice
}
