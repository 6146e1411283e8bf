package businessflow

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/templaito/templaito/models"
)

var hrefPattern = regexp.MustCompile(`(href\s*=\s*["'])([^"']+)(["'])`)

// ReplaceImageURL swaps oldURL for newURL wherever it appears as an image
// reference: <img src> attributes and inline background-image styles. Other
// occurrences of the same substring (link text, hrefs) are left alone.
func ReplaceImageURL(html, oldURL, newURL string) string {
	if oldURL == "" || newURL == "" || oldURL == newURL {
		return html
	}
	quoted := regexp.QuoteMeta(oldURL)
	imgSrc := regexp.MustCompile(`(<img\b[^>]*?\bsrc\s*=\s*["'])` + quoted + `(["'])`)
	html = imgSrc.ReplaceAllString(html, "${1}"+newURL+"${2}")
	bgImage := regexp.MustCompile(`(background-image\s*:\s*url\(\s*['"]?)` + quoted + `(['"]?\s*\))`)
	return bgImage.ReplaceAllString(html, "${1}"+newURL+"${2}")
}

// LocalizeHTML rewrites the canonical HTML for one country: per product, the
// base country's featured image and prices are replaced with the target
// country's. Product order pairs base and target products positionally. The
// overrides map must be the one already applied to the canonical HTML, so the
// substitution searches for the image actually present in it.
func LocalizeHTML(html string, baseProducts, targetProducts []models.ProductInfo, overrides map[int]int) string {
	n := len(baseProducts)
	if len(targetProducts) < n {
		n = len(targetProducts)
	}
	for i := 0; i < n; i++ {
		base, target := baseProducts[i], targetProducts[i]
		html = ReplaceImageURL(html, effectiveImageURL(base, overrides, i), effectiveImageURL(target, overrides, i))
		if base.SourceURL != "" && target.SourceURL != "" {
			html = strings.ReplaceAll(html, base.SourceURL, target.SourceURL)
		}
		if base.RegularPrice != "" && target.RegularPrice != "" {
			html = strings.ReplaceAll(html, base.RegularPrice, target.RegularPrice)
		}
		if base.SalePrice != "" && target.SalePrice != "" {
			html = strings.ReplaceAll(html, base.SalePrice, target.SalePrice)
		}
	}
	return html
}

// effectiveImageURL returns the image the HTML carries for product i once
// overrides are in effect. An override index beyond this product's image list
// falls back to its primary image.
func effectiveImageURL(product models.ProductInfo, overrides map[int]int, i int) string {
	if imageIdx, ok := overrides[i]; ok && imageIdx >= 0 && imageIdx < len(product.Images) {
		return product.Images[imageIdx]
	}
	return PrimaryImageURL(product)
}

// ApplyImageOverrides replaces each product's AI-picked image with the image
// at the user-selected index. Indices out of range are ignored.
func ApplyImageOverrides(html string, products []models.ProductInfo, overrides map[int]int) string {
	for productIdx, imageIdx := range overrides {
		if productIdx < 0 || productIdx >= len(products) {
			continue
		}
		product := products[productIdx]
		if imageIdx < 0 || imageIdx >= len(product.Images) {
			continue
		}
		html = ReplaceImageURL(html, PrimaryImageURL(product), product.Images[imageIdx])
	}
	return html
}

// AppendUTMParams adds utm_medium, utm_source and utm_campaign query
// parameters to every absolute http(s) link in the HTML. Anchors, mailto
// links and template tokens are left untouched.
func AppendUTMParams(html, utmMedium, countryCode string) string {
	if utmMedium == "" {
		return html
	}
	return hrefPattern.ReplaceAllStringFunc(html, func(match string) string {
		parts := hrefPattern.FindStringSubmatch(match)
		link := parts[2]
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			return match
		}
		// Re-encoding would corrupt ESP merge tokens like {{email_address}}
		if strings.Contains(link, "{{") {
			return match
		}
		parsed, err := url.Parse(link)
		if err != nil {
			return match
		}
		q := parsed.Query()
		q.Set("utm_medium", utmMedium)
		q.Set("utm_source", countryCode)
		q.Set("utm_campaign", countryCode)
		parsed.RawQuery = q.Encode()
		return fmt.Sprintf("%s%s%s", parts[1], parsed.String(), parts[3])
	})
}
