package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/utils"
)

func TestReplaceImageURL(t *testing.T) {
	oldURL := "https://img.example.com/old.jpg"
	newURL := "https://img.example.com/new.jpg"

	t.Run("replaces img src attributes", func(t *testing.T) {
		html := `<img alt="product" src="https://img.example.com/old.jpg" width="600">`
		result := ReplaceImageURL(html, oldURL, newURL)
		assert.Equal(t, `<img alt="product" src="https://img.example.com/new.jpg" width="600">`, result)
	})

	t.Run("replaces inline background-image styles", func(t *testing.T) {
		html := `<td style="background-image: url('https://img.example.com/old.jpg');">`
		result := ReplaceImageURL(html, oldURL, newURL)
		assert.Contains(t, result, "background-image: url('https://img.example.com/new.jpg')")
	})

	t.Run("leaves hrefs and link text alone", func(t *testing.T) {
		html := `<a href="https://img.example.com/old.jpg">https://img.example.com/old.jpg</a>` +
			`<img src="https://img.example.com/old.jpg">`
		result := ReplaceImageURL(html, oldURL, newURL)
		assert.Contains(t, result, `<a href="https://img.example.com/old.jpg">https://img.example.com/old.jpg</a>`)
		assert.Contains(t, result, `<img src="https://img.example.com/new.jpg">`)
	})

	t.Run("no-op on empty or identical URLs", func(t *testing.T) {
		html := `<img src="https://img.example.com/old.jpg">`
		assert.Equal(t, html, ReplaceImageURL(html, "", newURL))
		assert.Equal(t, html, ReplaceImageURL(html, oldURL, ""))
		assert.Equal(t, html, ReplaceImageURL(html, oldURL, oldURL))
	})
}

func TestLocalizeHTML(t *testing.T) {
	base := []models.ProductInfo{{
		Title:        "Blender X",
		BestImageURL: "https://img.example.com/us.jpg",
		SourceURL:    "https://shop.example.com/us/blender",
		RegularPrice: "$59.99",
		SalePrice:    "$49.99",
	}}
	target := []models.ProductInfo{{
		Title:        "Mixer X",
		BestImageURL: "https://img.example.com/de.jpg",
		SourceURL:    "https://shop.example.de/mixer",
		RegularPrice: "59,99 EUR",
		SalePrice:    "49,99 EUR",
	}}

	html := `<img src="https://img.example.com/us.jpg">` +
		`<a href="https://shop.example.com/us/blender">Was $59.99, now $49.99</a>`

	result := LocalizeHTML(html, base, target, nil)

	assert.Contains(t, result, `<img src="https://img.example.com/de.jpg">`)
	assert.Contains(t, result, `href="https://shop.example.de/mixer"`)
	assert.Contains(t, result, "Was 59,99 EUR, now 49,99 EUR")
	assert.NotContains(t, result, "$49.99")
}

func TestLocalizeHTMLUnevenProductCounts(t *testing.T) {
	base := []models.ProductInfo{
		{SourceURL: "https://shop.example.com/a", RegularPrice: "$10"},
		{SourceURL: "https://shop.example.com/b", RegularPrice: "$20"},
	}
	target := []models.ProductInfo{
		{SourceURL: "https://shop.example.de/a", RegularPrice: "10 EUR"},
	}

	html := `<a href="https://shop.example.com/a">$10</a><a href="https://shop.example.com/b">$20</a>`
	result := LocalizeHTML(html, base, target, nil)

	// Only the positionally paired product is localized
	assert.Contains(t, result, "https://shop.example.de/a")
	assert.Contains(t, result, "10 EUR")
	assert.Contains(t, result, "https://shop.example.com/b")
	assert.Contains(t, result, "$20")
}

func TestLocalizeHTMLWithImageOverrides(t *testing.T) {
	base := []models.ProductInfo{{
		BestImageURL: "https://img.example.com/us-best.jpg",
		Images:       []string{"https://img.example.com/us-best.jpg", "https://img.example.com/us-alt.jpg"},
	}}
	target := []models.ProductInfo{{
		BestImageURL: "https://img.example.com/de-best.jpg",
		Images:       []string{"https://img.example.com/de-best.jpg", "https://img.example.com/de-alt.jpg"},
	}}
	overrides := map[int]int{0: 1}

	html := ApplyImageOverrides(`<img src="https://img.example.com/us-best.jpg">`, base, overrides)
	assert.Equal(t, `<img src="https://img.example.com/us-alt.jpg">`, html)

	t.Run("override index is carried to the target country", func(t *testing.T) {
		result := LocalizeHTML(html, base, target, overrides)
		assert.Equal(t, `<img src="https://img.example.com/de-alt.jpg">`, result)
	})

	t.Run("target without that many images falls back to its best image", func(t *testing.T) {
		short := []models.ProductInfo{{
			BestImageURL: "https://img.example.com/fr-best.jpg",
			Images:       []string{"https://img.example.com/fr-best.jpg"},
		}}
		result := LocalizeHTML(html, base, short, overrides)
		assert.Equal(t, `<img src="https://img.example.com/fr-best.jpg">`, result)
	})
}

func TestApplyImageOverrides(t *testing.T) {
	products := []models.ProductInfo{{
		BestImageURL: "https://img.example.com/picked.jpg",
		Images:       []string{"https://img.example.com/0.jpg", "https://img.example.com/1.jpg"},
	}}
	html := `<img src="https://img.example.com/picked.jpg">`

	t.Run("swaps in the chosen image", func(t *testing.T) {
		result := ApplyImageOverrides(html, products, map[int]int{0: 1})
		assert.Equal(t, `<img src="https://img.example.com/1.jpg">`, result)
	})

	t.Run("ignores out of range indices", func(t *testing.T) {
		assert.Equal(t, html, ApplyImageOverrides(html, products, map[int]int{0: 5}))
		assert.Equal(t, html, ApplyImageOverrides(html, products, map[int]int{3: 0}))
		assert.Equal(t, html, ApplyImageOverrides(html, products, map[int]int{-1: 0}))
	})
}

func TestAppendUTMParams(t *testing.T) {
	t.Run("tags absolute links with medium and country", func(t *testing.T) {
		html := `<a href="https://shop.example.com/product?ref=nl">Buy</a>`
		result := AppendUTMParams(html, "email", "DE")
		assert.Contains(t, result, "utm_medium=email")
		assert.Contains(t, result, "utm_source=DE")
		assert.Contains(t, result, "utm_campaign=DE")
		assert.Contains(t, result, "ref=nl")
	})

	t.Run("skips anchors mailto and template tokens", func(t *testing.T) {
		html := `<a href="#top">Top</a><a href="mailto:hi@example.com">Mail</a><a href="{{product_link}}">Buy</a>`
		assert.Equal(t, html, AppendUTMParams(html, "email", "DE"))
	})

	t.Run("empty medium leaves the html untouched", func(t *testing.T) {
		html := `<a href="https://shop.example.com/product">Buy</a>`
		assert.Equal(t, html, AppendUTMParams(html, "", "DE"))
	})

	t.Run("merge tokens inside absolute links are not re-encoded", func(t *testing.T) {
		html := `<a href="https://shop.example.com/prefs?e=` + utils.EmailAddressToken + `">Preferences</a>`
		assert.Equal(t, html, AppendUTMParams(html, "email", "DE"))
	})
}

// The ESP resolves its own merge tokens at send time, so the whole publish
// transformation chain has to deliver them byte for byte.
func TestEspMergeTokensSurvivePublishTransforms(t *testing.T) {
	base := []models.ProductInfo{{
		BestImageURL: "https://img.example.com/us.jpg",
		Images:       []string{"https://img.example.com/us.jpg", "https://img.example.com/us-alt.jpg"},
		SalePrice:    "$49.99",
	}}
	target := []models.ProductInfo{{
		BestImageURL: "https://img.example.com/de.jpg",
		Images:       []string{"https://img.example.com/de.jpg", "https://img.example.com/de-alt.jpg"},
		SalePrice:    "49,99 EUR",
	}}
	footer := `<p>Sent to ` + utils.EmailAddressToken + `</p>` +
		`<p>` + utils.UnsubscribeOpenToken + `UNSUBSCRIBE` + utils.UnsubscribeCloseToken + `</p>` +
		`<a href="https://shop.example.com/prefs?e=` + utils.EmailAddressToken + `">Manage</a>`
	html := `<img src="https://img.example.com/us.jpg">$49.99` + footer

	overrides := map[int]int{0: 1}
	result := ApplyImageOverrides(html, base, overrides)
	result = LocalizeHTML(result, base, target, overrides)
	result = AppendUTMParams(result, "email", "DE")

	assert.Contains(t, result, footer)
	assert.Contains(t, result, "https://img.example.com/de-alt.jpg")
	assert.Contains(t, result, "49,99 EUR")
}
