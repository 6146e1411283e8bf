package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/templaito/templaito/models"
)

func TestSubstituteTokens(t *testing.T) {
	t.Run("replaces every occurrence of known tokens", func(t *testing.T) {
		template := "Buy {{product_name}} for {{sale_price}}! {{product_name}} ships today."
		result := SubstituteTokens(template, map[string]string{
			"product_name": "Blender X",
			"sale_price":   "49.99 EUR",
		})
		assert.Equal(t, "Buy Blender X for 49.99 EUR! Blender X ships today.", result)
	})

	t.Run("leaves unknown tokens verbatim", func(t *testing.T) {
		result := SubstituteTokens("Hello {{unknown_token}}", map[string]string{
			"product_name": "Blender X",
		})
		assert.Equal(t, "Hello {{unknown_token}}", result)
	})

	t.Run("never substitutes the email address token", func(t *testing.T) {
		result := SubstituteTokens("Send to {{email_address}}", map[string]string{
			TokenEmailAddress: "leaked@example.com",
		})
		assert.Equal(t, "Send to {{email_address}}", result)
	})

	t.Run("empty value blanks the token", func(t *testing.T) {
		result := SubstituteTokens("Discount: {{discount}}", map[string]string{
			TokenDiscount: "",
		})
		assert.Equal(t, "Discount: ", result)
	})
}

func TestSingleProductTokens(t *testing.T) {
	product := models.ProductInfo{
		Title:        "Blender X",
		BestImageURL: "https://img.example.com/best.jpg",
		Images:       []string{"https://img.example.com/a.jpg"},
		SourceURL:    "https://shop.example.com/blender-x",
		RegularPrice: "59.99 EUR",
		SalePrice:    "49.99 EUR",
		Discount:     "17%",
	}

	tokens := SingleProductTokens(product)

	assert.Equal(t, "Blender X", tokens[TokenProductName])
	assert.Equal(t, "https://img.example.com/best.jpg", tokens[TokenImageURL])
	assert.Equal(t, "https://shop.example.com/blender-x", tokens[TokenProductLink])
	assert.Equal(t, "59.99 EUR", tokens[TokenRegularPrice])
	assert.Equal(t, "49.99 EUR", tokens[TokenSalePrice])
	assert.Equal(t, "17%", tokens[TokenDiscount])
}

func TestMultiProductTokens(t *testing.T) {
	products := []models.ProductInfo{
		{Title: "Blender X", SourceURL: "https://shop.example.com/x", Images: []string{"https://img.example.com/x.jpg"}, RegularPrice: "59.99 EUR", SalePrice: "49.99 EUR"},
		{Title: "Toaster Y", SourceURL: "https://shop.example.com/y", BestImageURL: "https://img.example.com/y-best.jpg", RegularPrice: "29.99 EUR"},
	}

	tokens := MultiProductTokens(products)

	assert.Equal(t, "Blender X, Toaster Y", tokens[TokenProductNames])
	assert.Equal(t, "https://shop.example.com/x, https://shop.example.com/y", tokens[TokenProductLinks])
	assert.Equal(t, "https://img.example.com/x.jpg, https://img.example.com/y-best.jpg", tokens[TokenProductImages])
	// Sale price wins over regular price when present
	assert.Equal(t, "49.99 EUR, 29.99 EUR", tokens[TokenProductPrices])
}

func TestPrimaryImageURL(t *testing.T) {
	t.Run("prefers the AI-picked best image", func(t *testing.T) {
		p := models.ProductInfo{BestImageURL: "best.jpg", Images: []string{"a.jpg", "b.jpg"}}
		assert.Equal(t, "best.jpg", PrimaryImageURL(p))
	})

	t.Run("falls back to the first scraped image", func(t *testing.T) {
		p := models.ProductInfo{Images: []string{"a.jpg", "b.jpg"}}
		assert.Equal(t, "a.jpg", PrimaryImageURL(p))
	})

	t.Run("empty when no images at all", func(t *testing.T) {
		assert.Equal(t, "", PrimaryImageURL(models.ProductInfo{}))
	})
}
