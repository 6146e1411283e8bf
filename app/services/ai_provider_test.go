package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripJSONFence(t *testing.T) {
	t.Run("passes unfenced input through", func(t *testing.T) {
		assert.Equal(t, `{"subject":"Hi"}`, StripJSONFence(`{"subject":"Hi"}`))
	})

	t.Run("unwraps a json fence", func(t *testing.T) {
		raw := "```json\n{\"subject\":\"Hi\"}\n```"
		assert.Equal(t, `{"subject":"Hi"}`, StripJSONFence(raw))
	})

	t.Run("unwraps a bare fence", func(t *testing.T) {
		raw := "```\n{\"subject\":\"Hi\"}\n```"
		assert.Equal(t, `{"subject":"Hi"}`, StripJSONFence(raw))
	})

	t.Run("unwraps an html fence", func(t *testing.T) {
		raw := "```html\n<html></html>\n```"
		assert.Equal(t, "<html></html>", StripJSONFence(raw))
	})

	t.Run("ignores prose before the fence", func(t *testing.T) {
		raw := "Here is your JSON:\n```json\n{\"subject\":\"Hi\"}\n```"
		assert.Equal(t, `{"subject":"Hi"}`, StripJSONFence(raw))
	})
}

func TestExtractHTMLPayload(t *testing.T) {
	t.Run("raw html passes through", func(t *testing.T) {
		assert.Equal(t, "<html><body>ok</body></html>", ExtractHTMLPayload("<html><body>ok</body></html>"))
	})

	t.Run("unwraps a json envelope", func(t *testing.T) {
		assert.Equal(t, "<html>ok</html>", ExtractHTMLPayload(`{"html":"<html>ok</html>"}`))
	})

	t.Run("unwraps a fenced json envelope", func(t *testing.T) {
		raw := "```json\n{\"html\":\"<html>ok</html>\"}\n```"
		assert.Equal(t, "<html>ok</html>", ExtractHTMLPayload(raw))
	})

	t.Run("json without an html key falls back to the raw body", func(t *testing.T) {
		raw := `{"body":"<html>ok</html>"}`
		assert.Equal(t, raw, ExtractHTMLPayload(raw))
	})
}

func TestMockAIProviderReplaysResponses(t *testing.T) {
	m := NewMockAIProvider("claude", "first", "second")

	got, err := m.Complete(context.Background(), CompletionRequest{Prompt: "a"})
	assert.NoError(t, err)
	assert.Equal(t, "first", got)

	got, _ = m.Complete(context.Background(), CompletionRequest{Prompt: "b"})
	assert.Equal(t, "second", got)

	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, "a", m.Requests[0].Prompt)
}
