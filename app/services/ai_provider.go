package services

import (
	"context"
	"encoding/json"
	"strings"
)

// CompletionRequest is the provider-independent input for one LLM call
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int
	// JSONMode asks providers with native structured output to return a JSON
	// object. Providers without that capability ignore the flag.
	JSONMode bool
}

// AIProvider is the strategy interface over the two LLM backends
type AIProvider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// StripJSONFence unwraps content from a markdown ```json fenced block.
// If no fence is present the input is returned unchanged.
func StripJSONFence(raw string) string {
	s := strings.TrimSpace(raw)

	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		lang := strings.TrimSpace(rest[:nl])
		if lang == "" || strings.EqualFold(lang, "json") || strings.EqualFold(lang, "html") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// ExtractHTMLPayload recovers an HTML document from a provider response that
// may be raw HTML, a JSON object like {"html": "..."}, or markdown-fenced JSON.
// When no wrapping is detected the raw response is treated as HTML directly.
func ExtractHTMLPayload(raw string) string {
	s := StripJSONFence(raw)

	if strings.HasPrefix(s, "{") {
		var wrapped struct {
			HTML string `json:"html"`
		}
		if err := json.Unmarshal([]byte(s), &wrapped); err == nil && wrapped.HTML != "" {
			return wrapped.HTML
		}
	}

	return s
}

// MockAIProvider implements AIProvider for testing
type MockAIProvider struct {
	ProviderName string
	Responses    []string
	Err          error
	Requests     []CompletionRequest

	next int
}

// NewMockAIProvider creates a new mock provider that replays canned responses
func NewMockAIProvider(name string, responses ...string) *MockAIProvider {
	return &MockAIProvider{
		ProviderName: name,
		Responses:    responses,
	}
}

func (m *MockAIProvider) Name() string {
	return m.ProviderName
}

func (m *MockAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if m.next >= len(m.Responses) {
		return "", nil
	}
	resp := m.Responses[m.next]
	m.next++
	return resp, nil
}

// CallCount returns how many completions were requested
func (m *MockAIProvider) CallCount() int {
	return len(m.Requests)
}
