package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/templaito/templaito/models"
)

// Scraper extracts structured product data from a product page URL
type Scraper interface {
	Scrape(ctx context.Context, pageURL string) (*models.ProductInfo, error)
}

// HTTPScraper calls the internal scraper endpoint
type HTTPScraper struct {
	BaseURL      string
	SharedSecret string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// NewHTTPScraper creates a new scraper client
func NewHTTPScraper(baseURL, sharedSecret string, timeout time.Duration) *HTTPScraper {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPScraper{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		SharedSecret: sharedSecret,
		HTTPClient:   &http.Client{Timeout: timeout},
		Timeout:      timeout,
	}
}

type scrapeResp struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    models.ProductInfo `json:"data"`
}

// Scrape fetches product data for one URL
func (s *HTTPScraper) Scrape(ctx context.Context, pageURL string) (*models.ProductInfo, error) {
	endpoint := s.BaseURL + "/scrape?url=" + url.QueryEscape(pageURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Scraper-Secret", s.SharedSecret)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraper: unexpected status %d for %s", resp.StatusCode, pageURL)
	}

	var out scrapeResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("scraper: failed to decode response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("scraper: %s", out.Message)
	}

	info := out.Data
	info.SourceURL = pageURL
	return &info, nil
}

// MockScraper implements Scraper for testing
type MockScraper struct {
	mu sync.Mutex

	// Results maps URL to the product info it yields. URLs absent from the map
	// fail with Err (or a generic error when Err is nil).
	Results map[string]*models.ProductInfo
	Err     error

	ScrapedURLs []string
}

// NewMockScraper creates a new mock scraper
func NewMockScraper() *MockScraper {
	return &MockScraper{
		Results: make(map[string]*models.ProductInfo),
	}
}

func (m *MockScraper) Scrape(ctx context.Context, pageURL string) (*models.ProductInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScrapedURLs = append(m.ScrapedURLs, pageURL)

	if info, ok := m.Results[pageURL]; ok {
		copied := *info
		copied.SourceURL = pageURL
		return &copied, nil
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return nil, fmt.Errorf("scraper: no data for %s", pageURL)
}
