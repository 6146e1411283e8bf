package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/templaito/templaito/models"
)

// SqualoMailAccount is the account info returned by the key validation endpoint
type SqualoMailAccount struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

// CreateNewsletterInput carries one country's publish call
type CreateNewsletterInput struct {
	Subject     string
	Preheader   string
	HTML        string
	SenderEmail string
	SenderName  string
	ListID      string
	SendDate    *time.Time
}

// NewsletterMetrics is the per-newsletter report from the ESP
type NewsletterMetrics struct {
	SentTotal  int64 `json:"sent_total"`
	OpenTotal  int64 `json:"open_total"`
	ClickTotal int64 `json:"click_total"`
}

// SqualoMailAPI is the ESP boundary used by integration, publish and metrics flows
type SqualoMailAPI interface {
	ValidateAPIKey(ctx context.Context, apiKey string) (*SqualoMailAccount, error)
	FetchLists(ctx context.Context, apiKey string) ([]models.MailingList, error)
	CreateNewsletter(ctx context.Context, apiKey string, in CreateNewsletterInput) (externalID string, err error)
	// FetchReportMetrics returns metrics keyed by newsletter ID. IDs the ESP is
	// not tracking yet are absent from the map.
	FetchReportMetrics(ctx context.Context, apiKey string, newsletterIDs []string) (map[string]NewsletterMetrics, error)
}

// SqualoMailClient is the HTTP implementation of SqualoMailAPI
type SqualoMailClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewSqualoMailClient creates a new ESP client
func NewSqualoMailClient(baseURL string, timeout time.Duration) *SqualoMailClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SqualoMailClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

type squaloEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *SqualoMailClient) doJSON(ctx context.Context, method, path, apiKey string, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("squalomail: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrSqualoMailUnauthorized
	}

	var env squaloEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("squalomail: failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !env.Success {
		if env.Message != "" {
			return fmt.Errorf("squalomail: %s", env.Message)
		}
		return fmt.Errorf("squalomail: unexpected status %d", resp.StatusCode)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("squalomail: failed to decode data: %w", err)
		}
	}

	return nil
}

// ErrSqualoMailUnauthorized marks a key the ESP rejected
var ErrSqualoMailUnauthorized = fmt.Errorf("squalomail: api key rejected")

// ValidateAPIKey checks the key against the ESP and returns the account it belongs to
func (c *SqualoMailClient) ValidateAPIKey(ctx context.Context, apiKey string) (*SqualoMailAccount, error) {
	var account SqualoMailAccount
	if err := c.doJSON(ctx, http.MethodGet, "/v1/account", apiKey, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// FetchLists retrieves the account's mailing lists
func (c *SqualoMailClient) FetchLists(ctx context.Context, apiKey string) ([]models.MailingList, error) {
	var lists []models.MailingList
	if err := c.doJSON(ctx, http.MethodGet, "/v1/lists", apiKey, nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

type squaloCreateNewsletterReq struct {
	Subject     string  `json:"subject"`
	Preheader   string  `json:"preheader,omitempty"`
	HTML        string  `json:"html"`
	SenderEmail string  `json:"sender_email"`
	SenderName  string  `json:"sender_name"`
	ListID      string  `json:"list_id"`
	SendDate    *string `json:"send_date,omitempty"`
}

type squaloCreateNewsletterResp struct {
	ID string `json:"id"`
}

// CreateNewsletter creates (and schedules, when SendDate is set) one newsletter
func (c *SqualoMailClient) CreateNewsletter(ctx context.Context, apiKey string, in CreateNewsletterInput) (string, error) {
	body := squaloCreateNewsletterReq{
		Subject:     in.Subject,
		Preheader:   in.Preheader,
		HTML:        in.HTML,
		SenderEmail: in.SenderEmail,
		SenderName:  in.SenderName,
		ListID:      in.ListID,
	}
	if in.SendDate != nil {
		formatted := in.SendDate.UTC().Format(time.RFC3339)
		body.SendDate = &formatted
	}

	var out squaloCreateNewsletterResp
	if err := c.doJSON(ctx, http.MethodPost, "/v1/newsletters", apiKey, body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("squalomail: empty newsletter id in response")
	}

	return out.ID, nil
}

type squaloReportRow struct {
	NewsletterID string `json:"newsletter_id"`
	SentTotal    int64  `json:"sent_total"`
	OpenTotal    int64  `json:"open_total"`
	ClickTotal   int64  `json:"click_total"`
}

// FetchReportMetrics retrieves sent/open/click counts for the given newsletters
func (c *SqualoMailClient) FetchReportMetrics(ctx context.Context, apiKey string, newsletterIDs []string) (map[string]NewsletterMetrics, error) {
	body := map[string][]string{"newsletter_ids": newsletterIDs}

	var rows []squaloReportRow
	if err := c.doJSON(ctx, http.MethodPost, "/v1/reports", apiKey, body, &rows); err != nil {
		return nil, err
	}

	out := make(map[string]NewsletterMetrics, len(rows))
	for _, row := range rows {
		out[row.NewsletterID] = NewsletterMetrics{
			SentTotal:  row.SentTotal,
			OpenTotal:  row.OpenTotal,
			ClickTotal: row.ClickTotal,
		}
	}
	return out, nil
}

// MockSqualoMailClient implements SqualoMailAPI for testing
type MockSqualoMailClient struct {
	mu sync.Mutex

	Account        *SqualoMailAccount
	Lists          []models.MailingList
	Metrics        map[string]NewsletterMetrics
	ValidateErr    error
	FetchListsErr  error
	CreateErr      map[string]error // keyed by list ID
	NextExternalID int

	ValidatedKeys []string
	Created       []CreateNewsletterInput
	ReportedIDs   [][]string
}

// NewMockSqualoMailClient creates a new mock ESP client
func NewMockSqualoMailClient() *MockSqualoMailClient {
	return &MockSqualoMailClient{
		Account:        &SqualoMailAccount{Name: "Test Account", Email: "test@example.com"},
		Metrics:        make(map[string]NewsletterMetrics),
		CreateErr:      make(map[string]error),
		NextExternalID: 1,
	}
}

func (m *MockSqualoMailClient) ValidateAPIKey(ctx context.Context, apiKey string) (*SqualoMailAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidatedKeys = append(m.ValidatedKeys, apiKey)
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}
	return m.Account, nil
}

func (m *MockSqualoMailClient) FetchLists(ctx context.Context, apiKey string) ([]models.MailingList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchListsErr != nil {
		return nil, m.FetchListsErr
	}
	return m.Lists, nil
}

func (m *MockSqualoMailClient) CreateNewsletter(ctx context.Context, apiKey string, in CreateNewsletterInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.CreateErr[in.ListID]; err != nil {
		return "", err
	}
	m.Created = append(m.Created, in)
	id := fmt.Sprintf("nl-%d", m.NextExternalID)
	m.NextExternalID++
	return id, nil
}

func (m *MockSqualoMailClient) FetchReportMetrics(ctx context.Context, apiKey string, newsletterIDs []string) (map[string]NewsletterMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReportedIDs = append(m.ReportedIDs, newsletterIDs)
	out := make(map[string]NewsletterMetrics)
	for _, id := range newsletterIDs {
		if metrics, ok := m.Metrics[id]; ok {
			out[id] = metrics
		}
	}
	return out, nil
}
