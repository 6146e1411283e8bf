package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squaloOK(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    json.RawMessage(payload),
	})
}

func TestSqualoMailValidateAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/account", r.URL.Path)
		assert.Equal(t, "Bearer sq-key", r.Header.Get("Authorization"))
		squaloOK(t, w, SqualoMailAccount{Name: "Acme", Email: "owner@example.com"})
	}))
	defer srv.Close()

	client := NewSqualoMailClient(srv.URL, time.Second)
	account, err := client.ValidateAPIKey(context.Background(), "sq-key")
	require.NoError(t, err)
	assert.Equal(t, "Acme", account.Name)
	assert.Equal(t, "owner@example.com", account.Email)
}

func TestSqualoMailUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewSqualoMailClient(srv.URL, time.Second)
	_, err := client.ValidateAPIKey(context.Background(), "bad-key")
	assert.ErrorIs(t, err, ErrSqualoMailUnauthorized)
}

func TestSqualoMailCreateNewsletter(t *testing.T) {
	sendDate := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/newsletters", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Big sale", body["subject"])
		assert.Equal(t, "list-US", body["list_id"])
		assert.Equal(t, "2026-09-01T10:00:00Z", body["send_date"])

		squaloOK(t, w, map[string]string{"id": "nl-123"})
	}))
	defer srv.Close()

	client := NewSqualoMailClient(srv.URL, time.Second)
	id, err := client.CreateNewsletter(context.Background(), "sq-key", CreateNewsletterInput{
		Subject:     "Big sale",
		HTML:        "<html></html>",
		SenderEmail: "news@example.com",
		SenderName:  "Example News",
		ListID:      "list-US",
		SendDate:    &sendDate,
	})
	require.NoError(t, err)
	assert.Equal(t, "nl-123", id)
}

func TestSqualoMailCreateNewsletterRejectsEmptyID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		squaloOK(t, w, map[string]string{})
	}))
	defer srv.Close()

	client := NewSqualoMailClient(srv.URL, time.Second)
	_, err := client.CreateNewsletter(context.Background(), "sq-key", CreateNewsletterInput{ListID: "list-US"})
	assert.Error(t, err)
}

func TestSqualoMailFetchReportMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/reports", r.URL.Path)

		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.ElementsMatch(t, []string{"nl-1", "nl-2"}, body["newsletter_ids"])

		// The ESP only reports on newsletters it tracks
		squaloOK(t, w, []map[string]any{
			{"newsletter_id": "nl-1", "sent_total": 100, "open_total": 40, "click_total": 10},
		})
	}))
	defer srv.Close()

	client := NewSqualoMailClient(srv.URL, time.Second)
	metrics, err := client.FetchReportMetrics(context.Background(), "sq-key", []string{"nl-1", "nl-2"})
	require.NoError(t, err)

	require.Contains(t, metrics, "nl-1")
	assert.NotContains(t, metrics, "nl-2")
	assert.Equal(t, int64(100), metrics["nl-1"].SentTotal)
	assert.Equal(t, int64(40), metrics["nl-1"].OpenTotal)
}

func TestSqualoMailErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "list is locked"})
	}))
	defer srv.Close()

	client := NewSqualoMailClient(srv.URL, time.Second)
	_, err := client.FetchLists(context.Background(), "sq-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list is locked")
}
