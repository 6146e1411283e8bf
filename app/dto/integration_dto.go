package dto

// ConnectIntegrationRequest represents the request to connect an ESP integration.
// The API key is validated against the ESP before anything is stored.
type ConnectIntegrationRequest struct {
	ClientUUID string  `json:"-"`
	APIKey     string  `json:"api_key" validate:"required,min=8,max=512"`
	UTMMedium  *string `json:"utm_medium,omitempty" validate:"omitempty,max=64"`
}

// ConnectIntegrationResponse represents the response to a connect attempt
type ConnectIntegrationResponse struct {
	Message     string                  `json:"message"`
	Integration SanitizedIntegrationDTO `json:"integration"`
}

// RefreshIntegrationResponse represents the response to a metadata refresh
type RefreshIntegrationResponse struct {
	Message     string                  `json:"message"`
	Integration SanitizedIntegrationDTO `json:"integration"`
}

// DisconnectIntegrationResponse represents the response to a disconnect
type DisconnectIntegrationResponse struct {
	Message string `json:"message"`
}

// MailingListDTO is one subscriber list from the ESP
type MailingListDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
}

// SanitizedIntegrationDTO is the integration representation that crosses the
// API boundary. It structurally has no credential field.
type SanitizedIntegrationDTO struct {
	Provider     string           `json:"provider"`
	Status       string           `json:"status"`
	AccountName  *string          `json:"account_name,omitempty"`
	AccountEmail *string          `json:"account_email,omitempty"`
	Lists        []MailingListDTO `json:"lists,omitempty"`
	UTMMedium    *string          `json:"utm_medium,omitempty"`
	LastSyncedAt *string          `json:"last_synced_at,omitempty"`
}
