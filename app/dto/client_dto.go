package dto

// CreateClientRequest represents the request to create a new client
type CreateClientRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Website     *string `json:"website,omitempty" validate:"omitempty,url,max=512"`
}

// CreateClientResponse represents the response to create a new client
type CreateClientResponse struct {
	Message string    `json:"message"`
	Client  ClientDTO `json:"client"`
}

// UpdateClientRequest represents the request to update an existing client
type UpdateClientRequest struct {
	UUID        string  `json:"-"`
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Website     *string `json:"website,omitempty" validate:"omitempty,url,max=512"`
}

// UpdateClientResponse represents the response to update an existing client
type UpdateClientResponse struct {
	Message string    `json:"message"`
	Client  ClientDTO `json:"client"`
}

// ListClientsRequest represents filter criteria for listing clients
type ListClientsRequest struct {
	Page            int     `query:"page" validate:"omitempty,min=1"`
	PageSize        int     `query:"page_size" validate:"omitempty,min=1,max=100"`
	Name            *string `query:"name" validate:"omitempty,max=255"`
	IncludeArchived bool    `query:"include_archived"`
}

// ListClientsResponse represents the paginated client listing
type ListClientsResponse struct {
	Message string      `json:"message"`
	Clients []ClientDTO `json:"clients"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
}

// ClientDTO is the client representation returned to callers
type ClientDTO struct {
	ID          uint    `json:"id"`
	UUID        string  `json:"uuid"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Website     *string `json:"website,omitempty"`
	IsArchived  *bool   `json:"is_archived"`
	CreatedAt   string  `json:"created_at"`
}

// SetClientArchivedRequest represents the request to archive or unarchive a client
type SetClientArchivedRequest struct {
	UUID     string `json:"-"`
	Archived bool   `json:"archived"`
}

// SetClientArchivedResponse represents the response to an archive toggle
type SetClientArchivedResponse struct {
	Message string `json:"message"`
}

// CountryConfigDTO is one per-country sending configuration row
type CountryConfigDTO struct {
	CountryCode     string  `json:"country_code"`
	CountryName     string  `json:"country_name,omitempty"`
	IsActive        *bool   `json:"is_active"`
	MailingListID   *string `json:"mailing_list_id,omitempty"`
	MailingListName *string `json:"mailing_list_name,omitempty"`
	SenderEmail     *string `json:"sender_email,omitempty"`
	SenderName      *string `json:"sender_name,omitempty"`
	LastSyncedAt    *string `json:"last_synced_at,omitempty"`
}

// ListCountryConfigsResponse represents all country configs for a client
type ListCountryConfigsResponse struct {
	Message string             `json:"message"`
	Configs []CountryConfigDTO `json:"configs"`
}

// UpdateCountryConfigRequest represents the request to update one country's settings
type UpdateCountryConfigRequest struct {
	ClientUUID      string  `json:"-"`
	CountryCode     string  `json:"-"`
	IsActive        *bool   `json:"is_active,omitempty"`
	MailingListID   *string `json:"mailing_list_id,omitempty" validate:"omitempty,max=64"`
	MailingListName *string `json:"mailing_list_name,omitempty" validate:"omitempty,max=255"`
	SenderEmail     *string `json:"sender_email,omitempty" validate:"omitempty,email,max=255"`
	SenderName      *string `json:"sender_name,omitempty" validate:"omitempty,max=255"`
}

// UpdateCountryConfigResponse represents the response to a country config update
type UpdateCountryConfigResponse struct {
	Message string           `json:"message"`
	Config  CountryConfigDTO `json:"config"`
}
