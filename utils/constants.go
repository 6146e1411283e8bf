package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CORS constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Template generation constants
const (
	// DefaultEmailSubject is used when the content step yields no subject line
	DefaultEmailSubject = "Your Newsletter"

	// EmailAddressToken is substituted by the ESP at send time, never server-side
	EmailAddressToken = "{{email_address}}"

	// UnsubscribeOpenToken and UnsubscribeCloseToken wrap the mandatory footer link
	UnsubscribeOpenToken  = "{{unsubscribe}}"
	UnsubscribeCloseToken = "{{/unsubscribe}}"
)

// Cache keys
const (
	// MailingListsCacheKeyPrefix prefixes the per-integration mailing list cache entry
	MailingListsCacheKeyPrefix = "templaito:lists:"

	// MetricsCacheKeyPrefix prefixes the per-newsletter report metrics cache entry
	MetricsCacheKeyPrefix = "templaito:metrics:"

	// MailingListsCacheTTL bounds staleness of cached ESP mailing lists
	MailingListsCacheTTL = 10 * time.Minute

	// MetricsCacheTTL bounds staleness of cached ESP report metrics
	MetricsCacheTTL = 5 * time.Minute
)

// ESP provider identifiers
const (
	ProviderSqualoMail = "SQUALOMAIL"
)

// ContextKey is the type for request-scoped context values
type ContextKey string

// Request-scoped context keys set by handlers
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)
