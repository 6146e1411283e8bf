// Package businessflow contains the core business logic and use cases for the template platform
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User and admin errors
	ErrUserNotFound      = errors.New("user not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrAdminNotFound     = errors.New("admin not found")
	ErrInvalidCaptcha    = errors.New("invalid captcha answer")

	// Client errors
	ErrClientNotFound = errors.New("client not found")
	ErrClientArchived = errors.New("client is archived")

	// Country config errors
	ErrCountryNotFound      = errors.New("country not found")
	ErrCountryConfigMissing = errors.New("country config not found")

	// Integration errors
	ErrIntegrationNotFound         = errors.New("integration not found")
	ErrIntegrationNotConnected     = errors.New("integration is not connected")
	ErrIntegrationValidationFailed = errors.New("integration credentials rejected by provider")
	ErrCredentialDecryptionFailed  = errors.New("stored credentials could not be decrypted")
	ErrMailingListFetchFailed      = errors.New("mailing lists could not be fetched")

	// Template generation errors
	ErrPromptNotFound          = errors.New("prompt template not found")
	ErrPromptNotUsable         = errors.New("prompt template is not active")
	ErrNoDefaultPrompt         = errors.New("no default prompt template for template type")
	ErrNoUsableProductData     = errors.New("no usable product data scraped from any country")
	ErrScrapeFailed            = errors.New("product page scrape failed")
	ErrContentGenerationFailed = errors.New("content generation failed")
	ErrContentUnparseable      = errors.New("generated content is not valid JSON")
	ErrDesignGenerationFailed  = errors.New("design generation failed")

	// Campaign errors
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrCampaignAccessDenied   = errors.New("campaign access denied")
	ErrCampaignNotCancellable = errors.New("campaign can no longer be cancelled")
	ErrNoPublishableCountry   = errors.New("no country is eligible for publishing")
	ErrBaseCountryMissing     = errors.New("base country has no scrape result")

	// Metrics errors
	ErrMetricsFetchFailed = errors.New("metrics could not be fetched from provider")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}

func IsClientNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound)
}

func IsClientArchived(err error) bool {
	return errors.Is(err, ErrClientArchived)
}

func IsCountryNotFound(err error) bool {
	return errors.Is(err, ErrCountryNotFound)
}

func IsCountryConfigMissing(err error) bool {
	return errors.Is(err, ErrCountryConfigMissing)
}

func IsIntegrationNotFound(err error) bool {
	return errors.Is(err, ErrIntegrationNotFound)
}

func IsIntegrationNotConnected(err error) bool {
	return errors.Is(err, ErrIntegrationNotConnected)
}

func IsIntegrationValidationFailed(err error) bool {
	return errors.Is(err, ErrIntegrationValidationFailed)
}

func IsCredentialDecryptionFailed(err error) bool {
	return errors.Is(err, ErrCredentialDecryptionFailed)
}

func IsMailingListFetchFailed(err error) bool {
	return errors.Is(err, ErrMailingListFetchFailed)
}

func IsPromptNotFound(err error) bool {
	return errors.Is(err, ErrPromptNotFound)
}

func IsPromptNotUsable(err error) bool {
	return errors.Is(err, ErrPromptNotUsable)
}

func IsNoDefaultPrompt(err error) bool {
	return errors.Is(err, ErrNoDefaultPrompt)
}

func IsNoUsableProductData(err error) bool {
	return errors.Is(err, ErrNoUsableProductData)
}

func IsScrapeFailed(err error) bool {
	return errors.Is(err, ErrScrapeFailed)
}

func IsContentGenerationFailed(err error) bool {
	return errors.Is(err, ErrContentGenerationFailed)
}

func IsContentUnparseable(err error) bool {
	return errors.Is(err, ErrContentUnparseable)
}

func IsDesignGenerationFailed(err error) bool {
	return errors.Is(err, ErrDesignGenerationFailed)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignAccessDenied(err error) bool {
	return errors.Is(err, ErrCampaignAccessDenied)
}

func IsCampaignNotCancellable(err error) bool {
	return errors.Is(err, ErrCampaignNotCancellable)
}

func IsNoPublishableCountry(err error) bool {
	return errors.Is(err, ErrNoPublishableCountry)
}

func IsBaseCountryMissing(err error) bool {
	return errors.Is(err, ErrBaseCountryMissing)
}

func IsMetricsFetchFailed(err error) bool {
	return errors.Is(err, ErrMetricsFetchFailed)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
