package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Provider errors. A failed token exchange disables a provider for the
	// rest of the run; an unavailable provider is skipped for the current
	// record and the chain moves on.
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrProviderDisabled    = fmt.Errorf("provider disabled")
	ErrProviderUnavailable = fmt.Errorf("provider unavailable")
	ErrNoMatch             = fmt.Errorf("no verified match")
	ErrExhausted           = fmt.Errorf("all providers exhausted")

	// Artwork errors
	ErrDownloadFailed = fmt.Errorf("cover download failed")
	ErrImageTooLarge  = fmt.Errorf("cover image too large")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidRecord   = fmt.Errorf("invalid catalog record")
)
