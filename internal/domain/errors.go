package domain

import (
	"errors"
	"fmt"
)

// ProviderError wraps a failure from an external provider (embedding,
// rerank, search, generate) with enough structure for callers to branch on
// class instead of matching message text.
type ProviderError struct {
	Provider    string // which adapter produced it
	StatusCode  int    // HTTP status when known, 0 otherwise
	Code        string // provider-specific error code when known
	Message     string
	RateLimited bool // quota exhausted or throttled; callers may degrade instead of failing
	Err         error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider: %s (status %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s provider: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err, anywhere in its chain, is a provider
// error classified as quota/rate-limit exhaustion.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.RateLimited
}
