package google

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// Common Google API errors.
var (
	// ErrUnauthorized indicates invalid or expired credentials.
	ErrUnauthorized = errors.New("google: unauthorised (invalid credentials)")

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("google: forbidden (insufficient permissions)")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("google: rate limit exceeded")
)

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, domain.ErrNotFound) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}

// WrapError converts a Google API error into the domain error space.
// Missing resources become domain.ErrNotFound; everything else is
// domain.ErrUpstream, with the specific Google error kept in the chain.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, op, err)
	}

	switch gerr.Code {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s: %w", domain.ErrUpstream, op, ErrUnauthorized)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s: %w", domain.ErrUpstream, op, ErrForbidden)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: %w", domain.ErrUpstream, op, ErrRateLimited)
	case http.StatusBadRequest:
		// A range naming a tab that does not exist is a 400.
		if strings.Contains(gerr.Message, "Unable to parse range") {
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return fmt.Errorf("%w: %s: %s", domain.ErrInvalidInput, op, gerr.Message)
	default:
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, op, err)
	}
}
