package driven

import (
	"context"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// Directory looks up and provisions people in the identity provider.
// Lookups return (nil, nil) when nothing matches.
type Directory interface {
	// SearchByName returns the first user matching surname and, if non-empty, given name.
	SearchByName(ctx context.Context, surname, given string) (*domain.Contact, error)

	// GetByID returns the user with the directory's opaque id.
	GetByID(ctx context.Context, id string) (*domain.Contact, error)

	// CreateUser provisions a new account and returns its id.
	CreateUser(ctx context.Context, user domain.NewUser) (string, error)
}
