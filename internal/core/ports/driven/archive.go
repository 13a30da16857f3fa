package driven

import "context"

// Archive keeps a copy of generated attachments.
type Archive interface {
	// Store uploads data under name and returns a reference to it.
	Store(ctx context.Context, name, contentType string, data []byte) (string, error)
}
