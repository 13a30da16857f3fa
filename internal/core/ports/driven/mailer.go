package driven

import (
	"context"
)

// Attachment is a file sent with a notification.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Message is a rendered notification ready for delivery.
type Message struct {
	From        string
	To          []string
	CC          []string
	BCC         []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Mailer delivers notifications.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
