package google

import (
	"context"
	"encoding/base64"

	"google.golang.org/api/gmail/v1"

	"github.com/custodia-labs/reqbridge/internal/adapters/driven/mail"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// Ensure GmailMailer implements the interface.
var _ driven.Mailer = (*GmailMailer)(nil)

// GmailMailer sends notifications as the authenticated user through the
// Gmail API. The MIME body is built by the same code as the SMTP transport.
type GmailMailer struct {
	svc     *gmail.Service
	limiter *RateLimiter
}

// NewGmailMailer creates a mailer over an authenticated Gmail service.
func NewGmailMailer(svc *gmail.Service) *GmailMailer {
	return &GmailMailer{svc: svc, limiter: NewRateLimiter(ServiceGmail)}
}

// Send delivers one message. There is no retry.
func (m *GmailMailer) Send(ctx context.Context, msg driven.Message) error {
	raw, err := mail.Raw(msg)
	if err != nil {
		return err
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	sent, err := m.svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return WrapError("gmail send", m.limiter.Observe(err))
	}

	logger.Debug("gmail message %s sent: %q", sent.Id, msg.Subject)
	return nil
}
