package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// Ensure SMTPMailer implements the interface.
var _ driven.Mailer = (*SMTPMailer)(nil)

// sender delivers gomail messages. *gomail.Dialer satisfies it.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer delivers notifications through an SMTP relay.
type SMTPMailer struct {
	sender sender
	host   string
}

// NewSMTPMailer creates a mailer for the configured relay. Port 465 uses
// implicit TLS; other ports upgrade with STARTTLS when offered.
func NewSMTPMailer(settings domain.MailSettings) *SMTPMailer {
	dialer := gomail.NewDialer(settings.SMTPHost, settings.SMTPPort, settings.SMTPUser, settings.SMTPPassword)
	return &SMTPMailer{sender: dialer, host: settings.SMTPHost}
}

// Send delivers one message. There is no retry.
func (m *SMTPMailer) Send(ctx context.Context, msg driven.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm, err := NewMessage(msg)
	if err != nil {
		return err
	}

	if err := m.sender.DialAndSend(gm); err != nil {
		return fmt.Errorf("%w: smtp %s: %v", domain.ErrUpstream, m.host, err)
	}

	logger.Debug("sent %q to %d recipient(s) via %s", msg.Subject, len(msg.To)+len(msg.CC)+len(msg.BCC), m.host)
	return nil
}
