// Package mail builds MIME notifications and delivers them over SMTP.
package mail

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

// NewMessage converts a notification into a gomail message with an HTML
// body and the attachments in order.
func NewMessage(msg driven.Message) (*gomail.Message, error) {
	if strings.TrimSpace(msg.From) == "" {
		return nil, fmt.Errorf("%w: sender address", domain.ErrConfigMissing)
	}
	if len(msg.To) == 0 {
		return nil, domain.ErrNoRecipients
	}

	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	if len(msg.CC) > 0 {
		m.SetHeader("Cc", msg.CC...)
	}
	if len(msg.BCC) > 0 {
		m.SetHeader("Bcc", msg.BCC...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	for _, a := range msg.Attachments {
		data := a.Data
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		m.Attach(a.FileName,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {contentType}}),
		)
	}

	return m, nil
}

// Raw renders the message as RFC 2822 bytes. gomail omits the Bcc header
// when writing, so it is restored here for transports that read
// recipients from the headers.
func Raw(msg driven.Message) ([]byte, error) {
	m, err := NewMessage(msg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if len(msg.BCC) > 0 {
		buf.WriteString("Bcc: " + strings.Join(msg.BCC, ", ") + "\r\n")
	}
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render message: %w", err)
	}
	return buf.Bytes(), nil
}
