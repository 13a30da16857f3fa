package google

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// OAuth2 scopes used by the adapters.
const (
	ScopeSheets    = sheets.SpreadsheetsScope
	ScopeDriveFile = drive.DriveFileScope
	ScopeGmailSend = gmail.GmailSendScope
)

// LoadServiceAccountKey returns the key JSON. The value is either inline
// JSON or the path of a key file.
func LoadServiceAccountKey(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: service account key", domain.ErrConfigMissing)
	}
	if strings.HasPrefix(value, "{") {
		return []byte(value), nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	return data, nil
}

// ServiceAccountTokenSource creates a TokenSource from a service-account key.
// A non-empty subject impersonates that user through domain-wide delegation.
func ServiceAccountTokenSource(ctx context.Context, key []byte, subject string, scopes ...string) (oauth2.TokenSource, error) {
	cfg, err := googleoauth.JWTConfigFromJSON(key, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: parse service account key: %v", domain.ErrInvalidInput, err)
	}
	cfg.Subject = subject
	return cfg.TokenSource(ctx), nil
}

// NewSheetsService creates a Sheets API service.
func NewSheetsService(ctx context.Context, opts ...option.ClientOption) (*sheets.Service, error) {
	return sheets.NewService(ctx, opts...)
}

// NewDriveService creates a Google Drive API service.
func NewDriveService(ctx context.Context, opts ...option.ClientOption) (*drive.Service, error) {
	return drive.NewService(ctx, opts...)
}

// NewGmailService creates a Gmail API service.
func NewGmailService(ctx context.Context, opts ...option.ClientOption) (*gmail.Service, error) {
	return gmail.NewService(ctx, opts...)
}
