// Package google provides the Google Workspace adapters.
//
// This package contains:
//   - SheetStore: the shared spreadsheet as a row store (Sheets API v4)
//   - Archive: attachment copies in a Drive folder (Drive API v3)
//   - GmailMailer: notification delivery through the Gmail API
//   - Service factories authenticated with a service-account key
//   - Error mapping for common Google API errors (401, 403, 404, 429, 5xx)
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
//	ts, err := google.ServiceAccountTokenSource(ctx, key, "", google.ScopeSheets)
//	svc, err := google.NewSheetsService(ctx, option.WithTokenSource(ts))
//	store := google.NewSheetStore(svc)
//
// # OAuth2 Scopes
//
//   - https://www.googleapis.com/auth/spreadsheets
//   - https://www.googleapis.com/auth/drive.file
//   - https://www.googleapis.com/auth/gmail.send (domain-wide delegation)
package google
