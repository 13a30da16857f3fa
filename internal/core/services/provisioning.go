package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// Ensure ProvisioningService implements the interface.
var _ driving.ProvisioningService = (*ProvisioningService)(nil)

// Columns of the provisioning tab.
const (
	ColLastName  = "last_name"
	ColFirstName = "first_name"
	ColEmail     = "email"
	ColPhone     = "phone"
	ColUsername  = "username"
	ColStatus    = "status"
	ColUserID    = "user_id"

	// StatusCreated marks a row whose account exists.
	StatusCreated = "created"
)

// ProvisioningService creates directory accounts for new rows of the
// provisioning tab and writes the outcome back into each row.
type ProvisioningService struct {
	sheets        driven.SheetStore
	directory     driven.Directory
	spreadsheetID string
	tab           string
}

// NewProvisioningService creates a provisioning service.
func NewProvisioningService(sheets driven.SheetStore, directory driven.Directory, spreadsheetID, tab string) *ProvisioningService {
	return &ProvisioningService{
		sheets:        sheets,
		directory:     directory,
		spreadsheetID: spreadsheetID,
		tab:           tab,
	}
}

// Provision processes every row whose status cell is empty.
func (s *ProvisioningService) Provision(ctx context.Context) (*driving.ProvisionResult, error) {
	if s.directory == nil {
		return nil, fmt.Errorf("%w: directory.base_url", domain.ErrConfigMissing)
	}
	if s.spreadsheetID == "" {
		return nil, fmt.Errorf("%w: sheets.spreadsheet_id", domain.ErrConfigMissing)
	}

	rows, err := s.sheets.ReadRows(ctx, s.spreadsheetID, s.tab)
	if err != nil {
		return nil, fmt.Errorf("read provisioning tab %s: %w", s.tab, err)
	}

	result := &driving.ProvisionResult{Errors: make(map[int]string)}
	var updates []domain.RowUpdate

	for _, row := range rows {
		if row.Record.Has(ColStatus) {
			result.Skipped++
			continue
		}
		result.Processed++

		values := map[string]any{}
		id, err := s.createUser(ctx, row.Record)
		if err != nil {
			result.Failed++
			result.Errors[row.RowNumber] = err.Error()
			values[ColStatus] = "error: " + err.Error()
			logger.Warn("provisioning row %d: %v", row.RowNumber, err)
		} else {
			result.Created++
			values[ColStatus] = StatusCreated
			values[ColUserID] = id
			logger.Info("provisioning row %d: created user %s", row.RowNumber, id)
		}
		updates = append(updates, domain.RowUpdate{
			RowNumber:        row.RowNumber,
			ExpectedRevision: row.Revision,
			Values:           values,
		})
	}

	if len(updates) == 0 {
		return result, nil
	}
	written, err := s.sheets.UpdateRows(ctx, s.spreadsheetID, s.tab, updates)
	if err != nil {
		return result, fmt.Errorf("write provisioning status: %w", err)
	}
	for rowNumber, skipErr := range written.Skipped {
		msg := "status not written: " + skipErr.Error()
		if prev, ok := result.Errors[rowNumber]; ok {
			msg = prev + "; " + msg
		}
		result.Errors[rowNumber] = msg
		logger.Warn("provisioning row %d: %s", rowNumber, msg)
	}
	return result, nil
}

func (s *ProvisioningService) createUser(ctx context.Context, r domain.Record) (string, error) {
	user := domain.NewUser{
		Username:  strings.TrimSpace(r.String(ColUsername)),
		FirstName: strings.TrimSpace(r.String(ColFirstName)),
		LastName:  strings.TrimSpace(r.String(ColLastName)),
		Email:     strings.TrimSpace(r.String(ColEmail)),
		Phone:     strings.TrimSpace(r.String(ColPhone)),
	}
	if user.Email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if user.LastName == "" {
		return "", fmt.Errorf("%w: last_name is required", domain.ErrInvalidInput)
	}
	if user.Username == "" {
		user.Username = strings.ToLower(user.Email)
	}
	return s.directory.CreateUser(ctx, user)
}
