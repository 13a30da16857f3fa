package driving

import (
	"context"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// NotifyRequest triggers a notification for one request status.
type NotifyRequest struct {
	StatusID   string `json:"statusId"`
	CategoryID string `json:"categoryId,omitempty"`
	// TestMode sends to the configured test recipient and skips the history log.
	TestMode bool `json:"testMode,omitempty"`
}

// NotifyResult reports what a notification run did.
type NotifyResult struct {
	Scenario   string            `json:"scenario"`
	Sent       bool              `json:"sent"`
	Reason     string            `json:"reason,omitempty"`
	Recipients []string          `json:"recipients,omitempty"`
	Subject    string            `json:"subject,omitempty"`
	RequestIDs []domain.RecordID `json:"requestIds,omitempty"`
	Excluded   int               `json:"excluded"`
	Attachment string            `json:"attachment,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// NotificationService sends scenario notifications with dedup.
type NotificationService interface {
	Send(ctx context.Context, req NotifyRequest) (*NotifyResult, error)
}
