package httpapi

import (
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
)

// Ports aggregates the driving ports served over HTTP.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Notification sends scenario notifications.
	Notification driving.NotificationService

	// Export writes the spreadsheet export and builds downloads.
	Export driving.ExportService

	// Provisioning handles the spreadsheet webhook. Optional.
	Provisioning driving.ProvisioningService

	// History is used for maintenance pruning. Optional.
	History driving.HistoryService

	// Scripts runs maintenance scripts. Optional.
	Scripts driving.ScriptService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Notification == nil {
		return ErrMissingNotificationService
	}
	if p.Export == nil {
		return ErrMissingExportService
	}
	return nil
}
