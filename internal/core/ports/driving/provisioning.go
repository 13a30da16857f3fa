package driving

import "context"

// ProvisionResult reports a provisioning run over the users tab.
type ProvisionResult struct {
	Processed int            `json:"processed"`
	Created   int            `json:"created"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Errors    map[int]string `json:"errors,omitempty"`
}

// ProvisioningService creates directory accounts from spreadsheet rows.
type ProvisioningService interface {
	Provision(ctx context.Context) (*ProvisionResult, error)
}
