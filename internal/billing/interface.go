package billing

import "context"

// ClientInterface defines the contract for billing account provisioning
// This allows for easy mocking in tests
type ClientInterface interface {
	CreateBillingAccount(ctx context.Context, patientID, name, email string) error
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)
