package adapter

import "context"

// TenantLocker serialises mutations of one agency.
type TenantLocker interface {
	// Lock blocks until the scope for tenantID is held or ctx ends.
	Lock(ctx context.Context, tenantID string) (unlock func(), err error)
}
