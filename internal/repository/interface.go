package repository

import (
	"context"
	"errors"

	"convert2ansible/backend/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence surface for tenants and the conversion archive.
// Session and workflow state stay in memory; only finished conversions and
// tenant records hit the database.
type Store interface {
	// GetTenantByDomain looks up a tenant by its email domain.
	GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	// CreateTenant inserts a new tenant.
	CreateTenant(ctx context.Context, tenant *models.Tenant) error

	// SaveConversion archives a finished conversion.
	SaveConversion(ctx context.Context, conv *models.Conversion) error
	// GetConversion retrieves one archived conversion scoped to a tenant.
	GetConversion(ctx context.Context, tenantID, id string) (*models.Conversion, error)
	// ListConversions returns a tenant's archive, newest first.
	ListConversions(ctx context.Context, tenantID string, limit int) ([]*models.Conversion, error)

	// Ping verifies database connectivity for health checks.
	Ping(ctx context.Context) error
}
