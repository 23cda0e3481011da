package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"convert2ansible/backend/pkg/models"
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema holds the DDL for the tables this store manages. Applied by the
// seed command and by integration tests; production deploys run it once.
const Schema = `
CREATE TABLE IF NOT EXISTS tenants (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	domain TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS conversions (
	id UUID PRIMARY KEY,
	tenant_id UUID NOT NULL REFERENCES tenants(id),
	session_id UUID NOT NULL,
	source_name TEXT NOT NULL,
	source_type TEXT NOT NULL,
	playbook TEXT NOT NULL,
	summary TEXT,
	validation_passed BOOLEAN NOT NULL DEFAULT false,
	created_by TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_conversions_tenant_created
	ON conversions (tenant_id, created_at DESC);
`

// EnsureSchema applies the DDL above.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	return err
}

// GetTenantByDomain looks up a tenant by its email domain.
func (s *PostgresStore) GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	var t models.Tenant
	err := s.db.QueryRow(ctx,
		"SELECT id, name, domain, created_at, updated_at FROM tenants WHERE domain = $1",
		domain,
	).Scan(&t.ID, &t.Name, &t.Domain, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTenant inserts a new tenant.
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO tenants (id, name, domain, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)",
		tenant.ID, tenant.Name, tenant.Domain, tenant.CreatedAt, tenant.UpdatedAt)
	return err
}

// SaveConversion archives a finished conversion.
func (s *PostgresStore) SaveConversion(ctx context.Context, conv *models.Conversion) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO conversions
			(id, tenant_id, session_id, source_name, source_type, playbook, summary, validation_passed, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		conv.ID, conv.TenantID, conv.SessionID, conv.SourceName, conv.SourceType,
		conv.Playbook, conv.Summary, conv.ValidationPassed, conv.CreatedBy, conv.CreatedAt)
	return err
}

// GetConversion retrieves one archived conversion scoped to a tenant.
func (s *PostgresStore) GetConversion(ctx context.Context, tenantID, id string) (*models.Conversion, error) {
	var c models.Conversion
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, session_id, source_name, source_type, playbook, summary, validation_passed, created_by, created_at
		 FROM conversions WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&c.ID, &c.TenantID, &c.SessionID, &c.SourceName, &c.SourceType,
		&c.Playbook, &c.Summary, &c.ValidationPassed, &c.CreatedBy, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversions returns a tenant's archive, newest first.
func (s *PostgresStore) ListConversions(ctx context.Context, tenantID string, limit int) ([]*models.Conversion, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, session_id, source_name, source_type, playbook, summary, validation_passed, created_by, created_at
		 FROM conversions WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2`,
		tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*models.Conversion
	for rows.Next() {
		var c models.Conversion
		err := rows.Scan(&c.ID, &c.TenantID, &c.SessionID, &c.SourceName, &c.SourceType,
			&c.Playbook, &c.Summary, &c.ValidationPassed, &c.CreatedBy, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		convs = append(convs, &c)
	}
	return convs, rows.Err()
}

// Ping verifies database connectivity for health checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
