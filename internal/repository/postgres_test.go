package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"convert2ansible/backend/pkg/models"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	store := NewPostgresStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.Ping(ctx))

	tenant := &models.Tenant{
		ID:        uuid.New().String(),
		Name:      "Example Corp",
		Domain:    "example.com",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	t.Run("tenant create and lookup", func(t *testing.T) {
		require.NoError(t, store.CreateTenant(ctx, tenant))

		got, err := store.GetTenantByDomain(ctx, "example.com")
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, got.ID)
		assert.Equal(t, "Example Corp", got.Name)

		_, err = store.GetTenantByDomain(ctx, "nowhere.example")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("conversion archive round trip", func(t *testing.T) {
		summary := "installs nginx and opens port 80"
		conv := &models.Conversion{
			ID:               uuid.New().String(),
			TenantID:         tenant.ID,
			SessionID:        uuid.New().String(),
			SourceName:       "webserver.pp",
			SourceType:       models.SourceTypePuppet,
			Playbook:         "---\n- hosts: all\n  tasks: []",
			Summary:          &summary,
			ValidationPassed: true,
			CreatedAt:        time.Now().UTC(),
		}
		require.NoError(t, store.SaveConversion(ctx, conv))

		got, err := store.GetConversion(ctx, tenant.ID, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, conv.SourceName, got.SourceName)
		assert.Equal(t, models.SourceTypePuppet, got.SourceType)
		assert.True(t, got.ValidationPassed)
		require.NotNil(t, got.Summary)
		assert.Equal(t, summary, *got.Summary)
	})

	t.Run("list is tenant scoped and newest first", func(t *testing.T) {
		otherTenant := &models.Tenant{
			ID:        uuid.New().String(),
			Name:      "Other Inc",
			Domain:    "other.example",
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		require.NoError(t, store.CreateTenant(ctx, otherTenant))

		newer := &models.Conversion{
			ID:         uuid.New().String(),
			TenantID:   tenant.ID,
			SessionID:  uuid.New().String(),
			SourceName: "db.rb",
			SourceType: models.SourceTypeChef,
			Playbook:   "---\n- hosts: db",
			CreatedAt:  time.Now().UTC().Add(time.Minute),
		}
		require.NoError(t, store.SaveConversion(ctx, newer))

		convs, err := store.ListConversions(ctx, tenant.ID, 10)
		require.NoError(t, err)
		require.Len(t, convs, 2)
		assert.Equal(t, "db.rb", convs[0].SourceName)

		convs, err = store.ListConversions(ctx, otherTenant.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, convs)

		_, err = store.GetConversion(ctx, otherTenant.ID, newer.ID)
		assert.ErrorIs(t, err, ErrNotFound, "archive reads must not cross tenants")
	})
}
