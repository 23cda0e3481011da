// convertctl is the operator CLI: schema migration, tenant seeding and
// archive inspection against the same database the server uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"convert2ansible/backend/internal/config"
	"convert2ansible/backend/internal/logging"
	"convert2ansible/backend/internal/repository"
	"convert2ansible/backend/pkg/models"
)

func main() {
	root := &cobra.Command{
		Use:   "convertctl",
		Short: "Operator tooling for the Convert2Ansible backend",
	}
	root.AddCommand(seedCmd(), listCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func connect(ctx context.Context) (*repository.PostgresStore, *pgxpool.Pool, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return repository.NewPostgresStore(pool), pool, nil
}

// seedCmd applies the schema and ensures the local dev tenant exists.
func seedCmd() *cobra.Command {
	var domain string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Apply the database schema and create the default tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logging.NewLogger()

			store, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
			logger.Info("Schema applied")

			tenant, err := store.GetTenantByDomain(ctx, domain)
			if errors.Is(err, repository.ErrNotFound) {
				logger.Info("Creating default tenant for domain %s", domain)
				now := time.Now().UTC()
				tenant = &models.Tenant{
					ID:        uuid.New().String(),
					Name:      "Local Dev Tenant",
					Domain:    domain,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := store.CreateTenant(ctx, tenant); err != nil {
					return fmt.Errorf("failed to create tenant: %w", err)
				}
			} else if err != nil {
				return fmt.Errorf("failed to look up tenant: %w", err)
			} else {
				logger.Info("Found existing tenant %s", tenant.ID)
			}

			logger.Info("Seeding complete!")
			return nil
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "localhost", "email domain of the default tenant")
	return cmd
}

// listCmd prints a tenant's archived conversions.
func listCmd() *cobra.Command {
	var domain string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived conversions for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			tenant, err := store.GetTenantByDomain(ctx, domain)
			if err != nil {
				return fmt.Errorf("failed to look up tenant %s: %w", domain, err)
			}

			convs, err := store.ListConversions(ctx, tenant.ID, limit)
			if err != nil {
				return fmt.Errorf("failed to list conversions: %w", err)
			}
			if len(convs) == 0 {
				log.Printf("no archived conversions for %s", domain)
				return nil
			}
			for _, conv := range convs {
				verdict := "failed"
				if conv.ValidationPassed {
					verdict = "passed"
				}
				fmt.Printf("%s  %-12s %-24s validation=%s  %s\n",
					conv.CreatedAt.Format(time.RFC3339), conv.SourceType, conv.SourceName, verdict, conv.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "localhost", "email domain of the tenant")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to print")
	return cmd
}
