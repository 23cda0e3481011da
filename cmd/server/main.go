package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"convert2ansible/backend/internal/agentcfg"
	"convert2ansible/backend/internal/api"
	"convert2ansible/backend/internal/auth"
	"convert2ansible/backend/internal/config"
	"convert2ansible/backend/internal/logging"
	"convert2ansible/backend/internal/mcp"
	"convert2ansible/backend/internal/repository"
	"convert2ansible/backend/internal/services"
	"convert2ansible/backend/internal/session"
	"convert2ansible/backend/internal/tls"
	"convert2ansible/backend/internal/workflow"
)

func main() {
	ctx := context.Background()

	// Initialize logging
	logger := logging.NewLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		log.Fatalf("Configuration loading failed: %v", err)
	}
	logger.Info("Configuration loaded: environment=%s config_file=%s",
		cfg.Environment, viper.ConfigFileUsed())

	logger.Info("Starting Convert2Ansible backend")

	// Initialize database connection
	dbPool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize database: %v", err)
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer dbPool.Close()

	logger.Info("Database connected")

	// Initialize repository layer
	store := repository.NewPostgresStore(dbPool)

	// Agent instruction configuration (admin-editable)
	agentConfigs, err := agentcfg.NewStore("config/agents.yaml")
	if err != nil {
		logger.Error("Failed to load agent configs: %v", err)
		log.Fatalf("Agent config loading failed: %v", err)
	}

	// Initialize service layer
	agents := services.NewHTTPAgentClient(services.AgentEndpoints{
		Classifier: cfg.AgentURL(cfg.Agents.Classifier),
		Context:    cfg.AgentURL(cfg.Agents.Context),
		Generator:  cfg.AgentURL(cfg.Agents.Generator),
		Validator:  cfg.AgentURL(cfg.Agents.Validator),
		Deployer:   cfg.AgentURL(cfg.Agents.Deployer),
	})
	pipeline := services.NewPipelineService(agents, store, logger)

	// Session manager with caller-driven expiry
	sessions := session.NewManager(
		workflow.DefaultRegistry(),
		workflow.DefaultPredicates(workflow.PredicateOptions{
			ValidateRequiresPass: cfg.Workflow.ValidateRequiresPass,
		}),
		cfg.Workflow.SessionTTL,
	)
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go runSessionJanitor(janitorCtx, sessions, logger)

	logger.Info("Service layer initialized")

	// Create Echo server
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("convert2ansible"))

	// Initialize authentication
	authz, err := auth.New(ctx, cfg, store, logger)
	if err != nil {
		logger.Error("failed to initialize auth: %v", err)
		log.Fatalf("auth initialization failed: %v", err)
	}

	// Register auth handlers
	e.GET("/login", echo.WrapHandler(http.HandlerFunc(authz.LoginHandler)))
	e.GET("/auth/callback", echo.WrapHandler(http.HandlerFunc(authz.CallbackHandler)))
	e.GET("/logout", echo.WrapHandler(http.HandlerFunc(authz.LogoutHandler)))

	// Mount REST API handlers behind auth on /api/v1
	apiServer := api.NewServer(sessions, pipeline, store, agentConfigs, logger)
	apiGroup := e.Group("/api/v1")
	apiGroup.Use(echo.WrapMiddleware(authz.RequireAuth))
	api.RegisterHandlers(apiGroup, apiServer)

	// Health stays unauthenticated for probes
	e.GET("/healthz", apiServer.HandleHealth)

	logger.Info("REST API handlers mounted")

	// Mount MCP protocol handlers
	mcpServer := mcp.NewServer(agents)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))

	logger.Info("MCP protocol handlers mounted")

	// expose OpenAPI spec (with runtime substitution) and Swagger UI
	e.GET("/openapi.yaml", echo.WrapHandler(http.HandlerFunc(api.SpecHandler(cfg.Auth.OktaDomain))))
	e.GET("/docs", echo.WrapHandler(http.HandlerFunc(api.SwaggerHandler(cfg.Auth.OktaDomain, cfg.Auth.SwaggerClientID))))
	e.GET("/docs/oauth2-redirect.html", echo.WrapHandler(http.HandlerFunc(api.OAuthRedirectHandler)))

	// Create HTTP server
	addr := ":8080"
	if cfg.TLS.Enable {
		// use TLS port 8443
		addr = ":8443"
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting on %s (tls=%t)", addr, cfg.TLS.Enable)
		if cfg.TLS.Enable {
			if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
				logger.Error("TLS enabled but cert/key file not provided")
				serverErrors <- server.ListenAndServe()
				return
			}
			// generate if missing and hostnames provided
			if _, err := os.Stat(cfg.TLS.CertFile); os.IsNotExist(err) {
				if len(cfg.TLS.Hostnames) > 0 {
					if err := tls.GenerateSelfSignedCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames); err != nil {
						logger.Error("failed to generate self-signed cert: %v", err)
					}
				}
			}
			serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			logger.Error("Server error: %v", err)
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received: %v", sig)

		stopJanitor()

		// Create shutdown context with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error: %v", err)
			}
		}

		logger.Info("Server stopped gracefully")
	}
}

// runSessionJanitor expires idle sessions. The workflow engine runs no
// timers of its own; this loop is the only thing that ages sessions out.
func runSessionJanitor(ctx context.Context, sessions *session.Manager, logger *logging.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := sessions.PruneIdle(now); removed > 0 {
				logger.Info("Pruned %d idle sessions (%d live)", removed, sessions.Count())
			}
		}
	}
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection")

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
