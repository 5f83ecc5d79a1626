package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wardflow/wardflow/internal/config"
	"github.com/wardflow/wardflow/internal/domain/admission"
	"github.com/wardflow/wardflow/internal/domain/bed"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/department"
	"github.com/wardflow/wardflow/internal/domain/patient"
	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/auth"
	"github.com/wardflow/wardflow/internal/platform/db"
	"github.com/wardflow/wardflow/internal/platform/events"
	"github.com/wardflow/wardflow/internal/platform/middleware"
	"github.com/wardflow/wardflow/internal/platform/sequence"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wardflow-server",
		Short: "Hospital bed and patient management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			count, err := migrator.Up(context.Background())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			statuses, err := migrator.Status(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

// seedCmd provisions a starter set of departments with their bed grids so a
// fresh environment has something to admit patients into.
func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create starter departments and bed grids",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx := context.Background()
			depRepo := department.NewRepoPG(pool)
			bedRepo := bed.NewRepoPG(pool)
			bedDir := bed.NewDirectory(bedRepo)
			txRunner := db.NewRunner(pool)
			depSvc := department.NewService(depRepo, bedDir, txRunner, events.NopPublisher{})

			seeds := []*department.Department{
				{Name: "General Medicine", Description: "General inpatient care", TotalBeds: 20,
					Location: department.Location{Floor: 2, Wing: "East"}},
				{Name: "ICU", Description: "Intensive care unit", TotalBeds: 10,
					Location: department.Location{Floor: 3, Wing: "North"}},
				{Name: "Cardiology", Description: "Cardiac care", TotalBeds: 15,
					Location: department.Location{Floor: 4, Wing: "West"}},
			}
			for _, d := range seeds {
				created, err := depSvc.Create(ctx, d)
				if err != nil {
					if ae, ok := apperr.As(err); ok && ae.Code == "DEPARTMENT_EXISTS" {
						fmt.Printf("skipping %s: already exists\n", d.Name)
						continue
					}
					return err
				}
				fmt.Printf("created %s with %d beds\n", created.Name, created.TotalBeds)
			}
			return nil
		},
	}
}

func connect() (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() && cfg.JWTSecret == "" {
		logger.Warn().Msg("running with development auth, all requests act as dev-user")
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.JWTIssuer,
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	// Realtime hub
	hub := events.NewHub()

	// Repositories
	depRepo := department.NewRepoPG(pool)
	bedRepo := bed.NewRepoPG(pool)
	patientRepo := patient.NewRepoPG(pool)
	billingRepo := billing.NewRepoPG(pool)
	seq := sequence.NewPG(pool)
	txRunner := db.NewRunner(pool)

	// Services
	billingSvc := billing.NewService(billingRepo, seq, hub)
	patientSvc := patient.NewService(patientRepo, billingSvc, hub)
	bedDir := bed.NewDirectory(bedRepo)
	depSvc := department.NewService(depRepo, bedDir, txRunner, hub)
	bedSvc := bed.NewService(bedRepo, depSvc, patientSvc, hub)
	coordinator := admission.NewCoordinator(depSvc, bedRepo, patientRepo, billingSvc, seq, txRunner, hub)

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	// API routes
	api := e.Group("/api")
	api.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	department.NewHandler(depSvc).RegisterRoutes(api)
	bed.NewHandler(bedSvc).RegisterRoutes(api)
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	billing.NewHandler(billingSvc).RegisterRoutes(api)
	admission.NewHandler(coordinator).RegisterRoutes(api)

	// WebSocket endpoint, outside the rate-limited API group
	events.NewHandler(hub).RegisterRoutes(e.Group(""))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}
