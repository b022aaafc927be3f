package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskmaster/tasksync/internal/adapters/repository"
	"github.com/taskmaster/tasksync/internal/application/services"
	"github.com/taskmaster/tasksync/internal/application/validation"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/config"
	"github.com/taskmaster/tasksync/internal/infrastructure/database"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/ports"
)

// Version is set at build time.
var Version = "dev"

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the TaskSync API server",
		Long:  "Start the REST API, the websocket push channel and the background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), inMemory)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "memory", false, "Keep all data in memory instead of PostgreSQL")
	return cmd
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	var steps int
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration("up", steps)
		},
	}
	upCmd.Flags().IntVar(&steps, "steps", 0, "Number of migrations to apply (0 applies all)")

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Revert migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration("down", steps)
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to revert (0 reverts all)")

	migrateCmd.AddCommand(upCmd, downCmd, &cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion()
		},
	})
	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}

	var name, email, password string
	var admin bool
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a registered user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			return createUser(cmd.Context(), name, email, password, admin)
		},
	}
	createCmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	createCmd.Flags().StringVar(&email, "email", "", "User email (required)")
	createCmd.Flags().StringVar(&password, "password", "", "User password (required)")
	createCmd.Flags().BoolVar(&admin, "admin", false, "Grant the admin role")

	userCmd.AddCommand(createCmd)
	return userCmd
}

// NewLogsCommand manages the activity log.
func NewLogsCommand() *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Activity log maintenance",
	}

	var olderThan time.Duration
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete activity entries older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return purgeLogs(cmd.Context(), olderThan)
		},
	}
	purgeCmd.Flags().DurationVar(&olderThan, "older-than", 0, "Retention period (defaults to scheduler.activity_retention)")

	logsCmd.AddCommand(purgeCmd)
	return logsCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print TaskSync version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("TaskSync %s\n", Version)
		},
	}
}

func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, appLogger, nil
}

func runServer(ctx context.Context, inMemory bool) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appLogger, inMemory)
	if err != nil {
		appLogger.Errorw("Failed to initialize application", "error", err)
		return err
	}
	defer a.close()
	a.start(ctx)

	appLogger.Infow("Starting TaskSync API server",
		"app", a.String(),
		"port", cfg.Server.Port,
		"memory", inMemory,
		"relay", cfg.Redis.Enabled,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Errorw("Server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Graceful shutdown failed", "error", err)
		return err
	}
	appLogger.Infow("Server stopped")
	return nil
}

func openDatabase() (*database.DB, *config.Config, *logger.Logger, error) {
	cfg, appLogger, err := setup()
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.New(cfg.Database)
	if err != nil {
		_ = appLogger.Close()
		return nil, nil, nil, err
	}
	return db, cfg, appLogger, nil
}

func runMigration(direction string, steps int) error {
	db, _, appLogger, err := openDatabase()
	if err != nil {
		return err
	}
	defer appLogger.Close()
	defer db.Close()

	m, err := db.Migrator()
	if err != nil {
		return err
	}

	switch {
	case direction == "up" && steps > 0:
		err = m.Steps(steps)
	case direction == "up":
		err = m.Up()
	case steps > 0:
		err = m.Steps(-steps)
	default:
		err = m.Down()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Printf("Migration %s completed successfully\n", direction)
	return nil
}

func showMigrationVersion() error {
	db, _, appLogger, err := openDatabase()
	if err != nil {
		return err
	}
	defer appLogger.Close()
	defer db.Close()

	m, err := db.Migrator()
	if err != nil {
		return err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
	return nil
}

func createUser(ctx context.Context, name, email, password string, admin bool) error {
	db, cfg, appLogger, err := openDatabase()
	if err != nil {
		return err
	}
	defer appLogger.Close()
	defer db.Close()

	req := ports.RegisterRequest{Name: name, Email: email, Password: password}
	if err := validation.New().Struct(req); err != nil {
		if de, ok := entities.AsDomainError(err); ok && len(de.Fields) > 0 {
			return fmt.Errorf("%s: %s", de.Fields[0].Field, de.Fields[0].Message)
		}
		return err
	}

	// only hashing is used here, so the remaining collaborators stay nil
	auth := services.NewAuthService(nil, nil, nil, nil, cfg.JWT, cfg.Security.BcryptCost, appLogger)
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	role := entities.UserRoleUser
	if admin {
		role = entities.UserRoleAdmin
	}
	now := time.Now().UTC()
	user := &entities.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hashed,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repository.NewUserRepository(db).Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User created successfully:\n")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Printf("  Role: %s\n", user.Role)
	return nil
}

func purgeLogs(ctx context.Context, olderThan time.Duration) error {
	db, cfg, appLogger, err := openDatabase()
	if err != nil {
		return err
	}
	defer appLogger.Close()
	defer db.Close()

	if olderThan <= 0 {
		olderThan = cfg.Scheduler.ActivityRetention
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	removed, err := repository.NewActivityLogRepository(db).DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge activity logs: %w", err)
	}
	fmt.Printf("Removed %d activity log entries older than %s\n", removed, cutoff.Format(time.RFC3339))
	return nil
}
