package system

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medicenter_backend/config"
	"github.com/Alijeyrad/medicenter_backend/pkg/authorize"
	"github.com/Alijeyrad/medicenter_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and seed the default RBAC policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			if timeout <= 0 {
				timeout = time.Minute
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			// client db
			fmt.Println("Running Migrations For Client DB.")
			if err := database.Migrate(ctx, database.FromCentralConfig(cfg.Database), steps, slog.Default()); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			if steps < 0 {
				fmt.Println("Rollback executed successfully.")
				return nil
			}

			// casbin db
			fmt.Println("Running Migrations For Casbin DB.")
			enforcer, cleanup, err := authorize.NewEnforcer(cfg.Authorization.CasbinModelPath, database.NewDSN(cfg.CasbinDatabase), slog.Default())
			if err != nil {
				return fmt.Errorf("failed to create enforcer: %w", err)
			}
			defer cleanup(context.Background())

			auth, err := authorize.NewAuthorization(enforcer, authorize.FromCentralConfig(cfg.Authorization, slog.Default()))
			if err != nil {
				return fmt.Errorf("failed to create authorization: %w", err)
			}

			slog.Info("Seeding Casbin policies...")
			if err := authorize.SeedDefaultPolicies(ctx, auth, slog.Default()); err != nil {
				return fmt.Errorf("failed to seed policies: %w", err)
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 0, "Versions to move: >0 up, <0 down, 0 applies everything pending")

	return cmd
}
