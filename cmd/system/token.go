package system

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medicenter_backend/config"
	"github.com/Alijeyrad/medicenter_backend/pkg/authorize"
	"github.com/Alijeyrad/medicenter_backend/pkg/database"
	pasetotoken "github.com/Alijeyrad/medicenter_backend/pkg/paseto"
)

// NewTokenCommand issues access tokens for operators. Login flows live
// outside this service.
func NewTokenCommand() *cobra.Command {
	var (
		userID     string
		superAdmin bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a PASETO access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			if superAdmin {
				if err := grantSuperAdmin(cmd.Context(), cfg, uid); err != nil {
					return err
				}
			}

			mgr, err := pasetotoken.NewFromConfig(cfg.Authentication.Paseto)
			if err != nil {
				return fmt.Errorf("failed to create token manager: %w", err)
			}
			tok, err := mgr.IssueAccess(uid, nil)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User UUID the token is issued for")
	cmd.Flags().BoolVar(&superAdmin, "superadmin", false, "Also grant role:sys:superadmin to the user")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func grantSuperAdmin(ctx context.Context, cfg *config.Config, uid uuid.UUID) error {
	enforcer, cleanup, err := authorize.NewEnforcer(cfg.Authorization.CasbinModelPath, database.NewDSN(cfg.CasbinDatabase), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create enforcer: %w", err)
	}
	defer cleanup(context.Background())

	auth, err := authorize.NewAuthorization(enforcer, authorize.FromCentralConfig(cfg.Authorization, slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to create authorization: %w", err)
	}
	if err := authorize.AssignSystemRole(ctx, auth, uid.String(), authorize.RoleSysSuperAdmin); err != nil {
		return fmt.Errorf("failed to grant superadmin: %w", err)
	}
	return nil
}
