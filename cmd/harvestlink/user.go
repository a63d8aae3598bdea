package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harvestlink/marketplace/internal/api/handler"
	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/security"
	"github.com/harvestlink/marketplace/internal/core/service"
	"github.com/harvestlink/marketplace/pkg/logger"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer accounts",
	}
	cmd.AddCommand(setRoleCmd())
	return cmd
}

func setRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <customer|farmer|admin>",
		Short: "Change an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := domain.ParseRole(args[1])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[1])
			}

			ctx := cmd.Context()
			cfg, log, err := setup(ctx)
			if err != nil {
				return err
			}
			codec, err := security.NewCodec(cfg.Session.Secret, cfg.Session.Issuer)
			if err != nil {
				return err
			}

			store, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer store.close()

			auth := service.NewAuthService(store.repo, codec, security.NewHasher(), logger.Component("auth"))
			user, err := auth.SetRole(ctx, handler.ParseID(args[0]), role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", user.Username, user.ID, user.Role)
			return nil
		},
	}
}
