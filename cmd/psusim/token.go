package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psusim/psusim/internal/auth"
	"github.com/psusim/psusim/internal/infrastructure/config"
)

var errNoSecret = errors.New("security.jwt.secret is not configured; the API is open and needs no token")

func newTokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		role    string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.Security.JWT.Secret == "" {
				return errNoSecret
			}

			token, err := auth.GenerateAccessToken(subject, auth.Role(role), cfg.Security.JWT.Secret, cfg.Security.JWT.AccessTokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "test-rig", "token subject")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleOperator), "token role (viewer or operator)")
	return cmd
}
