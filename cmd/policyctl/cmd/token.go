package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dev-mohitbeniwal/taskhub/api/config"
	"github.com/dev-mohitbeniwal/taskhub/api/middleware"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for a user with auth.jwtSecret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitConfig(); err != nil {
				return fmt.Errorf("failed to initialize config: %w", err)
			}
			secret := config.GetString("auth.jwtSecret")
			if secret == "" {
				return fmt.Errorf("auth.jwtSecret is not set")
			}

			token, err := middleware.SignToken([]byte(secret), config.GetString("auth.issuer"), model.ID(userID), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
