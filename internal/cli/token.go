package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/phunnicutt1/synapse-app-sub001/internal/auth"
	"github.com/phunnicutt1/synapse-app-sub001/internal/config"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with AUTH_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			normalized, err := auth.ParseRole(role)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}
			token, err := auth.IssueJWT([]byte(cfg.JWTSecret), subject, normalized, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Token subject, recorded as the mapping actor")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleEngineer), "Role: viewer, engineer or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default from AUTH_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
