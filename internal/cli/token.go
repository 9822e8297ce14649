package cli

import (
	"fmt"
	"time"

	"edu-quiz-service/internal/auth"
	"edu-quiz-service/internal/config"
	"github.com/spf13/cobra"
)

// NewTokenCmd mints a bearer token for a user, for local development.
func NewTokenCmd(configPath *string) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			tokens := auth.NewTokens(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
			token, err := tokens.Issue(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id the token is issued for")
	return cmd
}
