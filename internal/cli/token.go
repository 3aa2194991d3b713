package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lms-quiz-session/internal/auth"
	"lms-quiz-session/internal/config"
)

// NewTokenCmd prints a signed token for local testing against the configured secret.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret not configured")
			}
			verifier := auth.NewVerifier(auth.Config{Secret: []byte(cfg.Auth.JWTSecret), Issuer: cfg.Auth.Issuer})
			raw, err := verifier.Sign(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "demo-user", "user id to put in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
