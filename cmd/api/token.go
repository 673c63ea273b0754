package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/repair-service/internal/auth"
	"github.com/spec-kit/repair-service/internal/config"
	"github.com/spec-kit/repair-service/internal/domain"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an account",
		Long:  "Signs a JWT with AUTH_JWT_SECRET. The account must exist with the given role for the API to accept it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if ttl <= 0 {
				ttl = cfg.Auth.AccessTokenTTL()
			}
			r := domain.Role(strings.ToUpper(role))
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}

			meta, signed, err := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl).GenerateToken(subject, r)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, signed)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", meta.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "account id")
	cmd.Flags().StringVarP(&role, "role", "r", "", "ADMIN, CLIENT or TECHNICIAN")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
