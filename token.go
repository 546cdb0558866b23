package main

import (
	"fmt"

	"serverbot/internal/middleware"
	"serverbot/internal/services"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var tokenName string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate a token for the admin HTTP routes",
	Long: `Generate a JWT for POST /alerts/check (Authorization: Bearer <token>)
and the /ws?token=<token> check stream. The signing secret is auth.secret,
or the key persisted on first use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !middleware.ValidateClientName(tokenName) {
			return errors.Newf("invalid client name %q: use letters, digits, '-', '_' or '.'", tokenName)
		}

		auth, err := services.NewAuthService(cfg.Auth.Secret, cfg.Auth.TokenExpiry, services.DefaultSecretKeyFile(), logger.Named("auth"))
		if err != nil {
			return err
		}
		token, expiresAt, err := auth.GenerateToken(tokenName)
		if err != nil {
			return errors.Wrap(err, "generate token")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, token)
		fmt.Fprintf(out, "Client:  %s\nExpires: %s\n", tokenName, expiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenName, "name", "serverbot-admin", "client name embedded in the token")
}
