package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/spice-ledger/internal/identity"
	"github.com/spf13/cobra"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage owner tokens",
	}
	cmd.AddCommand(authTokenCmd(), authWhoamiCmd())
	return cmd
}

func authTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <owner-id>",
		Short: "Issue a bearer token for an owner",
		Long: `Sign a token naming the owner with auth.secret. Use it with --token,
LEDGER_AUTH_TOKEN, or as an HTTP bearer token.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := identity.NewIssuer(loadedConfig.Auth.Secret)
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = loadedConfig.Auth.TokenTTL
			}

			token, err := issuer.Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
	return cmd
}

func authWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the owner named by the current token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := &app{cfg: loadedConfig}
			owner, err := a.owner()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), owner)
			return nil
		},
	}
}
