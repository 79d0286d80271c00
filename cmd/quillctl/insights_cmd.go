package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/bassista/go_quill/internal/auth"
	"github.com/spf13/cobra"
)

func newSearchCmd(a *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search posts and print AI suggestions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.connect()()
			query := strings.Join(args, " ")
			typeID, _ := cmd.Flags().GetString("type")
			if typeID != "" {
				res, err := a.api.Insights.SearchByType(cmd.Context(), query, typeID)
				if err != nil {
					return err
				}
				return a.print(res)
			}
			res, err := a.api.Insights.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			return a.print(res)
		},
	}
	cmd.Flags().String("type", "", "Restrict the search to one type id")
	return cmd
}

func newStatsCmd(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.connect()()
			stats, err := a.api.Insights.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(stats)
		},
	}
}

// newTokenCmd signs a bearer token offline with the server's shared secret.
func newTokenCmd(a *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for a user id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			if secret == "" {
				secret = a.v.GetString("jwt-secret")
			}
			issuer, _ := cmd.Flags().GetString("issuer")
			user, _ := cmd.Flags().GetInt64("user")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if user <= 0 {
				return fmt.Errorf("--user must be a positive user id")
			}
			tok, err := auth.Sign(secret, issuer, user, strings.ToUpper(role), ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, tok)
			return err
		},
	}
	cmd.Flags().String("secret", "", "Shared HS256 secret (env QUILL_JWT_SECRET)")
	cmd.Flags().String("issuer", "", "Token issuer")
	cmd.Flags().Int64("user", 0, "User id placed in the subject")
	cmd.Flags().String("role", "ADMIN", "Role claim")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
