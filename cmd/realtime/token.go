package main

import (
	"fmt"
	"time"

	"restaurant-realtime/internal/auth"
	"restaurant-realtime/internal/config"

	"github.com/spf13/cobra"
)

// newTokenCmd signs an access token with JWT_SECRET. For local testing of
// the websocket and admin endpoints.
func newTokenCmd() *cobra.Command {
	var (
		claims auth.AccessClaims
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if claims.UserID == "" {
				return fmt.Errorf("--sub is required")
			}
			cfg := config.LoadConfig()
			token, err := auth.NewTokenService(cfg.Auth.JWTSecret).SignAccessToken(claims, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&claims.UserID, "sub", "", "user id")
	cmd.Flags().StringVar(&claims.Role, "role", "", "role, e.g. admin")
	cmd.Flags().StringSliceVar(&claims.RestaurantIDs, "restaurant", nil, "restaurant ids the user works for")
	cmd.Flags().StringSliceVar(&claims.ConversationIDs, "conversation", nil, "conversation ids the user takes part in")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
