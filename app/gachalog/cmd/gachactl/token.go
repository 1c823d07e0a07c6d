package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/strawxiguan/zzz-gachalog/pkg/security"
)

var (
	tokenSecret  string
	tokenSubject string
	tokenScopes  []string
	tokenTTL     time.Duration
)

// tokenCmd 使用服务端的 auth.secret_key 在本地签发访问令牌
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token signed with the server secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := security.NewJWTManager(&security.JWTConfig{SecretKey: tokenSecret})
		if err != nil {
			return err
		}
		token, err := m.GenerateToken(tokenSubject, tokenScopes, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", os.Getenv("GACHALOG_AUTH_SECRET_KEY"), "HMAC secret, same as auth.secret_key on the server")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "gachactl", "token subject")
	tokenCmd.Flags().StringSliceVar(&tokenScopes, "scope", []string{security.ScopeRead, security.ScopeWrite}, "granted scopes")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
