package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/counselor-presence/internal/auth"
	"github.com/spec-kit/counselor-presence/internal/config"
	"github.com/spec-kit/counselor-presence/internal/domain"
)

var (
	tokenRole string
	tokenTTL  int
)

var tokenCmd = &cobra.Command{
	Use:   "token <subject-id>",
	Short: "Mint a bearer token for local testing",
	Long: `Mint a signed bearer token with AUTH_JWT_SECRET. Production tokens are
issued by the identity service; this is for development and smoke tests.

Examples:
  counselor-presence token c-101
  counselor-presence token ops-1 --role operator --ttl 10`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleCounselor), "COUNSELOR, OPERATOR or ADMIN")
	tokenCmd.Flags().IntVar(&tokenTTL, "ttl", 0, "Lifetime in minutes (default AUTH_ACCESS_TOKEN_TTL_MINUTES)")
}

func runToken(_ *cobra.Command, args []string) error {
	role := domain.Role(strings.ToUpper(tokenRole))
	switch role {
	case domain.RoleCounselor, domain.RoleOperator, domain.RoleAdmin:
	default:
		return fmt.Errorf("unknown role %q", tokenRole)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ttl := cfg.Auth.AccessTokenTTLMinutes
	if tokenTTL > 0 {
		ttl = tokenTTL
	}

	token, expiresAt, err := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl).GenerateToken(args[0], role)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(struct {
		Token     string      `json:"token"`
		Subject   string      `json:"subject"`
		Role      domain.Role `json:"role"`
		ExpiresAt time.Time   `json:"expires_at"`
	}{token, args[0], role, expiresAt})
}
