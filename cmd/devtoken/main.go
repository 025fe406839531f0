// Command devtoken prints an HS256 access token that a server configured with
// the same JWT_SECRET accepts. It is meant for local development when no
// Keycloak realm is available.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/paperfix/paperfix/backend/go-services/internal/config"
	"github.com/paperfix/paperfix/backend/go-services/internal/oidc"
	"github.com/paperfix/paperfix/backend/go-services/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	tok, err := mint(cfg.JWT, os.Args[1:])
	if err != nil {
		logger.Fatalf("devtoken: %v", err)
	}
	fmt.Println(tok)
}

// mint parses the command line and signs the token. The lifetime defaults to
// JWT_ACCESS_TOKEN_TTL.
func mint(jc config.JWTConfig, args []string) (string, error) {
	fs := pflag.NewFlagSet("devtoken", pflag.ContinueOnError)
	sub := fs.String("sub", "dev-user", "subject (user id) of the token")
	email := fs.String("email", "", "email claim")
	name := fs.String("name", "", "name claim")
	ttl := fs.Duration("ttl", jc.AccessTokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if jc.Secret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	if *ttl <= 0 {
		*ttl = time.Hour
	}
	return oidc.IssueHMACToken(jc.Secret, jc.Issuer, *sub, *email, *name, *ttl)
}
