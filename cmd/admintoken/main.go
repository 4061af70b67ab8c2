// cmd/admintoken mints a short-lived admin bearer token for local ops
// Usage: go run ./cmd/admintoken -user ops-1 -ttl 1h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"novelstore-backend/internal/config"
	"novelstore-backend/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "admin user id (required)")
	role := flag.String("role", jwt.RoleAdmin, "role claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	token, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer).GenerateAccessTokenWithTTL(*userID, *role, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
