package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/traklibrary/trak-auth/pkg/account"
	"github.com/traklibrary/trak-auth/pkg/config"
	"github.com/traklibrary/trak-auth/pkg/login"
)

// Seeds an account into the configured store. Intended for bootstrapping a
// fresh deployment with an admin user.
func main() {
	username := flag.String("username", "admin", "username for the new account")
	email := flag.String("email", "admin@trak.app", "email for the new account")
	password := flag.String("password", "", "password for the new account (required)")
	authorities := flag.String("authorities", "ROLE_ADMIN", "comma-separated authorities")
	flag.Parse()

	if *password == "" {
		slog.Error("Password is required")
		os.Exit(1)
	}

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	repoConfig := account.RepositoryConfig{DataDir: cfg.Persistence.DataDir}
	if cfg.Persistence.Type == "postgres" || cfg.Persistence.Type == "postgresql" {
		pool, err := pgxpool.New(context.Background(), cfg.Database.DatabaseURL())
		if err != nil {
			slog.Error("Failed to connect to database", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		repoConfig.Pool = pool
	}

	repo, err := account.NewAccountRepository(cfg.Persistence.Type, repoConfig)
	if err != nil {
		slog.Error("Failed to initialize account repository", "err", err)
		os.Exit(1)
	}

	hasher := &login.BcryptHasher{}
	hash, err := hasher.Hash(*password)
	if err != nil {
		slog.Error("Failed to hash password", "err", err)
		os.Exit(1)
	}

	acct := account.Account{
		Username:     *username,
		Email:        *email,
		PasswordHash: hash,
		Authorities:  strings.Split(*authorities, ","),
		Verified:     true,
	}

	saved, err := repo.Save(context.Background(), acct)
	if err != nil {
		slog.Error("Failed to save account", "err", err)
		os.Exit(1)
	}

	slog.Info("Account created", "id", saved.ID, "username", saved.Username, "authorities", saved.Authorities)
}
