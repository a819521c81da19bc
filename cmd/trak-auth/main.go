package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/traklibrary/trak-auth/pkg/account"
	"github.com/traklibrary/trak-auth/pkg/config"
	"github.com/traklibrary/trak-auth/pkg/login"
	"github.com/traklibrary/trak-auth/pkg/notification"
	"github.com/traklibrary/trak-auth/pkg/ratelimit"
	"github.com/traklibrary/trak-auth/pkg/token"
	"github.com/traklibrary/trak-auth/pkg/totp"
	"github.com/traklibrary/trak-auth/pkg/twofa"
)

func main() {
	// .env is optional; environment variables win
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	accounts, err := buildAccountRepository(cfg)
	if err != nil {
		slog.Error("Failed to initialize account repository", "err", err)
		os.Exit(1)
	}

	issuer := buildIssuer(cfg.Jwt)

	notificationManager := notification.NewNotificationManager()
	emailNotifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		TLS:      cfg.Email.TLS,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	})
	if err != nil {
		slog.Warn("Email notifier unavailable, security notices disabled", "err", err)
		notificationManager.RegisterNotifier(notification.EmailSystem, &notification.MockNotifier{})
	} else {
		notificationManager.RegisterNotifier(notification.EmailSystem, emailNotifier)
	}

	secretStore := totp.NewSecretStore()
	verifier := totp.NewCodeVerifier()
	twoFaService := twofa.NewTwoFaService(accounts, secretStore, verifier, notificationManager)

	loginService := login.NewLoginService(accounts, issuer, issuer, twoFaService, &login.BcryptHasher{})

	cookieSetter := token.NewCookieSetter(cfg.Jwt.CookieHttpOnly, cfg.Jwt.CookieSecure)
	loginHandle := login.NewHandle(loginService, cookieSetter)
	twoFaHandle := twofa.NewHandle(twoFaService)

	tokenAuth := jwtauth.New("HS512", []byte(cfg.Jwt.Secret), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			limiter := ratelimit.NewLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate,
				time.Duration(cfg.RateLimit.BucketTTLM)*time.Minute)
			r.Use(ratelimit.LimitByIP(limiter))
		}
		r.Route("/api/v1/auth", loginHandle.Routes)
	})

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Route("/api/v1/2fa", twoFaHandle.Routes)
	})

	slog.Info("Starting trak-auth", "addr", cfg.App.Addr(), "persistence", cfg.Persistence.Type)
	if err := http.ListenAndServe(cfg.App.Addr(), r); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(1)
	}
}

func buildAccountRepository(cfg config.Config) (account.AccountRepository, error) {
	repoConfig := account.RepositoryConfig{DataDir: cfg.Persistence.DataDir}

	if cfg.Persistence.Type == "postgres" || cfg.Persistence.Type == "postgresql" {
		pool, err := pgxpool.New(context.Background(), cfg.Database.DatabaseURL())
		if err != nil {
			return nil, err
		}
		repoConfig.Pool = pool
	}

	return account.NewAccountRepository(cfg.Persistence.Type, repoConfig)
}

func buildIssuer(jwtCfg config.JwtConfig) *token.Issuer {
	opts := []token.Option{
		token.WithIssuer(jwtCfg.Issuer),
		token.WithAudience(jwtCfg.Audience),
	}

	if d, err := jwtCfg.ParseAccessTokenExpiry(); err == nil {
		opts = append(opts, token.WithAccessTokenExpiry(d))
	} else {
		slog.Error("Failed to parse access token expiry", "value", jwtCfg.AccessTokenExpiry, "err", err)
	}
	if d, err := jwtCfg.ParseRefreshTokenExpiry(); err == nil {
		opts = append(opts, token.WithRefreshTokenExpiry(d))
	} else {
		slog.Error("Failed to parse refresh token expiry", "value", jwtCfg.RefreshTokenExpiry, "err", err)
	}
	if d, err := jwtCfg.ParseTwoFactorExpiry(); err == nil {
		opts = append(opts, token.WithTwoFactorTokenExpiry(d))
	} else {
		slog.Error("Failed to parse two-factor token expiry", "value", jwtCfg.TwoFactorExpiry, "err", err)
	}

	return token.NewIssuer(jwtCfg.Secret, opts...)
}
