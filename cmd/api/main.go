// Package main is the entrypoint for the Contactbook API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/contactbook/contactbook/internal/auth"
	"github.com/contactbook/contactbook/internal/cache"
	"github.com/contactbook/contactbook/internal/config"
	"github.com/contactbook/contactbook/internal/handler"
	"github.com/contactbook/contactbook/internal/mailer"
	"github.com/contactbook/contactbook/internal/metrics"
	"github.com/contactbook/contactbook/internal/middleware"
	"github.com/contactbook/contactbook/internal/repository"
	"github.com/contactbook/contactbook/internal/server"
	"github.com/contactbook/contactbook/internal/service"
	"github.com/contactbook/contactbook/internal/storage"
)

const version = "1.0.0"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	mail, err := mailer.New(mailer.Config{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize mailer", "error", err)
		os.Exit(1)
	}

	// Avatar uploads are optional; without storage credentials the
	// endpoint reports 503.
	var uploader storage.Uploader
	if cfg.StorageEndpoint != "" {
		s3Uploader, err := storage.New(ctx, storage.Config{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			BaseURL:   cfg.StorageBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize object storage", "error", err)
			os.Exit(1)
		}
		uploader = s3Uploader
		logger.Info("object storage configured", "bucket", cfg.StorageBucket)
	} else {
		logger.Warn("object storage not configured, avatar uploads disabled")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret)
	recorder := metrics.NewInMemory()

	userService := service.NewUserService(
		repo, cacheClient, mail, tokens, recorder, logger,
		cfg.BaseURL, cfg.EmailTokenTTL,
	)
	authService := service.NewAuthService(repo, tokens, cfg.JWTExpiry)
	contactService := service.NewContactService(repo, recorder)

	h := handler.New(version)
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	authHandler := handler.NewAuthHandler(userService, authService, logger)
	contactHandler := handler.NewContactHandler(contactService, logger)
	userHandler := handler.NewUserHandler(userService, uploader, logger, cfg.MaxAvatarSize)

	r := setupRouter(routerDeps{
		base:     h,
		health:   healthHandler,
		auth:     authHandler,
		contacts: contactHandler,
		users:    userHandler,
		repo:     repo,
		cache:    cacheClient,
		tokens:   tokens,
		metrics:  recorder,
		cfg:      cfg,
		logger:   logger,
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Drain background email sends before the process exits.
	srv.OnShutdown("email-sender", userService.Drain)

	srv.OnShutdown("metrics", func(context.Context) error {
		snap := recorder.Snapshot()
		logger.Info("final counters",
			"contacts_created", snap.ContactsCreated,
			"contacts_updated", snap.ContactsUpdated,
			"contacts_deleted", snap.ContactsDeleted,
			"emails_sent", snap.EmailsSent,
			"emails_failed", snap.EmailsFailed,
			"auth_cache_hits", snap.AuthCacheHits,
			"auth_cache_misses", snap.AuthCacheMisses,
		)
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	auth     *handler.AuthHandler
	contacts *handler.ContactHandler
	users    *handler.UserHandler
	repo     *repository.Repository
	cache    *cache.Cache
	tokens   *auth.TokenManager
	metrics  metrics.Recorder
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	cfg := deps.cfg
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: cfg.IsDevelopment(),
	}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", deps.base.Root)

	authCfg := middleware.AuthConfig{
		Logger:     deps.logger,
		Repository: deps.repo,
		Cache:      deps.cache,
		Tokens:     deps.tokens,
		Metrics:    deps.metrics,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:      deps.logger,
		Cache:       deps.cache,
		UserEnabled: cfg.RateLimitEnabled,
		UserPerMin:  cfg.RateLimitPerMin,
		UserBurst:   cfg.RateLimitBurst,
		IPEnabled:   cfg.AuthRateLimitEnabled,
		IPRPS:       cfg.AuthRateLimitRPS,
		IPBurst:     cfg.AuthRateLimitBurst,
	}

	r.Route("/api", func(r chi.Router) {
		// Account endpoints, rate limited per IP (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
			r.Use(middleware.RateLimitIP(rateLimitCfg))

			r.Post("/register", deps.auth.Register)
			r.Post("/login", deps.auth.Login)
			r.Get("/confirm/{token}", deps.auth.ConfirmEmail)
			r.Post("/request_email", deps.auth.RequestEmail)
			r.Post("/request_password_reset", deps.auth.RequestPasswordReset)
			r.Post("/password_reset/{token}", deps.auth.ResetPassword)
		})

		// Contact endpoints (require authentication)
		r.Route("/contacts", func(r chi.Router) {
			r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
			r.Use(middleware.Auth(authCfg))

			r.Get("/", deps.contacts.List)
			r.Post("/", deps.contacts.Create)
			r.Get("/search", deps.contacts.Search)
			r.Get("/birthdays", deps.contacts.Birthdays)
			r.Get("/{id}", deps.contacts.Get)
			r.Put("/{id}", deps.contacts.Update)
			r.Delete("/{id}", deps.contacts.Delete)
		})

		// Profile endpoints (require authentication)
		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
				r.Use(middleware.Auth(authCfg))

				r.With(middleware.RateLimitUser(rateLimitCfg)).Get("/me", deps.users.Me)
			})

			// Avatar uploads are governed by their own, larger limit;
			// the default request cap would reject any avatar above it.
			r.Group(func(r chi.Router) {
				r.Use(middleware.MaxBodySize(cfg.MaxAvatarSize))
				r.Use(middleware.Auth(authCfg))

				r.With(middleware.RequireAdmin(deps.logger)).Patch("/avatar", deps.users.UpdateAvatar)
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
