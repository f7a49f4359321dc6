package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sptool/studioauth/internal/database"
	"github.com/sptool/studioauth/internal/handlers"
	"github.com/sptool/studioauth/internal/middleware"
	"github.com/sptool/studioauth/internal/services"
	"github.com/sptool/studioauth/pkg/config"
	"github.com/sptool/studioauth/pkg/store"
)

// @title           Studio Auth Service API
// @version         1.0
// @description     License session and auth state service for the studio frontend.
// @description     Provides the mock license validation flow, Google sign-in, and the persisted auth gate state.
//
// @host      localhost:8080
// @BasePath  /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("env", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("store", cfg.Store.Backend).
		Msg("Starting studio auth service")

	// Redis backs the profile store (when selected) and the rate limiter.
	var redisDB *database.RedisDB
	if cfg.Store.Backend == config.StoreBackendRedis || cfg.RateLimit.RequestsPerMinute > 0 {
		redisDB, err = database.NewRedisDB(&cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisDB.Close()
	}

	// Select the profile store backend.
	var profiles store.Store
	pingers := make(map[string]handlers.Pinger)
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		profiles = store.NewMemory()
	case config.StoreBackendRedis:
		profiles = store.NewRedis(redisDB.Client())
		pingers["redis"] = redisDB
	case config.StoreBackendPostgres:
		postgresDB, err := database.NewPostgresDB(&cfg.Postgres)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer postgresDB.Close()

		pg := store.NewPostgres(postgresDB.DB())
		if err := pg.Migrate(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		profiles = pg
		pingers["postgres"] = postgresDB
	}
	if redisDB != nil {
		pingers["redis"] = redisDB
	}

	profiles = store.WithPrefix(cfg.Store.Prefix, profiles)
	profiles = store.NewInstrumented(cfg.Store.Backend, profiles, middleware.RecordStoreOp)

	// Initialize services
	verifier := services.NewStaticCredentials(cfg.License.Username, cfg.License.Password)
	sessionClient := services.NewSessionClient(verifier, profiles, cfg.License.Latency)
	authStore := services.NewAuthStore(sessionClient, profiles, services.GatePolicy{
		DefaultLicensed:      cfg.License.DefaultLicensed,
		DefaultBypassGoogle:  cfg.License.DefaultBypassGoogle,
		ResetLicenseOnLogout: cfg.License.ResetLicenseOnLogout,
		AutoLogin:            cfg.License.AutoLogin,
	})
	tokenService := services.NewTokenService(&cfg.JWT, profiles)

	var oauthService *services.GoogleOAuth
	if cfg.OAuth.Enabled() {
		oauthService = services.NewGoogleOAuth(&cfg.OAuth)
	} else {
		log.Info().Msg("Google sign-in not configured, routes disabled")
	}

	// Restore persisted state: the Google identity, then auto-login.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := authStore.Bootstrap(bootCtx); err != nil {
		if errors.Is(err, services.ErrSavedSessionInvalid) {
			log.Warn().Msg("Saved credentials no longer valid, cleared")
		} else {
			log.Error().Err(err).Msg("Auth state bootstrap failed")
		}
	}
	bootCancel()

	// Initialize handlers
	isProduction := cfg.Server.Environment == "production"
	licenseHandler := handlers.NewLicenseHandler(sessionClient, authStore, tokenService, isProduction)
	authHandler := handlers.NewAuthHandler(authStore, oauthService, tokenService, isProduction, cfg.Server.FrontendURL)
	healthHandler := handlers.NewHealthHandler(pingers)

	// Rate limiting guards the credential endpoints; disabled when the
	// configured request count is zero.
	limit := func(endpoint string) func(http.Handler) http.Handler {
		if redisDB == nil || cfg.RateLimit.RequestsPerMinute <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		limiter := middleware.NewRateLimiter(redisDB, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.WindowDuration)
		return limiter.Limit(endpoint)
	}

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Health check endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", middleware.MetricsHandler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/license", func(r chi.Router) {
			r.Post("/init", licenseHandler.Init)
			r.Get("/hwid", licenseHandler.HardwareID)

			// Credential endpoints (rate limited)
			r.Group(func(r chi.Router) {
				r.Use(limit("license"))
				r.Post("/login", licenseHandler.Login)
				r.Post("/register", licenseHandler.Register)
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Get("/state", authHandler.State)
			r.Post("/bypass", authHandler.Bypass)

			if oauthService != nil {
				r.Group(func(r chi.Router) {
					r.Use(limit("oauth"))
					r.Get("/google/login", authHandler.GoogleLogin)
					r.Get("/google/callback", authHandler.GoogleCallback)
				})
			}

			// Protected endpoints (require a valid access token)
			r.Group(func(r chi.Router) {
				r.Use(middleware.TokenAuth(tokenService))
				r.Post("/logout", authHandler.Logout)
			})
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped gracefully")
}
