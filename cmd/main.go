package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httphandler "storefront-gateway/internal/adapters/http"
	"storefront-gateway/internal/adapters/messaging/kafka"
	"storefront-gateway/internal/adapters/messaging/mock"
	"storefront-gateway/internal/adapters/payments/mercadopago"
	"storefront-gateway/internal/adapters/storage/clickhouse"
	"storefront-gateway/internal/adapters/storage/postgres"
	"storefront-gateway/internal/adapters/storage/redis"
	"storefront-gateway/internal/app"
	"storefront-gateway/internal/auth"
	"storefront-gateway/internal/config"
	"storefront-gateway/internal/core/ports"
	"storefront-gateway/internal/observability"
	"storefront-gateway/internal/ratelimit"
	"storefront-gateway/internal/webhook"
)

func main() {
	// --- 1. Configuration and Logging ---
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fallbackLogger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("Application starting", "env", cfg.App.Env, "port", cfg.Server.Port)

	// --- 2. Validate critical config ---
	jwtSecret := cfg.JWT.Secret
	if cfg.Auth.Mode == "jwt" && jwtSecret == "" {
		logger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}
	if cfg.MercadoPago.WebhookSecret == "" {
		// The verifier fails closed without it, so the service still starts,
		// but every webhook delivery will be rejected.
		logger.Warn("MERCADOPAGO_WEBHOOK_SECRET is not set, all webhooks will be rejected")
	}

	// --- 3. Observability ---
	shutdownTracer, err := observability.InitTracer(cfg.Jaeger.Port, "storefront-gateway")
	if err != nil {
		logger.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("Failed to shutdown tracer", "error", err)
		}
	}()

	// --- 4. Dependencies ---
	ctx := context.Background()

	repo, err := postgres.NewOrderRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("Connected to PostgreSQL")

	// Rate limiting: Redis is the shared backend, the in-process store either
	// backs it up or carries the whole load when Redis is not configured.
	memoryStore := ratelimit.NewMemoryStore(cfg.RateLimit.MaxMemoryEntries)
	var limiter *ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(cfg.Redis.Addr)
		if err != nil {
			logger.Warn("Failed to connect to Redis, rate limiting is in-process only", "error", err)
			limiter = ratelimit.NewLimiter(memoryStore, nil, logger)
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					logger.Warn("Failed to close redis connection", "error", err)
				}
			}()
			fallback := memoryStore
			if cfg.RateLimit.FallbackDisabled {
				fallback = nil
			}
			limiter = ratelimit.NewLimiter(ratelimit.NewRedisStore(rdb), fallback, logger)
			logger.Info("Connected to Redis")
		}
	} else {
		logger.Warn("Redis is not configured, rate limiting is in-process only")
		limiter = ratelimit.NewLimiter(memoryStore, nil, logger)
	}

	// Kafka, or a log-only publisher when no brokers are configured.
	var publisher ports.EventPublisher
	if cfg.Kafka.BootstrapServers != "" {
		broker, err := kafka.NewBroker([]string{cfg.Kafka.BootstrapServers}, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Error("Failed to create Kafka broker", "error", err)
			os.Exit(1)
		}
		defer broker.Close()
		publisher = broker
		logger.Info("Kafka broker created")
	} else {
		logger.Warn("Kafka is not configured, order events are log-only")
		publisher = mock.NewBroker(logger)
	}

	// Security events go to ClickHouse when available, otherwise to the log.
	var securitySink ports.SecurityEventSink
	if cfg.ClickHouse.Addr != "" {
		chSink, err := clickhouse.NewSecurityEventSink(ctx, cfg.ClickHouse.Addr)
		if err != nil {
			logger.Warn("Failed to connect to ClickHouse, security events are log-only", "error", err)
			securitySink = observability.NewSecurityLogSink(logger)
		} else {
			defer func() {
				if err := chSink.Close(); err != nil {
					logger.Warn("Failed to close ClickHouse connection", "error", err)
				}
			}()
			securitySink = chSink
			logger.Info("Connected to ClickHouse")
		}
	} else {
		securitySink = observability.NewSecurityLogSink(logger)
	}

	provider := mercadopago.NewClient(
		cfg.MercadoPago.AccessToken,
		cfg.MercadoPago.BaseURL,
		cfg.MercadoPago.PublicURL,
		logger,
	)
	verifier := webhook.NewVerifier(
		cfg.MercadoPago.WebhookSecret,
		time.Duration(cfg.Webhook.MaxAgeMinutes)*time.Minute,
		logger,
	)

	// --- 5. Service Layer ---
	webhookService := app.NewWebhookService(repo, provider, publisher, logger)
	webhookHandler := httphandler.NewWebhookHandler(verifier, webhookService, securitySink, logger)
	paymentsHandler := httphandler.NewPaymentsHandler(repo, provider, logger)
	ordersHandler := httphandler.NewOrdersHandler(repo, logger)
	rateLimits := httphandler.NewRateLimitMiddleware(limiter, securitySink, logger)
	oauthServer := auth.NewAuthorizationServer(jwtSecret, cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, logger)

	authMiddleware := httphandler.JWTMiddleware([]byte(jwtSecret), logger)
	if cfg.Auth.Mode == "oidc" {
		authenticator, err := httphandler.NewOIDCAuthenticator(ctx, cfg.OIDC.URL, cfg.OIDC.ClientID)
		if err != nil {
			logger.Error("Failed to create OIDC authenticator", "error", err)
			os.Exit(1)
		}
		authMiddleware = authenticator.Middleware
	}

	// --- 6. HTTP Router ---
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		observability.NewLoggerMiddleware(logger),
		observability.NewMetricsMiddleware("storefront-gateway"),
		observability.NewTracingMiddleware("storefront-gateway"),
	)
	if !cfg.RateLimit.Disabled {
		r.Use(rateLimits.Limit("web", classConfig(cfg.RateLimit.Web)))
	}

	// Public routes. Token issuance gets the strict auth budget.
	tokenRoute := r.With()
	if !cfg.RateLimit.Disabled {
		tokenRoute = r.With(rateLimits.Limit("auth", classConfig(cfg.RateLimit.Auth)))
	}
	tokenRoute.Post("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := oauthServer.HandleTokenRequest(w, r); err != nil {
			logger.Error("failed to handle token request", "error", err)
		}
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "storefront-gateway",
		}); err != nil {
			logger.Error("Failed to write health response", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	// Webhook endpoint: authenticated by signature, not by bearer token.
	r.Route("/webhooks/mercadopago", func(r chi.Router) {
		r.Get("/", webhookHandler.HandleLiveness)
		r.Post("/", webhookHandler.HandleNotification)
	})

	// Protected routes: /api/v1/*
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware)
		if cfg.RateLimit.Disabled {
			r.Get("/orders", ordersHandler.HandleListOrders)
			r.Post("/payments", paymentsHandler.HandleCreatePayment)
			return
		}
		r.With(rateLimits.Limit("api", classConfig(cfg.RateLimit.API))).
			Get("/orders", ordersHandler.HandleListOrders)
		r.With(rateLimits.Limit("payment", classConfig(cfg.RateLimit.Payment))).
			Post("/payments", paymentsHandler.HandleCreatePayment)
	})

	// --- 7. HTTP Server ---
	serverAddr := cfg.Server.Port
	if serverAddr == "" {
		serverAddr = ":8080"
	}

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited properly")
}

// classConfig converts a config class into the limiter's quota definition.
func classConfig(class config.RateLimitClass) ratelimit.Config {
	return ratelimit.Config{
		Window:      class.Window(),
		MaxRequests: class.MaxRequests,
		KeyPrefix:   class.KeyPrefix,
		FailPolicy:  ratelimit.Policy(class.FailPolicy),
	}
}
