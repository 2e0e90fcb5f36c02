package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nealfung/checkout-shop/internal/checkout"
	"github.com/nealfung/checkout-shop/internal/common"
	"github.com/nealfung/checkout-shop/internal/config"
	"github.com/nealfung/checkout-shop/internal/gateway"
	"github.com/nealfung/checkout-shop/internal/health"
	"github.com/nealfung/checkout-shop/internal/obs"
	"github.com/nealfung/checkout-shop/internal/ratelimit"
	"github.com/nealfung/checkout-shop/internal/resilience"
	"github.com/nealfung/checkout-shop/internal/security"
	"github.com/nealfung/checkout-shop/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "checkout_shop")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)
	resilience.MustRegisterMetrics(metricsNamespace, nil)

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "checkout-shop",
			Endpoint:      cfg.TracingEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSampleRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	verifier, err := webhook.NewVerifier(cfg.CkoWebhookSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise webhook verifier")
	}
	dispatcher := &webhook.Dispatcher{
		Replay:    redisClient,
		ReplayTTL: cfg.WebhookReplayTTL,
		Logger:    logger,
	}
	recorder := webhook.Recorder{Logger: logger}
	dispatcher.Register(webhook.EventPaymentCaptured, recorder.PaymentCaptured)
	dispatcher.Register(webhook.EventPaymentRefunded, recorder.PaymentRefunded)
	dispatcher.Register(webhook.EventPaymentApproved, recorder.PaymentApproved)
	dispatcher.RegisterDefault(recorder.Unhandled)
	webhookHandler := webhook.Handler{
		Verifier:   verifier,
		Dispatcher: dispatcher,
		Logger:     logger,
	}

	breaker := resilience.NewBreaker(5, 0.5, 30*time.Second).
		WithTarget("checkout.com").
		WithLogger(logger)
	var transport http.RoundTripper = http.DefaultTransport
	if tracingEnabled {
		transport = otelhttp.NewTransport(transport)
	}
	gatewayClient := &gateway.Client{
		BaseURL:             cfg.CkoBaseURL,
		SecretKey:           cfg.CkoSecretKey,
		ProcessingChannelID: cfg.CkoProcessingChannelID,
		Merchant: gateway.Merchant{
			DisplayName:    cfg.MerchantName,
			BillingCountry: cfg.BillingCountry,
			CustomerName:   cfg.CustomerName,
			CustomerEmail:  cfg.CustomerEmail,
			ItemName:       cfg.ItemName,
			ItemReference:  cfg.ItemReference,
			SuccessURL:     cfg.SuccessURL,
			FailureURL:     cfg.FailureURL,
		},
		HTTP: &resilience.HTTPClient{
			Client:      &http.Client{Transport: transport},
			Breaker:     breaker,
			MaxAttempts: 1,
			Timeout:     cfg.GatewayTimeout,
			Target:      "checkout.com",
		},
	}

	checkoutSvc := &checkout.Service{
		Gateway:        gatewayClient,
		UnitPriceMinor: cfg.UnitPriceMinor,
		Currency:       cfg.CurrencyCode,
	}
	checkoutHandler := checkout.NewHTTPHandler(checkoutSvc, logger)

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:checkout:"},
		Config: ratelimit.Config{
			Key:    common.ClientIP,
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter unavailable")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(cfg.MetricsBucketsCSV)
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{redis: redisClient},
		RedisTimeout: 300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Group(func(g chi.Router) {
		g.Use(limiter.Middleware)
		g.Use(idem.Middleware)
		g.Post("/create-payment-sessions", checkoutHandler.CreateSession)
		g.Post("/refund-payment", checkoutHandler.Refund)
	})
	r.Post("/webhook", webhookHandler.Handle)

	r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	redis *redis.Client
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}
