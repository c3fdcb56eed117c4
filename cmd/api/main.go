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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/butikdev/backend-butik/internal/cart"
	"github.com/butikdev/backend-butik/internal/catalog"
	"github.com/butikdev/backend-butik/internal/checkout"
	"github.com/butikdev/backend-butik/internal/common"
	"github.com/butikdev/backend-butik/internal/config"
	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
	"github.com/butikdev/backend-butik/internal/discount"
	"github.com/butikdev/backend-butik/internal/events"
	"github.com/butikdev/backend-butik/internal/gateway"
	"github.com/butikdev/backend-butik/internal/health"
	"github.com/butikdev/backend-butik/internal/lock"
	"github.com/butikdev/backend-butik/internal/notify"
	"github.com/butikdev/backend-butik/internal/obs"
	"github.com/butikdev/backend-butik/internal/order"
	"github.com/butikdev/backend-butik/internal/pricing"
	"github.com/butikdev/backend-butik/internal/ratelimit"
	"github.com/butikdev/backend-butik/internal/resilience"
	"github.com/butikdev/backend-butik/internal/session"
	"github.com/butikdev/backend-butik/internal/shipping"
)

const metricsNamespace = "butik"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	if cfg.OtelEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "butik-api",
			Endpoint:      cfg.OtelEndpoint,
			SamplingRatio: cfg.OtelSamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "butik-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	if cfg.MigrateOnStart {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	queries := dbgen.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	mailer := common.NopEmailSender{}
	bus := &events.Bus{
		Store: queries,
		Notifiers: []events.Notifier{notify.EmailNotifier{
			Mail:    mailer,
			Enabled: cfg.NotifyEmailEnabled,
			From:    cfg.NotifyEmailFrom,
		}},
	}

	engine := pricing.Engine{
		Catalog:   catalog.PGSource{Q: queries},
		Shipping:  shipping.Calculator{Q: queries},
		Discounts: discount.Validator{Q: queries},
		Currency:  cfg.CurrencyCode,
		TaxBps:    cfg.TaxRateBps,
		Log:       logger,
	}
	carts := cart.PGStore{Q: queries}

	gatewayHTTP := resilience.HTTPClient{
		Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second),
		BaseBackoff: 200 * time.Millisecond,
		MaxAttempts: 3,
		Jitter:      0.2,
		Timeout:     cfg.GatewayTimeout,
	}
	providers := map[string]gateway.Provider{
		"stripe": &gateway.Stripe{
			SecretKey: cfg.StripeSecretKey,
			BaseURL:   cfg.StripeBaseURL,
			HTTP:      gatewayHTTP,
			Log:       logger,
		},
		"paypal": &gateway.PayPal{
			ClientID: cfg.PayPalClientID,
			Secret:   cfg.PayPalSecret,
			BaseURL:  cfg.PayPalBaseURL,
			HTTP:     gatewayHTTP,
			Log:      logger,
		},
	}

	materializer := &order.Materializer{
		Q:       queries,
		Tx:      order.PoolTx(pool, queries),
		Cart:    carts,
		Engine:  engine,
		Locks:   &lock.Locker{R: redisClient},
		Bus:     bus,
		Log:     logger,
		LockTTL: cfg.ConfirmLockTTL,
	}

	checkoutHandlers := &checkout.Handlers{
		Engine:    engine,
		Cart:      carts,
		Providers: providers,
		Mat:       materializer,
		Validate:  validator.New(),
		Log:       logger,
	}
	orderHandlers := order.Handlers{Q: queries, Log: logger}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	limiter := ratelimit.Limiter{Client: redisClient}
	sessions := session.Resolver{CookieName: cfg.SessionCookie, Secure: cfg.AppEnv == "production"}
	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.OtelEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", session.HeaderUserID, session.HeaderEmail},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{Checker: health.Deps{Pool: pool, Redis: redisClient}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Group(func(api chi.Router) {
		api.Use(sessions.Middleware)
		api.Use(limiter.Middleware(cfg.CheckoutRateWindow, cfg.CheckoutRateMax))

		api.Route("/checkout", func(c chi.Router) {
			c.Post("/quote", checkoutHandlers.Quote)
			c.Post("/validate-discount", checkoutHandlers.ValidateDiscount)
			c.With(idem.Middleware).Post("/confirm-payment", checkoutHandlers.ConfirmPayment)
		})
		api.Route("/payments", func(p chi.Router) {
			p.With(idem.Middleware).Post("/{provider}/create-intent", checkoutHandlers.CreateIntent)
			p.With(idem.Middleware).Post("/paypal/capture", checkoutHandlers.PayPalCapture)
		})
		api.Get("/orders", orderHandlers.List)
		api.Get("/orders/{orderNumber}", orderHandlers.Get)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func runMigrations(databaseURL string) error {
	m, err := migrate.New("file://db/migrations", databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
