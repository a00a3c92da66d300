package main

import (
	"context"
	"net"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ybieul/saas-barbearia/libs/auth"
	"github.com/ybieul/saas-barbearia/libs/config"
	"github.com/ybieul/saas-barbearia/libs/db"
	"github.com/ybieul/saas-barbearia/libs/grpcx"
	"github.com/ybieul/saas-barbearia/libs/httpx"
	"github.com/ybieul/saas-barbearia/libs/kafkax"
	otelx "github.com/ybieul/saas-barbearia/libs/otel"
	"github.com/ybieul/saas-barbearia/libs/runtime"
	"github.com/ybieul/saas-barbearia/migrations"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/handlers"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/notify"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/storage"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/tenancy"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.ServiceName)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelCfg, err := otelx.ConfigFromEnv(cfg.ServiceName)
	if err != nil {
		logger.Error("invalid tracing config", "err", err)
		panic(err)
	}
	otelShutdown, err := otelx.Setup(ctx, otelCfg)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns, ApplicationName: cfg.ServiceName})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		applied, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
		if err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
		logger.Info("migrations applied", "count", len(applied), "versions", applied)
	}

	fallback, err := config.Location(cfg.DefaultTimezone)
	if err != nil {
		panic(err)
	}
	directory := storage.NewDirectoryRepository(pool)
	locations, err := tenancy.NewLocations(directory, tenancy.Options{
		Size:     cfg.TenantCacheSize,
		TTL:      cfg.TenantCacheTTL,
		Fallback: fallback,
		Logger:   logger,
	})
	if err != nil {
		panic(err)
	}

	var dispatcher notify.Dispatcher = notify.Noop{}
	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if cfg.KafkaBrokers != "" {
		kd, err := notify.NewKafkaDispatcher(notify.KafkaConfig{
			Brokers:      cfg.KafkaBrokers,
			WriteTimeout: cfg.KafkaWriteTimeout,
		})
		if err != nil {
			logger.Error("kafka dispatcher init failed", "err", err)
			panic(err)
		}
		defer func() { _ = kd.Close() }()
		dispatcher = kd
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	} else {
		logger.Warn("KAFKA_BROKERS not set; booking notifications are disabled")
	}

	svc := booking.NewService(booking.Deps{
		Directory:    directory,
		Schedules:    storage.NewScheduleRepository(pool),
		Appointments: storage.NewAppointmentRepository(pool),
		Locations:    locations,
		Dispatcher:   dispatcher,
		Logger:       logger,
	}, booking.Config{
		SlotStep:        cfg.SlotStep,
		LoadConcurrency: cfg.LoadConcurrency,
		DispatchTimeout: cfg.DispatchTimeout,
	})

	var jwks *auth.JWKSClient
	if cfg.JWKSURL != "" {
		jwks = auth.NewJWKSClient(cfg.JWKSURL, cfg.JWKSTTL)
	}
	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		HMACSecret: cfg.JWTSecret,
		JWKS:       jwks,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		Leeway:     30 * time.Second,
	})
	if err != nil {
		panic(err)
	}

	publicLimit := httpx.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow, httpx.PathValueAndIP("tenantID")).Middleware()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		publicLimit = httpx.NewRedisRateLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow, "booking:public", httpx.PathValueAndIP("tenantID")).
			Middleware(logger, cfg.RateLimitFailOpen)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	staffOnly := httpx.Compose(
		httpx.RequireAuth(verifier),
		httpx.RequireRole(auth.RoleOwner, auth.RoleAdmin, auth.RoleProfessional),
	)
	handlers.New(svc, logger).Register(mux, publicLimit, staffOnly)

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key", httpx.RequestIDHeader},
			ExposedHeaders: []string{"Idempotent-Replayed", httpx.RequestIDHeader, "Retry-After"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(cfg.BodyLimit),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpcx.NewServer(logger)
	grpcLis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		panic(err)
	}
	grpcSrv.SetServing(true, cfg.ServiceName)
	go func() {
		if err := grpcSrv.Run(ctx, grpcLis, logger); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	grpcSrv.SetServing(false, cfg.ServiceName)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	svc.Drain()
	logger.Info("http server stopped")
}
