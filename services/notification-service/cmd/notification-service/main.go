package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ybieul/saas-barbearia/libs/db"
	"github.com/ybieul/saas-barbearia/libs/httpx"
	"github.com/ybieul/saas-barbearia/libs/kafkax"
	otelx "github.com/ybieul/saas-barbearia/libs/otel"
	"github.com/ybieul/saas-barbearia/libs/runtime"
	"github.com/ybieul/saas-barbearia/services/notification-service/internal/consumer"
	"github.com/ybieul/saas-barbearia/services/notification-service/internal/inbox"
	"github.com/ybieul/saas-barbearia/services/notification-service/internal/notification"
	"github.com/ybieul/saas-barbearia/services/notification-service/internal/storage"
	"github.com/ybieul/saas-barbearia/services/notification-service/internal/whatsapp"
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

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.PoolOptions{ApplicationName: cfg.ServiceName})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	var sender whatsapp.Sender = whatsapp.NewNoopSender()
	if cfg.Provider == "cloud" {
		cs, err := whatsapp.NewCloudSender(whatsapp.CloudConfig{
			BaseURL:       cfg.BaseURL,
			PhoneNumberID: cfg.PhoneNumberID,
			Token:         cfg.Token,
			Timeout:       cfg.SendTimeout,
		})
		if err != nil {
			panic(err)
		}
		sender = cs
	}

	processor := notification.NewProcessor(sender, storage.NewRepository(pool), logger)
	eventConsumer := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.GroupID,
		Topics:  cfg.Topics,
	}, processor.Handle)
	go eventConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "provider", sender.ProviderID())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
