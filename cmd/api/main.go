package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/metrics"
	"github.com/example/storefront/internal/outbox"
	"github.com/example/storefront/internal/query"
	"github.com/sirupsen/logrus"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	log := logging.Component(logger, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"environment": cfg.Environment.Name,
		"kafka":       cfg.Kafka.Brokers,
		"topic":       cfg.Kafka.Topic,
	}).Info("Starting storefront API")

	db, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("Failed to apply schema")
	}
	log.Info("Connected to PostgreSQL")

	st := store.NewPostgresStore(db)
	m := metrics.New()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	gateway := payment.NewGateway(payment.GatewayConfig{
		QRBaseURL:         cfg.Payment.QRBaseURL,
		BankName:          cfg.Payment.BankName,
		BankAccountName:   cfg.Payment.BankAccountName,
		BankAccountNumber: cfg.Payment.BankAccountNumber,
	})
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	cmdHandler := command.NewHandler(st, gateway, logger)
	queryHandler := query.NewHandler(st, logger)

	if cfg.Admin.Enabled() {
		bootstrapAdmin(ctx, cmdHandler, cfg.Admin, log)
	}

	opts := api.Options{
		Production:    cfg.Environment.IsProduction(),
		WebhookSecret: cfg.Payment.WebhookSecret,
	}
	router := api.NewRouter(api.RouterConfig{
		Handlers:     api.NewHandlers(cmdHandler, queryHandler, logger, opts),
		AuthHandlers: api.NewAuthHandlers(cmdHandler, queryHandler, jwtService, logger, opts),
		JWTService:   jwtService,
		Metrics:      m,
		Logger:       logger,
		Ping:         st.Ping,
		WebDir:       os.Getenv("WEB_DIR"),
	})

	// The relay shares the API's lifetime so outbox rows written by a
	// request are published without a separate deployment.
	relay := outbox.NewRelay(st, producer, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize, m, logger)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		relay.Run(ctx)
	}()

	server := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("Server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server error")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}

	wg.Wait()
	log.Info("Stopped")
}

// bootstrapAdmin creates the configured administrator on first start.
func bootstrapAdmin(ctx context.Context, cmdHandler *command.Handler, admin config.Admin, log *logrus.Entry) {
	_, created, err := cmdHandler.EnsureAdmin(ctx, command.Register{
		Email:    admin.Email,
		Password: admin.Password,
		Name:     admin.Name,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create admin account")
	}
	log.WithFields(logrus.Fields{"email": admin.Email, "created": created}).Info("Admin account ready")
}
