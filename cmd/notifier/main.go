package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/notification"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadNotifier()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	log := logging.Component(logger, "notifier")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"kafka": cfg.Kafka.Brokers,
		"topic": cfg.Kafka.Topic,
		"group": cfg.Kafka.GroupID,
		"smtp":  cfg.SMTP.Host + ":" + cfg.SMTP.Port,
		"from":  cfg.SMTP.From,
	}).Info("Starting email notifier")

	mailer := email.NewService(email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From))
	handler := notification.NewHandler(mailer, logger)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, logger)
	defer consumer.Close()

	if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("Consumer stopped")
	}
	log.Info("Shutting down...")
}
