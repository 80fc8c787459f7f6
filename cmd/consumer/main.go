package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/bagstore/storefront/internal/config"
	"github.com/bagstore/storefront/internal/logger"
	"github.com/bagstore/storefront/internal/mailer"
	"github.com/bagstore/storefront/internal/notify"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	lg := logger.New(cfg.LogLevel).Named("consumer")
	defer lg.Sync()

	if len(cfg.Kafka.Brokers) == 0 {
		lg.Fatal("KAFKA_BROKERS is required for the notification consumer")
	}

	var m mailer.Service
	if cfg.SMTP.Host != "" {
		m = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		lg.Warn("SMTP_HOST not set, emails are written to the log")
		m = mailer.NewLogMailer(lg)
	}
	dispatcher := notify.NewDispatcher(m, lg)

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		Topic:          cfg.Kafka.Topic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		lg.Info("closing kafka reader")
		if err := r.Close(); err != nil {
			lg.Error("error closing kafka reader", zap.Error(err))
		}
	}()

	lg.Info("consumer connected",
		zap.String("topic", cfg.Kafka.Topic),
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("group_id", cfg.Kafka.GroupID))

	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				lg.Info("shutdown signal received, stopping consumer")
				return
			}
			lg.Error("error reading message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		// A failed notification is logged and its offset committed anyway.
		if err := dispatcher.Handle(ctx, msg.Value); err != nil {
			lg.Error("failed to handle event",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.ByteString("key", msg.Key),
				zap.Error(err))
		}
		if err := r.CommitMessages(context.WithoutCancel(ctx), msg); err != nil {
			lg.Error("failed to commit offset", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}
