// Command notifier consumes notification events from RabbitMQ and sends
// the resulting emails.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/config"
	"github.com/01moynul/artisansloom-golang/internal/email"
	"github.com/01moynul/artisansloom-golang/internal/logger"
	"github.com/01moynul/artisansloom-golang/internal/notify"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "artisansloom-notifier: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadNotifier()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	var sender email.Sender = email.NewLogSender(log)
	if cfg.SendGrid.APIKey != "" {
		sender = email.NewSendGridSender(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	} else {
		log.Warn("SENDGRID_API_KEY not set, emails are only logged")
	}
	dispatcher := email.NewDispatcher(sender, log)

	consumer, err := notify.DialConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log)
	if err != nil {
		return err
	}
	defer consumer.Close()

	log.Info("notifier started, waiting for events...", zap.String("queue", cfg.RabbitMQ.Queue))
	return consumer.Run(ctx, dispatcher.Handle)
}
