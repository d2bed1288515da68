// Command notifier consumes notification events from NATS JetStream and
// delivers them to the association's inbox by email.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ecoaceite/internal/config"
	"ecoaceite/internal/logger"
	"ecoaceite/internal/notify"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.NATSURL == "" {
		return errors.New("NATS_URL is required")
	}

	nc, js, err := notify.Connect(cfg.NATSURL, cfg.NATSStream)
	if err != nil {
		return err
	}
	defer nc.Drain()

	sub, err := notify.NewPullSubscriber(notify.WorkerConfig{
		StreamName:  cfg.NATSStream,
		Subject:     notify.SubjectPrefix + ".>",
		DurableName: "email-notifier",
		Handler: &notify.EmailHandler{
			Mailer: notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
			From:   cfg.SMTPFrom,
			To:     cfg.NotifyTo,
		},
		JetStream: js,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub.Run(ctx)
	return nil
}
