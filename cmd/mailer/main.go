// Command mailer consumes queued emails from RabbitMQ and delivers them
// over SMTP. The API publishes to the queue when MAIL_TRANSPORT=queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/logger"
	"github.com/iliyamo/cleaning-booking/internal/mail"
	"github.com/iliyamo/cleaning-booking/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.Must(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	smtp := mail.NewSMTPSender(cfg.Mail)
	log.Info("mailer started",
		zap.String("queue", cfg.RabbitMQ.Queue),
		zap.String("smtp_host", cfg.Mail.SMTPHost))

	err = queue.ConsumeEmails(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log, mail.Deliver(smtp))
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("mailer stopped", zap.Error(err))
	}
	log.Info("mailer stopped")
}
