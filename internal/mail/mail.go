// Package mail sends transactional email through a configurable transport.
package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/queue"
)

// Message is one outbound email with an HTML body.
type Message struct {
	Kind    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New selects the transport named by cfg.Transport. The queue transport
// needs a live publisher.
func New(cfg config.MailConfig, pub *queue.Publisher, log *zap.Logger) (Sender, error) {
	switch cfg.Transport {
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "queue":
		if pub == nil {
			return nil, fmt.Errorf("mail transport %q needs a rabbitmq publisher", cfg.Transport)
		}
		return &QueueSender{Publisher: pub}, nil
	case "", "log":
		return &LogSender{Log: log}, nil
	}
	return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
}

// LogSender writes messages to the log instead of delivering them. Used in
// development.
type LogSender struct{ Log *zap.Logger }

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.Log.Info("email (log transport)",
		zap.String("kind", msg.Kind),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}

// emailPublisher is the part of queue.Publisher QueueSender needs.
type emailPublisher interface {
	PublishEmail(ctx context.Context, ev queue.EmailEvent) error
}

// QueueSender hands messages to RabbitMQ for cmd/mailer to deliver.
type QueueSender struct{ Publisher emailPublisher }

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	return s.Publisher.PublishEmail(ctx, queue.EmailEvent{
		Kind:    msg.Kind,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
}

// Deliver returns a queue.EmailHandler that sends each consumed event with
// sender. cmd/mailer wires it to the RabbitMQ consumer.
func Deliver(sender Sender) queue.EmailHandler {
	return func(ctx context.Context, ev queue.EmailEvent) error {
		return sender.Send(ctx, Message{Kind: ev.Kind, To: ev.To, Subject: ev.Subject, HTML: ev.HTML})
	}
}
