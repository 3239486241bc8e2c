package mail

import (
	"context"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/cleaning-booking/internal/config"
)

// SMTPSender delivers over SMTP with gomail.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	dial func(m ...*gomail.Message) error
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	s := &SMTPSender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.From,
	}
	s.dial = gomail.NewDialer(s.Host, s.Port, s.Username, s.Password).DialAndSend
	return s
}

// Send builds the MIME message and dials the server. gomail has no context
// support, so ctx is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	return s.dial(m)
}
