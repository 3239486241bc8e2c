package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cleaning-booking/internal/mail"
	"github.com/iliyamo/cleaning-booking/internal/metrics"
)

const emailTimeout = 15 * time.Second

// notifier sends email after the primary write has committed. Sending runs
// in the background and never fails the request; failures are logged and
// counted in gts_email_failures_total.
type notifier struct {
	sender mail.Sender
	log    *zap.Logger
	wg     sync.WaitGroup
}

func newNotifier(sender mail.Sender, log *zap.Logger) *notifier {
	return &notifier{sender: sender, log: log}
}

func (n *notifier) send(ctx context.Context, msg mail.Message) {
	if n.sender == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, emailTimeout)
		defer cancel()
		if err := n.sender.Send(ctx, msg); err != nil {
			metrics.EmailFailures.WithLabelValues(msg.Kind).Inc()
			n.log.Warn("email not sent", zap.String("kind", msg.Kind), zap.Error(err))
		}
	}()
}

// renderFailed records a template failure the same way as a send failure.
func (n *notifier) renderFailed(kind string, err error) {
	metrics.EmailFailures.WithLabelValues(kind).Inc()
	n.log.Error("email not rendered", zap.String("kind", kind), zap.Error(err))
}

// wait blocks until every in-flight email has finished.
func (n *notifier) wait() { n.wg.Wait() }
