// Package jobs holds scheduled background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/metrics"
	"github.com/iliyamo/cleaning-booking/internal/repository"
)

const runTimeout = time.Minute

// CleanupResult counts the rows one purge removed.
type CleanupResult struct {
	RefreshTokens int64
	ResetTokens   int64
}

// CleanupJob purges revoked or expired refresh tokens and used or expired
// reset tokens on a cron schedule.
type CleanupJob struct {
	tokens *repository.TokenRepo
	resets *repository.ResetRepo
	cfg    config.CleanupConfig
	log    *zap.Logger
	cron   *cron.Cron
	now    func() time.Time
}

func NewCleanupJob(db *gorm.DB, cfg config.CleanupConfig, log *zap.Logger) *CleanupJob {
	return &CleanupJob{
		tokens: repository.NewTokenRepo(db),
		resets: repository.NewResetRepo(db),
		cfg:    cfg,
		log:    log,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		now:    time.Now,
	}
}

// RunOnce purges both tables. A failure on one table does not stop the
// other; the errors are combined.
func (j *CleanupJob) RunOnce(ctx context.Context) (CleanupResult, error) {
	now := j.now().UTC()
	var res CleanupResult
	var errs error

	n, err := j.tokens.DeleteStale(ctx, now)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("purge refresh tokens: %w", err))
	} else {
		res.RefreshTokens = n
		metrics.CleanupDeleted.WithLabelValues("refresh_tokens").Add(float64(n))
	}

	n, err = j.resets.DeleteStale(ctx, now)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("purge reset tokens: %w", err))
	} else {
		res.ResetTokens = n
		metrics.CleanupDeleted.WithLabelValues("reset_tokens").Add(float64(n))
	}
	return res, errs
}

// Start schedules RunOnce. It is a no-op when cleanup is disabled.
func (j *CleanupJob) Start() error {
	if !j.cfg.Enabled {
		j.log.Info("token cleanup disabled")
		return nil
	}
	_, err := j.cron.AddFunc(j.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		res, err := j.RunOnce(ctx)
		if err != nil {
			j.log.Error("token cleanup failed", zap.Error(err))
		}
		j.log.Info("token cleanup finished",
			zap.Int64("refresh_tokens", res.RefreshTokens),
			zap.Int64("reset_tokens", res.ResetTokens))
	})
	if err != nil {
		return fmt.Errorf("schedule token cleanup %q: %w", j.cfg.Schedule, err)
	}
	j.cron.Start()
	j.log.Info("token cleanup scheduled", zap.String("schedule", j.cfg.Schedule))
	return nil
}

// Stop halts the scheduler and waits for a running purge to finish or ctx
// to expire.
func (j *CleanupJob) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}
