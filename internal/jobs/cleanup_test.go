package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/metrics"
	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/testhelpers"
)

func TestRunOncePurgesStaleRows(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	u := testhelpers.CreateUser(t, db, "purge@example.com", model.RoleCustomer)
	now := time.Now().UTC()

	refresh := []model.RefreshToken{
		{UserID: u.ID, HashedToken: "live", ExpiresAt: now.Add(time.Hour)},
		{UserID: u.ID, HashedToken: "expired", ExpiresAt: now.Add(-time.Hour)},
		{UserID: u.ID, HashedToken: "revoked", ExpiresAt: now.Add(time.Hour), Revoked: true},
	}
	require.NoError(t, db.Create(&refresh).Error)
	resets := []model.ResetToken{
		{UserID: u.ID, Kind: model.ResetKindCode, Token: "1111", ExpiresAt: now.Add(time.Minute)},
		{UserID: u.ID, Kind: model.ResetKindCode, Token: "2222", ExpiresAt: now.Add(-time.Minute)},
		{UserID: u.ID, Kind: model.ResetKindLink, Token: "abcd", ExpiresAt: now.Add(time.Minute), Used: true},
	}
	require.NoError(t, db.Create(&resets).Error)

	before := testutil.ToFloat64(metrics.CleanupDeleted.WithLabelValues("refresh_tokens"))
	job := NewCleanupJob(db, config.CleanupConfig{Enabled: true, Schedule: "@hourly"}, zap.NewNop())
	res, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CleanupResult{RefreshTokens: 2, ResetTokens: 2}, res)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.CleanupDeleted.WithLabelValues("refresh_tokens")))

	var left []model.RefreshToken
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "live", left[0].HashedToken)

	res, err = job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CleanupResult{}, res)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	job := NewCleanupJob(db, config.CleanupConfig{Enabled: true, Schedule: "every now and then"}, zap.NewNop())
	assert.Error(t, job.Start())

	disabled := NewCleanupJob(db, config.CleanupConfig{Enabled: false, Schedule: "nonsense"}, zap.NewNop())
	assert.NoError(t, disabled.Start())

	ok := NewCleanupJob(db, config.CleanupConfig{Enabled: true, Schedule: "@every 1h"}, zap.NewNop())
	require.NoError(t, ok.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok.Stop(ctx)
}
