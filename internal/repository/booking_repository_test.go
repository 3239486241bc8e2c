package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/testhelpers"
)

func TestBookingRepoOwnershipAndGraph(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupTestDB(t)
	repo := NewBookingRepo(db)
	owner := testhelpers.CreateUser(t, db, "owner@example.com", model.RoleCustomer)
	other := testhelpers.CreateUser(t, db, "other@example.com", model.RoleCustomer)
	svc := testhelpers.CreateService(t, db, "sofa")

	older := &model.Booking{UserID: owner.ID, TotalItems: 1, Items: []model.BookingItem{{ServiceID: svc.ID}}}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, db.Model(older).Update("created_at", time.Now().Add(-time.Hour)).Error)

	newer := &model.Booking{UserID: owner.ID, TotalItems: 2, Items: []model.BookingItem{{ServiceID: svc.ID}, {ServiceID: svc.ID}}}
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.AddPhoto(ctx, &model.BookingPhoto{BookingID: newer.ID, Filename: "a.png", URL: "http://x/a.png"}))

	got, err := repo.GetForUser(ctx, owner.ID, newer.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	require.NotNil(t, got.Items[0].Service)
	require.NotNil(t, got.Items[0].Service.Category)
	assert.Equal(t, "cat-sofa", got.Items[0].Service.Category.Slug)
	assert.Len(t, got.Photos, 1)
	require.NotNil(t, got.User)
	assert.Equal(t, owner.Email, got.User.Email)

	_, err = repo.GetForUser(ctx, other.ID, newer.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	list, err := repo.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
}

func TestCatalogRepoMissingServices(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupTestDB(t)
	svc := testhelpers.CreateService(t, db, "rug")

	missing, err := NewCatalogRepo(db).MissingServices(ctx, []string{svc.ID, "ghost", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, missing)
}

func TestCatalogRepoHidesInactive(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupTestDB(t)
	repo := NewCatalogRepo(db)
	keep := testhelpers.CreateService(t, db, "keep")
	hide := testhelpers.CreateService(t, db, "hide")
	require.NoError(t, db.Model(&model.Service{}).Where("id = ?", hide.ID).Update("is_active", false).Error)

	svcs, err := repo.ListServices(ctx, "")
	require.NoError(t, err)
	require.Len(t, svcs, 1)
	assert.Equal(t, keep.ID, svcs[0].ID)

	_, err = repo.ServiceBySlug(ctx, "hide")
	assert.True(t, errors.Is(err, ErrNotFound))
}
