package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/testhelpers"
)

func TestAgencyRepoListCountsAndFilters(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupTestDB(t)
	repo := NewAgencyRepo(db)
	users := NewUserRepo(db)

	alpha := &model.Agency{Name: "Alpha", Phone: "0123456789", Email: "alpha@x.com", Postcode: "N1", Address: "1 Road"}
	beta := &model.Agency{Name: "Beta", Phone: "0123456789", Email: "beta@x.com", Postcode: "N2", Address: "2 Road"}
	require.NoError(t, repo.Create(ctx, alpha))
	require.NoError(t, repo.Create(ctx, beta))
	require.NoError(t, repo.SetActive(ctx, beta.ID, false))

	for _, email := range []string{"m1@x.com", "m2@x.com"} {
		u := testhelpers.CreateUser(t, db, email, model.RoleCustomer)
		require.NoError(t, users.SetAgency(ctx, u.ID, &alpha.ID))
	}

	active, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Alpha", active[0].Name)
	assert.Equal(t, int64(2), active[0].UserCount)

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	withUsers, err := repo.GetWithUsers(ctx, alpha.ID)
	require.NoError(t, err)
	assert.Len(t, withUsers.Users, 2)
}

func TestAgencyRepoEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupTestDB(t)
	repo := NewAgencyRepo(db)

	a := &model.Agency{Name: "Alpha", Phone: "0123456789", Email: "Alpha@X.com", Postcode: "N1", Address: "1 Road"}
	require.NoError(t, repo.Create(ctx, a))
	assert.Equal(t, "alpha@x.com", a.Email)

	taken, err := repo.EmailTaken(ctx, "ALPHA@x.com", "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailTaken(ctx, "alpha@x.com", a.ID)
	require.NoError(t, err)
	assert.False(t, taken, "an agency does not clash with itself")

	b := &model.Agency{Name: "Beta", Phone: "0123456789", Email: "alpha@x.com", Postcode: "N1", Address: "1 Road"}
	assert.True(t, errors.Is(repo.Create(ctx, b), ErrDuplicate))
}
