package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/testhelpers"
)

func TestUserRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("create normalizes email and rejects duplicates", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		repo := NewUserRepo(db)

		u := &model.User{Email: "  Ana@Example.COM ", PasswordHash: "x", Name: "Ana"}
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("create: %v", err)
		}
		if u.ID == "" || u.Email != "ana@example.com" {
			t.Fatalf("unexpected user after create: %+v", u)
		}

		dup := &model.User{Email: "ana@example.com", PasswordHash: "y", Name: "Other"}
		if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}

		got, err := repo.GetByEmail(ctx, "ANA@example.com")
		if err != nil {
			t.Fatalf("get by email: %v", err)
		}
		if got.ID != u.ID || got.Role != model.RoleCustomer || got.Language != model.LanguageEnGB {
			t.Fatalf("defaults not applied: %+v", got)
		}
	})

	t.Run("missing user is ErrNotFound", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		if _, err := NewUserRepo(db).GetByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("soft delete anonymises and only applies once", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		repo := NewUserRepo(db)
		u := testhelpers.CreateUser(t, db, "gone@example.com", model.RoleCustomer)

		if err := repo.SoftDelete(ctx, u.ID, time.Now()); err != nil {
			t.Fatalf("soft delete: %v", err)
		}
		got, err := repo.GetByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.IsActive || got.DeletedAt == nil || got.Email != AnonymizedEmail(u.ID) {
			t.Fatalf("account not anonymised: %+v", got)
		}
		if err := repo.SoftDelete(ctx, u.ID, time.Now()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}

		// the original address is free again
		again := &model.User{Email: "gone@example.com", PasswordHash: "x", Name: "Again"}
		if err := repo.Create(ctx, again); err != nil {
			t.Fatalf("re-register freed email: %v", err)
		}
	})

	t.Run("set agency and clear it", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		repo := NewUserRepo(db)
		u := testhelpers.CreateUser(t, db, "member@example.com", model.RoleCustomer)
		a := model.Agency{Name: "Sparkle", Phone: "0123456789", Email: "a@x.com", Postcode: "N1", Address: "1 High St"}
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("create agency: %v", err)
		}

		if err := repo.SetAgency(ctx, u.ID, &a.ID); err != nil {
			t.Fatalf("set agency: %v", err)
		}
		got, err := repo.GetWithAgency(ctx, u.ID)
		if err != nil || got.Agency == nil || got.Agency.ID != a.ID {
			t.Fatalf("agency not attached: %+v err=%v", got, err)
		}

		if err := repo.SetAgency(ctx, u.ID, nil); err != nil {
			t.Fatalf("clear agency: %v", err)
		}
		got, _ = repo.GetByID(ctx, u.ID)
		if got.AgencyID != nil {
			t.Fatalf("expected agency cleared, got %v", *got.AgencyID)
		}
	})

	t.Run("set role by email", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		repo := NewUserRepo(db)
		u := testhelpers.CreateUser(t, db, "promote@example.com", model.RoleCustomer)

		if err := repo.SetRole(ctx, "PROMOTE@example.com", model.RoleAdmin); err != nil {
			t.Fatalf("set role: %v", err)
		}
		got, _ := repo.GetByID(ctx, u.ID)
		if got.Role != model.RoleAdmin {
			t.Fatalf("expected ADMIN, got %s", got.Role)
		}
		if err := repo.SetRole(ctx, "promote@example.com", model.RoleAdmin); err != nil {
			t.Fatalf("set unchanged role: %v", err)
		}
		if err := repo.SetRole(ctx, "ghost@example.com", model.RoleAdmin); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
