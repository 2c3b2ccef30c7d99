package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-users-posts-api/internal/domain"
)

func TestCreateUser_AssignsIDAndDefaults(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	u := &domain.User{Name: "Ada", Email: "ada@example.com", Password: "hash"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if checkID("User", "id", u.ID) != nil {
		t.Fatalf("expected UUID id, got %q", u.ID)
	}
	if u.Role != domain.RoleUser || !u.IsActive {
		t.Fatalf("expected default role/active, got role=%q active=%v", u.Role, u.IsActive)
	}
	if u.CreatedAt.IsZero() || !u.CreatedAt.Equal(u.UpdatedAt) {
		t.Fatalf("expected equal non-zero timestamps, got %v / %v", u.CreatedAt, u.UpdatedAt)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	if err := CreateUser(ctx, db, &domain.User{Name: "A", Email: "dup@example.com", Password: "h"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := CreateUser(ctx, db, &domain.User{Name: "B", Email: "dup@example.com", Password: "h"})
	var de *DuplicateKeyError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DuplicateKeyError, got %T %v", err, err)
	}
	if de.Field != "email" || de.Model != "User" {
		t.Fatalf("unexpected duplicate error fields: %+v", de)
	}
}

func TestCreateUser_ValidationError(t *testing.T) {
	db := newMigratedDB(t)

	err := CreateUser(context.Background(), db, &domain.User{Name: "A", Email: "a@example.com", Password: "h", Role: "root"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *domain.ValidationError, got %T %v", err, err)
	}
	if ve.Field != "role" {
		t.Fatalf("expected role field, got %q", ve.Field)
	}
}

func TestGetUser_InvalidID_NotFound_Found(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	_, err := GetUser(ctx, db, "not-a-uuid")
	var ie *InvalidIDError
	if !errors.As(err, &ie) || ie.Field != "id" || ie.Model != "User" {
		t.Fatalf("expected InvalidIDError(id, User), got %T %v", err, err)
	}

	_, err = GetUser(ctx, db, "6f1c1c3e-8a8b-4c1e-9a55-2f4d2f0b9a11")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	u := &domain.User{Name: "Ada", Email: "ada@example.com", Password: "hash"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	got, err := GetUser(ctx, db, u.ID)
	if err != nil || got.Email != "ada@example.com" || got.Password != "hash" {
		t.Fatalf("GetUser mismatch: err=%v got=%+v", err, got)
	}

	byEmail, err := GetUserByEmail(ctx, db, "ada@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("GetUserByEmail mismatch: err=%v got=%+v", err, byEmail)
	}
	if _, err := GetUserByEmail(ctx, db, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown email, got %v", err)
	}
}

func TestListActiveUsersPage_FiltersSortsAndOmitsPassword(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		u := &domain.User{Name: email, Email: email, Password: "secret"}
		if err := CreateUser(ctx, db, u); err != nil {
			t.Fatalf("CreateUser(%s): %v", email, err)
		}
		// spread created_at so ordering is deterministic
		db.Model(&domain.User{}).Where("id = ?", u.ID).UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, u.ID)
	}
	// deactivate the middle one
	db.Model(&domain.User{}).Where("id = ?", ids[1]).UpdateColumn("is_active", false)

	total, err := CountActiveUsers(ctx, db)
	if err != nil || total != 2 {
		t.Fatalf("CountActiveUsers: total=%d err=%v", total, err)
	}

	page, err := ListActiveUsersPage(ctx, db, 0, 10)
	if err != nil {
		t.Fatalf("ListActiveUsersPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[2] || page[1].ID != ids[0] {
		t.Fatalf("unexpected order/filter: %+v", page)
	}
	for _, u := range page {
		if u.Password != "" {
			t.Fatalf("password column should not be loaded, got %q", u.Password)
		}
	}

	second, err := ListActiveUsersPage(ctx, db, 1, 1)
	if err != nil || len(second) != 1 || second[0].ID != ids[0] {
		t.Fatalf("offset page mismatch: err=%v got=%+v", err, second)
	}
}

func TestUpdateUser_PartialAndErrors(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	a := &domain.User{Name: "A", Email: "a@example.com", Password: "h"}
	b := &domain.User{Name: "B", Email: "b@example.com", Password: "h"}
	for _, u := range []*domain.User{a, b} {
		if err := CreateUser(ctx, db, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	name := "Alice"
	got, err := UpdateUser(ctx, db, a.ID, UserPatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if got.Name != "Alice" || got.Email != "a@example.com" || got.Password != "h" {
		t.Fatalf("unexpected patched user: %+v", got)
	}

	taken := "b@example.com"
	_, err = UpdateUser(ctx, db, a.ID, UserPatch{Email: &taken})
	var de *DuplicateKeyError
	if !errors.As(err, &de) || de.Field != "email" {
		t.Fatalf("expected DuplicateKeyError(email), got %T %v", err, err)
	}

	bad := "no-at-sign"
	_, err = UpdateUser(ctx, db, a.ID, UserPatch{Email: &bad})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T %v", err, err)
	}

	if _, err := UpdateUser(ctx, db, "6f1c1c3e-8a8b-4c1e-9a55-2f4d2f0b9a11", UserPatch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var ie *InvalidIDError
	if _, err := UpdateUser(ctx, db, "123", UserPatch{Name: &name}); !errors.As(err, &ie) {
		t.Fatalf("expected InvalidIDError, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	u := &domain.User{Name: "A", Email: "a@example.com", Password: "h"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := DeleteUser(ctx, db, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := DeleteUser(ctx, db, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	var ie *InvalidIDError
	if err := DeleteUser(ctx, db, "zzz"); !errors.As(err, &ie) {
		t.Fatalf("expected InvalidIDError, got %v", err)
	}
}

func TestListAuthors(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	u := &domain.User{Name: "Ada", Email: "ada@example.com", Password: "h"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	empty, err := ListAuthors(ctx, db, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty map, got %v err=%v", empty, err)
	}

	got, err := ListAuthors(ctx, db, []string{u.ID, "6f1c1c3e-8a8b-4c1e-9a55-2f4d2f0b9a11"})
	if err != nil {
		t.Fatalf("ListAuthors: %v", err)
	}
	if len(got) != 1 || got[u.ID].Name != "Ada" || got[u.ID].Email != "ada@example.com" {
		t.Fatalf("unexpected authors: %+v", got)
	}
}
