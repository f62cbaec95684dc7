package service

import (
	"errors"
	"testing"
	"time"

	"github.com/blane-next/internal/config"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/repository"
)

func setupAuthService(t *testing.T) (*AuthService, *models.Admin) {
	t.Helper()
	env := setupServiceTestEnv(t, "auth_service")
	repo := repository.NewAdminRepository(env.db)
	hash, err := HashPassword("finance-pass")
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := &models.Admin{Username: "finance", PasswordHash: hash}
	if err := repo.Create(admin); err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	svc := NewAuthService(config.JWTConfig{SecretKey: "test-secret", ExpireHours: 2}, repo)
	svc.now = testNow
	return svc, admin
}

func TestAuthServiceLoginIssuesToken(t *testing.T) {
	svc, admin := setupAuthService(t)
	svc.now = time.Now

	result, err := svc.Login(testContext(), " finance ", "finance-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Admin.LastLoginAt == nil {
		t.Fatalf("last login should be recorded")
	}
	claims, err := svc.ParseJWT(result.Token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "finance" || claims.TokenVersion != 0 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := ParseAdminToken("other-secret", result.Token); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}

	if _, err := svc.Login(testContext(), "finance", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(testContext(), "nobody", "finance-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestAuthServiceExpiredToken(t *testing.T) {
	svc, admin := setupAuthService(t)
	svc.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	token, _, err := svc.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if _, err := svc.ParseJWT(token); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}

func TestAuthServiceChangePassword(t *testing.T) {
	svc, admin := setupAuthService(t)

	if err := svc.ChangePassword(testContext(), admin.ID, "bad-old", "new-password"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := svc.ChangePassword(testContext(), admin.ID, "finance-pass", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := svc.ChangePassword(testContext(), admin.ID, "finance-pass", "new-password"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	updated, err := svc.Profile(admin.ID)
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if updated.TokenVersion != 1 || updated.TokenInvalidBefore == nil {
		t.Fatalf("token version should be bumped: %+v", updated)
	}
	if err := svc.ChangePassword(testContext(), admin.ID+10, "x", "new-password"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
