package services

import (
	"net/http"
	"testing"

	"github.com/taskhive/backend/internal/config"
	"github.com/taskhive/backend/internal/models"
	"github.com/taskhive/backend/internal/utils"
)

func init() {
	utils.SetJWTSecret("auth-service-test-secret")
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(testDB(t), &config.JWTConfig{Secret: "auth-service-test-secret", ExpireHour: 24})
}

func TestRegister_IssuesToken(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Register(&RegisterRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "hunter2x",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if resp.Token == "" {
		t.Error("Register() returned empty token")
	}
	if resp.User.Email != "alice@example.com" {
		t.Errorf("Email = %q, expected lowercased %q", resp.User.Email, "alice@example.com")
	}
	if resp.User.Role != models.RoleUser {
		t.Errorf("Role = %q, expected %q", resp.User.Role, models.RoleUser)
	}
	if resp.User.Password == "hunter2x" {
		t.Error("password must be stored hashed")
	}

	claims, err := utils.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Errorf("token UserID = %d, expected %d", claims.UserID, resp.User.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newAuthService(t)

	req := &RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "hunter2x"}
	if _, err := svc.Register(req); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Register(&RegisterRequest{Username: "imposter", Email: "ALICE@example.com", Password: "hunter2x"})
	wantAppError(t, err, http.StatusConflict)
}

func TestLogin_UniformUnauthorized(t *testing.T) {
	svc := newAuthService(t)

	if _, err := svc.Register(&RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "hunter2x"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, wrongPassword := svc.Login(&LoginRequest{Email: "alice@example.com", Password: "wrong"})
	_, unknownEmail := svc.Login(&LoginRequest{Email: "nobody@example.com", Password: "hunter2x"})

	wantAppError(t, wrongPassword, http.StatusUnauthorized)
	wantAppError(t, unknownEmail, http.StatusUnauthorized)
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("login failures must be indistinguishable: %q vs %q",
			wrongPassword.Error(), unknownEmail.Error())
	}

	resp, err := svc.Login(&LoginRequest{Email: "Alice@Example.com", Password: "hunter2x"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token == "" {
		t.Error("Login() returned empty token")
	}
}

func TestGetUserByEmail_ReturnsSummary(t *testing.T) {
	svc := newAuthService(t)

	reg, err := svc.Register(&RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "hunter2x"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	summary, err := svc.GetUserByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if summary.ID != reg.User.ID || summary.Username != "alice" {
		t.Errorf("summary = %+v, expected id %d username alice", summary, reg.User.ID)
	}

	_, err = svc.GetUserByEmail("ghost@example.com")
	wantAppError(t, err, http.StatusNotFound)
}

func TestCreateAdminIfNotExists_Idempotent(t *testing.T) {
	svc := newAuthService(t)

	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("CreateAdminIfNotExists() error = %v", err)
	}
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("second CreateAdminIfNotExists() error = %v", err)
	}

	var count int64
	svc.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count != 1 {
		t.Errorf("admin count = %d, expected 1", count)
	}
}
