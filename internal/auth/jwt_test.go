package auth

import (
	"errors"
	"testing"
	"time"

	"chamapay/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:    42,
		Email: "wanjiku@example.com",
		Role:  model.UserRoleMember,
	}
}

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	token, err := manager.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "wanjiku@example.com" {
		t.Errorf("Email = %s", claims.Email)
	}
	if claims.Role != model.UserRoleMember {
		t.Errorf("Role = %s", claims.Role)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", time.Hour).Generate(testUser())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := NewJWTManager("secret-b", time.Hour).Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestJWTExpired(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)
	token, err := manager.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate of expired token = %v, want ErrInvalidToken", err)
	}
}

func TestJWTGarbage(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := manager.Validate(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("hash equals plaintext")
	}

	if err := CheckPassword(hash, "correct horse battery"); err != nil {
		t.Errorf("CheckPassword with right password = %v", err)
	}
	if err := CheckPassword(hash, "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword with wrong password = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("ValidatePassword(short) = %v, want ErrWeakPassword", err)
	}
	if err := ValidatePassword("long enough password"); err != nil {
		t.Errorf("ValidatePassword(long) = %v, want nil", err)
	}
}
