package auth

import (
	"testing"

	"github.com/zeltlager/lagerkasse/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"

	token, err := GenerateToken(secret, 42, "kasse1", model.RoleCashier)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Username != "kasse1" {
		t.Errorf("expected username kasse1, got %s", claims.Username)
	}
	if claims.Role != model.RoleCashier {
		t.Errorf("expected role cashier, got %s", claims.Role)
	}
	if claims.ID == "" {
		t.Error("expected non-empty JTI")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", 1, "admin", model.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken("secret-b", token); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := ValidateToken("secret", "not-a-token"); err == nil {
		t.Error("expected validation to fail for garbage input")
	}
}

func TestUniqueJTIs(t *testing.T) {
	a, _ := GenerateToken("s", 1, "u", model.RoleAdmin)
	b, _ := GenerateToken("s", 1, "u", model.RoleAdmin)
	ca, _ := ValidateToken("s", a)
	cb, _ := ValidateToken("s", b)
	if ca.ID == cb.ID {
		t.Error("expected distinct JTIs for separate tokens")
	}
}
