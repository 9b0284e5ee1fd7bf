package auth

import (
	"testing"
	"time"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid bearer", "Bearer abc123", "abc123", false},
		{"lowercase bearer", "bearer abc123", "abc123", false},
		{"empty header", "", "", true},
		{"no scheme", "abc123", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"empty token", "Bearer ", "", true},
		{"whitespace token", "Bearer    ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewLocalJWTAuth_EmptySecret(t *testing.T) {
	if _, err := NewLocalJWTAuth("", 0); err == nil {
		t.Error("Expected error for empty secret")
	}
}

func TestNewLocalJWTAuth_DefaultExpiry(t *testing.T) {
	a, err := NewLocalJWTAuth("secret", 0)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth failed: %v", err)
	}
	if a.AccessTokenExpiry != 15*time.Minute {
		t.Errorf("Expected 15m default expiry, got %v", a.AccessTokenExpiry)
	}
}

func TestGenerateAndVerifyAccessToken(t *testing.T) {
	a, err := NewLocalJWTAuth("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth failed: %v", err)
	}

	token, err := a.GenerateAccessToken("user-42", "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	user, err := a.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken failed: %v", err)
	}
	if user.ID != "user-42" {
		t.Errorf("Expected user id user-42, got %q", user.ID)
	}
	if user.Role != "admin" {
		t.Errorf("Expected role admin, got %q", user.Role)
	}
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	issuer, _ := NewLocalJWTAuth("secret-a", time.Hour)
	verifier, _ := NewLocalJWTAuth("secret-b", time.Hour)

	token, err := issuer.GenerateAccessToken("user-42", "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := verifier.VerifyAccessToken(token); err == nil {
		t.Error("Expected verification to fail with a different secret")
	}
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	a, _ := NewLocalJWTAuth("test-secret", -time.Minute)

	token, err := a.GenerateAccessToken("user-42", "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := a.VerifyAccessToken(token); err == nil {
		t.Error("Expected verification to fail for an expired token")
	}
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	a, _ := NewLocalJWTAuth("test-secret", time.Hour)

	if _, err := a.VerifyAccessToken("not-a-jwt"); err == nil {
		t.Error("Expected verification to fail for a malformed token")
	}
}
