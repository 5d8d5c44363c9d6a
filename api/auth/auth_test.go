package auth

import (
	"testing"
	"time"

	"github.com/irc-library/maktaba/model"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	identity := model.Identity{Name: "Ayesha", Email: "ayesha@example.org", Role: model.RoleReader}

	token, err := GenerateAccessToken(identity, time.Now().Add(time.Hour), secret)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	parsed, err := ParseAccessToken(token, secret)
	if err != nil {
		t.Fatalf("Failed to parse token: %v", err)
	}
	if parsed.Name != identity.Name || parsed.Email != identity.Email || parsed.Role != identity.Role {
		t.Errorf("Identity did not round-trip: %+v", parsed)
	}
	if !parsed.Authenticated() {
		t.Error("Expected parsed identity to be authenticated")
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	identity := model.Identity{Name: "admin", Role: model.RoleLibrarian}
	token, err := GenerateAccessToken(identity, time.Now().Add(time.Hour), []byte("right"))
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := ParseAccessToken(token, []byte("wrong")); err == nil {
		t.Error("Expected parse to fail with the wrong secret")
	}
}

func TestAccessTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	identity := model.Identity{Name: "Omar", Role: model.RoleReader}
	token, err := GenerateAccessToken(identity, time.Now().Add(-time.Minute), secret)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := ParseAccessToken(token, secret); err == nil {
		t.Error("Expected parse to fail for an expired token")
	}
}
