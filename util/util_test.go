package util

import (
	"testing"
)

func TestHasPrefixes(t *testing.T) {
	if !HasPrefixes("/api/v1/books", "/api/v1", "/healthcheck") {
		t.Error("Expected prefix match")
	}
	if HasPrefixes("/covers/x.webp", "/api/v1") {
		t.Error("Expected no prefix match")
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"ayesha@example.org", "a.b+c@sub.example.com"}
	for _, email := range valid {
		if !ValidateEmail(email) {
			t.Errorf("Expected %q to be valid", email)
		}
	}
	invalid := []string{"", "no-at-sign", "a@", "@example.org"}
	for _, email := range invalid {
		if ValidateEmail(email) {
			t.Errorf("Expected %q to be invalid", email)
		}
	}
}

func TestGenUUID(t *testing.T) {
	a, b := GenUUID(), GenUUID()
	if a == "" || a == b {
		t.Errorf("Expected distinct non-empty ids, got %q and %q", a, b)
	}
}

func TestRandomString(t *testing.T) {
	s, err := RandomString(32)
	if err != nil {
		t.Fatalf("Failed to generate random string: %v", err)
	}
	if len(s) != 32 {
		t.Errorf("Expected length 32, got %d", len(s))
	}
}
