package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("k")

	token, err := GenerateToken("sess-1", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	id, err := GetSessionIDFromToken(token, secret)
	if err != nil {
		t.Fatalf("GetSessionIDFromToken error: %v", err)
	}
	if id != "sess-1" {
		t.Fatalf("unexpected session id: %s", id)
	}
}

func TestGetSessionIDFromToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("sess-1", []byte("k1"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err := GetSessionIDFromToken(token, []byte("k2")); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestGetSessionIDFromToken_Expired(t *testing.T) {
	secret := []byte("k")
	token, err := GenerateToken("sess-1", secret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err := GetSessionIDFromToken(token, secret); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestGetSessionIDFromToken_Garbage(t *testing.T) {
	if _, err := GetSessionIDFromToken("not.a.token", []byte("k")); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
