package sealer

import (
	"errors"
	"testing"
)

func TestSealer_RoundTrip(t *testing.T) {
	s, err := New("test-secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	token, err := s.Seal("upload-123")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if token == "upload-123" {
		t.Fatalf("token must not expose the value")
	}

	got, err := s.Open(token)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got != "upload-123" {
		t.Errorf("Open() = %q, want upload-123", got)
	}

	again, _ := s.Seal("upload-123")
	if again == token {
		t.Errorf("sealing twice should use fresh nonces")
	}
}

func TestSealer_RejectsBadTokens(t *testing.T) {
	s, _ := New("test-secret")
	other, _ := New("other-secret")
	foreign, _ := other.Seal("upload-123")
	valid, _ := s.Seal("upload-123")
	tampered := []byte(valid)
	tampered[0] ^= 1

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!!"},
		{"too short", "AAAA"},
		{"different key", foreign},
		{"tampered", string(tampered)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Open(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNew_EmptySecret(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Errorf("expected error for empty secret")
	}
}
