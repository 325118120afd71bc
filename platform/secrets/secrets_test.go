package secrets

import (
	"errors"
	"strings"
	"testing"
)

const testKey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func TestSealOpenRoundTrip(t *testing.T) {
	box, err := NewBox(testKey)
	if err != nil {
		t.Fatalf("new box: %v", err)
	}

	sealed, err := box.Seal("ps_live_123", "user-1")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if strings.Contains(sealed, "ps_live_123") {
		t.Fatal("sealed value leaks plaintext")
	}

	plain, err := box.Open(sealed, "user-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if plain != "ps_live_123" {
		t.Fatalf("expected ps_live_123, got %q", plain)
	}
}

func TestOpenRejectsOtherAssociatedData(t *testing.T) {
	box, _ := NewBox(testKey)
	sealed, _ := box.Seal("ps_live_123", "user-1")

	if _, err := box.Open(sealed, "user-2"); err == nil {
		t.Fatal("expected open to fail for a different user")
	}
}

func TestSealUsesFreshNonce(t *testing.T) {
	box, _ := NewBox(testKey)
	a, _ := box.Seal("same", "u")
	b, _ := box.Seal("same", "u")
	if a == b {
		t.Fatal("expected different ciphertexts for repeated seals")
	}
}

func TestNewBoxRejectsShortKey(t *testing.T) {
	if _, err := NewBox("abcd"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := NewBox("not-hex"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
