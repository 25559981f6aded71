package vault

import (
	"bytes"
	"encoding/hex"
	"testing"
)

var testKey = []byte("thisis32byteslongsecretkey123456")

func TestSealOpen(t *testing.T) {
	box, err := NewBox(testKey)
	if err != nil {
		t.Fatalf("NewBox failed: %v", err)
	}
	plaintext := []byte(`{"form-1":{"title":"Survey"}}`)

	sealed, err := box.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if bytes.Contains(sealed, []byte("Survey")) {
		t.Fatal("Sealed data should not contain the plaintext")
	}

	opened, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("Expected %s, got %s", plaintext, opened)
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	box1, _ := NewBox(testKey)
	box2, _ := NewBox([]byte("another32byteslongsecretkey65432"))

	sealed, err := box1.Seal([]byte("Secret message"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, err := box2.Open(sealed); err != ErrTampered {
		t.Fatalf("Expected ErrTampered, got %v", err)
	}
}

func TestInvalidKeySize(t *testing.T) {
	if _, err := NewBox([]byte("shortkey")); err == nil {
		t.Fatal("NewBox should fail with invalid key size")
	}
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey(hex.EncodeToString(testKey))
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if !bytes.Equal(key, testKey) {
		t.Errorf("Expected %x, got %x", testKey, key)
	}
	if _, err := ParseKey("zz"); err == nil {
		t.Error("ParseKey should reject non-hex input")
	}
	if _, err := ParseKey("abcd"); err == nil {
		t.Error("ParseKey should reject short keys")
	}
}

func TestOpenMalformed(t *testing.T) {
	box, _ := NewBox(testKey)
	if _, err := box.Open([]byte("not-hex")); err == nil {
		t.Fatal("Open should fail with malformed hex")
	}
	// AES-GCM nonces are 12 bytes (24 hex chars).
	if _, err := box.Open([]byte("abcdef")); err == nil {
		t.Fatal("Open should fail with too short ciphertext")
	}
}
