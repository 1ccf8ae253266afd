package store

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/chacha20poly1305"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	return key
}

func TestSaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.db")
	key := testKey(t)

	s, err := Open(path, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.Save(map[string]string{
		"name_1":  "John Smith",
		"email_1": "john@acme.com",
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Merge, overwriting one key.
	if err := s.Save(map[string]string{
		"name_1":   "John Smith",
		"mobNo_1":  "555-867-5309",
		"email_1":  "john@acme.com",
		"amount_1": "$4,500",
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("Load returned %d mappings, want 4", len(got))
	}
	if got["mobNo_1"] != "555-867-5309" {
		t.Errorf("mobNo_1 = %q", got["mobNo_1"])
	}

	n, err := s.Count()
	if err != nil || n != 4 {
		t.Fatalf("Count = %d, %v; want 4", n, err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = s.Load()
	if err != nil {
		t.Fatalf("Load after Clear: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load after Clear returned %d mappings", len(got))
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.db")
	key := testKey(t)

	s, err := Open(path, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save(map[string]string{"ssn_1": "123-45-6789"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path, key)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got["ssn_1"] != "123-45-6789" {
		t.Errorf("ssn_1 = %q after reopen", got["ssn_1"])
	}
}

func TestWrongKeyFailsToUnseal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.db")

	s, err := Open(path, testKey(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save(map[string]string{"name_1": "Sarah Johnson"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s, err = Open(path, testKey(t))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Load(); err == nil {
		t.Fatal("Load with wrong key should fail")
	}
}

func TestValuesSealedOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.db")

	s, err := Open(path, testKey(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	const secret = "super-secret-original-value"
	if err := s.Save(map[string]string{"account_id_1": secret}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, []byte(secret)) {
		t.Error("original value appears in plaintext on disk")
	}
}

func TestKeyFromEnv(t *testing.T) {
	key := testKey(t)
	t.Setenv("CLOAKWARD_TEST_KEY", base64.StdEncoding.EncodeToString(key))

	got, err := KeyFromEnv("CLOAKWARD_TEST_KEY")
	if err != nil {
		t.Fatalf("KeyFromEnv: %v", err)
	}
	if string(got) != string(key) {
		t.Error("key round-trip mismatch")
	}

	t.Setenv("CLOAKWARD_TEST_KEY", "not base64 !!")
	if _, err := KeyFromEnv("CLOAKWARD_TEST_KEY"); err == nil {
		t.Error("expected error for malformed key")
	}

	t.Setenv("CLOAKWARD_TEST_KEY", base64.StdEncoding.EncodeToString(key[:8]))
	if _, err := KeyFromEnv("CLOAKWARD_TEST_KEY"); err == nil {
		t.Error("expected error for short key")
	}

	if _, err := KeyFromEnv("CLOAKWARD_MISSING_KEY"); err == nil {
		t.Error("expected error for unset env")
	}
}
