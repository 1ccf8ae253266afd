// Package store persists placeholder-to-original mappings across requests so
// deanonymization works after a restart. Placeholders carry no PII; the
// original values do, so they are sealed with XChaCha20-Poly1305 before they
// touch disk.
package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"go.etcd.io/bbolt"
	"golang.org/x/crypto/chacha20poly1305"
)

var bucketMappings = []byte("mappings")

// Store is a bbolt-backed encrypted mapping store. It is safe for concurrent
// use; bbolt serializes writers internally.
type Store struct {
	db   *bbolt.DB
	aead cipher.AEAD
}

// KeyFromEnv reads a base64-encoded 32-byte sealing key from the named
// environment variable.
func KeyFromEnv(name string) ([]byte, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return nil, fmt.Errorf("store key env %s not set", name)
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode store key from %s: %w", name, err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("store key from %s is %d bytes, want %d", name, len(key), chacha20poly1305.KeySize)
	}
	return key, nil
}

// Open opens (or creates) the store at path using the given 32-byte key.
func Open(path string, key []byte) (*Store, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMappings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init store %s: %w", path, err)
	}

	return &Store{db: db, aead: aead}, nil
}

// Save merges mappings into the store. Existing placeholders are overwritten.
func (s *Store) Save(mappings map[string]string) error {
	if len(mappings) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMappings)
		for placeholder, original := range mappings {
			sealed, err := s.seal([]byte(original))
			if err != nil {
				return err
			}
			if err := b.Put([]byte(placeholder), sealed); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns all stored mappings, placeholder to original value.
func (s *Store) Load() (map[string]string, error) {
	out := map[string]string{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMappings).ForEach(func(k, v []byte) error {
			original, err := s.open(v)
			if err != nil {
				return fmt.Errorf("unseal mapping for %s: %w", k, err)
			}
			out[string(k)] = string(original)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored mappings.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketMappings).Stats().KeyN
		return nil
	})
	return n, err
}

// Clear removes every stored mapping.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketMappings); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketMappings)
		return err
	})
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("sealed value too short")
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	return s.aead.Open(nil, nonce, ciphertext, nil)
}
