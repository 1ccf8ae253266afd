// Package auth gates the HTTP API behind client API keys.
package auth

import (
	"crypto/subtle"
	"os"
	"strings"
)

// Auth holds the set of accepted client API keys. An empty set means auth is
// disabled and every request is accepted.
type Auth struct {
	keys []string
}

// NewFromEnv builds an Auth from a comma-separated list of keys held in the
// named environment variable. An empty name or empty variable disables auth.
func NewFromEnv(envName string) *Auth {
	a := &Auth{}
	if envName == "" {
		return a
	}
	for _, key := range strings.Split(os.Getenv(envName), ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			a.keys = append(a.keys, key)
		}
	}
	return a
}

// Enabled reports whether any keys are configured.
func (a *Auth) Enabled() bool {
	return a != nil && len(a.keys) > 0
}

// Allow reports whether the presented key is accepted. Comparison is
// constant-time per configured key.
func (a *Auth) Allow(apiKey string) bool {
	if !a.Enabled() {
		return true
	}
	if apiKey == "" {
		return false
	}
	ok := false
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(apiKey)) == 1 {
			ok = true
		}
	}
	return ok
}
