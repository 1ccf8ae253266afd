package redact

import (
	"strings"
	"testing"
)

func TestStringRedaction(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		disallow []string
		require  []string
	}{
		{
			name:     "bearer header",
			input:    "Authorization: Bearer sk-secret-123",
			disallow: []string{"sk-secret-123"},
			require:  []string{"[REDACTED]"},
		},
		{
			name:     "api key value",
			input:    "api_key=proj-key-1",
			disallow: []string{"proj-key-1"},
			require:  []string{"api_key=[REDACTED]"},
		},
		{
			name:     "store key",
			input:    "store_key=c2VjcmV0LXN0b3JlLWtleQ==",
			disallow: []string{"c2VjcmV0"},
			require:  []string{"store_key=[REDACTED]"},
		},
		{
			name:     "provider url",
			input:    "base_url=https://api.example.com/v1/chat/completions?key=abc123",
			disallow: []string{"completions?key=abc123"},
			require:  []string{"https://api.example.com"},
		},
		{
			name:     "mixed token",
			input:    "Bearer abc key=supersecret token=anotherone url=https://lic.example.test/files/base/",
			disallow: []string{"abc", "supersecret", "anotherone", "files/base/"},
			require:  []string{"[REDACTED]", "https://lic.example.test/[REDACTED_PATH]"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := String(tc.input)
			for _, bad := range tc.disallow {
				if bad != "" && contains(out, bad) {
					t.Fatalf("output still contains %q: %s", bad, out)
				}
			}
			for _, want := range tc.require {
				if want == "" {
					continue
				}
				if !contains(out, want) {
					t.Fatalf("output missing required substring %q: %s", want, out)
				}
			}
		})
	}
}

func contains(s, sub string) bool {
	return s != "" && sub != "" && strings.Contains(s, sub)
}
