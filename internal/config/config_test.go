package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.NER.SeqLen != 256 {
		t.Errorf("NER.SeqLen = %d, want 256", cfg.NER.SeqLen)
	}
	if cfg.Provider.Type != "mock" {
		t.Errorf("Provider.Type = %q, want mock", cfg.Provider.Type)
	}
	if cfg.Store.KeyEnv != "CLOAKWARD_STORE_KEY" {
		t.Errorf("Store.KeyEnv = %q, want CLOAKWARD_STORE_KEY", cfg.Store.KeyEnv)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloakward.yaml")
	body := `
server:
  addr: ":9090"
ner:
  bundle_dir: /opt/models/pii
  seq_len: 512
provider:
  type: openai
  base_url: https://api.openai.com/v1
  api_key_env: OPENAI_API_KEY
  model: gpt-4o
store:
  path: /var/lib/cloakward/map.db
audit:
  enabled: true
telemetry:
  enabled: true
  endpoint: localhost:4317
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.NER.SeqLen != 512 {
		t.Errorf("NER.SeqLen = %d, want 512", cfg.NER.SeqLen)
	}
	if cfg.Provider.Type != "openai" || cfg.Provider.Model != "gpt-4o" {
		t.Errorf("Provider = %+v", cfg.Provider)
	}
	// Defaults still fill in unset fields.
	if cfg.Store.KeyEnv != "CLOAKWARD_STORE_KEY" {
		t.Errorf("Store.KeyEnv = %q, want default", cfg.Store.KeyEnv)
	}
	if cfg.Audit.Path == "" {
		t.Error("Audit.Path should default when audit is enabled")
	}
	if cfg.Telemetry.Protocol != "grpc" {
		t.Errorf("Telemetry.Protocol = %q, want grpc default", cfg.Telemetry.Protocol)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [nope"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
