// Package config loads Cloakward's YAML configuration. Secrets (provider
// API keys, the mapping-store key) are never stored in the file; the config
// only names the environment variables that carry them.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds Cloakward configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	NER       NERConfig       `yaml:"ner"`
	Provider  ProviderConfig  `yaml:"provider"`
	Store     StoreConfig     `yaml:"store"`
	Audit     AuditConfig     `yaml:"audit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr       string `yaml:"addr"`         // HTTP listen address, e.g. ":8080"
	APIKeysEnv string `yaml:"api_keys_env"` // env var with comma-separated client keys; empty disables auth
}

type NERConfig struct {
	BundleDir string `yaml:"bundle_dir"` // directory with model.onnx, label_map.json, tokenizer/
	SeqLen    int    `yaml:"seq_len"`
}

type ProviderConfig struct {
	Type      string `yaml:"type"`        // "openai" or "mock"
	BaseURL   string `yaml:"base_url"`    // e.g. "https://api.openai.com/v1"
	APIKeyEnv string `yaml:"api_key_env"` // e.g. "OPENAI_API_KEY"
	Model     string `yaml:"model"`
}

type StoreConfig struct {
	Path   string `yaml:"path"`    // bbolt database file
	KeyEnv string `yaml:"key_env"` // env var with the base64 32-byte sealing key
}

type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // JSONL sink; empty means stdout
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
}

// Load reads configuration from a YAML file. If the file doesn't exist, it
// returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.NER.BundleDir == "" {
		cfg.NER.BundleDir = "models/pii_ner"
	}
	if cfg.NER.SeqLen <= 0 {
		cfg.NER.SeqLen = 256
	}
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = "mock"
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = "gpt-4o-mini"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "cloakward.db"
	}
	if cfg.Store.KeyEnv == "" {
		cfg.Store.KeyEnv = "CLOAKWARD_STORE_KEY"
	}
	if cfg.Audit.Enabled && cfg.Audit.Path == "" {
		cfg.Audit.Path = "cloakward-audit.jsonl"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
}
