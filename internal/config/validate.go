package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for mistakes that would otherwise only
// surface at runtime. All problems are reported at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr must not be empty")
	}

	if c.NER.SeqLen < 16 || c.NER.SeqLen > 4096 {
		problems = append(problems, fmt.Sprintf("ner.seq_len %d out of range [16, 4096]", c.NER.SeqLen))
	}

	switch c.Provider.Type {
	case "openai":
		if c.Provider.APIKeyEnv == "" {
			problems = append(problems, "provider.api_key_env required for provider.type openai")
		}
	case "mock":
	default:
		problems = append(problems, fmt.Sprintf("provider.type %q not recognized (want openai or mock)", c.Provider.Type))
	}

	if c.Store.Path == "" {
		problems = append(problems, "store.path must not be empty")
	}
	if c.Store.KeyEnv == "" {
		problems = append(problems, "store.key_env must not be empty")
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			problems = append(problems, "telemetry.endpoint required when telemetry is enabled")
		}
		if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http" {
			problems = append(problems, fmt.Sprintf("telemetry.protocol %q not recognized (want grpc or http)", c.Telemetry.Protocol))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
