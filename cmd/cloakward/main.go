package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"

	"github.com/cloakward-ai/cloakward/internal/audit"
	"github.com/cloakward-ai/cloakward/internal/auth"
	"github.com/cloakward-ai/cloakward/internal/config"
	"github.com/cloakward-ai/cloakward/internal/detect"
	"github.com/cloakward-ai/cloakward/internal/ner"
	"github.com/cloakward-ai/cloakward/internal/provider"
	"github.com/cloakward-ai/cloakward/internal/redact"
	"github.com/cloakward-ai/cloakward/internal/server"
	"github.com/cloakward-ai/cloakward/internal/store"
	"github.com/cloakward-ai/cloakward/internal/telemetry"
	"github.com/cloakward-ai/cloakward/internal/transform"
)

const version = "0.3.0"

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "cloakward.yaml", "path to Cloakward config file")
	flag.Parse()

	// Optional .env for local development; secrets stay out of the config file.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		redact.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		redact.Fatalf("%v", err)
	}

	ctx := context.Background()

	// NER is best-effort: a missing model bundle degrades to the heuristic,
	// pattern, and grammar sources instead of refusing to start.
	var rec detect.Recognizer = ner.Disabled{}
	engine, err := ner.Load(cfg.NER.BundleDir, cfg.NER.SeqLen)
	if err != nil {
		redact.Logf("ner model unavailable (%v); running without statistical detection", err)
	} else {
		defer engine.Close()
		if err := engine.Warmup(ctx); err != nil {
			redact.Logf("ner warmup failed: %v", err)
		}
		rec = engine
	}

	det, err := detect.New(rec)
	if err != nil {
		redact.Fatalf("failed to build detector: %v", err)
	}

	key, err := store.KeyFromEnv(cfg.Store.KeyEnv)
	if err != nil {
		redact.Fatalf("%v", err)
	}
	st, err := store.Open(cfg.Store.Path, key)
	if err != nil {
		redact.Fatalf("failed to open mapping store: %v", err)
	}
	defer st.Close()

	prov, err := provider.New(cfg.Provider)
	if err != nil {
		redact.Fatalf("failed to build provider: %v", err)
	}

	var emitter *audit.Emitter
	if cfg.Audit.Enabled {
		sink, err := audit.NewFileSink(cfg.Audit.Path)
		if err != nil {
			redact.Fatalf("failed to open audit sink: %v", err)
		}
		emitter = audit.NewEmitter(audit.EmitterConfig{}, []audit.Sink{sink})
		defer emitter.Close(ctx)
	}

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  "cloakward",
		Version:  version,
	})
	if err != nil {
		redact.Fatalf("failed to init telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		tel.Shutdown(shutdownCtx)
	}()

	srv, err := server.New(server.Options{
		Engine:    transform.New(det),
		Store:     st,
		Provider:  prov,
		Auth:      auth.NewFromEnv(cfg.Server.APIKeysEnv),
		Audit:     emitter,
		Telemetry: tel,
	})
	if err != nil {
		redact.Fatalf("failed to build server: %v", err)
	}

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	if err := srv.Start(addr); err != nil {
		redact.Fatalf("server error: %v", err)
	}
}
