// Command cloakward-bench measures end-to-end detection latency against a
// loaded NER bundle.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/cloakward-ai/cloakward/internal/config"
	"github.com/cloakward-ai/cloakward/internal/detect"
	"github.com/cloakward-ai/cloakward/internal/ner"
)

func main() {
	cfgPath := flag.String("config", "", "path to config yaml (required)")
	n := flag.Int("n", 200, "number of iterations")
	text := flag.String("text", "My name is Sarah Johnson, email sarah.j@acme.com, card 4532 1234 5678 9012, and I live at 123 Oak Street.", "text to run detection over")
	flag.Parse()

	if *cfgPath == "" {
		log.Fatalf("config flag is required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	engine, err := ner.Load(cfg.NER.BundleDir, cfg.NER.SeqLen)
	if err != nil {
		log.Fatalf("load ner model: %v", err)
	}
	defer engine.Close()

	det, err := detect.New(engine)
	if err != nil {
		log.Fatalf("build detector: %v", err)
	}

	ctx := context.Background()

	// Warmup
	for i := 0; i < 5; i++ {
		if _, err := det.Detect(ctx, *text); err != nil {
			log.Fatalf("warmup detect failed: %v", err)
		}
	}

	if *n <= 0 {
		*n = 1
	}

	var spans int
	durations := make([]time.Duration, 0, *n)
	for i := 0; i < *n; i++ {
		start := time.Now()
		out, err := det.Detect(ctx, *text)
		if err != nil {
			log.Fatalf("detect failed: %v", err)
		}
		spans = len(out)
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
	p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0
	p95 := float64(durations[int(float64(len(durations))*0.95)].Microseconds()) / 1000.0

	fmt.Printf("bench: n=%d avg_ms=%.2f p50_ms=%.2f p95_ms=%.2f spans=%d seq_len=%d bundle_dir=%s\n",
		len(durations),
		avg,
		p50,
		p95,
		spans,
		cfg.NER.SeqLen,
		cfg.NER.BundleDir,
	)
}
