// Command cloakward-cli runs detection and anonymization from the shell,
// without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cloakward-ai/cloakward/internal/detect"
	"github.com/cloakward-ai/cloakward/internal/ner"
	"github.com/cloakward-ai/cloakward/internal/redact"
	"github.com/cloakward-ai/cloakward/internal/transform"
)

var (
	modelDir string
	seqLen   int
)

func main() {
	root := &cobra.Command{
		Use:   "cloakward-cli",
		Short: "Detect and anonymize PII in text",
		Long: `cloakward-cli runs Cloakward's PII detection pipeline over text from
arguments or stdin. Without --model-dir the statistical NER source is
skipped and detection relies on heuristics, patterns, and grammar.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&modelDir, "model-dir", "", "NER model bundle directory (optional)")
	root.PersistentFlags().IntVar(&seqLen, "seq-len", 256, "NER model sequence length")

	root.AddCommand(newDetectCmd())
	root.AddCommand(newAnonymizeCmd())
	root.AddCommand(newDeanonymizeCmd())
	root.AddCommand(newStatsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngine builds a transform engine, loading the ONNX model only when a
// bundle directory was given.
func newEngine() (*transform.Engine, func(), error) {
	var rec detect.Recognizer = ner.Disabled{}
	cleanup := func() {}

	if modelDir != "" {
		eng, err := ner.Load(modelDir, seqLen)
		if err != nil {
			return nil, nil, fmt.Errorf("load ner model: %w", err)
		}
		rec = eng
		cleanup = eng.Close
	}

	det, err := detect.New(rec)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return transform.New(det), cleanup, nil
}

// readText takes the text from args, or stdin when no args were given.
func readText(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [text]",
		Short: "List detected PII without transforming",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(args)
			if err != nil {
				return err
			}
			engine, cleanup, err := newEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			preview, err := engine.PreviewDetection(context.Background(), text, 0)
			if err != nil {
				return err
			}
			labels := make([]string, 0, len(preview))
			for label := range preview {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			for _, label := range labels {
				for _, example := range preview[label] {
					fmt.Printf("%-24s %s\n", label, example)
				}
			}
			return nil
		},
	}
}

func newAnonymizeCmd() *cobra.Command {
	var mode string
	var mappingsOut string

	cmd := &cobra.Command{
		Use:   "anonymize [text]",
		Short: "Anonymize text (pseudonymize, mask, or replace)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(args)
			if err != nil {
				return err
			}
			engine, cleanup, err := newEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			anonymized, mappings, err := engine.Anonymize(context.Background(), text, mode)
			if err != nil {
				return err
			}
			fmt.Println(anonymized)

			if mappingsOut != "" && len(mappings) > 0 {
				data, err := json.MarshalIndent(mappings, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(mappingsOut, data, 0o600); err != nil {
					return fmt.Errorf("write mappings: %w", err)
				}
				redact.Logf("wrote %d mappings to %s", len(mappings), mappingsOut)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", transform.ModePseudonymize, "anonymization mode: pseudonymize | mask | replace")
	cmd.Flags().StringVar(&mappingsOut, "mappings-out", "", "write the placeholder mapping to this JSON file")
	return cmd
}

func newDeanonymizeCmd() *cobra.Command {
	var mappingsPath string

	cmd := &cobra.Command{
		Use:   "deanonymize [text]",
		Short: "Restore originals using a saved mapping file",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(args)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(mappingsPath)
			if err != nil {
				return fmt.Errorf("read mappings: %w", err)
			}
			var mappings map[string]string
			if err := json.Unmarshal(data, &mappings); err != nil {
				return fmt.Errorf("parse mappings: %w", err)
			}
			fmt.Println(transform.Deanonymize(text, mappings))
			return nil
		},
	}
	cmd.Flags().StringVar(&mappingsPath, "mappings", "", "JSON mapping file produced by anonymize --mappings-out")
	_ = cmd.MarkFlagRequired("mappings")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [text]",
		Short: "Count detected entities per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(args)
			if err != nil {
				return err
			}
			engine, cleanup, err := newEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			counts, err := engine.DetectionStats(context.Background(), text)
			if err != nil {
				return err
			}
			labels := make([]string, 0, len(counts))
			for label := range counts {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			total := 0
			for _, label := range labels {
				fmt.Printf("%-24s %d\n", label, counts[label])
				total += counts[label]
			}
			fmt.Printf("%-24s %d\n", "total", total)
			return nil
		},
	}
}
