package transform

import (
	"context"

	"github.com/cloakward-ai/cloakward/internal/entity"
)

const defaultMaxExamples = 3

// DetectionStats counts detected entities per human-readable label.
func (e *Engine) DetectionStats(ctx context.Context, text string) (map[string]int, error) {
	spans, err := e.det.Detect(ctx, text)
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int)
	for _, s := range spans {
		stats[entity.Label(s.Type)]++
	}
	return stats, nil
}

// PreviewDetection returns up to maxExamples distinct example strings per
// human-readable label, without transforming anything.
func (e *Engine) PreviewDetection(ctx context.Context, text string, maxExamples int) (map[string][]string, error) {
	if maxExamples <= 0 {
		maxExamples = defaultMaxExamples
	}
	spans, err := e.det.Detect(ctx, text)
	if err != nil {
		return nil, err
	}
	preview := make(map[string][]string)
	for _, s := range spans {
		label := entity.Label(s.Type)
		examples := preview[label]
		if len(examples) >= maxExamples || contains(examples, s.Text) {
			continue
		}
		preview[label] = append(examples, s.Text)
	}
	return preview, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
