package ner

import "context"

// Disabled is a recognizer that never reports entities. It stands in for the
// ONNX engine when the model bundle is unavailable, leaving the heuristic,
// pattern, and grammar detection sources in effect.
type Disabled struct{}

func (Disabled) Process(context.Context, string) ([]Entity, error) {
	return nil, nil
}
