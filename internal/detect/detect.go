// Package detect finds PII spans in free-form text by folding four
// detection sources (key-value heuristics, structural regex patterns,
// statistical NER, and multi-token grammar patterns) into one ordered,
// non-overlapping span list.
package detect

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloakward-ai/cloakward/internal/entity"
	"github.com/cloakward-ai/cloakward/internal/ner"
)

// Recognizer is the statistical NER collaborator. ner.Engine implements it;
// tests substitute stubs.
type Recognizer interface {
	Process(ctx context.Context, text string) ([]ner.Entity, error)
}

// Detector orchestrates the detection stages against one Recognizer.
// A Detector is immutable after construction and safe for concurrent use;
// all per-call state lives on the stack of Detect.
type Detector struct {
	rec    Recognizer
	stages []stage
}

// stage is one named detection source. Stage order is the priority order:
// a candidate from a later stage loses arbitration against anything an
// earlier stage already claimed.
type stage struct {
	name   string
	minLen int // minimum trimmed candidate length; 0 disables the check
	run    func(ctx context.Context, text string) ([]entity.Span, error)
}

// New builds a Detector. The recognizer is mandatory: without the NER
// source the statistically-derived categories cannot be produced.
func New(rec Recognizer) (*Detector, error) {
	if rec == nil {
		return nil, fmt.Errorf("detect: ner recognizer is required")
	}
	d := &Detector{rec: rec}
	d.stages = []stage{
		{name: "key_value", run: func(_ context.Context, text string) ([]entity.Span, error) {
			return keyValueCandidates(text), nil
		}},
		{name: "pattern", run: func(_ context.Context, text string) ([]entity.Span, error) {
			return structuralCandidates(text), nil
		}},
		{name: "ner", minLen: 2, run: d.nerCandidates},
		{name: "grammar", minLen: 3, run: func(_ context.Context, text string) ([]entity.Span, error) {
			return grammarCandidates(text), nil
		}},
	}
	return d, nil
}

// Detect returns the accepted spans sorted ascending by start offset.
// The ascending order is a hard contract: the transform engine replaces
// spans by cumulative offset adjustment over the original text.
func (d *Detector) Detect(ctx context.Context, text string) ([]entity.Span, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var accepted []entity.Span
	for _, st := range d.stages {
		candidates, err := st.run(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%s stage: %w", st.name, err)
		}
		for _, c := range candidates {
			if st.minLen > 0 && len(strings.TrimSpace(c.Text)) < st.minLen {
				continue
			}
			if overlapsAccepted(c.Start, c.End, accepted) {
				continue
			}
			if !Valid(c.Text, c.Type) {
				continue
			}
			accepted = append(accepted, c)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Start < accepted[j].Start
	})
	return accepted, nil
}

// nerCandidates maps the model's native labels into domain types and drops
// labels outside the PII taxonomy.
func (d *Detector) nerCandidates(ctx context.Context, text string) ([]entity.Span, error) {
	ents, err := d.rec.Process(ctx, text)
	if err != nil {
		return nil, err
	}
	var out []entity.Span
	for _, ent := range ents {
		typ, ok := entity.FromModelLabel(ent.Label)
		if !ok {
			continue
		}
		if ent.Start < 0 || ent.End > len(text) || ent.End <= ent.Start {
			continue
		}
		out = append(out, entity.Span{
			Text:  text[ent.Start:ent.End],
			Type:  typ,
			Start: ent.Start,
			End:   ent.End,
		})
	}
	return out, nil
}
