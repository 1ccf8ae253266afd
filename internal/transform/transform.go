// Package transform applies the three anonymization strategies to detected
// PII spans and restores pseudonymized text from a mapping.
package transform

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/cloakward-ai/cloakward/internal/detect"
	"github.com/cloakward-ai/cloakward/internal/entity"
)

// Anonymization modes accepted by Anonymize.
const (
	ModePseudonymize = "pseudonymize"
	ModeMask         = "mask"
	ModeReplace      = "replace"
)

// InvalidModeError reports an unrecognized anonymization mode.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("unknown anonymization mode %q", e.Mode)
}

// Engine runs detection and replacement over one text per call. It holds no
// per-call state: counters and the placeholder cache are locals of a single
// invocation, so one Engine can serve concurrent callers.
type Engine struct {
	det *detect.Detector
}

// New builds a transform engine over a detector.
func New(det *detect.Detector) *Engine {
	return &Engine{det: det}
}

// Pseudonymize replaces every detected span with a semantic placeholder
// ("name_1", "mobNo_2", ...) and returns the placeholder→original mapping
// needed to reverse it. Placeholder counters are scoped per entity type,
// and repeated identical values of the same type reuse their first
// placeholder so the text stays internally consistent.
func (e *Engine) Pseudonymize(ctx context.Context, text string) (string, map[string]string, error) {
	spans, err := e.det.Detect(ctx, text)
	if err != nil {
		return "", nil, err
	}

	counters := make(map[entity.Type]int)
	cache := make(map[string]string)
	mappings := make(map[string]string)

	result := text
	offset := 0
	for _, s := range spans {
		key := string(s.Type) + ":" + s.Text
		placeholder, seen := cache[key]
		if !seen {
			counters[s.Type]++
			placeholder = fmt.Sprintf("%s_%d", entity.Prefix(s.Type), counters[s.Type])
			mappings[placeholder] = s.Text
			cache[key] = placeholder
		}
		result = result[:s.Start+offset] + placeholder + result[s.End+offset:]
		offset += len(placeholder) - (s.End - s.Start)
	}
	return result, mappings, nil
}

// Mask partially redacts every detected span using per-type reveal rules.
// One-way: the returned mapping is always empty.
func (e *Engine) Mask(ctx context.Context, text string) (string, map[string]string, error) {
	spans, err := e.det.Detect(ctx, text)
	if err != nil {
		return "", nil, err
	}

	result := text
	offset := 0
	for _, s := range spans {
		masked := maskSpan(s.Text, s.Type)
		result = result[:s.Start+offset] + masked + result[s.End+offset:]
		offset += len(masked) - (s.End - s.Start)
	}
	return result, map[string]string{}, nil
}

// Replace substitutes every detected span with its bracketed human label
// ("[Person Name]", "[Email Address]"). One-way: the returned mapping is
// always empty.
func (e *Engine) Replace(ctx context.Context, text string) (string, map[string]string, error) {
	spans, err := e.det.Detect(ctx, text)
	if err != nil {
		return "", nil, err
	}

	result := text
	offset := 0
	for _, s := range spans {
		placeholder := "[" + entity.Label(s.Type) + "]"
		result = result[:s.Start+offset] + placeholder + result[s.End+offset:]
		offset += len(placeholder) - (s.End - s.Start)
	}
	return result, map[string]string{}, nil
}

// Anonymize dispatches to the named mode.
func (e *Engine) Anonymize(ctx context.Context, text, mode string) (string, map[string]string, error) {
	switch mode {
	case ModePseudonymize:
		return e.Pseudonymize(ctx, text)
	case ModeMask:
		return e.Mask(ctx, text)
	case ModeReplace:
		return e.Replace(ctx, text)
	}
	return "", nil, &InvalidModeError{Mode: mode}
}

// Deanonymize restores originals in pseudonymized text. Entries are applied
// longest-placeholder-first so a short placeholder never matches inside a
// longer one, and each placeholder is matched as a whole word, case
// insensitively, preserving the case style of the occurrence. A mapping
// entry that matches nothing is a no-op; Deanonymize never fails.
func Deanonymize(text string, mappings map[string]string) string {
	if len(mappings) == 0 {
		return text
	}

	type pair struct {
		placeholder string
		original    string
	}
	sorted := make([]pair, 0, len(mappings))
	for ph, orig := range mappings {
		sorted = append(sorted, pair{ph, orig})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i].placeholder) != len(sorted[j].placeholder) {
			return len(sorted[i].placeholder) > len(sorted[j].placeholder)
		}
		return sorted[i].placeholder < sorted[j].placeholder
	})

	result := text
	for _, p := range sorted {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(p.placeholder) + `\b`)
		if err != nil {
			result = strings.ReplaceAll(result, p.placeholder, p.original)
			continue
		}
		original := p.original
		result = re.ReplaceAllStringFunc(result, func(matched string) string {
			if isAllUpper(matched) {
				return strings.ToUpper(original)
			}
			return original
		})
	}
	return result
}

// isAllUpper reports whether the string contains at least one letter and
// no lowercase letters.
func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
