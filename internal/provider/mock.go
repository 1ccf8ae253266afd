package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\b[a-zA-Z_]+_\d+\b`)

// mockProvider is an offline provider for development and tests. It echoes
// whatever placeholder tokens appear in the prompt so deanonymization of the
// response can be demonstrated end to end without network access.
type mockProvider struct{}

// NewMock creates the offline mock provider.
func NewMock() Provider {
	return &mockProvider{}
}

func (p *mockProvider) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	placeholders := placeholderRe.FindAllString(prompt, -1)
	if len(placeholders) == 0 {
		return "Understood. I don't see any personal data references in your message.", nil
	}

	seen := map[string]bool{}
	distinct := placeholders[:0]
	for _, ph := range placeholders {
		if !seen[ph] {
			seen[ph] = true
			distinct = append(distinct, ph)
		}
	}

	return fmt.Sprintf(
		"Understood. I'll handle the request regarding %s and follow up with the details you asked for.",
		strings.Join(distinct, ", "),
	), nil
}

// FakeProvider returns a fixed response or error. It exists for tests.
type FakeProvider struct {
	ResponseText string
	Err          error
}

func (f *FakeProvider) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.ResponseText, nil
}
