package transform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloakward-ai/cloakward/internal/detect"
	"github.com/cloakward-ai/cloakward/internal/ner"
)

type stubRecognizer struct{}

func (stubRecognizer) Process(context.Context, string) ([]ner.Entity, error) {
	return nil, nil
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	det, err := detect.New(stubRecognizer{})
	if err != nil {
		t.Fatalf("detector: %v", err)
	}
	return New(det)
}

func TestPseudonymizeRoundTrip(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	text := "Please reach Sarah Johnson at sarah.j@acme.com. Sarah Johnson is away."
	anonymized, mappings, err := e.Pseudonymize(ctx, text)
	if err != nil {
		t.Fatalf("Pseudonymize: %v", err)
	}

	if strings.Contains(anonymized, "Sarah Johnson") {
		t.Errorf("anonymized text %q still contains the name", anonymized)
	}
	if strings.Contains(anonymized, "sarah.j@acme.com") {
		t.Errorf("anonymized text %q still contains the email", anonymized)
	}
	// Same value, same type: the placeholder is reused, not renumbered.
	if strings.Count(anonymized, "name_1") != 2 {
		t.Errorf("anonymized = %q, want name_1 twice", anonymized)
	}
	if len(mappings) != 2 {
		t.Errorf("mappings = %v, want 2 entries", mappings)
	}
	if mappings["name_1"] != "Sarah Johnson" {
		t.Errorf("name_1 = %q", mappings["name_1"])
	}
	if mappings["email_1"] != "sarah.j@acme.com" {
		t.Errorf("email_1 = %q", mappings["email_1"])
	}

	if restored := Deanonymize(anonymized, mappings); restored != text {
		t.Errorf("round trip:\n got %q\nwant %q", restored, text)
	}
}

func TestPseudonymizeCountersPerType(t *testing.T) {
	e := newEngine(t)

	text := "Emails: first.a@x.com and second.b@y.org, SSN 123-45-6789."
	anonymized, mappings, err := e.Pseudonymize(context.Background(), text)
	if err != nil {
		t.Fatalf("Pseudonymize: %v", err)
	}

	for _, ph := range []string{"email_1", "email_2", "ssn_1"} {
		if !strings.Contains(anonymized, ph) {
			t.Errorf("anonymized %q missing %s", anonymized, ph)
		}
		if _, ok := mappings[ph]; !ok {
			t.Errorf("mappings missing %s: %v", ph, mappings)
		}
	}
	if strings.Contains(anonymized, "ssn_2") {
		t.Errorf("counter leaked across types: %q", anonymized)
	}
}

func TestMaskIsOneWay(t *testing.T) {
	e := newEngine(t)

	masked, mappings, err := e.Mask(context.Background(), "Card 4532 1234 5678 9012 on file.")
	if err != nil {
		t.Fatalf("Mask: %v", err)
	}
	if !strings.Contains(masked, "4532-XXXX-XXXX-9012") {
		t.Errorf("masked = %q", masked)
	}
	if len(mappings) != 0 {
		t.Errorf("mask must not produce mappings, got %v", mappings)
	}
}

func TestReplaceUsesLabels(t *testing.T) {
	e := newEngine(t)

	replaced, mappings, err := e.Replace(context.Background(), "Write to sarah.j@acme.com now.")
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if !strings.Contains(replaced, "[Email Address]") {
		t.Errorf("replaced = %q", replaced)
	}
	if len(mappings) != 0 {
		t.Errorf("replace must not produce mappings, got %v", mappings)
	}
}

func TestAnonymizeInvalidMode(t *testing.T) {
	e := newEngine(t)

	_, _, err := e.Anonymize(context.Background(), "hello", "shred")
	var modeErr *InvalidModeError
	if !errors.As(err, &modeErr) {
		t.Fatalf("err = %v, want InvalidModeError", err)
	}
	if modeErr.Mode != "shred" {
		t.Errorf("Mode = %q", modeErr.Mode)
	}
}

func TestMaskSpanShapes(t *testing.T) {
	tests := []struct {
		typ  string
		text string
		want string
	}{
		{"email", "john@x.com", "jo**@x.com"},
		{"email short local", "jo@x.com", "j*@x.com"},
		{"credit_card", "4532 1234 5678 9012", "4532-XXXX-XXXX-9012"},
		{"phone", "(555) 123-4567", "(555) XXX-X567"},
		{"ssn", "123-45-6789", "123-XX-XXXX"},
		{"zip", "90210", "902**"},
		{"zip plus four", "90210-1234", "902**-****"},
		{"ip", "192.168.1.100", "192.XXX.XXX.XXX"},
		{"url", "https://ex.com/private/path", "https://ex.com/***"},
		{"name", "Sarah Johnson", "S**** J******"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			var got string
			switch tt.typ {
			case "email", "email short local":
				got = maskEmail(tt.text)
			case "credit_card":
				got = maskCreditCard(tt.text)
			case "phone":
				got = maskPhone(tt.text)
			case "ssn":
				got = maskSSN(tt.text)
			case "zip", "zip plus four":
				got = maskZip(tt.text)
			case "ip":
				got = maskIP(tt.text)
			case "url":
				got = maskURL(tt.text)
			case "name":
				got = maskWords(tt.text)
			}
			if got != tt.want {
				t.Errorf("mask(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDeanonymizeCaseStyles(t *testing.T) {
	mappings := map[string]string{"name_1": "Sarah Johnson"}

	got := Deanonymize("NAME_1 called. Name_1 wrote. name_1 left.", mappings)
	want := "SARAH JOHNSON called. Sarah Johnson wrote. Sarah Johnson left."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDeanonymizeLongestFirst(t *testing.T) {
	mappings := map[string]string{
		"name_1":  "Alice",
		"name_10": "Bob",
	}

	got := Deanonymize("name_10 met name_1.", mappings)
	if got != "Bob met Alice." {
		t.Errorf("got %q", got)
	}
}

func TestDeanonymizeWholeWordOnly(t *testing.T) {
	mappings := map[string]string{"name_1": "Alice"}

	// Placeholder-like substrings inside larger words stay untouched.
	got := Deanonymize("rename_1x and name_1.", mappings)
	if got != "rename_1x and Alice." {
		t.Errorf("got %q", got)
	}
}

func TestDeanonymizeUnknownPlaceholderIsNoop(t *testing.T) {
	got := Deanonymize("hello name_9", map[string]string{"email_1": "a@b.co"})
	if got != "hello name_9" {
		t.Errorf("got %q", got)
	}
	if Deanonymize("text", nil) != "text" {
		t.Error("nil mappings should be a no-op")
	}
}

func TestDetectionStatsAndPreview(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	text := "Emails first.a@x.com and second.b@y.org, SSN 123-45-6789."
	stats, err := e.DetectionStats(ctx, text)
	if err != nil {
		t.Fatalf("DetectionStats: %v", err)
	}
	if stats["Email Address"] != 2 || stats["Social Security Number"] != 1 {
		t.Errorf("stats = %v", stats)
	}

	preview, err := e.PreviewDetection(ctx, text, 1)
	if err != nil {
		t.Fatalf("PreviewDetection: %v", err)
	}
	if got := preview["Email Address"]; len(got) != 1 {
		t.Errorf("preview capped at 1, got %v", got)
	}
}
