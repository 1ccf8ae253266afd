package detect

import (
	"regexp"

	"github.com/cloakward-ai/cloakward/internal/entity"
)

// grammarPatterns are hand-written multi-token grammars for entities the
// NER model and single-token regexes tend to miss: titled personal names,
// multi-component addresses, legally-suffixed organization names, and
// compound date expressions. They run last, so anything already claimed by
// a higher-priority source is skipped during arbitration.
var grammarPatterns = []struct {
	typ entity.Type
	re  *regexp.Regexp
}{
	// Titled names: "Dr. John Smith", "Ms Jane Doe".
	{entity.PersonName, regexp.MustCompile(`(?i)\b(?:dr|mr|mrs|ms|prof|professor|captain|sir|madam)\.?\s+[A-Za-z]+(?:\s+[A-Za-z]+)?\b`)},
	// Two or three consecutive title-case words.
	{entity.PersonName, regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`)},
	// Number + street name + street type: "12 MG Road".
	{entity.Address, regexp.MustCompile(`(?i)\b\d+\s+(?:[A-Za-z]+\s+)*[A-Za-z]+\s+(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln)\b`)},
	// Apartment/unit style: "450 Oak Apt 12", "3 Suite 400".
	{entity.Address, regexp.MustCompile(`(?i)\b\d+\s+(?:[A-Za-z]+\s+)?(?:apt|apartment|suite|unit|floor|fl)\.?\s*\d*\b`)},
	// Organization with a legal suffix: "Acme Inc.", "Wayne Industries LLC".
	{entity.Organization, regexp.MustCompile(`(?i)\b[A-Za-z]+(?:\s+[A-Za-z]+)*\s+(?:inc|corp|llc|ltd|co|company|corporation|incorporated|limited)\b\.?`)},
	// Institutional names: "First National Bank", "Mercy Hospital".
	{entity.Organization, regexp.MustCompile(`\b(?:[A-Z][a-z]+\s+)+(?:Bank|Hospital|University|College|School|Clinic|Medical|Center)\b`)},
	// Numeric dates: 12/31/2024, 2024-01-05, 1.2.99.
	{entity.DateTime, regexp.MustCompile(`\b\d{1,4}[/\-.]\d{1,2}[/\-.]\d{1,4}\b`)},
	// Month-name dates: "January 5, 2024".
	{entity.DateTime, regexp.MustCompile(`\b[A-Za-z]{3,}\s+\d{1,2},\s*\d{4}\b`)},
}

func grammarCandidates(text string) []entity.Span {
	var out []entity.Span
	for _, p := range grammarPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			out = append(out, entity.Span{
				Text:  text[loc[0]:loc[1]],
				Type:  p.typ,
				Start: loc[0],
				End:   loc[1],
			})
		}
	}
	return out
}
