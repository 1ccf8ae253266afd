package detect

import (
	"regexp"

	"github.com/cloakward-ai/cloakward/internal/entity"
)

// structuralPatterns is the regex pattern library, in evaluation order.
// Order is load-bearing: strictly-shaped numeric identifiers (credit card,
// SSN) must be tried before loosely-shaped ones (phone, account id) so the
// specific interpretation wins arbitration on overlap.
var structuralPatterns = []struct {
	typ entity.Type
	re  *regexp.Regexp
}{
	{entity.CreditCard, regexp.MustCompile(`(?im)\b(?:4\d{3}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}|4\d{15}|5[1-5]\d{2}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}|5[1-5]\d{14}|3[47]\d{2}[\s-]?\d{6}[\s-]?\d{5}|3[47]\d{13}|3[0568]\d{2}[\s-]?\d{6}[\s-]?\d{4}|3[0568]\d{12}|6(?:011|5\d{2})[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}|6(?:011|5\d{2})\d{12})\b`)},
	{entity.SSN, regexp.MustCompile(`(?im)\b\d{3}[-.\s]?\d{2}[-.\s]?\d{4}\b`)},
	{entity.Email, regexp.MustCompile(`(?im)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{entity.Phone, regexp.MustCompile(`(?im)(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}(?:\s?(?:ext|extension|x)\.?\s?\d{1,5})?\b`)},
	{entity.AccountID, regexp.MustCompile(`(?im)\b(?:ACC|ACCT|ID|REF|CASE|ORDER|TICKET|REQ)[-.\s#:]*\d{4,}(?:-\d+)*\b`)},
	{entity.ZipCode, regexp.MustCompile(`(?im)\b\d{5}(?:-\d{4})?\b`)},
	{entity.IPAddress, regexp.MustCompile(`(?im)\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)},
	{entity.URL, regexp.MustCompile(`(?im)https?://(?:[-\w.])+(?::\d+)?(?:/(?:[\w/_.])*(?:\?(?:[\w&=%.])*)?(?:#(?:[\w.])*)?)?`)},
	{entity.Passport, regexp.MustCompile(`(?im)\b[A-Z]{1,2}\d{6,9}\b`)},
	{entity.DriverLicense, regexp.MustCompile(`(?im)\b[A-Z]{1,2}[-.\s]?\d{6,8}\b`)},
	{entity.MedicalID, regexp.MustCompile(`(?im)\b(?:MRN|MR|PATIENT)[\s#:-]*\d{6,12}\b`)},
	{entity.Address, regexp.MustCompile(`(?im)\b\d+\s+(?:[A-Z][a-z]+\s+)*(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Court|Ct|Place|Pl|Way|Circle|Cir|Parkway|Pkwy)\.?\b`)},
}

// structuralCandidates runs every library pattern over the text in priority
// order and returns the raw matches.
func structuralCandidates(text string) []entity.Span {
	var out []entity.Span
	for _, p := range structuralPatterns {
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
