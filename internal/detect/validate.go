package detect

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/cloakward-ai/cloakward/internal/entity"
)

// fieldLabels are label terms that detectors sometimes mistake for values
// ("Phone Number: John Doe" must never yield "Phone Number" as a name).
// The filter applies only to unstructured categories; structured types
// (email, phone, SSN...) have their own shape rules.
var fieldLabels = []string{
	"phone number", "email", "address", "account number", "employee id",
	"application number", "name", "contact", "information", "details",
	"verification", "request", "department", "status", "update", "date",
	"salary", "position", "title", "id", "number", "code", "reference",
	"date of birth", "first name", "last name", "document number",
	"social security number", "passport number", "driver license",
	"license number", "credit card number", "phone", "mobile", "cell",
}

var orgTerms = map[string]bool{
	"hr": true, "human resources": true, "department": true, "team": true,
	"company": true, "corporation": true, "inc": true, "llc": true,
	"ltd": true, "co": true, "organization": true, "office": true,
	"division": true,
}

// commonFirstNames is a small allowlist for single-word person names.
var commonFirstNames = map[string]bool{
	"john": true, "jane": true, "michael": true, "sarah": true,
	"david": true, "mary": true, "james": true, "jennifer": true,
}

var (
	zipShapeRe       = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)
	accountIDShapeRe = regexp.MustCompile(`(?i)^[A-Z]{2,4}[-.\s#:]*\d{4,}`)
	separatorRe      = regexp.MustCompile(`[()\-.\s]`)
	numberWordsRe    = regexp.MustCompile(`^\d+\s+words\b`)
)

// Valid applies the per-type acceptance rule to a candidate. Rules are pure
// and total: anything that fails to parse rejects the candidate rather than
// propagating, so one bad candidate never aborts detection of the rest.
// Types without a listed rule are accepted.
func Valid(text string, typ entity.Type) bool {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	switch typ {
	case entity.PersonName, entity.Organization, entity.Location:
		for _, label := range fieldLabels {
			if lower == label || strings.Contains(lower, label) {
				return false
			}
		}
		if typ != entity.PersonName {
			return true
		}
		return validPersonName(trimmed, lower)

	case entity.Phone:
		return validPhone(trimmed)

	case entity.AccountNumber:
		d := digitCount(trimmed)
		return d >= 8 && d <= 17

	case entity.EmployeeID, entity.ApplicationNumber:
		return len(trimmed) >= 3 && len(trimmed) <= 15

	case entity.Email:
		return validEmail(trimmed)

	case entity.CreditCard:
		return validCreditCard(trimmed)

	case entity.SSN:
		return digitCount(trimmed) == 9

	case entity.IPAddress:
		return validIP(trimmed)

	case entity.URL:
		return strings.Contains(lower, "http") || strings.Contains(lower, "www") ||
			strings.Contains(lower, ".com") || strings.Contains(lower, ".org") ||
			strings.Contains(lower, ".net")

	case entity.DateTime:
		return validDateTime(trimmed)

	case entity.ZipCode:
		return zipShapeRe.MatchString(trimmed)

	case entity.AccountID:
		return len(trimmed) >= 5 && accountIDShapeRe.MatchString(trimmed)

	case entity.Address:
		if numberWordsRe.MatchString(lower) {
			return false
		}
		return len(trimmed) >= 5 && strings.ContainsFunc(trimmed, unicode.IsLetter)
	}

	return true
}

func validPersonName(trimmed, lower string) bool {
	if orgTerms[lower] {
		return false
	}
	for _, frag := range []string{"number", "id", "code", "account", "employee"} {
		if strings.Contains(lower, frag) {
			return false
		}
	}
	if len(strings.Fields(trimmed)) == 1 && !commonFirstNames[lower] {
		r := []rune(trimmed)
		if len(r) == 0 || !unicode.IsUpper(r[0]) {
			return false
		}
	}
	return true
}

func validPhone(text string) bool {
	d := digitCount(text)
	if d < 7 {
		return false
	}
	hasSep := separatorRe.MatchString(text)
	if d < 10 && !hasSep {
		return false
	}
	if d > 15 {
		return false
	}
	// 13+ digits in a row is a card or account number, not a phone.
	if longestDigitRun(text) >= 13 {
		return false
	}
	if d > 11 && !hasSep {
		return false
	}
	return true
}

func validEmail(text string) bool {
	local, domain, ok := strings.Cut(text, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	if local == "" {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	for _, part := range strings.Split(domain, ".") {
		if part == "" {
			return false
		}
	}
	return true
}

// validCreditCard checks digit count plus the issuer prefix/length pairs:
// Amex/Diners (3xxx, 14-15), Visa (4xxx, 13 or 16), Mastercard (51-55, 16),
// Discover (6xxx, 16). Anything else is not a recognized card shape.
func validCreditCard(text string) bool {
	digits := digitsOnly(text)
	n := len(digits)
	if n < 13 || n > 19 {
		return false
	}
	switch digits[0] {
	case '3':
		return n == 14 || n == 15
	case '4':
		return n == 13 || n == 16
	case '5':
		return n == 16 && digits[1] >= '1' && digits[1] <= '5'
	case '6':
		return n == 16
	}
	return false
}

func validIP(text string) bool {
	parts := strings.Split(text, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 || v > 255 {
			return false
		}
	}
	return true
}

// validDateTime rejects shapes that belong to other categories: ZIP codes,
// prefixed account IDs, digit strings with non-date lengths, and
// dash-delimited alphanumeric codes.
func validDateTime(text string) bool {
	if zipShapeRe.MatchString(text) {
		return false
	}
	if accountIDShapeRe.MatchString(text) {
		return false
	}
	if isAllDigits(text) {
		switch n := len(text); {
		case n == 5, n == 7, n > 8:
			return false
		}
	}
	if strings.Count(text, "-") >= 2 && strings.ContainsFunc(text, unicode.IsLetter) {
		return false
	}
	return true
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func longestDigitRun(s string) int {
	run, best := 0, 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
