package transform

import (
	"regexp"
	"strings"

	"github.com/cloakward-ai/cloakward/internal/entity"
)

// maskers are the per-type partial-reveal rules. Types without an entry use
// maskGeneric.
var maskers = map[entity.Type]func(string) string{
	entity.Email:        maskEmail,
	entity.CreditCard:   maskCreditCard,
	entity.Phone:        maskPhone,
	entity.SSN:          maskSSN,
	entity.ZipCode:      maskZip,
	entity.AccountID:    maskAccountID,
	entity.PersonName:   maskWords,
	entity.Organization: maskWords,
	entity.Address:      maskAddress,
	entity.IPAddress:    maskIP,
	entity.URL:          maskURL,
}

func maskSpan(text string, typ entity.Type) string {
	if text == "" {
		return text
	}
	if f, ok := maskers[typ]; ok {
		return f(text)
	}
	return maskGeneric(text)
}

// maskEmail shows the first one or two local-part characters and the full
// domain.
func maskEmail(text string) string {
	local, domain, ok := strings.Cut(text, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return text[:1] + strings.Repeat("*", len(text)-1)
	}
	if len(local) > 3 {
		return local[:2] + strings.Repeat("*", len(local)-2) + "@" + domain
	}
	return local[:1] + strings.Repeat("*", len(local)-1) + "@" + domain
}

// maskCreditCard shows the first four and last four digits.
func maskCreditCard(text string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, text)
	if len(clean) >= 8 {
		return clean[:4] + "-XXXX-XXXX-" + clean[len(clean)-4:]
	}
	if len(clean) > 2 {
		return clean[:2] + strings.Repeat("*", len(clean)-2)
	}
	return clean
}

var phoneShapeRe = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

// maskPhone preserves the area-code-like structure: the first three and
// last three digits stay visible, interior digits become X, separators are
// kept in place.
func maskPhone(text string) string {
	if !phoneShapeRe.MatchString(text) {
		if len(text) <= 3 {
			return text
		}
		return text[:3] + strings.Repeat("X", len(text)-3)
	}

	total := 0
	for _, r := range text {
		if r >= '0' && r <= '9' {
			total++
		}
	}
	var b strings.Builder
	seen := 0
	for _, r := range text {
		if r >= '0' && r <= '9' {
			seen++
			if seen <= 3 || seen > total-3 {
				b.WriteRune(r)
			} else {
				b.WriteByte('X')
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// maskSSN shows the first three digits.
func maskSSN(text string) string {
	if strings.Contains(text, "-") {
		area, _, _ := strings.Cut(text, "-")
		return area + "-XX-XXXX"
	}
	if len(text) <= 3 {
		return text
	}
	return text[:3] + strings.Repeat("X", len(text)-3)
}

// maskZip shows the leading three digits of the five-digit portion.
func maskZip(text string) string {
	if strings.Contains(text, "-") {
		zip, _, _ := strings.Cut(text, "-")
		if len(zip) >= 3 {
			return zip[:3] + "**-****"
		}
		return text
	}
	if len(text) < 3 {
		return text
	}
	return text[:3] + "**"
}

// maskAccountID keeps the letter prefix and the trailing character.
func maskAccountID(text string) string {
	if len(text) > 6 {
		digitStart := strings.IndexFunc(text, func(r rune) bool { return r >= '0' && r <= '9' })
		if digitStart > 0 {
			prefix, rest := text[:digitStart], text[digitStart:]
			if len(rest) > 4 {
				return prefix + strings.Repeat("*", len(rest)-1) + rest[len(rest)-1:]
			}
			return prefix + strings.Repeat("*", len(rest))
		}
		return text[:2] + strings.Repeat("*", len(text)-3) + text[len(text)-1:]
	}
	return text[:1] + strings.Repeat("*", len(text)-1)
}

// maskWords shows the first letter of each word.
func maskWords(text string) string {
	words := strings.Fields(text)
	masked := make([]string, len(words))
	for i, w := range words {
		switch {
		case len(w) > 2:
			masked[i] = w[:1] + strings.Repeat("*", len(w)-1)
		case len(w) == 2:
			masked[i] = w[:1] + "*"
		default:
			masked[i] = "*"
		}
	}
	return strings.Join(masked, " ")
}

// maskAddress keeps the leading street number and the first letter of the
// following words.
func maskAddress(text string) string {
	parts := strings.Fields(text)
	if len(parts) > 1 && isDigits(parts[0]) {
		masked := make([]string, 0, len(parts))
		masked = append(masked, parts[0])
		for _, part := range parts[1:] {
			if len(part) > 1 {
				masked = append(masked, part[:1]+strings.Repeat("*", len(part)-1))
			} else {
				masked = append(masked, "*")
			}
		}
		return strings.Join(masked, " ")
	}
	masked := make([]string, len(parts))
	for i, w := range parts {
		if len(w) > 1 {
			masked[i] = w[:1] + strings.Repeat("*", len(w)-1)
		} else {
			masked[i] = "*"
		}
	}
	return strings.Join(masked, " ")
}

// maskIP shows the first octet.
func maskIP(text string) string {
	octets := strings.Split(text, ".")
	if len(octets) == 4 {
		return octets[0] + ".XXX.XXX.XXX"
	}
	if len(text) <= 3 {
		return text
	}
	return text[:3] + strings.Repeat("*", len(text)-3)
}

// maskURL shows protocol and domain, masks the path.
func maskURL(text string) string {
	if proto, rest, ok := strings.Cut(text, "://"); ok {
		if domain, _, hasPath := strings.Cut(rest, "/"); hasPath {
			return proto + "://" + domain + "/***"
		}
		return text
	}
	if len(text) <= 5 {
		return text
	}
	return text[:5] + strings.Repeat("*", len(text)-5)
}

// maskGeneric shows the first letter of each word, or first+last character
// for a single word.
func maskGeneric(text string) string {
	words := strings.Fields(text)
	if len(words) > 1 {
		masked := make([]string, len(words))
		for i, w := range words {
			if len(w) > 1 {
				masked[i] = w[:1] + strings.Repeat("*", len(w)-1)
			} else {
				masked[i] = "*"
			}
		}
		return strings.Join(masked, " ")
	}
	switch {
	case len(text) > 3:
		return text[:1] + strings.Repeat("*", len(text)-2) + text[len(text)-1:]
	case len(text) > 1:
		return text[:1] + strings.Repeat("*", len(text)-1)
	default:
		return "*"
	}
}

func isDigits(s string) bool {
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
