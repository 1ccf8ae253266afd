package detect

import (
	"regexp"
	"strings"

	"github.com/cloakward-ai/cloakward/internal/entity"
)

// keyValueRules extract values from labeled fields ("Account Number: ...").
// Only the captured value group becomes a candidate span; the label itself
// is excluded. These run before every other source so that field context
// wins over shape (a ten-digit string after "Account Number:" is an account
// number, not a phone).
var keyValueRules = []struct {
	re  *regexp.Regexp
	typ entity.Type
}{
	{regexp.MustCompile(`(?i)Account\s+Number:\s*(\d{8,17})`), entity.AccountNumber},
	{regexp.MustCompile(`(?i)Employee\s+ID:\s*(\w{3,15})`), entity.EmployeeID},
	{regexp.MustCompile(`(?i)Application\s+Number:\s*(\w{3,15})`), entity.ApplicationNumber},
	{regexp.MustCompile(`(?i)Phone\s+Number:\s*(\+?[0-9\s()\-.]{10,20})`), entity.Phone},
	{regexp.MustCompile(`(?i)Name:\s*([A-Z][a-zA-Z\s]{2,30})`), entity.PersonName},
}

func keyValueCandidates(text string) []entity.Span {
	var out []entity.Span
	for _, rule := range keyValueRules {
		for _, m := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			if len(m) < 4 || m[2] < 0 || m[3] <= m[2] {
				continue
			}
			start, end := trimSpan(text, m[2], m[3])
			if end <= start {
				continue
			}
			out = append(out, entity.Span{
				Text:  text[start:end],
				Type:  rule.typ,
				Start: start,
				End:   end,
			})
		}
	}
	return out
}

// trimSpan narrows [start,end) so it carries no leading or trailing
// whitespace. The capture groups above can swallow trailing spaces or
// newlines; the span must cover the value only.
func trimSpan(text string, start, end int) (int, int) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return start, end
}

func isSpace(b byte) bool {
	return strings.IndexByte(" \t\r\n\v\f", b) >= 0
}
