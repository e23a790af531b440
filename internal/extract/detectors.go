package extract

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"carddex/internal/contact"
	"carddex/internal/ocr"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`[+(]?\d[\d\s().\-/]*\d`)
	urlRe   = regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?[a-z0-9][a-z0-9-]*(?:\.[a-z0-9-]+)*\.(?:com|net|org|io|co|biz|info|dev|de|at|ch|uk|us|ca|eu)\b[/\w.-]*`)
	digitRe = regexp.MustCompile(`\d`)

	streetRe = regexp.MustCompile(`(?i)\b\d+\s+\S+.*\b(?:st|street|ave|avenue|rd|road|blvd|boulevard|lane|ln|dr|drive|way|plaza|suite|ste|floor|fl)\b`)
	zipRe    = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
)

// mobileKeywords and businessKeywords classify a phone line by its label.
var (
	mobileKeywords   = []string{"mobile", "cell", "mobil", "m:", "mob"}
	businessKeywords = []string{"office", "work", "tel", "phone", "bus", "o:", "t:", "fax"}
)

var companySuffixes = []string{
	"inc", "incorporated", "llc", "llp", "ltd", "limited", "corp", "corporation",
	"co", "company", "gmbh", "ag", "plc", "sa", "srl", "bv", "oy", "ab",
	"group", "holdings", "partners", "ventures", "associates",
	"solutions", "technologies", "systems", "labs", "studio", "studios",
	"consulting", "agency", "industries", "enterprises",
}

var titleKeywords = []string{
	"manager", "director", "engineer", "developer", "architect", "designer",
	"consultant", "analyst", "specialist", "coordinator", "administrator",
	"president", "founder", "owner", "partner", "principal", "chief",
	"ceo", "cto", "cfo", "coo", "cio", "vp", "vice president",
	"head of", "lead", "officer", "executive", "representative",
	"sales", "marketing", "account",
}

var (
	companyMatcher = newWordMatcher(companySuffixes)
	titleMatcher   = newWordMatcher(titleKeywords)
)

// wordMatcher wraps an Aho-Corasick matcher with word-boundary normalization:
// lines are lowercased, punctuation collapses to spaces, and every pattern is
// space-padded so "corp" matches "Acme Corp." but not "corporate housing".
type wordMatcher struct {
	m *ahocorasick.Matcher
}

func newWordMatcher(words []string) wordMatcher {
	padded := make([][]byte, len(words))
	for i, w := range words {
		padded[i] = []byte(" " + w + " ")
	}
	return wordMatcher{m: ahocorasick.NewMatcher(padded)}
}

func (wm wordMatcher) matches(line string) bool {
	normalized := strings.ToLower(line)
	normalized = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', ';', ':', '|', '(', ')':
			return ' '
		}
		return r
	}, normalized)
	return len(wm.m.Match([]byte(" "+normalized+" "))) > 0
}

// EmailDetector returns the first well-formed email address, unchanged.
type EmailDetector struct{}

func (EmailDetector) Name() string { return "email" }

func (EmailDetector) Detect(t Text) []Detection {
	match := emailRe.FindString(t.Raw)
	if match == "" {
		return nil
	}
	return []Detection{{Field: contact.FieldEmail, Value: match}}
}

// PhoneDetector extracts phone numbers with their original formatting. A
// candidate is plausible when it carries 7 to 15 digits; anything shorter or
// longer is dropped rather than guessed. The first number lands in the mobile
// slot unless its line is labeled otherwise; a second distinct number fills
// the business slot.
type PhoneDetector struct{}

func (PhoneDetector) Name() string { return "phone" }

func (PhoneDetector) Detect(t Text) []Detection {
	var mobile, business string
	assign := func(value string, isBusiness bool) {
		switch {
		case isBusiness && business == "":
			business = value
		case !isBusiness && mobile == "":
			mobile = value
		case mobile == "":
			mobile = value
		case business == "":
			business = value
		}
	}

	for _, line := range t.Lines {
		for _, match := range phoneRe.FindAllString(line, -1) {
			candidate := strings.TrimSpace(match)
			digits := len(digitRe.FindAllString(candidate, -1))
			if digits < 7 || digits > 15 {
				continue
			}
			if candidate == mobile || candidate == business {
				continue
			}
			assign(candidate, hasKeyword(line, businessKeywords) && !hasKeyword(line, mobileKeywords))
		}
	}

	var out []Detection
	if mobile != "" {
		out = append(out, Detection{Field: contact.FieldMobilePhone, Value: mobile})
	}
	if business != "" {
		out = append(out, Detection{Field: contact.FieldBusinessPhone, Value: business})
	}
	return out
}

func hasKeyword(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// NameDetector guesses the person's name. With layout available it picks the
// tallest plausible line (card names are usually set in the largest type);
// otherwise the first line that is not an email, phone, URL, or company line.
// The guess is split into first and last name on whitespace.
type NameDetector struct{}

func (NameDetector) Name() string { return "name" }

func (NameDetector) Detect(t Text) []Detection {
	line := nameLine(t)
	if line == "" {
		return nil
	}
	parts := strings.Fields(line)
	if len(parts) == 1 {
		return []Detection{{Field: contact.FieldFirstName, Value: parts[0]}}
	}
	return []Detection{
		{Field: contact.FieldFirstName, Value: parts[0]},
		{Field: contact.FieldLastName, Value: parts[len(parts)-1]},
	}
}

func nameLine(t Text) string {
	if len(t.Layout) > 0 {
		best, bestHeight := "", 0.0
		for _, line := range t.Layout {
			text := strings.TrimSpace(line.Text)
			if !isNameCandidate(text) {
				continue
			}
			h := meanWordHeight(line)
			if h > bestHeight {
				best, bestHeight = text, h
			}
		}
		if best != "" {
			return best
		}
	}
	for _, line := range t.Lines {
		if isNameCandidate(line) {
			return line
		}
	}
	return ""
}

func isNameCandidate(line string) bool {
	if line == "" || len(line) > 40 {
		return false
	}
	if emailRe.MatchString(line) || urlRe.MatchString(line) || digitRe.MatchString(line) {
		return false
	}
	if companyMatcher.matches(line) || titleMatcher.matches(line) {
		return false
	}
	words := len(strings.Fields(line))
	return words >= 1 && words <= 4
}

func meanWordHeight(line ocr.TextLine) float64 {
	if len(line.Words) == 0 {
		return line.Bounds.Height
	}
	var sum float64
	for _, w := range line.Words {
		sum += w.Bounds.Height
	}
	return sum / float64(len(line.Words))
}

// TitleDetector picks the first line carrying a job-title keyword.
type TitleDetector struct{}

func (TitleDetector) Name() string { return "title" }

func (TitleDetector) Detect(t Text) []Detection {
	for _, line := range t.Lines {
		if emailRe.MatchString(line) || urlRe.MatchString(line) {
			continue
		}
		if companyMatcher.matches(line) {
			continue
		}
		if titleMatcher.matches(line) {
			return []Detection{{Field: contact.FieldJobTitle, Value: line}}
		}
	}
	return nil
}

// CompanyDetector picks the first line carrying a corporate suffix, falling
// back to the line that follows the detected name.
type CompanyDetector struct{}

func (CompanyDetector) Name() string { return "company" }

func (CompanyDetector) Detect(t Text) []Detection {
	for _, line := range t.Lines {
		if emailRe.MatchString(line) || digitRe.MatchString(line) {
			continue
		}
		if companyMatcher.matches(line) {
			return []Detection{{Field: contact.FieldCompany, Value: line}}
		}
	}

	name := nameLine(t)
	for i, line := range t.Lines {
		if line != name || i+1 >= len(t.Lines) {
			continue
		}
		next := t.Lines[i+1]
		if emailRe.MatchString(next) || digitRe.MatchString(next) || titleMatcher.matches(next) {
			break
		}
		return []Detection{{Field: contact.FieldCompany, Value: next}}
	}
	return nil
}

// WebsiteDetector finds a web address on a line that is not an email line.
type WebsiteDetector struct{}

func (WebsiteDetector) Name() string { return "website" }

func (WebsiteDetector) Detect(t Text) []Detection {
	for _, line := range t.Lines {
		if strings.Contains(line, "@") {
			continue
		}
		if match := urlRe.FindString(line); match != "" {
			return []Detection{{Field: contact.FieldWebsite, Value: match}}
		}
	}
	return nil
}

// AddressDetector joins consecutive street-or-ZIP lines into one address.
type AddressDetector struct{}

func (AddressDetector) Name() string { return "address" }

func (AddressDetector) Detect(t Text) []Detection {
	var parts []string
	for _, line := range t.Lines {
		if phoneLikeLine(line) {
			continue
		}
		if streetRe.MatchString(line) || zipRe.MatchString(line) {
			parts = append(parts, line)
			continue
		}
		if len(parts) > 0 {
			break
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return []Detection{{Field: contact.FieldAddress, Value: strings.Join(parts, ", ")}}
}

func phoneLikeLine(line string) bool {
	for _, match := range phoneRe.FindAllString(line, -1) {
		digits := len(digitRe.FindAllString(match, -1))
		if digits >= 7 && digits <= 15 {
			return true
		}
	}
	return false
}
