// Package normalize canonicalizes raw contact and identity fields so that
// equality and similarity comparisons across submissions are meaningful:
// phone numbers to a dialable form, office categories to a closed taxonomy,
// and free text to folded token sets used by the matcher and grouper.
package normalize

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// folder strips combining marks so "José" and "Jose" fold identically.
var folder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s, strips diacritics and punctuation, and collapses
// whitespace runs to single spaces. The result is the comparison form used
// across the matcher and grouper.
func Fold(s string) string {
	out, _, err := transform.String(folder, s)
	if err != nil {
		out = s
	}
	var b strings.Builder
	b.Grow(len(out))
	lastSpace := true
	for _, r := range strings.ToLower(out) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokens returns the folded token set of s as a map keyed by token.
func Tokens(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(Fold(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// Jaccard computes |a ∩ b| / |a ∪ b| over two token sets. Two empty sets
// score 0, not 1: an absent field never counts as evidence of sameness.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Slug converts a name into its normalized key form ("Climate Change" →
// "climate-change"), used as the unique key for issues.
func Slug(s string) string {
	return strings.ReplaceAll(Fold(s), " ", "-")
}

// Fingerprint joins parts with pipes after folding each, producing the
// conservative same-person key used when no email is available.
func Fingerprint(parts ...string) string {
	folded := make([]string, len(parts))
	for i, p := range parts {
		folded[i] = Fold(p)
	}
	return strings.Join(folded, "|")
}

// Phone coerces a raw phone string to a dialable +<digits> form.
// Rules:
//   - anything after an extension marker ("x", "ext") is dropped
//   - 10 digits are assumed to be NANP and prefixed with +1
//   - 11 digits starting with 1 become +<digits>
//   - an explicit international number keeps its country code
//
// Returns "" when the input cannot be coerced; callers discard such numbers.
func Phone(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}
	for _, marker := range []string{"ext", "x"} {
		if i := strings.Index(s, marker); i > 0 {
			s = s[:i]
		}
	}
	intl := strings.HasPrefix(strings.TrimSpace(s), "+")
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 10:
		return "+1" + d
	case len(d) == 11 && d[0] == '1':
		return "+" + d
	case intl && len(d) >= 8 && len(d) <= 15:
		return "+" + d
	default:
		return ""
	}
}

// categoryAliases maps folded category/role text onto the closed office
// taxonomy. Keys are matched as substrings of the folded input, longest
// key first, so "county commissioner" wins over "commissioner".
var categoryAliases = map[string]string{
	"mayor":               "mayor",
	"city council":        "city-council",
	"councilmember":       "city-council",
	"council member":      "city-council",
	"councilor":           "city-council",
	"councilwoman":        "city-council",
	"councilman":          "city-council",
	"alder":               "city-council",
	"council":             "city-council",
	"county commission":   "county-commission",
	"commissioner":        "county-commission",
	"supervisor":          "county-commission",
	"school board":        "school-board",
	"board of education":  "school-board",
	"state senate":        "state-senate",
	"state senator":       "state-senate",
	"state house":         "state-house",
	"state rep":           "state-house",
	"assembly":            "state-house",
	"delegate":            "state-house",
	"us senate":           "us-senate",
	"united states senat": "us-senate",
	"senator":             "us-senate",
	"senate":              "us-senate",
	"us house":            "us-house",
	"congress":            "us-house",
	"representative":      "us-house",
	"governor":            "governor",
	"attorney general":    "attorney-general",
	"secretary of state":  "secretary-of-state",
	"sheriff":             "sheriff",
	"clerk":               "clerk",
	"treasurer":           "treasurer",
	"assessor":            "assessor",
	"judge":               "judge",
	"tribal":              "tribal-council",
}

// aliasKeys is categoryAliases' keys sorted longest first for deterministic
// substring matching.
var aliasKeys = func() []string {
	keys := make([]string, 0, len(categoryAliases))
	for k := range categoryAliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Category maps raw category text onto the closed taxonomy, falling back to
// inference from the role text ("City Council Member, District 4" →
// "city-council"). When neither yields a match the raw category is returned
// unchanged and left to downstream validation.
func Category(rawCategory, role string) string {
	for _, candidate := range []string{Fold(rawCategory), Fold(role)} {
		if candidate == "" {
			continue
		}
		if canon, ok := categoryAliases[candidate]; ok {
			return canon
		}
		for _, key := range aliasKeys {
			if strings.Contains(candidate, key) {
				return categoryAliases[key]
			}
		}
	}
	return strings.TrimSpace(rawCategory)
}

// State uppercases and trims a state code.
func State(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// Email lowercases and trims an email address.
func Email(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// WellFormedEmail is a cheap shape check: one "@", a dot in the domain, no
// spaces. Deliverability is not this layer's problem.
func WellFormedEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return false
	}
	dom := s[at+1:]
	if !strings.Contains(dom, ".") || strings.HasPrefix(dom, ".") || strings.HasSuffix(dom, ".") {
		return false
	}
	return !strings.ContainsAny(s, " \t")
}
