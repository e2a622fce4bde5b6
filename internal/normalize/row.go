// Row normalization for ingest.
//
// Bulk sources (spreadsheets, pasted JSON) arrive with loosely-keyed
// headers: arbitrary casing and spacing, dotted jurisdiction paths
// ("jurisdiction.city"), and JSON embedded in cells under "_json" suffixed
// headers. This file maps those rows onto the typed Proposed patch, dropping
// any key outside the allowed field set.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathanduvan/gov-reach/internal/domain"
)

// fieldAliases maps folded header names (spaces, underscores, dashes and
// dots removed) onto canonical Proposed fields.
var fieldAliases = map[string]string{
	"fullname":          "fullName",
	"name":              "fullName",
	"officialname":      "fullName",
	"role":              "role",
	"title":             "role",
	"position":          "role",
	"email":             "email",
	"emailaddress":      "email",
	"contactemail":      "email",
	"state":             "state",
	"statecode":         "state",
	"category":          "category",
	"office":            "category",
	"officetype":        "category",
	"officecategory":    "category",
	"level":             "level",
	"jurisdictionlevel": "level",
	"govlevel":          "level",
	"city":              "city",
	"municipality":      "city",
	"jurisdictioncity":  "city",
	"county":            "county",
	"jurisdictioncounty": "county",
	"district":            "district",
	"jurisdictiondistrict": "district",
	"phone":        "phones",
	"phonenumber":  "phones",
	"phonenumbers": "phones",
	"phones":       "phones",
	"committees":   "committees",
	"committee":    "committees",
	"issues":       "issues",
	"issue":        "issues",
	"issueareas":   "issues",
	"partners":     "partners",
	"partner":      "partners",
	"organization": "partners",
	"org":          "partners",
}

// foldKey collapses a raw header to its alias-lookup form.
func foldKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	for _, cut := range []string{" ", "_", "-", "."} {
		k = strings.ReplaceAll(k, cut, "")
	}
	return k
}

// Row converts one loosely-keyed row object into a Proposed patch. Unknown
// keys are ignored. A second return value collects field-level parse
// problems (malformed embedded JSON that survived repair); the caller records
// them as row errors but the rest of the row is still usable.
func Row(raw map[string]any) (domain.Proposed, []string) {
	var p domain.Proposed
	var errs []string

	for key, val := range raw {
		if val == nil {
			continue
		}
		k := foldKey(key)
		jsonCell := strings.HasSuffix(k, "json")
		if jsonCell {
			k = strings.TrimSuffix(k, "json")
		}

		// Nested jurisdiction objects: {"jurisdiction": {"city": ...}}
		if k == "jurisdiction" {
			if m, ok := val.(map[string]any); ok {
				for sub, sv := range m {
					assignScalar(&p, foldKey(sub), sv)
				}
			}
			continue
		}

		field, ok := fieldAliases[k]
		if !ok {
			continue
		}

		switch field {
		case "phones":
			phones, err := coercePhones(val, jsonCell)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				continue
			}
			p.Phones = append(p.Phones, phones...)
		case "committees":
			items, err := coerceStrings(val, jsonCell)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				continue
			}
			p.Committees = append(p.Committees, items...)
		case "issues":
			items, err := coerceStrings(val, jsonCell)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				continue
			}
			p.Issues = append(p.Issues, items...)
		case "partners":
			items, err := coerceStrings(val, jsonCell)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				continue
			}
			p.Partners = append(p.Partners, items...)
		default:
			assignScalar(&p, foldKey(field), val)
		}
	}
	return p, errs
}

// assignScalar writes a scalar cell into the matching Proposed field.
func assignScalar(p *domain.Proposed, field string, val any) {
	s := strings.TrimSpace(fmt.Sprintf("%v", val))
	if s == "" {
		return
	}
	switch field {
	case "fullname":
		p.FullName = s
	case "role":
		p.Role = s
	case "email":
		p.Email = Email(s)
	case "state":
		p.State = State(s)
	case "category":
		p.Category = s
	case "level":
		p.Level = strings.ToLower(s)
	case "city":
		p.City = s
	case "county":
		p.County = s
	case "district":
		p.District = s
	}
}

// repairJSON attempts the one repair worth having for spreadsheet cells:
// single quotes where JSON needs double quotes.
func repairJSON(s string) string {
	return strings.ReplaceAll(s, "'", `"`)
}

// decodeCell parses an embedded-JSON cell into out, retrying once with
// quote repair.
func decodeCell(s string, out any) error {
	if err := json.Unmarshal([]byte(s), out); err == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(repairJSON(s)), out); err != nil {
		return fmt.Errorf("malformed embedded JSON")
	}
	return nil
}

// coercePhones turns a cell into a normalized phone list. Accepted shapes:
// a bare string (one number, or semicolon/comma separated), a JSON array of
// strings or phone objects, or an already-decoded []any. Numbers that cannot
// be coerced to dialable form are discarded.
func coercePhones(val any, jsonCell bool) ([]domain.Phone, error) {
	var out []domain.Phone
	add := func(number, label string, rank int, verified bool) {
		if n := Phone(number); n != "" {
			out = append(out, domain.Phone{Number: n, Label: label, Rank: rank, Verified: verified})
		}
	}

	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		if jsonCell || strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
			var items []map[string]any
			if err := decodeCell(s, &items); err == nil {
				for i, m := range items {
					add(str(m["number"]), str(m["label"]), i, false)
				}
				return out, nil
			}
			var strs []string
			if err := decodeCell(s, &strs); err != nil {
				return nil, err
			}
			for i, n := range strs {
				add(n, "", i, false)
			}
			return out, nil
		}
		for i, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
			add(part, "", i, false)
		}
		return out, nil
	case []any:
		for i, item := range v {
			switch it := item.(type) {
			case string:
				add(it, "", i, false)
			case map[string]any:
				add(str(it["number"]), str(it["label"]), i, false)
			}
		}
		return out, nil
	case map[string]any:
		add(str(v["number"]), str(v["label"]), 0, false)
		return out, nil
	default:
		return nil, nil
	}
}

// coerceStrings turns a cell into a string list: bare scalar, comma or
// semicolon separated string, JSON array, or decoded []any.
func coerceStrings(val any, jsonCell bool) ([]string, error) {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		if jsonCell || strings.HasPrefix(s, "[") {
			var items []string
			if err := decodeCell(s, &items); err != nil {
				return nil, err
			}
			return trimAll(items), nil
		}
		return trimAll(strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })), nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, str(item))
		}
		return trimAll(items), nil
	default:
		s := strings.TrimSpace(str(v))
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
}

func trimAll(items []string) []string {
	out := items[:0]
	for _, s := range items {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
