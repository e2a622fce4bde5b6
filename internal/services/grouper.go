// Submission grouper.
//
// GroupKey is the deterministic key that makes independently submitted
// duplicates converge into one review thread without coordination: equal
// inputs always produce equal keys. Duplicate detection within a thread
// compares canonical JSON serializations; encoding/json sorts object keys,
// which makes the comparison order-independent. It remains sensitive to
// type coercion differences, which is acceptable for noise reduction since
// duplicates are only demoted, never discarded.
package services

import (
	"encoding/json"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/normalize"
)

// GroupKey computes the thread key for a proposed record.
//
// Rule order:
//  1. edits to a known official thread together: "official:<id>"
//  2. a proposed email identifies the person: "email:<lowercased>"
//  3. otherwise a conservative fingerprint of
//     state|level|city|county|name|role: "fp:<fingerprint>"
func GroupKey(p domain.Proposed, kind, targetOfficialID string) string {
	if kind == domain.KindEdit && targetOfficialID != "" {
		return "official:" + targetOfficialID
	}
	if email := normalize.Email(p.Email); email != "" {
		return "email:" + email
	}
	return "fp:" + normalize.State(p.State) + "|" +
		normalize.Fingerprint(p.Level, p.City, p.County, p.FullName, p.Role)
}

// CanonicalJSON returns the canonical serialization of a proposed payload.
// Struct fields marshal in declaration order and map keys sort, so equal
// payloads serialize identically.
func CanonicalJSON(p domain.Proposed) []byte {
	b, err := json.Marshal(p)
	if err != nil {
		// Proposed contains only marshalable types; this cannot happen.
		return nil
	}
	return b
}

// ExactDuplicate reports whether two proposed payloads are byte-identical
// under canonical serialization.
func ExactDuplicate(a, b domain.Proposed) bool {
	ca, cb := CanonicalJSON(a), CanonicalJSON(b)
	if ca == nil || cb == nil {
		return false
	}
	return string(ca) == string(cb)
}
