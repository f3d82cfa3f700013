// Package identity canonicalizes judge names and jurisdiction strings coming
// from the external data provider. Everything here is pure: no store access,
// no clock, same input always yields the same keys.
package identity

import (
	"strings"

	"gavel/internal/identity/jurisdiction"
)

// NormalizedIdentity is the canonical key set produced from one raw record.
type NormalizedIdentity struct {
	// NameKey is the exact-match key: lowercased surname-ordered name with
	// honorifics, suffixes, and middle initials removed.
	NameKey string
	// FuzzyKey is the phonetic bucket key (Soundex over "first last").
	FuzzyKey string
	// JurisdictionKey is the canonical hierarchy path, or
	// jurisdiction.Unresolved when the input cannot be mapped.
	JurisdictionKey string
}

// honorifics and suffixes stripped during name normalization. Matching is
// done on already-lowercased, punctuation-free tokens.
var honorifics = map[string]bool{
	"hon":       true,
	"honorable": true,
	"judge":     true,
	"justice":   true,
	"chief":     true,
	"presiding": true,
	"magistrate": true,
	"mr":        true,
	"mrs":       true,
	"ms":        true,
	"dr":        true,
}

var suffixes = map[string]bool{
	"jr":   true,
	"sr":   true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"esq":  true,
	"ret":  true,
}

// Normalizer binds name normalization to a jurisdiction hierarchy. The
// hierarchy is immutable after construction, preserving determinism.
type Normalizer struct {
	hierarchy *jurisdiction.Hierarchy
}

func New(h *jurisdiction.Hierarchy) *Normalizer {
	return &Normalizer{hierarchy: h}
}

// Normalize produces the canonical key set for a raw name and jurisdiction
// string. Unmappable jurisdictions yield the Unresolved sentinel, never an
// error: uncertainty is data, not failure.
func (n *Normalizer) Normalize(rawName, rawJurisdiction string) NormalizedIdentity {
	nameKey, fuzzyKey := NormalizeName(rawName)
	return NormalizedIdentity{
		NameKey:         nameKey,
		FuzzyKey:        fuzzyKey,
		JurisdictionKey: n.hierarchy.Resolve(rawJurisdiction),
	}
}

// NormalizeName returns the exact key and the phonetic key for a raw name.
// The exact key drops middle initials ("Jane A. Smith" and "Jane Smith"
// collide deliberately); the phonetic key is a Soundex over first+last.
func NormalizeName(raw string) (nameKey, fuzzyKey string) {
	tokens := nameTokens(raw)
	if len(tokens) == 0 {
		return "", ""
	}
	if len(tokens) == 1 {
		return tokens[0], Soundex(tokens[0])
	}

	first := tokens[0]
	last := tokens[len(tokens)-1]

	// Middle tokens survive only when longer than an initial; single-letter
	// middles are treated as initials and dropped.
	middles := make([]string, 0, len(tokens)-2)
	for _, t := range tokens[1 : len(tokens)-1] {
		if len(t) > 1 {
			middles = append(middles, t)
		}
	}

	parts := append([]string{first}, middles...)
	parts = append(parts, last)
	nameKey = strings.Join(parts, " ")
	fuzzyKey = Soundex(first + last)
	return nameKey, fuzzyKey
}

// nameTokens lowercases, strips punctuation, and removes honorifics and
// suffixes, preserving token order.
func nameTokens(raw string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, raw)

	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for i, f := range fields {
		if honorifics[f] && i < len(fields)-1 {
			continue
		}
		if suffixes[f] && i > 0 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
