// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Normalizer formats numbers relative to a default region.
type Normalizer struct {
	region string
}

// NewNormalizer returns a Normalizer for region (ISO 3166 alpha-2, e.g. "US").
func NewNormalizer(region string) *Normalizer {
	return &Normalizer{region: strings.ToUpper(strings.TrimSpace(region))}
}

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func (n *Normalizer) NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, n.region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
