// Package phone derives the canonical identity key from raw WhatsApp
// sender identifiers.
package phone

import "strings"

const countryCode = "91"

// Canonical normalizes a raw sender identifier to the canonical phone key.
// WhatsApp delivers numbers in international format without a plus, but
// user-entered numbers and some API fields carry formatting characters or
// omit the country code.
func Canonical(raw string) string {
	p := strings.TrimSpace(raw)
	for _, r := range []string{"+", " ", "-", "(", ")"} {
		p = strings.ReplaceAll(p, r, "")
	}

	// National 10-digit numbers get the country code prefixed.
	if len(p) == 10 && !strings.HasPrefix(p, countryCode) {
		p = countryCode + p
	}

	return p
}

// Valid reports whether a canonical phone looks like a usable identity
// key: digits only, at least a 10-digit national number.
func Valid(p string) bool {
	if len(p) < 10 || len(p) > 15 {
		return false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
