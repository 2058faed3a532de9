package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// signaturePrefix is how Graph prefixes the hex digest in the header.
const signaturePrefix = "sha256="

// ValidSignature verifies an HMAC-SHA256 signature header over the raw
// request body. An empty secret means the caller runs in unauthenticated
// mode and must warn-log every acceptance; this function only reports
// the comparison.
func ValidSignature(secret string, body []byte, header string) bool {
	if secret == "" {
		return true
	}

	provided := strings.TrimPrefix(header, signaturePrefix)
	digest, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), digest)
}
