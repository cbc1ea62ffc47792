package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Fingerprint hashes a session cookie value so the cache never stores it in clear
func Fingerprint(value string) string {
	if value == "" {
		return ""
	}
	h := sha256.Sum256([]byte(value))
	return hex.EncodeToString(h[:])
}

// MatchFingerprint compares a cookie value with a stored fingerprint in constant time
func MatchFingerprint(value string, fingerprint string) bool {
	return subtle.ConstantTimeCompare(
		[]byte(Fingerprint(value)),
		[]byte(fingerprint),
	) == 1
}
