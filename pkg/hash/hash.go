package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// ShortLen is the number of hex characters kept by Short.
const ShortLen = 12

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Short returns an irreversible hash prefix of input, used to correlate IPs
// and user IDs in logs without writing the raw value.
func Short(input string) string {
	if input == "" {
		return ""
	}
	return SHA256Hex(input)[:ShortLen]
}

// CacheKey derives a stable key fragment for an arbitrary identifier.
func CacheKey(prefix, id string) string {
	return prefix + ":" + Short(id)
}
