package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// IteratedSHA256 applies SHA256 iteratively n times to produce a derived hash.
// Used for IP and fingerprint hashing so raw client identifiers never reach
// the database or the event stream.
func IteratedSHA256(input string, iterations int) string {
	data := []byte(input)
	for range iterations {
		h := sha256.Sum256(data)
		data = h[:]
	}
	return hex.EncodeToString(data)
}

// HashIP hashes an IP address with a salt using 5000 iterations of SHA256.
func HashIP(ip, salt string) string {
	return IteratedSHA256(salt+ip, 5000)
}

// HashFingerprint hashes an opaque client fingerprint token with a salt.
// The token itself is generated client-side; only the derived hash is stored
// for anti-fraud correlation.
func HashFingerprint(fingerprint, salt string) string {
	return IteratedSHA256(salt+fingerprint, 5000)
}

// ShortHash returns the first n characters of SHA256(input), used for log
// correlation without writing raw identifiers.
func ShortHash(input string, n int) string {
	full := SHA256Hex(input)
	if n > len(full) {
		return full
	}
	return full[:n]
}
