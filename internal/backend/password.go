package backend

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

const pbkdf2Iterations = 120_000

// hashPassword derives a salted PBKDF2-HMAC-SHA256 digest and encodes it
// as pbkdf2_sha256$<salt>$<digest>.
func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	digest := pbkdf2Key([]byte(password), salt, pbkdf2Iterations)
	return fmt.Sprintf("pbkdf2_sha256$%s$%s",
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(digest)), nil
}

// verifyPassword checks a password against an encoded hash. Malformed
// hashes verify as false, never as an error.
func verifyPassword(password, encoded string) bool {
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 || parts[0] != "pbkdf2_sha256" {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	actual := pbkdf2Key([]byte(password), salt, pbkdf2Iterations)
	return subtle.ConstantTimeCompare(actual, expected) == 1
}

// pbkdf2Key is PBKDF2 (RFC 2898) with HMAC-SHA256 for a single 32-byte
// block, which is all a sha256-sized digest needs.
func pbkdf2Key(password, salt []byte, iterations int) []byte {
	mac := hmac.New(sha256.New, password)
	mac.Write(salt)
	var block [4]byte
	binary.BigEndian.PutUint32(block[:], 1)
	mac.Write(block[:])
	u := mac.Sum(nil)

	out := make([]byte, len(u))
	copy(out, u)
	for i := 1; i < iterations; i++ {
		mac.Reset()
		mac.Write(u)
		u = mac.Sum(nil)
		for j := range out {
			out[j] ^= u[j]
		}
	}
	return out
}
