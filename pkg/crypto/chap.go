package crypto

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

const (
	// CHAPChallengeLength is the default length of a CHAP challenge in bytes.
	CHAPChallengeLength = 16

	// CHAPResponseLength is the length of the CHAP response (MD5 hash).
	CHAPResponseLength = 16
)

// GenerateCHAPChallenge generates a random CHAP challenge.
// Lengths outside 1..253 fall back to CHAPChallengeLength.
func GenerateCHAPChallenge(length int) ([]byte, error) {
	if length <= 0 || length > 253 {
		length = CHAPChallengeLength
	}

	challenge := make([]byte, length)
	if _, err := rand.Read(challenge); err != nil {
		return nil, fmt.Errorf("failed to generate CHAP challenge: %w", err)
	}

	return challenge, nil
}

// GenerateCHAPResponse builds a CHAP-Password value (RFC 2865 Section 5.3):
// 1 byte identifier followed by MD5(identifier + password + challenge).
func GenerateCHAPResponse(identifier byte, password, challenge []byte) []byte {
	hash := md5.New()
	hash.Write([]byte{identifier})
	hash.Write(password)
	hash.Write(challenge)

	response := make([]byte, 1+CHAPResponseLength)
	response[0] = identifier
	copy(response[1:], hash.Sum(nil))

	return response
}

// CheckCHAPPassword verifies a CHAP-Password value against the cleartext password.
func CheckCHAPPassword(chapPassword, password, challenge []byte) bool {
	if len(chapPassword) != 1+CHAPResponseLength {
		return false
	}

	expected := GenerateCHAPResponse(chapPassword[0], password, challenge)

	return subtle.ConstantTimeCompare(chapPassword, expected) == 1
}
