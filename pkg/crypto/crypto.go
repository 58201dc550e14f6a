package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

// AuthenticatorLength is the length of RADIUS authenticators in bytes
const AuthenticatorLength = 16

const headerLength = 20

// Authenticator represents a 16-byte RADIUS authenticator
type Authenticator [AuthenticatorLength]byte

var (
	// ErrAuthenticatorMismatch indicates authenticator validation failed
	ErrAuthenticatorMismatch = errors.New("authenticator validation failed")
	// ErrMessageAuthenticatorMismatch indicates Message-Authenticator validation failed
	ErrMessageAuthenticatorMismatch = errors.New("message-authenticator validation failed")
	// ErrShortPacket indicates the data is shorter than a RADIUS header
	ErrShortPacket = errors.New("packet shorter than header")
)

// GenerateRequestAuthenticator generates a random Request Authenticator
func GenerateRequestAuthenticator() (Authenticator, error) {
	var auth Authenticator
	_, err := rand.Read(auth[:])
	if err != nil {
		return auth, fmt.Errorf("failed to generate random authenticator: %w", err)
	}
	return auth, nil
}

// CalculateResponseAuthenticator calculates the Response Authenticator as defined in RFC 2865
// Response Authenticator = MD5(Code + ID + Length + Request Authenticator + Response Attributes + Secret)
func CalculateResponseAuthenticator(code uint8, identifier uint8, length uint16, requestAuth Authenticator, responseData []byte, sharedSecret []byte) Authenticator {
	hash := md5.New()

	hash.Write([]byte{code, identifier})
	hash.Write([]byte{byte(length >> 8), byte(length)})
	hash.Write(requestAuth[:])
	hash.Write(responseData)
	hash.Write(sharedSecret)

	var result Authenticator
	copy(result[:], hash.Sum(nil))
	return result
}

// ValidateResponseAuthenticator validates a Response Authenticator
func ValidateResponseAuthenticator(code uint8, identifier uint8, length uint16, requestAuth Authenticator, responseData []byte, receivedAuth Authenticator, sharedSecret []byte) bool {
	expected := CalculateResponseAuthenticator(code, identifier, length, requestAuth, responseData, sharedSecret)
	return hmac.Equal(expected[:], receivedAuth[:])
}

// VerifyResponse checks the Response Authenticator of an encoded response packet
// against the authenticator of the request it answers.
func VerifyResponse(data []byte, requestAuth Authenticator, sharedSecret []byte) error {
	if len(data) < headerLength {
		return ErrShortPacket
	}
	length := binary.BigEndian.Uint16(data[2:4])
	if int(length) < headerLength || int(length) > len(data) {
		return fmt.Errorf("%w: length field %d", ErrShortPacket, length)
	}

	var received Authenticator
	copy(received[:], data[4:20])

	if !ValidateResponseAuthenticator(data[0], data[1], length, requestAuth, data[headerLength:length], received, sharedSecret) {
		return ErrAuthenticatorMismatch
	}
	return nil
}

// SignResponse writes the Response Authenticator into an encoded response
// whose authenticator field is ignored on input.
func SignResponse(data []byte, requestAuth Authenticator, sharedSecret []byte) error {
	if len(data) < headerLength {
		return ErrShortPacket
	}
	length := binary.BigEndian.Uint16(data[2:4])
	if int(length) != len(data) {
		return fmt.Errorf("%w: length field %d, buffer %d", ErrShortPacket, length, len(data))
	}

	auth := CalculateResponseAuthenticator(data[0], data[1], length, requestAuth, data[headerLength:], sharedSecret)
	copy(data[4:20], auth[:])
	return nil
}

// String returns a hex representation of the authenticator
func (a Authenticator) String() string {
	return fmt.Sprintf("%x", a[:])
}

// Equal compares two authenticators in constant time
func (a Authenticator) Equal(other Authenticator) bool {
	return hmac.Equal(a[:], other[:])
}

// IsZero returns true if the authenticator is all zeros
func (a Authenticator) IsZero() bool {
	return a.Equal(Authenticator{})
}
