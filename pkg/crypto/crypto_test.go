package crypto

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRequestAuth = Authenticator{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}

// buildResponse returns an encoded response with a zeroed authenticator field
func buildResponse(code, identifier byte, attrs []byte) []byte {
	data := make([]byte, headerLength+len(attrs))
	data[0] = code
	data[1] = identifier
	binary.BigEndian.PutUint16(data[2:4], uint16(len(data)))
	copy(data[headerLength:], attrs)
	return data
}

func TestGenerateRequestAuthenticator(t *testing.T) {
	auth1, err := GenerateRequestAuthenticator()
	require.NoError(t, err)

	auth2, err := GenerateRequestAuthenticator()
	require.NoError(t, err)

	assert.NotEqual(t, auth1, auth2)
	assert.False(t, auth1.IsZero())
}

func TestCalculateResponseAuthenticator(t *testing.T) {
	sharedSecret := []byte("secret")
	responseData := []byte{0x01, 0x06, 0x00, 0x00, 0x00, 0x01}

	responseAuth := CalculateResponseAuthenticator(2, 123, 26, testRequestAuth, responseData, sharedSecret)
	assert.False(t, responseAuth.IsZero())

	responseAuth2 := CalculateResponseAuthenticator(2, 123, 26, testRequestAuth, responseData, sharedSecret)
	assert.Equal(t, responseAuth, responseAuth2)

	valid := ValidateResponseAuthenticator(2, 123, 26, testRequestAuth, responseData, responseAuth, sharedSecret)
	assert.True(t, valid)

	invalidAuth := responseAuth
	invalidAuth[0] ^= 0xFF
	assert.False(t, ValidateResponseAuthenticator(2, 123, 26, testRequestAuth, responseData, invalidAuth, sharedSecret))
	assert.False(t, ValidateResponseAuthenticator(2, 123, 26, testRequestAuth, responseData, responseAuth, []byte("wrongsecret")))
}

func TestSignAndVerifyResponse(t *testing.T) {
	secret := []byte("s3cr3t")
	data := buildResponse(2, 7, []byte{18, 7, 'h', 'e', 'l', 'l', 'o'})

	require.NoError(t, SignResponse(data, testRequestAuth, secret))
	assert.NoError(t, VerifyResponse(data, testRequestAuth, secret))

	t.Run("wrong secret", func(t *testing.T) {
		assert.ErrorIs(t, VerifyResponse(data, testRequestAuth, []byte("other")), ErrAuthenticatorMismatch)
	})

	t.Run("wrong request authenticator", func(t *testing.T) {
		other := testRequestAuth
		other[15] ^= 0x01
		assert.ErrorIs(t, VerifyResponse(data, other, secret), ErrAuthenticatorMismatch)
	})

	t.Run("tampered attribute", func(t *testing.T) {
		tampered := append([]byte(nil), data...)
		tampered[len(tampered)-1] ^= 0x01
		assert.ErrorIs(t, VerifyResponse(tampered, testRequestAuth, secret), ErrAuthenticatorMismatch)
	})

	t.Run("short packet", func(t *testing.T) {
		assert.ErrorIs(t, VerifyResponse(data[:10], testRequestAuth, secret), ErrShortPacket)
		assert.ErrorIs(t, SignResponse(data[:10], testRequestAuth, secret), ErrShortPacket)
	})

	t.Run("length mismatch", func(t *testing.T) {
		padded := append(append([]byte(nil), data...), 0)
		assert.Error(t, SignResponse(padded, testRequestAuth, secret))
		// verification only covers Length octets
		assert.NoError(t, VerifyResponse(padded, testRequestAuth, secret))
	})
}

func TestAuthenticatorHelpers(t *testing.T) {
	var zero Authenticator
	assert.True(t, zero.IsZero())
	assert.False(t, testRequestAuth.IsZero())

	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", testRequestAuth.String())
	assert.True(t, testRequestAuth.Equal(testRequestAuth))
	assert.False(t, testRequestAuth.Equal(zero))
}
