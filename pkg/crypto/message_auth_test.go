package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() []byte {
	return []byte{
		0x01,       // Code: Access-Request
		0x42,       // Identifier: 66
		0x00, 0x20, // Length: 32
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
		0x01, 0x06, 'u', 's', 'e', 'r', // User-Name
		0x04, 0x06, 0x01, 0x02, 0x03, 0x04, // NAS-IP-Address
	}
}

func TestAddMessageAuthenticator(t *testing.T) {
	secret := []byte("secret")

	data, err := AddMessageAuthenticator(testRequest(), secret)
	require.NoError(t, err)

	require.Len(t, data, 32+18)
	assert.Equal(t, []byte{0x00, 50}, data[2:4])
	assert.Equal(t, byte(80), data[32])
	assert.Equal(t, byte(18), data[33])
	assert.True(t, HasMessageAuthenticator(data))

	// HMAC-MD5 over the packet with a zeroed value
	zeroed := append([]byte(nil), data...)
	clear(zeroed[34:])
	mac := hmac.New(md5.New, secret)
	mac.Write(zeroed)
	assert.Equal(t, mac.Sum(nil), data[34:])

	received, err := ExtractMessageAuthenticator(data)
	require.NoError(t, err)
	valid, err := ValidateMessageAuthenticator(data, secret, received)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = ValidateMessageAuthenticator(data, []byte("other"), received)
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = AddMessageAuthenticator(data, secret)
	assert.Error(t, err)
}

func TestAddMessageAuthenticatorShortPacket(t *testing.T) {
	_, err := AddMessageAuthenticator([]byte{0x01, 0x42, 0x00, 0x04}, []byte("secret"))
	assert.ErrorIs(t, err, ErrShortPacket)

	_, err = CalculateMessageAuthenticator([]byte{0x01}, []byte("secret"))
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestResponseMessageAuthenticator(t *testing.T) {
	secret := []byte("s3cr3t")
	attrs := append([]byte{18, 4, 'o', 'k', 80, 18}, make([]byte, 16)...)
	data := buildResponse(2, 9, attrs)

	require.NoError(t, SignResponseMessageAuthenticator(data, testRequestAuth, secret))
	require.NoError(t, SignResponse(data, testRequestAuth, secret))

	present, err := VerifyResponseMessageAuthenticator(data, testRequestAuth, secret)
	assert.True(t, present)
	assert.NoError(t, err)
	assert.NoError(t, VerifyResponse(data, testRequestAuth, secret))

	t.Run("wrong request authenticator", func(t *testing.T) {
		other := testRequestAuth
		other[0] ^= 0xFF
		present, err := VerifyResponseMessageAuthenticator(data, other, secret)
		assert.True(t, present)
		assert.ErrorIs(t, err, ErrMessageAuthenticatorMismatch)
	})

	t.Run("tampered value", func(t *testing.T) {
		tampered := append([]byte(nil), data...)
		tampered[len(tampered)-1] ^= 0x01
		_, err := VerifyResponseMessageAuthenticator(tampered, testRequestAuth, secret)
		assert.ErrorIs(t, err, ErrMessageAuthenticatorMismatch)
	})

	t.Run("absent", func(t *testing.T) {
		plain := buildResponse(2, 9, []byte{18, 4, 'o', 'k'})
		present, err := VerifyResponseMessageAuthenticator(plain, testRequestAuth, secret)
		assert.False(t, present)
		assert.NoError(t, err)
		assert.Error(t, SignResponseMessageAuthenticator(plain, testRequestAuth, secret))
	})

	t.Run("bad attribute length", func(t *testing.T) {
		bad := buildResponse(2, 9, []byte{80, 4, 0, 0})
		present, err := VerifyResponseMessageAuthenticator(bad, testRequestAuth, secret)
		assert.True(t, present)
		assert.ErrorIs(t, err, ErrMessageAuthenticatorMismatch)
	})
}

func TestFindMessageAuthenticatorStopsOnMalformedAttributes(t *testing.T) {
	data := buildResponse(2, 1, []byte{1, 0, 80, 18})
	assert.NotPanics(t, func() {
		assert.False(t, HasMessageAuthenticator(data))
	})

	_, err := ExtractMessageAuthenticator(data)
	assert.Error(t, err)
}
