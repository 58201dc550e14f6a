package crypto

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
)

// MaxUserPasswordLength is the longest cleartext User-Password RFC 2865 allows
const MaxUserPasswordLength = 128

const passwordBlockLength = md5.Size

var (
	// ErrPasswordTooLong is returned for passwords longer than MaxUserPasswordLength
	ErrPasswordTooLong = errors.New("user-password too long")
	// ErrInvalidHiddenPassword is returned for hidden values that are not whole blocks
	ErrInvalidHiddenPassword = errors.New("invalid hidden user-password length")
)

// EncryptUserPassword hides a password as described in RFC 2865 Section 5.2:
//
//	b1 = MD5(S + RA)       c(1) = p1 xor b1
//	bi = MD5(S + c(i-1))   c(i) = pi xor bi
//
// The password is NUL padded to a multiple of 16 octets first.
func EncryptUserPassword(password, sharedSecret []byte, requestAuth Authenticator) ([]byte, error) {
	if len(password) > MaxUserPasswordLength {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrPasswordTooLong, len(password), MaxUserPasswordLength)
	}

	size := len(password)
	if size == 0 || size%passwordBlockLength != 0 {
		size += passwordBlockLength - size%passwordBlockLength
	}

	hidden := make([]byte, size)
	copy(hidden, password)

	prev := requestAuth[:]
	for offset := 0; offset < size; offset += passwordBlockLength {
		block := passwordKeystream(sharedSecret, prev)
		for i := 0; i < passwordBlockLength; i++ {
			hidden[offset+i] ^= block[i]
		}
		prev = hidden[offset : offset+passwordBlockLength]
	}

	return hidden, nil
}

// DecryptUserPassword reverses EncryptUserPassword and strips the NUL padding
func DecryptUserPassword(hidden, sharedSecret []byte, requestAuth Authenticator) ([]byte, error) {
	if len(hidden) == 0 || len(hidden)%passwordBlockLength != 0 || len(hidden) > MaxUserPasswordLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidHiddenPassword, len(hidden))
	}

	password := make([]byte, len(hidden))
	prev := requestAuth[:]
	for offset := 0; offset < len(hidden); offset += passwordBlockLength {
		block := passwordKeystream(sharedSecret, prev)
		for i := 0; i < passwordBlockLength; i++ {
			password[offset+i] = hidden[offset+i] ^ block[i]
		}
		prev = hidden[offset : offset+passwordBlockLength]
	}

	return bytes.TrimRight(password, "\x00"), nil
}

func passwordKeystream(sharedSecret, prev []byte) []byte {
	hash := md5.New()
	hash.Write(sharedSecret)
	hash.Write(prev)
	return hash.Sum(nil)
}
