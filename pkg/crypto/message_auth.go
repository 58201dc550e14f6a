package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"fmt"
)

// Message-Authenticator implementation as defined in RFC 2869

const (
	// MessageAuthenticatorLength is the length of the Message-Authenticator value
	MessageAuthenticatorLength = 16

	messageAuthenticatorType    = 80
	messageAuthenticatorAttrLen = 2 + MessageAuthenticatorLength
)

// CalculateMessageAuthenticator calculates the Message-Authenticator for a RADIUS packet
// Message-Authenticator = HMAC-MD5(shared_secret, packet_with_zero_message_authenticator)
func CalculateMessageAuthenticator(packetData []byte, sharedSecret []byte) ([MessageAuthenticatorLength]byte, error) {
	var result [MessageAuthenticatorLength]byte

	if len(packetData) < headerLength {
		return result, ErrShortPacket
	}

	var auth Authenticator
	copy(auth[:], packetData[4:20])
	return calculateWithAuthenticator(packetData, auth, sharedSecret), nil
}

// calculateWithAuthenticator computes the HMAC over a copy of packetData whose
// authenticator field is replaced by auth and whose Message-Authenticator value is zeroed.
func calculateWithAuthenticator(packetData []byte, auth Authenticator, sharedSecret []byte) [MessageAuthenticatorLength]byte {
	calcData := make([]byte, len(packetData))
	copy(calcData, packetData)
	copy(calcData[4:20], auth[:])

	if offset := findMessageAuthenticatorOffset(calcData); offset != -1 {
		clear(calcData[offset : offset+MessageAuthenticatorLength])
	}

	mac := hmac.New(md5.New, sharedSecret)
	mac.Write(calcData)

	var result [MessageAuthenticatorLength]byte
	copy(result[:], mac.Sum(nil))
	return result
}

// ValidateMessageAuthenticator validates the Message-Authenticator in a RADIUS packet
func ValidateMessageAuthenticator(packetData []byte, sharedSecret []byte, receivedAuth [MessageAuthenticatorLength]byte) (bool, error) {
	expected, err := CalculateMessageAuthenticator(packetData, sharedSecret)
	if err != nil {
		return false, err
	}

	return hmac.Equal(expected[:], receivedAuth[:]), nil
}

// AddMessageAuthenticator appends a Message-Authenticator attribute to an
// encoded request, fixes the Length field and fills in the HMAC.
func AddMessageAuthenticator(packetData []byte, sharedSecret []byte) ([]byte, error) {
	if len(packetData) < headerLength {
		return nil, ErrShortPacket
	}
	if HasMessageAuthenticator(packetData) {
		return nil, fmt.Errorf("Message-Authenticator already exists in packet")
	}

	msgAuthAttr := make([]byte, messageAuthenticatorAttrLen)
	msgAuthAttr[0] = messageAuthenticatorType
	msgAuthAttr[1] = messageAuthenticatorAttrLen

	packetData = append(packetData, msgAuthAttr...)

	newLength := len(packetData)
	packetData[2] = byte(newLength >> 8)
	packetData[3] = byte(newLength)

	msgAuth, err := CalculateMessageAuthenticator(packetData, sharedSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate Message-Authenticator: %w", err)
	}

	copy(packetData[len(packetData)-MessageAuthenticatorLength:], msgAuth[:])

	return packetData, nil
}

// SignResponseMessageAuthenticator fills the Message-Authenticator of an encoded
// response. Responses are signed with the Request Authenticator in the authenticator
// field, so this must run before SignResponse.
func SignResponseMessageAuthenticator(packetData []byte, requestAuth Authenticator, sharedSecret []byte) error {
	if len(packetData) < headerLength {
		return ErrShortPacket
	}
	offset := findMessageAuthenticatorOffset(packetData)
	if offset == -1 {
		return fmt.Errorf("Message-Authenticator not found in packet")
	}

	msgAuth := calculateWithAuthenticator(packetData, requestAuth, sharedSecret)
	copy(packetData[offset:], msgAuth[:])
	return nil
}

// VerifyResponseMessageAuthenticator checks the Message-Authenticator of an encoded
// response. It reports whether the attribute was present; an absent attribute is not an error.
func VerifyResponseMessageAuthenticator(packetData []byte, requestAuth Authenticator, sharedSecret []byte) (bool, error) {
	if len(packetData) < headerLength {
		return false, ErrShortPacket
	}
	start := findMessageAuthenticatorStart(packetData)
	if start == -1 {
		return false, nil
	}
	if packetData[start+1] != messageAuthenticatorAttrLen {
		return true, fmt.Errorf("%w: attribute length %d", ErrMessageAuthenticatorMismatch, packetData[start+1])
	}

	received := packetData[start+2 : start+messageAuthenticatorAttrLen]
	expected := calculateWithAuthenticator(packetData, requestAuth, sharedSecret)
	if !hmac.Equal(expected[:], received) {
		return true, ErrMessageAuthenticatorMismatch
	}
	return true, nil
}

// findMessageAuthenticatorOffset finds the offset of the Message-Authenticator value field
func findMessageAuthenticatorOffset(packetData []byte) int {
	start := findMessageAuthenticatorStart(packetData)
	if start == -1 || packetData[start+1] != messageAuthenticatorAttrLen {
		return -1
	}
	return start + 2
}

// findMessageAuthenticatorStart finds the start of the Message-Authenticator attribute
func findMessageAuthenticatorStart(packetData []byte) int {
	if len(packetData) < headerLength {
		return -1
	}

	end := int(packetData[2])<<8 | int(packetData[3])
	if end > len(packetData) || end < headerLength {
		end = len(packetData)
	}

	offset := headerLength
	for offset+2 <= end {
		attrType := packetData[offset]
		attrLength := int(packetData[offset+1])

		if attrLength < 2 || offset+attrLength > end {
			break
		}

		if attrType == messageAuthenticatorType {
			return offset
		}

		offset += attrLength
	}

	return -1
}

// HasMessageAuthenticator checks if the packet contains a Message-Authenticator attribute
func HasMessageAuthenticator(packetData []byte) bool {
	return findMessageAuthenticatorStart(packetData) != -1
}

// ExtractMessageAuthenticator extracts the Message-Authenticator value from packet data
func ExtractMessageAuthenticator(packetData []byte) ([MessageAuthenticatorLength]byte, error) {
	var result [MessageAuthenticatorLength]byte

	offset := findMessageAuthenticatorOffset(packetData)
	if offset == -1 {
		return result, fmt.Errorf("Message-Authenticator not found in packet")
	}

	copy(result[:], packetData[offset:offset+MessageAuthenticatorLength])
	return result, nil
}
