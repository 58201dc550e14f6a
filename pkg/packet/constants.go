package packet

import "errors"

const (
	// PacketHeaderLength is the length of the RADIUS packet header in bytes
	PacketHeaderLength = 20
	// MaxPacketLength is the maximum allowed RADIUS packet length
	MaxPacketLength = 4096
	// MinPacketLength is the minimum allowed RADIUS packet length
	MinPacketLength = PacketHeaderLength
	// AuthenticatorLength is the length of the authenticator field
	AuthenticatorLength = 16
	// AttributeHeaderLength is the length of attribute header (Type + Length)
	AttributeHeaderLength = 2
	// MaxAttributeValueLength is the largest value an attribute can carry
	MaxAttributeValueLength = 255 - AttributeHeaderLength
	// VendorSpecificHeaderLength is the length of the VSA value header (Vendor-Id + Vendor-Type + Vendor-Length)
	VendorSpecificHeaderLength = 6
)

var (
	// ErrMalformed is wrapped by every Decode failure.
	ErrMalformed = errors.New("malformed packet")
	// ErrAttributeTooLong is returned when a value does not fit in one attribute.
	ErrAttributeTooLong = errors.New("attribute value too long")
	// ErrPacketTooLong is returned when an encoded packet would exceed MaxPacketLength.
	ErrPacketTooLong = errors.New("packet too long")
)
