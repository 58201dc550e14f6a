package packet

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Attribute is a single RADIUS attribute TLV
type Attribute struct {
	Type  uint8
	Value []byte
}

// VendorAttribute is the payload of a Vendor-Specific attribute (RFC 2865 Section 5.26)
type VendorAttribute struct {
	VendorID   uint32
	VendorType uint8
	Value      []byte
}

// NewAttribute creates an attribute, rejecting values that do not fit in one TLV
func NewAttribute(attrType uint8, value []byte) (*Attribute, error) {
	if len(value) > MaxAttributeValueLength {
		return nil, fmt.Errorf("%w: type %d carries %d bytes, max %d", ErrAttributeTooLong, attrType, len(value), MaxAttributeValueLength)
	}
	return &Attribute{Type: attrType, Value: value}, nil
}

// NewStringAttribute creates a text attribute
func NewStringAttribute(attrType uint8, value string) (*Attribute, error) {
	return NewAttribute(attrType, []byte(value))
}

// NewUint32Attribute creates an integer attribute
func NewUint32Attribute(attrType uint8, value uint32) *Attribute {
	return &Attribute{Type: attrType, Value: EncodeUint32(value)}
}

// NewIPv4Attribute creates an address attribute from an IPv4 address
func NewIPv4Attribute(attrType uint8, ip net.IP) (*Attribute, error) {
	value, err := EncodeIPv4(ip)
	if err != nil {
		return nil, err
	}
	return &Attribute{Type: attrType, Value: value}, nil
}

// NewIPv6Attribute creates an ipv6addr attribute (RFC 3162)
func NewIPv6Attribute(attrType uint8, ip net.IP) (*Attribute, error) {
	value, err := EncodeIPv6(ip)
	if err != nil {
		return nil, err
	}
	return &Attribute{Type: attrType, Value: value}, nil
}

// Len returns the encoded length of the attribute including its header
func (a *Attribute) Len() int {
	return AttributeHeaderLength + len(a.Value)
}

// GetString returns the value as text
func (a *Attribute) GetString() string {
	return string(a.Value)
}

// GetUint32 returns the value as a big-endian integer
func (a *Attribute) GetUint32() (uint32, error) {
	if len(a.Value) != 4 {
		return 0, fmt.Errorf("invalid integer length: %d", len(a.Value))
	}
	return binary.BigEndian.Uint32(a.Value), nil
}

// String returns a string representation of the attribute
func (a *Attribute) String() string {
	return fmt.Sprintf("%s(%d)=%x", AttributeName(a.Type), a.Type, a.Value)
}

// NewVendorAttribute creates a vendor-specific attribute payload
func NewVendorAttribute(vendorID uint32, vendorType uint8, value []byte) *VendorAttribute {
	return &VendorAttribute{
		VendorID:   vendorID,
		VendorType: vendorType,
		Value:      value,
	}
}

// ToVSA wraps the vendor payload into a Vendor-Specific (26) attribute.
// Layout: Vendor-Id(4) + Vendor-Type(1) + Vendor-Length(1) + Vendor-Data.
func (va *VendorAttribute) ToVSA() (*Attribute, error) {
	if len(va.Value)+VendorSpecificHeaderLength > MaxAttributeValueLength {
		return nil, fmt.Errorf("%w: vendor %d type %d carries %d bytes", ErrAttributeTooLong, va.VendorID, va.VendorType, len(va.Value))
	}

	value := make([]byte, VendorSpecificHeaderLength+len(va.Value))
	binary.BigEndian.PutUint32(value[0:4], va.VendorID)
	value[4] = va.VendorType
	value[5] = uint8(len(va.Value) + 2)
	copy(value[6:], va.Value)

	return &Attribute{Type: AttrVendorSpecific, Value: value}, nil
}

// String returns a string representation of the vendor attribute
func (va *VendorAttribute) String() string {
	return fmt.Sprintf("VendorID=%d, Type=%d, Value=%x", va.VendorID, va.VendorType, va.Value)
}

// ParseVSA parses a Vendor-Specific attribute into its vendor payload
func ParseVSA(attr *Attribute) (*VendorAttribute, error) {
	if attr.Type != AttrVendorSpecific {
		return nil, fmt.Errorf("not a vendor-specific attribute (type %d)", attr.Type)
	}

	if len(attr.Value) < VendorSpecificHeaderLength {
		return nil, fmt.Errorf("%w: VSA too short: %d", ErrMalformed, len(attr.Value))
	}

	vendorLength := int(attr.Value[5])
	if vendorLength != len(attr.Value)-4 {
		return nil, fmt.Errorf("%w: vendor length %d, expected %d", ErrMalformed, vendorLength, len(attr.Value)-4)
	}

	return &VendorAttribute{
		VendorID:   binary.BigEndian.Uint32(attr.Value[0:4]),
		VendorType: attr.Value[4],
		Value:      append([]byte(nil), attr.Value[6:]...),
	}, nil
}
