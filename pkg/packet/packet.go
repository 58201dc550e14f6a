package packet

import (
	"fmt"
	"strings"
)

// Packet represents a RADIUS packet as defined in RFC 2865
type Packet struct {
	Code          Code
	Identifier    uint8
	Authenticator [AuthenticatorLength]byte
	Attributes    []*Attribute
}

// New creates a new RADIUS packet with the specified code and identifier
func New(code Code, identifier uint8) *Packet {
	return &Packet{
		Code:       code,
		Identifier: identifier,
		Attributes: make([]*Attribute, 0),
	}
}

// Len returns the encoded length of the packet
func (p *Packet) Len() int {
	length := PacketHeaderLength
	for _, attr := range p.Attributes {
		length += attr.Len()
	}
	return length
}

// AddAttribute appends an attribute to the packet
func (p *Packet) AddAttribute(attr *Attribute) {
	p.Attributes = append(p.Attributes, attr)
}

// AddVendorAttribute wraps va into a Vendor-Specific attribute and appends it
func (p *Packet) AddVendorAttribute(va *VendorAttribute) error {
	attr, err := va.ToVSA()
	if err != nil {
		return err
	}
	p.AddAttribute(attr)
	return nil
}

// GetAttribute returns the first attribute with the specified type
func (p *Packet) GetAttribute(attrType uint8) (*Attribute, bool) {
	for _, attr := range p.Attributes {
		if attr.Type == attrType {
			return attr, true
		}
	}
	return nil, false
}

// GetAttributes returns all attributes with the specified type
func (p *Packet) GetAttributes(attrType uint8) []*Attribute {
	var attrs []*Attribute
	for _, attr := range p.Attributes {
		if attr.Type == attrType {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// GetVendorAttribute returns the first vendor attribute with the specified vendor ID and type
func (p *Packet) GetVendorAttribute(vendorID uint32, vendorType uint8) (*VendorAttribute, bool) {
	for _, attr := range p.GetAttributes(AttrVendorSpecific) {
		va, err := ParseVSA(attr)
		if err != nil {
			continue
		}
		if va.VendorID == vendorID && va.VendorType == vendorType {
			return va, true
		}
	}
	return nil, false
}

// ReplyMessage joins all Reply-Message attributes (RFC 2865 Section 5.18)
func (p *Packet) ReplyMessage() string {
	attrs := p.GetAttributes(AttrReplyMessage)
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = append(parts, attr.GetString())
	}
	return strings.Join(parts, "")
}

// String returns a string representation of the packet
func (p *Packet) String() string {
	return fmt.Sprintf("Code=%s(%d), ID=%d, Length=%d, Attributes=%d",
		p.Code.String(), p.Code, p.Identifier, p.Len(), len(p.Attributes))
}
