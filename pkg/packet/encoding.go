package packet

import (
	"encoding/binary"
	"fmt"
)

// Encode converts a Packet into its binary representation per RFC 2865 Section 3
func (p *Packet) Encode() ([]byte, error) {
	length := p.Len()
	if length > MaxPacketLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrPacketTooLong, length)
	}

	data := make([]byte, length)

	data[0] = byte(p.Code)
	data[1] = p.Identifier
	binary.BigEndian.PutUint16(data[2:4], uint16(length))
	copy(data[4:20], p.Authenticator[:])

	offset := PacketHeaderLength
	for _, attr := range p.Attributes {
		if len(attr.Value) > MaxAttributeValueLength {
			return nil, fmt.Errorf("%w: type %d carries %d bytes", ErrAttributeTooLong, attr.Type, len(attr.Value))
		}
		data[offset] = attr.Type
		data[offset+1] = uint8(attr.Len())
		copy(data[offset+AttributeHeaderLength:], attr.Value)
		offset += attr.Len()
	}

	return data, nil
}

// Decode parses binary data into a Packet per RFC 2865 Section 3.
// Octets past the Length field are padding and ignored; a shorter buffer is an error.
func Decode(data []byte) (*Packet, error) {
	if len(data) < MinPacketLength {
		return nil, fmt.Errorf("%w: too short: %d bytes", ErrMalformed, len(data))
	}

	length := int(binary.BigEndian.Uint16(data[2:4]))
	if length < MinPacketLength || length > MaxPacketLength {
		return nil, fmt.Errorf("%w: invalid length in header: %d", ErrMalformed, length)
	}
	if length > len(data) {
		return nil, fmt.Errorf("%w: header says %d bytes, got %d", ErrMalformed, length, len(data))
	}

	pkt := &Packet{
		Code:       Code(data[0]),
		Identifier: data[1],
		Attributes: make([]*Attribute, 0),
	}
	copy(pkt.Authenticator[:], data[4:20])

	offset := PacketHeaderLength
	for offset < length {
		if offset+AttributeHeaderLength > length {
			return nil, fmt.Errorf("%w: incomplete attribute header at offset %d", ErrMalformed, offset)
		}

		attrType := data[offset]
		attrLength := int(data[offset+1])

		if attrLength < AttributeHeaderLength {
			return nil, fmt.Errorf("%w: invalid attribute length %d at offset %d", ErrMalformed, attrLength, offset)
		}
		if offset+attrLength > length {
			return nil, fmt.Errorf("%w: attribute at offset %d extends beyond packet length %d", ErrMalformed, offset, length)
		}

		value := make([]byte, attrLength-AttributeHeaderLength)
		copy(value, data[offset+AttributeHeaderLength:offset+attrLength])

		pkt.Attributes = append(pkt.Attributes, &Attribute{Type: attrType, Value: value})
		offset += attrLength
	}

	return pkt, nil
}
