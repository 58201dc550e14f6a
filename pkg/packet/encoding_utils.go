package packet

import (
	"encoding/binary"
	"fmt"
	"net"
)

// EncodeUint32 encodes a uint32 value as a 4-byte big-endian slice
func EncodeUint32(value uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, value)
	return buf
}

// DecodeUint32 decodes a 4-byte big-endian slice to uint32
func DecodeUint32(data []byte) uint32 {
	if len(data) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(data[:4])
}

// EncodeIPv4 encodes an IPv4 address as a 4-byte slice
func EncodeIPv4(ip net.IP) ([]byte, error) {
	ipv4 := ip.To4()
	if ipv4 == nil {
		return nil, fmt.Errorf("not an IPv4 address: %v", ip)
	}
	return append([]byte(nil), ipv4...), nil
}

// EncodeIPv6 encodes an IPv6 address as a 16-byte slice
func EncodeIPv6(ip net.IP) ([]byte, error) {
	if ip == nil || ip.To4() != nil {
		return nil, fmt.Errorf("not an IPv6 address: %v", ip)
	}
	ipv6 := ip.To16()
	if ipv6 == nil {
		return nil, fmt.Errorf("not an IPv6 address: %v", ip)
	}
	return append([]byte(nil), ipv6...), nil
}

// DecodeIPAddress decodes a 4 or 16 byte slice into an IP address
func DecodeIPAddress(data []byte) (net.IP, error) {
	switch len(data) {
	case net.IPv4len, net.IPv6len:
		return net.IP(append([]byte(nil), data...)), nil
	default:
		return nil, fmt.Errorf("invalid IP address length: %d", len(data))
	}
}
